package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tanvir/identity/internal/service"
)

// UserHandler exposes account creation, lookup, profile update, skill
// tagging, and search.
type UserHandler struct {
	accounts *service.AccountService
	profiles *service.ProfileService
	search   *service.SearchService
	logger   *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(
	accounts *service.AccountService,
	profiles *service.ProfileService,
	search *service.SearchService,
	logger *slog.Logger,
) *UserHandler {
	return &UserHandler{
		accounts: accounts,
		profiles: profiles,
		search:   search,
		logger:   logger,
	}
}

type createUserBody struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profileImageUrl"`
	Description     string `json:"description"`
	GithubURL       string `json:"githubUrl"`
}

// HandleCreate registers a new account.
//
// HTTP: POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createUserBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "request body must be valid JSON",
		})
		return
	}

	user, err := h.accounts.CreateUser(r.Context(), service.CreateUserRequest{
		Email:           body.Email,
		Password:        body.Password,
		Name:            body.Name,
		ProfileImageURL: body.ProfileImageURL,
		Description:     body.Description,
		GithubURL:       body.GithubURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns a single user.
//
// HTTP: GET /api/users/{userID}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleUpdate applies a partial profile update. Fields absent from the JSON
// body stay nil in the request struct and are left unchanged.
//
// HTTP: PATCH /api/users/{userID}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "request body must be valid JSON",
		})
		return
	}

	user, err := h.profiles.UpdateUser(r.Context(), chi.URLParam(r, "userID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type tagSkillsBody struct {
	SkillIDs []string `json:"skillIds"`
}

// HandleTagSkills records skill associations for a user.
//
// HTTP: POST /api/users/{userID}/skills
func (h *UserHandler) HandleTagSkills(w http.ResponseWriter, r *http.Request) {
	var body tagSkillsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "request body must be valid JSON",
		})
		return
	}

	if err := h.accounts.TagSkills(r.Context(), chi.URLParam(r, "userID"), body.SkillIDs); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleSearch runs the filtered, paginated user search.
//
// HTTP: GET /api/users?keyword=&skills=a,b&limit=20&offset=0
// The skills parameter is a comma-separated list of opaque skill ids.
func (h *UserHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var skillIDs []string
	if raw := q.Get("skills"); raw != "" {
		skillIDs = strings.Split(raw, ",")
	}

	// Unparseable numbers fall back to 0; the service clamps from there.
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	result, err := h.search.SearchUsers(r.Context(), q.Get("keyword"), skillIDs, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleExists reports whether a user id is taken.
//
// HTTP: GET /api/users/{userID}/exists
func (h *UserHandler) HandleExists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.accounts.UserExists(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

// HandleEmailExists reports whether an email is taken.
//
// HTTP: GET /api/emails/exists?email=
func (h *UserHandler) HandleEmailExists(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "email query parameter is required", Field: "email",
		})
		return
	}

	exists, err := h.accounts.EmailExists(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}
