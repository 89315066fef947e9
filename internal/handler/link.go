package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"
	"github.com/tanvir/identity/internal/auth"
	"github.com/tanvir/identity/internal/service"
)

// LinkHandler manages GitHub account linking, both the browser OAuth flow
// and the direct JSON endpoint for callers that already hold a GitHub
// identity.
type LinkHandler struct {
	github *auth.GitHubProvider
	links  *service.LinkService
	logger *slog.Logger
}

// NewLinkHandler creates a LinkHandler. The github provider may be nil when
// OAuth credentials are not configured; the direct endpoint still works.
func NewLinkHandler(github *auth.GitHubProvider, links *service.LinkService, logger *slog.Logger) *LinkHandler {
	return &LinkHandler{
		github: github,
		links:  links,
		logger: logger,
	}
}

type linkBody struct {
	UserID         string `json:"userId"`
	GithubID       int64  `json:"githubId"`
	GithubUsername string `json:"githubUsername"`
	AccessToken    string `json:"accessToken"`
	AvatarURL      string `json:"avatarUrl"`
}

// HandleLink links (or relinks) a GitHub identity to a user.
//
// HTTP: PUT /api/users/{userID}/github-link
// The acting user comes from the route; the body names the target user. The
// service rejects the request when the two differ.
func (h *LinkHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	var body linkBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid_json", Message: "request body must be valid JSON",
		})
		return
	}

	link, err := h.links.LinkGithubAccount(r.Context(), chi.URLParam(r, "userID"), service.LinkRequest{
		UserID:         body.UserID,
		GithubID:       body.GithubID,
		GithubUsername: body.GithubUsername,
		AccessToken:    body.AccessToken,
		AvatarURL:      body.AvatarURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// HandleGitHubAuthorize starts the OAuth flow for the given user.
//
// HTTP: GET /auth/github?user_id=xxx
//
// A random state value goes into a short-lived HttpOnly cookie and onto the
// authorization URL; the callback rejects any flow whose state does not match
// the cookie. A second cookie remembers which user initiated the flow.
func (h *LinkHandler) HandleGitHubAuthorize(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "oauth_disabled", Message: "GitHub OAuth is not configured",
		})
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "user_id query parameter is required", Field: "user_id",
		})
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "link_user",
		Value:    userID,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: it validates the state,
// exchanges the code for a GitHub identity, and runs the same link pipeline
// as the direct endpoint with the cookie's user as both acting and target
// user.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *LinkHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	if h.github == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
			Error: "oauth_disabled", Message: "GitHub OAuth is not configured",
		})
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("link callback: state mismatch or missing cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	userCookie, err := r.Cookie("link_user")
	if err != nil || userCookie.Value == "" {
		http.Error(w, "missing link user", http.StatusBadRequest)
		return
	}

	// Both cookies are single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: "link_user", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("link callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Error(w, "authorization denied", http.StatusForbidden)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	identity, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("link callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "github exchange failed", http.StatusBadGateway)
		return
	}

	link, err := h.links.LinkGithubAccount(r.Context(), userCookie.Value, service.LinkRequest{
		UserID:         userCookie.Value,
		GithubID:       identity.ID,
		GithubUsername: identity.Login,
		AccessToken:    identity.AccessToken,
		AvatarURL:      identity.AvatarURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}
