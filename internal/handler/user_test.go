package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanvir/identity/internal/auth"
	"github.com/tanvir/identity/internal/handler"
	"github.com/tanvir/identity/internal/model"
	sqliteRepo "github.com/tanvir/identity/internal/repository/sqlite"
	"github.com/tanvir/identity/internal/service"
)

// testEnv wires the real services over an in-memory sqlite store, so the
// handler tests cover the full stack below the router.
type testEnv struct {
	users *handler.UserHandler
	auth  *handler.AuthHandler
	link  *handler.LinkHandler

	accounts *service.AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	passwords := auth.NewPasswordServiceForTest(4)

	accounts := service.NewAccountService(db, passwords, logger)
	profiles := service.NewProfileService(db, logger)
	links := service.NewLinkService(db, logger)
	search := service.NewSearchService(db, logger)

	return &testEnv{
		users:    handler.NewUserHandler(accounts, profiles, search, logger),
		auth:     handler.NewAuthHandler(accounts, logger),
		link:     handler.NewLinkHandler(nil, links, logger),
		accounts: accounts,
	}
}

func (e *testEnv) createUser(t *testing.T, email, password, name string) *model.User {
	t.Helper()
	user, err := e.accounts.CreateUser(context.Background(), service.CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
	require.NoError(t, err)
	return user
}

func jsonRequest(method, target string, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// setPathValue attaches a chi route parameter to the request, matching how
// the router supplies path values when handlers are invoked directly.
func setPathValue(req *http.Request, key, value string) {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	*req = *req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUserHandler_HandleCreate(t *testing.T) {
	t.Run("valid signup", func(t *testing.T) {
		env := newTestEnv(t)

		req := jsonRequest(http.MethodPost, "/api/users",
			`{"email":"new@example.com","password":"hunter22","name":"Newbie"}`)
		rr := httptest.NewRecorder()

		env.users.HandleCreate(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		raw := rr.Body.String()
		var user model.User
		require.NoError(t, json.Unmarshal([]byte(raw), &user))
		assert.NotEmpty(t, user.ID)
		assert.Equal(t, "new@example.com", user.Email)
		// The hash is json:"-" and must never appear in any response.
		assert.NotContains(t, raw, "password")
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		env := newTestEnv(t)
		env.createUser(t, "taken@example.com", "hunter22", "First")

		req := jsonRequest(http.MethodPost, "/api/users",
			`{"email":"taken@example.com","password":"other-pw","name":"Second"}`)
		rr := httptest.NewRecorder()

		env.users.HandleCreate(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "conflict", res.Error)
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		env := newTestEnv(t)

		req := jsonRequest(http.MethodPost, "/api/users", `{not json`)
		rr := httptest.NewRecorder()

		env.users.HandleCreate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuthHandler_HandleLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "login@example.com", "correct-pw", "Login")

	t.Run("correct credentials", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/auth/login",
			`{"email":"login@example.com","password":"correct-pw"}`)
		rr := httptest.NewRecorder()

		env.auth.HandleLogin(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var res struct {
			UserID string `json:"userId"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, user.ID, res.UserID)
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/auth/login",
			`{"email":"login@example.com","password":"wrong-pw"}`)
		rr := httptest.NewRecorder()

		env.auth.HandleLogin(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("unknown email returns 404", func(t *testing.T) {
		req := jsonRequest(http.MethodPost, "/api/auth/login",
			`{"email":"ghost@example.com","password":"whatever"}`)
		rr := httptest.NewRecorder()

		env.auth.HandleLogin(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUserHandler_HandleUpdate(t *testing.T) {
	t.Run("partial update applies present fields", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "patch@example.com", "hunter22", "Before")

		req := jsonRequest(http.MethodPatch, "/api/users/"+user.ID,
			`{"name":"After","position":"backend"}`)
		setPathValue(req, "userID", user.ID)
		rr := httptest.NewRecorder()

		env.users.HandleUpdate(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var updated model.User
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
		assert.Equal(t, "After", updated.Name)
		assert.Equal(t, "backend", updated.Position)
		assert.Equal(t, "patch@example.com", updated.Email)
	})

	t.Run("unknown enum label returns 400 with field", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "enum@example.com", "hunter22", "Enum")

		req := jsonRequest(http.MethodPatch, "/api/users/"+user.ID,
			`{"position":"wizard"}`)
		setPathValue(req, "userID", user.ID)
		rr := httptest.NewRecorder()

		env.users.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "validation_error", res.Error)
		assert.Equal(t, "position", res.Field)
	})

	t.Run("missing user returns 404", func(t *testing.T) {
		env := newTestEnv(t)

		req := jsonRequest(http.MethodPatch, "/api/users/nobody", `{"name":"X"}`)
		setPathValue(req, "userID", "nobody")
		rr := httptest.NewRecorder()

		env.users.HandleUpdate(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestLinkHandler_HandleLink(t *testing.T) {
	t.Run("link and relink", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "linker@example.com", "hunter22", "Linker")

		body := fmt.Sprintf(`{"userId":%q,"githubId":123,"githubUsername":"octo","accessToken":"gho_1"}`, user.ID)
		req := jsonRequest(http.MethodPut, "/api/users/"+user.ID+"/github-link", body)
		setPathValue(req, "userID", user.ID)
		rr := httptest.NewRecorder()

		env.link.HandleLink(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		raw := rr.Body.String()
		var first model.GithubLink
		require.NoError(t, json.Unmarshal([]byte(raw), &first))
		assert.Equal(t, int64(123), first.GithubID)
		// The stored token is json:"-" and must not leak.
		assert.NotContains(t, raw, "gho_1")

		// Relink with a new github id reuses the row.
		body = fmt.Sprintf(`{"userId":%q,"githubId":456,"githubUsername":"octo2","accessToken":"gho_2"}`, user.ID)
		req = jsonRequest(http.MethodPut, "/api/users/"+user.ID+"/github-link", body)
		setPathValue(req, "userID", user.ID)
		rr = httptest.NewRecorder()

		env.link.HandleLink(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var second model.GithubLink
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&second))
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, int64(456), second.GithubID)
	})

	t.Run("acting user mismatch returns 403", func(t *testing.T) {
		env := newTestEnv(t)
		user := env.createUser(t, "victim@example.com", "hunter22", "Victim")

		body := fmt.Sprintf(`{"userId":%q,"githubId":123}`, user.ID)
		req := jsonRequest(http.MethodPut, "/api/users/attacker/github-link", body)
		setPathValue(req, "userID", "attacker")
		rr := httptest.NewRecorder()

		env.link.HandleLink(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("github id claimed by another user returns 409", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.createUser(t, "a@example.com", "hunter22", "A")
		b := env.createUser(t, "b@example.com", "hunter22", "B")

		body := fmt.Sprintf(`{"userId":%q,"githubId":777}`, a.ID)
		req := jsonRequest(http.MethodPut, "/api/users/"+a.ID+"/github-link", body)
		setPathValue(req, "userID", a.ID)
		rr := httptest.NewRecorder()
		env.link.HandleLink(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		body = fmt.Sprintf(`{"userId":%q,"githubId":777}`, b.ID)
		req = jsonRequest(http.MethodPut, "/api/users/"+b.ID+"/github-link", body)
		setPathValue(req, "userID", b.ID)
		rr = httptest.NewRecorder()
		env.link.HandleLink(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestUserHandler_HandleSearch(t *testing.T) {
	env := newTestEnv(t)
	a := env.createUser(t, "ada@example.com", "hunter22", "Ada")
	env.createUser(t, "grace@example.com", "hunter22", "Grace")
	require.NoError(t, env.accounts.TagSkills(context.Background(), a.ID, []string{"go", "sqlite"}))

	t.Run("skill filter narrows results", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users?skills=go,sqlite", nil)
		rr := httptest.NewRecorder()

		env.users.HandleSearch(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result service.SearchResult
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
		assert.Equal(t, 1, result.TotalCount)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Ada", result.Items[0].Name)
	})

	t.Run("no filters returns everyone with paging metadata", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users?limit=1&offset=1", nil)
		rr := httptest.NewRecorder()

		env.users.HandleSearch(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var result service.SearchResult
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
		assert.Equal(t, 2, result.TotalCount)
		require.Len(t, result.Items, 1)
		assert.Equal(t, "Grace", result.Items[0].Name) // (name, email, id) order
		assert.Equal(t, 1, result.Limit)
		assert.Equal(t, 1, result.Offset)
	})
}
