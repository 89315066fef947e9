package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/auth"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// Hand-written in-memory fakes for the repository interfaces, in the same
// spirit as the store they stand in for: the mock Search applies the exact
// filter and ordering contract so the service tests exercise the real query
// semantics without a database.

type mockUserRepo struct {
	users  map[string]*model.User
	skills map[string]map[string]struct{} // userID -> set of skill ids
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users:  make(map[string]*model.User),
		skills: make(map[string]map[string]struct{}),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	m.nextID++
	now := time.Now()
	user.ID = fmt.Sprintf("user-%03d", m.nextID)
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

func (m *mockUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) TagSkill(_ context.Context, userID, skillID string) error {
	set, ok := m.skills[userID]
	if !ok {
		set = make(map[string]struct{})
		m.skills[userID] = set
	}
	set[skillID] = struct{}{}
	return nil
}

// matches applies the filter contract: case-sensitive substring keyword over
// name OR email, and every requested skill id present among the user's tags.
func (m *mockUserRepo) matches(u *model.User, filter repository.SearchFilter) bool {
	if filter.Keyword != "" {
		if !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Email, filter.Keyword) {
			return false
		}
	}
	if len(filter.SkillIDs) > 0 {
		tagged := m.skills[u.ID]
		for _, id := range filter.SkillIDs {
			if _, ok := tagged[id]; !ok {
				return false
			}
		}
	}
	return true
}

func (m *mockUserRepo) matching(filter repository.SearchFilter) []model.User {
	var result []model.User
	for _, u := range m.users {
		if m.matches(u, filter) {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		if result[i].Email != result[j].Email {
			return result[i].Email < result[j].Email
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (m *mockUserRepo) Search(_ context.Context, filter repository.SearchFilter, page repository.PageRequest) ([]model.User, error) {
	result := m.matching(filter)
	if page.Offset >= len(result) {
		return nil, nil
	}
	result = result[page.Offset:]
	if page.Limit > 0 && page.Limit < len(result) {
		result = result[:page.Limit]
	}
	return result, nil
}

func (m *mockUserRepo) Count(_ context.Context, filter repository.SearchFilter) (int, error) {
	return len(m.matching(filter)), nil
}

type mockLinkRepo struct {
	links  map[string]*model.GithubLink // keyed by link ID
	nextID int
}

func newMockLinkRepo() *mockLinkRepo {
	return &mockLinkRepo{links: make(map[string]*model.GithubLink)}
}

func (m *mockLinkRepo) CreateLink(_ context.Context, link *model.GithubLink) error {
	for _, l := range m.links {
		if l.UserID == link.UserID || l.GithubID == link.GithubID {
			return apperror.Conflict("github link", "github account already linked")
		}
	}
	m.nextID++
	now := time.Now()
	link.ID = fmt.Sprintf("link-%03d", m.nextID)
	link.CreatedAt = now
	link.UpdatedAt = now

	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *mockLinkRepo) UpdateLink(_ context.Context, link *model.GithubLink) error {
	if _, ok := m.links[link.ID]; !ok {
		return apperror.NotFound("github link", link.ID)
	}
	stored := *link
	m.links[link.ID] = &stored
	return nil
}

func (m *mockLinkRepo) GetLinkByUserID(_ context.Context, userID string) (*model.GithubLink, error) {
	for _, l := range m.links {
		if l.UserID == userID {
			result := *l
			return &result, nil
		}
	}
	return nil, apperror.NotFound("github link", userID)
}

func (m *mockLinkRepo) GetLinkByGithubID(_ context.Context, githubID int64) (*model.GithubLink, error) {
	for _, l := range m.links {
		if l.GithubID == githubID {
			result := *l
			return &result, nil
		}
	}
	return nil, apperror.NotFound("github link", fmt.Sprintf("%d", githubID))
}

// testLogger keeps test output quiet unless something goes wrong.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// createTestAccount registers a user through the real AccountService so the
// password is properly hashed.
func createTestAccount(t *testing.T, svc *AccountService, email, password, name string) *model.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		t.Fatalf("failed to create test account %s: %v", email, err)
	}
	return user
}

func newTestAccountService() (*AccountService, *mockUserRepo) {
	repo := newMockUserRepo()
	svc := NewAccountService(repo, auth.NewPasswordServiceForTest(4), testLogger())
	return svc, repo
}
