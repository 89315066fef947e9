// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/tanvir/identity/internal/model"
)

// PageRequest is a limit/offset window applied after filtering and ordering.
type PageRequest struct {
	Limit  int
	Offset int
}

// SearchFilter is the structured filter specification for user search.
// A zero-value field disables its predicate: an empty Keyword matches every
// row, an empty SkillIDs slice matches every row. When SkillIDs is non-empty,
// a user matches only if it is tagged with every id in the slice.
//
// The service builds this struct; the storage adapter translates it into its
// own query language. Keyword matching is a case-sensitive substring test
// against name OR email.
type SearchFilter struct {
	Keyword  string
	SkillIDs []string
}

// UserRepository is the store capability for user records.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Update persists every mutable field of an already-created user as a
	// single write. Last write wins; there is no version check.
	Update(ctx context.Context, user *model.User) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Search returns one page of matching users ordered by (name, email, id)
	// ascending. Count returns the total number of rows matching the same
	// filter, ignoring paging.
	Search(ctx context.Context, filter SearchFilter, page PageRequest) ([]model.User, error)
	Count(ctx context.Context, filter SearchFilter) (int, error)
	// TagSkill associates an opaque skill id with a user. Tagging the same
	// pair twice is a no-op, not an error.
	TagSkill(ctx context.Context, userID, skillID string) error
}

// GithubLinkRepository is the store capability for github link records.
// The lookup methods return apperror.ErrNotFound when no row matches.
// Method names carry a Link prefix because the sqlite store implements this
// interface and UserRepository on the same type.
type GithubLinkRepository interface {
	CreateLink(ctx context.Context, link *model.GithubLink) error
	UpdateLink(ctx context.Context, link *model.GithubLink) error
	GetLinkByUserID(ctx context.Context, userID string) (*model.GithubLink, error)
	GetLinkByGithubID(ctx context.Context, githubID int64) (*model.GithubLink, error)
}
