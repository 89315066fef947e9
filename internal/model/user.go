// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// ID is an internal xid string: time-sortable, generated once at creation,
// never changed afterwards. Email is unique among non-deleted users and is
// the login credential; PasswordHash is a bcrypt hash and is never serialized.
//
// Optional profile fields use the empty string as "not set" rather than
// nullable pointers. Position and CareerLevel hold a canonical enum label
// ("" when unset); see enum.go for the closed label sets.
type User struct {
	ID               string     `json:"id"               db:"id"`
	Email            string     `json:"email"            db:"email"`
	PasswordHash     string     `json:"-"                db:"password_hash"`
	Name             string     `json:"name"             db:"name"`
	ProfileImageURL  string     `json:"profileImageUrl"  db:"profile_image_url"`
	Description      string     `json:"description"      db:"description"`
	GithubURL        string     `json:"githubUrl"        db:"github_url"`
	Position         string     `json:"position"         db:"position"`
	DetailedPosition string     `json:"detailedPosition" db:"detailed_position"`
	CareerLevel      string     `json:"careerLevel"      db:"career_level"`
	CreatedAt        time.Time  `json:"createdAt"        db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt"        db:"updated_at"`
	DeletedAt        *time.Time `json:"deletedAt,omitempty" db:"deleted_at"` // deletion marker, not consulted by core read paths
}

// GithubLink is the record of a user's linked GitHub identity.
//
// The mapping user↔github-id is 1:1 in both directions: user_id and github_id
// each carry a UNIQUE constraint. Relinking by the same user mutates this row
// in place; the row's own ID never transfers to another user.
type GithubLink struct {
	ID             string    `json:"id"             db:"id"`
	UserID         string    `json:"userId"         db:"user_id"`
	GithubID       int64     `json:"githubId"       db:"github_id"` // GitHub's numeric user ID, stable across username changes
	GithubUsername string    `json:"githubUsername" db:"github_username"`
	AccessToken    string    `json:"-"              db:"access_token"`
	AvatarURL      string    `json:"avatarUrl"      db:"avatar_url"`
	CreatedAt      time.Time `json:"createdAt"      db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

// UserSummary is the public projection of a User returned by search.
// It carries every public profile field and never the password hash.
type UserSummary struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	ProfileImageURL  string    `json:"profileImageUrl"`
	Description      string    `json:"description"`
	GithubURL        string    `json:"githubUrl"`
	Position         string    `json:"position"`
	DetailedPosition string    `json:"detailedPosition"`
	CareerLevel      string    `json:"careerLevel"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Summary projects a User into its public search representation.
func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		ProfileImageURL:  u.ProfileImageURL,
		Description:      u.Description,
		GithubURL:        u.GithubURL,
		Position:         u.Position,
		DetailedPosition: u.DetailedPosition,
		CareerLevel:      u.CareerLevel,
		CreatedAt:        u.CreatedAt,
	}
}
