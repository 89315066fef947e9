// Package service contains the business logic layer: account lifecycle,
// credential verification, profile merging, github link reconciliation, and
// user search. Each service depends on the repository interfaces only;
// handlers translate its categorical errors to HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/auth"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// AccountService owns account creation, lookup, and credential verification.
type AccountService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAccountService creates an AccountService with its dependencies.
func NewAccountService(users repository.UserRepository, passwords *auth.PasswordService, logger *slog.Logger) *AccountService {
	return &AccountService{
		users:     users,
		passwords: passwords,
		logger:    logger,
	}
}

// CreateUserRequest carries the signup fields. Email, Password, and Name are
// required; the rest default to empty.
type CreateUserRequest struct {
	Email           string
	Password        string
	Name            string
	ProfileImageURL string
	Description     string
	GithubURL       string
}

// CreateUser registers a new account. The plaintext password is hashed before
// anything is stored; a duplicate email fails with ErrConflict.
func (s *AccountService) CreateUser(ctx context.Context, req CreateUserRequest) (*model.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	if req.Email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if req.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if req.Name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("service/account: checking email %s: %w", req.Email, err)
	}
	if exists {
		return nil, apperror.Conflict("user", "email already registered")
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:           req.Email,
		PasswordHash:    hash,
		Name:            req.Name,
		ProfileImageURL: req.ProfileImageURL,
		Description:     req.Description,
		GithubURL:       req.GithubURL,
	}

	// The repository assigns ID and timestamps. The UNIQUE constraint on
	// email still backs the existence check above against races.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/account: creating user (email=%s): %w", req.Email, err)
	}

	s.logger.Info("user created",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// VerifyCredentials checks an email/plaintext-password pair and returns the
// matching user's id. An unknown email fails with ErrNotFound; a hash
// mismatch fails with ErrWrongPassword. The email is matched exactly as
// stored; no normalization happens here. No side effects either way.
func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		s.logger.Info("credential verification failed",
			slog.String("userID", user.ID),
		)
		return "", apperror.WrongPassword()
	}

	return user.ID, nil
}

// GetUser returns the user for the given internal ID.
func (s *AccountService) GetUser(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	return s.users.GetByID(ctx, id)
}

// UserExists reports whether a user exists with the given id.
func (s *AccountService) UserExists(ctx context.Context, id string) (bool, error) {
	exists, err := s.users.ExistsByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("service/account: checking user %s: %w", id, err)
	}
	return exists, nil
}

// EmailExists reports whether a user exists with the given email.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("service/account: checking email %s: %w", email, err)
	}
	return exists, nil
}

// TagSkills associates the given opaque skill ids with a user. Skill ids are
// external references; this only records the association search filters on.
func (s *AccountService) TagSkills(ctx context.Context, userID string, skillIDs []string) error {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("service/account: checking user %s: %w", userID, err)
	}
	if !exists {
		return apperror.NotFound("user", userID)
	}

	for _, skillID := range skillIDs {
		skillID = strings.TrimSpace(skillID)
		if skillID == "" {
			continue
		}
		if err := s.users.TagSkill(ctx, userID, skillID); err != nil {
			return fmt.Errorf("service/account: tagging skill %s: %w", skillID, err)
		}
	}
	return nil
}
