package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// ProfileService applies partial profile updates onto existing user records.
type ProfileService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewProfileService creates a ProfileService.
func NewProfileService(users repository.UserRepository, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		users:  users,
		logger: logger,
	}
}

// UpdateUserRequest is a partial update: every field is independently
// optional, with nil meaning "leave unchanged". An empty string clears the
// field. Email and password are not part of this request at all; this
// operation never mutates them.
type UpdateUserRequest struct {
	Name             *string `json:"name"`
	ProfileImageURL  *string `json:"profileImageUrl"`
	Description      *string `json:"description"`
	GithubURL        *string `json:"githubUrl"`
	Position         *string `json:"position"`
	DetailedPosition *string `json:"detailedPosition"`
	CareerLevel      *string `json:"careerLevel"`
}

// UpdateUser merges the present fields of req onto the stored record.
//
// Fetch-then-update: the existing record is loaded (ErrNotFound if absent),
// each non-nil request field overwrites the corresponding record field, and
// the result is persisted with a fresh UpdatedAt. An entirely empty request
// still bumps UpdatedAt.
//
// Position and CareerLevel are validated against their closed label sets
// before any write; an unknown label fails the whole merge with
// ErrValidation and leaves the stored record untouched.
//
// Two concurrent merges on the same user race at the store: the write is a
// single UPDATE with no version check, so the last one wins.
func (s *ProfileService) UpdateUser(ctx context.Context, userID string, req UpdateUserRequest) (*model.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Validate enum labels first so an invalid request aborts before any
	// field is applied.
	var position, careerLevel string
	if req.Position != nil && *req.Position != "" {
		p, ok := model.ParsePosition(*req.Position)
		if !ok {
			return nil, apperror.ValidationFailed("position",
				fmt.Sprintf("unknown position label %q", *req.Position))
		}
		position = string(p)
	}
	if req.CareerLevel != nil && *req.CareerLevel != "" {
		c, ok := model.ParseCareerLevel(*req.CareerLevel)
		if !ok {
			return nil, apperror.ValidationFailed("careerLevel",
				fmt.Sprintf("unknown career level label %q", *req.CareerLevel))
		}
		careerLevel = string(c)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name must not be empty")
		}
		user.Name = name
	}
	if req.ProfileImageURL != nil {
		user.ProfileImageURL = *req.ProfileImageURL
	}
	if req.Description != nil {
		user.Description = *req.Description
	}
	if req.GithubURL != nil {
		user.GithubURL = *req.GithubURL
	}
	if req.Position != nil {
		user.Position = position
	}
	if req.DetailedPosition != nil {
		user.DetailedPosition = *req.DetailedPosition
	}
	if req.CareerLevel != nil {
		user.CareerLevel = careerLevel
	}

	user.UpdatedAt = time.Now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/profile: updating user %s: %w", userID, err)
	}

	s.logger.Info("user profile updated", slog.String("userID", user.ID))

	return user, nil
}
