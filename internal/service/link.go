package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// LinkService reconciles GitHub identities against user accounts.
type LinkService struct {
	links  repository.GithubLinkRepository
	logger *slog.Logger
}

// NewLinkService creates a LinkService.
func NewLinkService(links repository.GithubLinkRepository, logger *slog.Logger) *LinkService {
	return &LinkService{
		links:  links,
		logger: logger,
	}
}

// LinkRequest names the user to link and the GitHub identity to attach.
type LinkRequest struct {
	UserID         string `json:"userId"`
	GithubID       int64  `json:"githubId"`
	GithubUsername string `json:"githubUsername"`
	AccessToken    string `json:"accessToken"`
	AvatarURL      string `json:"avatarUrl"`
}

// LinkGithubAccount associates a GitHub identity with a user account through
// three checks, in this order:
//
//  1. Ownership: the acting user must be the user named in the request;
//     a mismatch fails with ErrForbidden.
//  2. Uniqueness: a github id already claimed by a different user fails with
//     ErrConflict.
//  3. Reconciliation: with no existing link for the acting user a new row is
//     created; an existing link is overwritten in place (github id, username,
//     token, avatar, UpdatedAt), keeping its row id.
//
// Ownership comes before uniqueness so a caller probing someone else's
// account learns nothing about other users' link state.
func (s *LinkService) LinkGithubAccount(ctx context.Context, actingUserID string, req LinkRequest) (*model.GithubLink, error) {
	if actingUserID == "" {
		return nil, apperror.ValidationFailed("userId", "acting user ID is required")
	}
	if req.GithubID == 0 {
		return nil, apperror.ValidationFailed("githubId", "github ID is required")
	}

	// 1. Ownership.
	if actingUserID != req.UserID {
		return nil, apperror.Forbidden("cannot link a github account to another user")
	}

	// 2. Uniqueness.
	claimed, err := s.links.GetLinkByGithubID(ctx, req.GithubID)
	switch {
	case err == nil:
		if claimed.UserID != actingUserID {
			return nil, apperror.Conflict("github link", "github account already linked to another user")
		}
	case errors.Is(err, apperror.ErrNotFound):
		// unclaimed, fine
	default:
		return nil, fmt.Errorf("service/link: looking up github id %d: %w", req.GithubID, err)
	}

	// 3. Reconciliation: create on first link, overwrite on relink.
	existing, err := s.links.GetLinkByUserID(ctx, actingUserID)
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		link := &model.GithubLink{
			UserID:         actingUserID,
			GithubID:       req.GithubID,
			GithubUsername: req.GithubUsername,
			AccessToken:    req.AccessToken,
			AvatarURL:      req.AvatarURL,
		}
		if err := s.links.CreateLink(ctx, link); err != nil {
			return nil, fmt.Errorf("service/link: creating link for user %s: %w", actingUserID, err)
		}

		s.logger.Info("github account linked",
			slog.String("userID", actingUserID),
			slog.Int64("githubID", req.GithubID),
		)
		return link, nil

	case err != nil:
		return nil, fmt.Errorf("service/link: looking up link for user %s: %w", actingUserID, err)
	}

	existing.GithubID = req.GithubID
	existing.GithubUsername = req.GithubUsername
	existing.AccessToken = req.AccessToken
	existing.AvatarURL = req.AvatarURL
	existing.UpdatedAt = time.Now()

	if err := s.links.UpdateLink(ctx, existing); err != nil {
		return nil, fmt.Errorf("service/link: relinking user %s: %w", actingUserID, err)
	}

	s.logger.Info("github account relinked",
		slog.String("userID", actingUserID),
		slog.Int64("githubID", req.GithubID),
	)
	return existing, nil
}
