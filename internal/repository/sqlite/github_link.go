package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/xid"
	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// compile-time check that *DB implements repository.GithubLinkRepository
var _ repository.GithubLinkRepository = (*DB)(nil)

const linkColumns = `id, user_id, github_id, github_username, access_token,
	avatar_url, created_at, updated_at`

// CreateLink inserts a new link row, assigning its ID and timestamps.
// The UNIQUE constraints on user_id and github_id back the 1:1 invariant;
// a violation surfaces as apperror.ErrConflict.
func (db *DB) CreateLink(ctx context.Context, link *model.GithubLink) error {
	now := time.Now()
	link.ID = xid.New().String()
	link.CreatedAt = now
	link.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO github_links (`+linkColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		link.ID,
		link.UserID,
		link.GithubID,
		link.GithubUsername,
		link.AccessToken,
		link.AvatarURL,
		link.CreatedAt,
		link.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("github link", "github account already linked")
		}
		return fmt.Errorf("sqlite: inserting github link for user %s: %w", link.UserID, err)
	}

	return nil
}

// UpdateLink overwrites the mutable fields of an existing link row in one
// statement. The row id and created_at never change.
func (db *DB) UpdateLink(ctx context.Context, link *model.GithubLink) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE github_links SET
			github_id = ?, github_username = ?, access_token = ?,
			avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		link.GithubID,
		link.GithubUsername,
		link.AccessToken,
		link.AvatarURL,
		link.UpdatedAt,
		link.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("github link", "github account already linked")
		}
		return fmt.Errorf("sqlite: updating github link %s: %w", link.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating github link %s: %w", link.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("github link", link.ID)
	}
	return nil
}

// GetLinkByUserID retrieves the link row owned by the given user.
func (db *DB) GetLinkByUserID(ctx context.Context, userID string) (*model.GithubLink, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM github_links WHERE user_id = ?`, userID)

	link, err := scanLink(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("github link", userID)
		}
		return nil, fmt.Errorf("sqlite: getting github link for user %s: %w", userID, err)
	}
	return link, nil
}

// GetLinkByGithubID retrieves the link row claiming the given github id.
func (db *DB) GetLinkByGithubID(ctx context.Context, githubID int64) (*model.GithubLink, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM github_links WHERE github_id = ?`, githubID)

	link, err := scanLink(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("github link", strconv.FormatInt(githubID, 10))
		}
		return nil, fmt.Errorf("sqlite: getting github link for github id %d: %w", githubID, err)
	}
	return link, nil
}

func scanLink(s scanner) (*model.GithubLink, error) {
	var l model.GithubLink
	err := s.Scan(
		&l.ID,
		&l.UserID,
		&l.GithubID,
		&l.GithubUsername,
		&l.AccessToken,
		&l.AvatarURL,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
