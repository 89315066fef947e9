package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/tanvir/identity/internal/apperror"
	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

var userFields = []string{
	"id", "email", "password_hash", "name", "profile_image_url", "description",
	"github_url", "position", "detailed_position", "career_level",
	"created_at", "updated_at", "deleted_at",
}

var (
	userColumns          = strings.Join(userFields, ", ")
	qualifiedUserColumns = "u." + strings.Join(userFields, ", u.")
)

// Create inserts a new user. The ID (xid) and both timestamps are assigned
// here, so a zero CreatedAt on the way in marks a not-yet-persisted record.
// A duplicate email surfaces as apperror.ErrConflict.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.ProfileImageURL,
		user.Description,
		user.GithubURL,
		user.Position,
		user.DetailedPosition,
		user.CareerLevel,
		user.CreatedAt,
		user.UpdatedAt,
		user.DeletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email already registered")
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, matched exactly as stored.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)

	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// Update persists every mutable field of an existing user in one statement.
// Last write wins; there is no version check.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET
			email = ?, password_hash = ?, name = ?, profile_image_url = ?,
			description = ?, github_url = ?, position = ?, detailed_position = ?,
			career_level = ?, updated_at = ?, deleted_at = ?
		 WHERE id = ?`,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.ProfileImageURL,
		user.Description,
		user.GithubURL,
		user.Position,
		user.DetailedPosition,
		user.CareerLevel,
		user.UpdatedAt,
		user.DeletedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// ExistsByID reports whether a user row exists for the given id.
func (db *DB) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking user %s: %w", id, err)
	}
	return exists, nil
}

// ExistsByEmail reports whether a user row exists for the given email.
func (db *DB) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking email %s: %w", email, err)
	}
	return exists, nil
}

// TagSkill associates an opaque skill id with a user. Re-tagging the same
// pair is a no-op (INSERT OR IGNORE against the composite primary key).
func (db *DB) TagSkill(ctx context.Context, userID, skillID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_skills (user_id, skill_id) VALUES (?, ?)`,
		userID, skillID)
	if err != nil {
		return fmt.Errorf("sqlite: tagging skill %s for user %s: %w", skillID, userID, err)
	}
	return nil
}

// Search translates the structured filter into SQL and returns one page of
// users ordered by (name, email, id) ascending.
//
// The keyword predicate uses instr() rather than LIKE: SQLite's LIKE is
// case-insensitive for ASCII, and the contract is a case-sensitive substring
// match over name OR email. The skill predicate joins user_skills restricted
// to the requested ids and keeps users whose distinct match count equals the
// size of the requested set, so a user tagged with every requested skill
// passes and nobody else does.
func (db *DB) Search(ctx context.Context, filter repository.SearchFilter, page repository.PageRequest) ([]model.User, error) {
	query, args := buildSearchQuery(qualifiedUserColumns, filter)
	query += ` ORDER BY u.name ASC, u.email ASC, u.id ASC LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning search row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating search rows: %w", err)
	}

	return users, nil
}

// Count returns the total number of users matching the filter, ignoring
// paging. It shares the filter translation with Search so the page metadata
// can never disagree with the page contents.
func (db *DB) Count(ctx context.Context, filter repository.SearchFilter) (int, error) {
	inner, args := buildSearchQuery("u.id", filter)

	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (`+inner+`)`, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting search results: %w", err)
	}
	return count, nil
}

// buildSearchQuery renders the shared FROM/WHERE/GROUP BY portion of the two
// search queries for the given select list. Disabled predicates (empty
// keyword, empty skill set) contribute no clause at all.
func buildSearchQuery(selectList string, filter repository.SearchFilter) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)

	sb.WriteString(`SELECT ` + selectList + ` FROM users u`)

	if len(filter.SkillIDs) > 0 {
		placeholders := strings.Repeat("?, ", len(filter.SkillIDs))
		placeholders = placeholders[:len(placeholders)-2]
		sb.WriteString(` JOIN user_skills s ON s.user_id = u.id AND s.skill_id IN (` + placeholders + `)`)
		for _, id := range filter.SkillIDs {
			args = append(args, id)
		}
	}

	if filter.Keyword != "" {
		sb.WriteString(` WHERE (instr(u.name, ?) > 0 OR instr(u.email, ?) > 0)`)
		args = append(args, filter.Keyword, filter.Keyword)
	}

	if len(filter.SkillIDs) > 0 {
		// COUNT(DISTINCT ...) keeps duplicate tag rows from over-counting.
		sb.WriteString(` GROUP BY u.id HAVING COUNT(DISTINCT s.skill_id) = ?`)
		args = append(args, len(filter.SkillIDs))
	}

	return sb.String(), args
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*model.User, error) {
	var u model.User
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.ProfileImageURL,
		&u.Description,
		&u.GithubURL,
		&u.Position,
		&u.DetailedPosition,
		&u.CareerLevel,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// isUniqueViolation detects UNIQUE constraint failures without depending on
// driver-specific error types.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
