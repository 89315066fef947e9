package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tanvir/identity/internal/model"
	"github.com/tanvir/identity/internal/repository"
)

// Paging bounds. Limits outside [1, MaxSearchLimit] are clamped, never
// rejected.
const (
	DefaultSearchLimit = 20
	MaxSearchLimit     = 100
)

// SearchService runs filtered, paginated user search.
type SearchService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(users repository.UserRepository, logger *slog.Logger) *SearchService {
	return &SearchService{
		users:  users,
		logger: logger,
	}
}

// SearchResult is one page of matches plus the total count across all pages.
type SearchResult struct {
	Items      []model.UserSummary `json:"items"`
	TotalCount int                 `json:"totalCount"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// SearchUsers returns users matching the keyword and skill filters, ordered
// by (name, email, id) ascending, windowed by limit/offset.
//
// A blank keyword disables the keyword predicate; otherwise a user matches
// if its name OR email contains the keyword as a case-sensitive substring.
// An empty skill set disables the skill predicate; otherwise a user matches
// only if tagged with every requested skill id. The two predicates combine
// with AND. TotalCount is computed over the same filter ignoring paging.
// Each match is projected to its public summary; the password hash never
// leaves the store layer.
func (s *SearchService) SearchUsers(ctx context.Context, keyword string, skillIDs []string, limit, offset int) (*SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	if offset < 0 {
		offset = 0
	}

	filter := repository.SearchFilter{
		Keyword:  strings.TrimSpace(keyword),
		SkillIDs: dedupeSkillIDs(skillIDs),
	}

	users, err := s.users.Search(ctx, filter, repository.PageRequest{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/search: listing users: %w", err)
	}

	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service/search: counting users: %w", err)
	}

	items := make([]model.UserSummary, 0, len(users))
	for i := range users {
		items = append(items, users[i].Summary())
	}

	s.logger.Debug("user search",
		slog.String("keyword", filter.Keyword),
		slog.Int("skills", len(filter.SkillIDs)),
		slog.Int("total", total),
	)

	return &SearchResult{
		Items:      items,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// dedupeSkillIDs drops blanks and duplicates while keeping order. The
// intersection predicate compares a distinct-match count against the set
// size, so the set handed to the store must itself be distinct.
func dedupeSkillIDs(skillIDs []string) []string {
	if len(skillIDs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(skillIDs))
	out := make([]string, 0, len(skillIDs))
	for _, id := range skillIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
