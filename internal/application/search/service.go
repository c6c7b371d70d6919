package search

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	domain "github.com/sperow/medrecords/internal/domain/search"
)

// Service answers clinical reference queries through the grounded-search
// provider. The provider is optional: a Service constructed without a Client
// rejects every query with ErrUnavailable instead of failing startup.
type Service struct {
	Client domain.Client
	Log    zerolog.Logger
}

// Search runs one query. Context text, when present, selects the structured
// variant that grounds the query on it.
func (s *Service) Search(ctx context.Context, query, contextText string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", domain.ErrEmptyQuery
	}
	if s.Client == nil {
		s.Log.Warn().Msg("search.unavailable")
		return "", domain.ErrUnavailable
	}

	if contextText != "" {
		return s.Client.StructuredSearch(ctx, query, contextText)
	}
	return s.Client.Search(ctx, query)
}
