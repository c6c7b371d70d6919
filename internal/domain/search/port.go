package search

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the search provider was not configured or failed
// to initialize at startup.
var ErrUnavailable = errors.New("search service not available")

// ErrEmptyQuery indicates a search request without a query.
var ErrEmptyQuery = errors.New("query is required")

// Client is the capability port for the grounded-search provider. Search runs
// a bare query; StructuredSearch prefixes caller-supplied context onto it.
type Client interface {
	Search(ctx context.Context, query string) (string, error)
	StructuredSearch(ctx context.Context, query, contextText string) (string, error)
}
