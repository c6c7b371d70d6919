package search

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	domain "github.com/sperow/medrecords/internal/domain/search"
)

type fakeClient struct {
	searched   string
	structured [2]string
}

func (f *fakeClient) Search(ctx context.Context, query string) (string, error) {
	f.searched = query
	return "plain result", nil
}

func (f *fakeClient) StructuredSearch(ctx context.Context, query, contextText string) (string, error) {
	f.structured = [2]string{query, contextText}
	return "grounded result", nil
}

func TestSearch_RequiresQuery(t *testing.T) {
	svc := &Service{Client: &fakeClient{}, Log: zerolog.Nop()}

	for _, query := range []string{"", "   "} {
		if _, err := svc.Search(context.Background(), query, ""); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Fatalf("query %q: err = %v, want ErrEmptyQuery", query, err)
		}
	}
}

func TestSearch_UnavailableWithoutClient(t *testing.T) {
	svc := &Service{Log: zerolog.Nop()}

	_, err := svc.Search(context.Background(), "drug interactions for metformin", "")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestSearch_RoutesByContext(t *testing.T) {
	client := &fakeClient{}
	svc := &Service{Client: client, Log: zerolog.Nop()}

	t.Run("bare query", func(t *testing.T) {
		result, err := svc.Search(context.Background(), "metformin dosing", "")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if result != "plain result" || client.searched != "metformin dosing" {
			t.Fatalf("result = %q, searched = %q", result, client.searched)
		}
	})

	t.Run("with context", func(t *testing.T) {
		result, err := svc.Search(context.Background(), "adjust dose?", "patient has CKD stage 3")
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if result != "grounded result" {
			t.Fatalf("result = %q", result)
		}
		if client.structured != [2]string{"adjust dose?", "patient has CKD stage 3"} {
			t.Fatalf("structured call = %v", client.structured)
		}
	})
}
