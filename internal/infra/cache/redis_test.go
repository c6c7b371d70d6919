package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/domain/records"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(rdb, ttl, zerolog.Nop()), mr
}

func TestSetGetMedicalRecord(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	if !c.SetMedicalRecord(ctx, "doc1", "patient presents with chest pain") {
		t.Fatal("set failed")
	}
	got, ok := c.GetMedicalRecord(ctx, "doc1")
	if !ok || got != "patient presents with chest pain" {
		t.Fatalf("get = %q, %v", got, ok)
	}

	if !mr.Exists("user:doc1:medical_record") {
		t.Fatal("expected namespaced key user:doc1:medical_record")
	}
}

func TestEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	c.SetMedicalRecord(ctx, "doc1", "text")
	mr.FastForward(time.Hour + time.Second)

	if _, ok := c.GetMedicalRecord(ctx, "doc1"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestInvalidUserIDRejected(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	for _, id := range []string{"", "a:b", "x:y:z"} {
		if c.SetMedicalRecord(ctx, id, "text") {
			t.Fatalf("set should fail for %q", id)
		}
		if _, ok := c.GetMedicalRecord(ctx, id); ok {
			t.Fatalf("get should miss for %q", id)
		}
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("no keys should have been written, got %v", mr.Keys())
	}
}

func TestDisconnectedCacheIsNoOp(t *testing.T) {
	c := New("redis://127.0.0.1:1", time.Hour, zerolog.Nop())
	ctx := context.Background()

	if c.SetMedicalRecord(ctx, "doc1", "text") {
		t.Fatal("set should report failure when disconnected")
	}
	if _, ok := c.GetMedicalRecord(ctx, "doc1"); ok {
		t.Fatal("get should miss when disconnected")
	}
	if c.GetStructuredSummary(ctx, "doc1") != nil {
		t.Fatal("summary should be nil when disconnected")
	}
	if err := c.Ping(ctx); err == nil {
		t.Fatal("ping should fail when disconnected")
	}
}

func TestStructuredSummaryRoundTrip(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	s := records.Summary{
		"diagnosis": []any{"hypertension"},
		"lab_results": map[string]any{
			"tests": []any{
				map[string]any{"name": "Glucose", "value": "110"},
				map[string]any{"name": "HbA1c", "value": "6.1"},
				map[string]any{"name": "glucose", "value": "118"},
			},
		},
	}
	if !c.SetStructuredSummary(ctx, "doc1", s) {
		t.Fatal("set summary failed")
	}

	got := c.GetStructuredSummary(ctx, "doc1")
	if got == nil {
		t.Fatal("summary missing")
	}
	diag, _ := got["diagnosis"].([]any)
	if len(diag) != 1 || diag[0] != "hypertension" {
		t.Fatalf("diagnosis = %v", diag)
	}
}

func TestLabProjections(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	c.SetStructuredSummary(ctx, "doc1", records.Summary{
		"lab_results": map[string]any{
			"tests": []any{
				map[string]any{"name": "Glucose", "value": "110"},
				map[string]any{"name": "HbA1c", "value": "6.1"},
				map[string]any{"name": "glucose", "value": "118"},
			},
		},
	})

	t.Run("by name is case-insensitive", func(t *testing.T) {
		results := c.GetTestResultsByName(ctx, "doc1", "GLUCOSE")
		if len(results) != 2 {
			t.Fatalf("results = %d, want 2", len(results))
		}
	})

	t.Run("names are distinct", func(t *testing.T) {
		names := c.GetAllTestNames(ctx, "doc1")
		if len(names) != 3 {
			t.Fatalf("names = %v", names)
		}
	})

	t.Run("missing summary yields nil", func(t *testing.T) {
		if c.GetLabResults(ctx, "nobody") != nil {
			t.Fatal("want nil for missing summary")
		}
	})

	t.Run("summary without labs yields empty slice", func(t *testing.T) {
		c.SetStructuredSummary(ctx, "doc2", records.Summary{"diagnosis": []any{}})
		got := c.GetLabResults(ctx, "doc2")
		if got == nil || len(got) != 0 {
			t.Fatalf("want empty slice, got %v", got)
		}
	})
}

func TestVisualizationByTitle(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	c.SetStructuredSummary(ctx, "doc1", records.Summary{
		"visualizations": []any{
			map[string]any{"title": "Glucose Trend Analysis", "type": "line_chart"},
		},
	})

	viz := c.GetVisualizationByTitle(ctx, "doc1", "glucose trend analysis")
	if viz == nil || viz["type"] != "line_chart" {
		t.Fatalf("viz = %v", viz)
	}
	if c.GetVisualizationByTitle(ctx, "doc1", "unknown") != nil {
		t.Fatal("want nil for unknown title")
	}
}

func TestClearAllUserData(t *testing.T) {
	c, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	c.SetMedicalRecord(ctx, "doc1", "text")
	c.SetStructuredSummary(ctx, "doc1", records.Summary{"a": "b"})
	c.SetMedicalRecord(ctx, "doc2", "other")

	if !c.ClearAllUserData(ctx, "doc1") {
		t.Fatal("clear failed")
	}
	if _, ok := c.GetMedicalRecord(ctx, "doc1"); ok {
		t.Fatal("doc1 record should be gone")
	}
	if c.GetStructuredSummary(ctx, "doc1") != nil {
		t.Fatal("doc1 summary should be gone")
	}
	if !mr.Exists("user:doc2:medical_record") {
		t.Fatal("doc2 must be untouched")
	}
}

func TestCachedTextByFileName(t *testing.T) {
	c, _ := newTestCache(t, time.Hour)
	ctx := context.Background()

	if !c.SetCachedText(ctx, "scan.pdf", "extracted text") {
		t.Fatal("set failed")
	}
	got, ok := c.GetCachedText(ctx, "scan.pdf")
	if !ok || got != "extracted text" {
		t.Fatalf("get = %q, %v", got, ok)
	}
	if _, ok := c.GetCachedText(ctx, "other.pdf"); ok {
		t.Fatal("want miss for unknown file")
	}
}
