package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/application"
	apprecords "github.com/sperow/medrecords/internal/application/records"
	appsearch "github.com/sperow/medrecords/internal/application/search"
	"github.com/sperow/medrecords/internal/domain/consultation"
	"github.com/sperow/medrecords/internal/domain/records"
	"github.com/sperow/medrecords/internal/middleware"
)

type stubExtractor struct {
	text string
	err  error
}

func (s *stubExtractor) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	return s.text, s.err
}

type stubLLM struct {
	summary records.Summary
	err     error
}

func (s *stubLLM) GetStructuredSummary(ctx context.Context, userID, text string) (records.Summary, error) {
	return s.summary, s.err
}

func (s *stubLLM) ChatWithDoctor(ctx context.Context, userID, text, question string) (string, error) {
	return "", s.err
}

// stubCache accepts every write and misses every read.
type stubCache struct{}

func (stubCache) SetMedicalRecord(ctx context.Context, userID, text string) bool   { return true }
func (stubCache) GetMedicalRecord(ctx context.Context, userID string) (string, bool) {
	return "", false
}
func (stubCache) ClearMedicalRecord(ctx context.Context, userID string) bool { return true }
func (stubCache) ClearAllUserData(ctx context.Context, userID string) bool   { return true }
func (stubCache) SetStructuredSummary(ctx context.Context, userID string, s records.Summary) bool {
	return true
}
func (stubCache) GetStructuredSummary(ctx context.Context, userID string) records.Summary {
	return nil
}
func (stubCache) GetVisualizations(ctx context.Context, userID string) []any          { return nil }
func (stubCache) GetMedicalEntities(ctx context.Context, userID string) map[string]any {
	return nil
}
func (stubCache) GetLabResults(ctx context.Context, userID string) []any { return nil }
func (stubCache) GetTestResultsByName(ctx context.Context, userID, testName string) []any {
	return nil
}
func (stubCache) GetVisualizationByTitle(ctx context.Context, userID, title string) map[string]any {
	return nil
}
func (stubCache) GetAllTestNames(ctx context.Context, userID string) []string { return nil }
func (stubCache) SetCachedText(ctx context.Context, fileName, text string) bool {
	return true
}
func (stubCache) GetCachedText(ctx context.Context, fileName string) (string, bool) {
	return "", false
}

type stubRepo struct {
	active *consultation.Consultation
}

func (s *stubRepo) Start(ctx context.Context, c *consultation.Consultation) error { return nil }
func (s *stubRepo) Active(ctx context.Context, doctor string) (*consultation.Consultation, error) {
	return s.active, nil
}
func (s *stubRepo) End(ctx context.Context, doctor string, id consultation.ID, at time.Time) (*consultation.Consultation, error) {
	return nil, consultation.ErrNotFound
}
func (s *stubRepo) Metrics(ctx context.Context, doctor string) (consultation.Metrics, error) {
	return consultation.Metrics{}, nil
}
func (s *stubRepo) PeriodStats(ctx context.Context, doctor, period string) ([]consultation.PeriodStat, error) {
	return nil, nil
}
func (s *stubRepo) DailyBreakdown(ctx context.Context, doctor string, day time.Time) ([]consultation.HourStat, error) {
	return nil, nil
}

func newTestRouter(ext *stubExtractor, llm *stubLLM, repo *stubRepo) http.Handler {
	svc := &apprecords.Service{
		Extractor:     ext,
		LLM:           llm,
		Cache:         stubCache{},
		Consultations: repo,
		Clock:         application.SystemClock{},
		Log:           zerolog.Nop(),
	}
	return NewRouter(svc, &appsearch.Service{Log: zerolog.Nop()})
}

func doRequest(t *testing.T, h http.Handler, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req = req.WithContext(context.WithValue(req.Context(), middleware.DoctorKey, "doc1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadBody(t *testing.T, fileName string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("document bytes")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func counter(t *testing.T, name string) uint64 {
	t.Helper()
	v, ok := middleware.GetMetrics()[name].(uint64)
	if !ok {
		t.Fatalf("counter %q missing", name)
	}
	return v
}

func TestProcessRecord_ExtractionFailureCounted(t *testing.T) {
	h := newTestRouter(&stubExtractor{err: records.ErrExtractionFailed}, &stubLLM{}, &stubRepo{})
	extBefore := counter(t, "extractions_failed")
	sumBefore := counter(t, "summaries_failed")

	body, ctype := uploadBody(t, "visit.pdf")
	rec := doRequest(t, h, http.MethodPost, "/api/process-medical-record", ctype, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if got := counter(t, "extractions_failed"); got != extBefore+1 {
		t.Fatalf("extractions_failed = %d, want %d", got, extBefore+1)
	}
	if got := counter(t, "summaries_failed"); got != sumBefore {
		t.Fatalf("summaries_failed moved to %d on an extraction failure", got)
	}
}

func TestProcessRecord_TimeoutCountedAsSummaryFailure(t *testing.T) {
	llm := &stubLLM{err: fmt.Errorf("%w: upstream", records.ErrGenerationTimeout)}
	h := newTestRouter(&stubExtractor{text: "extracted"}, llm, &stubRepo{})
	extBefore := counter(t, "extractions_failed")
	sumBefore := counter(t, "summaries_failed")

	body, ctype := uploadBody(t, "visit.pdf")
	rec := doRequest(t, h, http.MethodPost, "/api/process-medical-record", ctype, body)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("body: %v", err)
	}
	if payload["status_code"] != float64(http.StatusGatewayTimeout) {
		t.Fatalf("payload = %v", payload)
	}
	if got := counter(t, "summaries_failed"); got != sumBefore+1 {
		t.Fatalf("summaries_failed = %d, want %d", got, sumBefore+1)
	}
	if got := counter(t, "extractions_failed"); got != extBefore {
		t.Fatalf("extractions_failed moved to %d on an llm timeout", got)
	}
}

func TestProcessRecord_GateRejectionCountsNothing(t *testing.T) {
	repo := &stubRepo{active: &consultation.Consultation{ID: "c1", Doctor: "doc1"}}
	h := newTestRouter(&stubExtractor{text: "extracted"}, &stubLLM{}, repo)
	extBefore := counter(t, "extractions_failed")
	sumBefore := counter(t, "summaries_failed")

	body, ctype := uploadBody(t, "visit.pdf")
	rec := doRequest(t, h, http.MethodPost, "/api/process-medical-record", ctype, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if counter(t, "extractions_failed") != extBefore || counter(t, "summaries_failed") != sumBefore {
		t.Fatal("gate rejections must not count toward either pipeline stage")
	}
}

func TestPerformanceStats_InvalidPeriodRejected(t *testing.T) {
	h := newTestRouter(&stubExtractor{}, &stubLLM{}, &stubRepo{})

	rec := doRequest(t, h, http.MethodGet, "/api/performance/stats/hourly", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid period") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	h := newTestRouter(&stubExtractor{}, &stubLLM{}, &stubRepo{})

	body := bytes.NewBufferString(`{"context": "patient has CKD"}`)
	rec := doRequest(t, h, http.MethodPost, "/api/search", "application/json", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSearch_UnavailableWithoutProvider(t *testing.T) {
	h := newTestRouter(&stubExtractor{}, &stubLLM{}, &stubRepo{})

	body := bytes.NewBufferString(`{"query": "metformin dosing"}`)
	rec := doRequest(t, h, http.MethodPost, "/api/search", "application/json", body)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
