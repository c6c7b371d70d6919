package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apprecords "github.com/sperow/medrecords/internal/application/records"
	appsearch "github.com/sperow/medrecords/internal/application/search"
	"github.com/sperow/medrecords/internal/domain/consultation"
	"github.com/sperow/medrecords/internal/domain/records"
	"github.com/sperow/medrecords/internal/domain/search"
	"github.com/sperow/medrecords/internal/infra/ai/jsonout"
	"github.com/sperow/medrecords/internal/middleware"
)

const maxUploadBytes = 32 << 20

type Router struct {
	svc    *apprecords.Service
	search *appsearch.Service
}

// NewRouter mounts the medical-record API under /api. Auth middleware must
// already have stored the doctor ID in the request context.
func NewRouter(svc *apprecords.Service, searchSvc *appsearch.Service) http.Handler {
	r := &Router{svc: svc, search: searchSvc}
	mux := chi.NewRouter()

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/process-medical-record", r.wrap(r.handleProcessRecord))
		rt.Post("/chat-with-ai", r.wrap(r.handleChat))
		rt.Post("/search", r.wrap(r.handleSearch))
		rt.Post("/close-consultation/{id}", r.wrap(r.handleCloseConsultation))
		rt.Get("/metrics", r.wrap(r.handleMetrics))

		rt.Post("/analyze-entities", r.wrap(r.handleAnalyzeEntities))
		rt.Post("/visualize", r.wrap(r.handleVisualize))
		rt.Get("/visualizations/{title}", r.wrap(r.handleVisualizationByTitle))

		rt.Get("/lab-results", r.wrap(r.handleLabResults))
		rt.Get("/lab-results/names", r.wrap(r.handleTestNames))
		rt.Get("/lab-results/{name}", r.wrap(r.handleTestResultsByName))

		rt.Get("/performance/stats/{period}", r.wrap(r.handlePerformanceStats))
		rt.Get("/performance/daily", r.wrap(r.handleDailyBreakdown))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}

		var recovery *jsonout.RecoveryError
		switch {
		case errors.As(err, &recovery):
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":       recovery.Reason,
				"details":     recovery.Details,
				"raw_content": recovery.RawContent,
			})
		case errors.Is(err, records.ErrGenerationTimeout):
			writeJSON(w, http.StatusGatewayTimeout, map[string]any{
				"error":       "Request timed out",
				"details":     "The summary took too long to generate. Please try again.",
				"status_code": http.StatusGatewayTimeout,
			})
		case errors.Is(err, consultation.ErrAlreadyActive),
			errors.Is(err, consultation.ErrNotActive),
			errors.Is(err, records.ErrExtractionFailed),
			errors.Is(err, records.ErrNoRecord),
			errors.Is(err, records.ErrNoSummary),
			errors.Is(err, records.ErrInvalidUserID),
			errors.Is(err, search.ErrEmptyQuery),
			errors.Is(err, apprecords.ErrInvalidPeriod):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, consultation.ErrNotFound), errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, err)
		case errors.Is(err, search.ErrUnavailable):
			writeError(w, http.StatusServiceUnavailable, err)
		default:
			writeError(w, http.StatusInternalServerError, err)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func doctorFrom(req *http.Request) (string, error) {
	doctor := middleware.GetDoctorFromContext(req.Context())
	if err := middleware.ValidateDoctorID(doctor); err != nil {
		return "", records.ErrInvalidUserID
	}
	return doctor, nil
}

// POST /api/process-medical-record (multipart, field "file")
func (r *Router) handleProcessRecord(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid multipart form"))
		return nil
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("no file part in the request"))
		return nil
	}
	defer file.Close()

	if err := middleware.ValidateFileName(header.Filename); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	result, err := r.svc.ProcessRecord(req.Context(), doctor, data, header.Filename)
	if err != nil {
		countProcessFailure(err)
		return err
	}
	middleware.IncrementRecordsProcessed()

	writeJSON(w, http.StatusOK, result)
	return nil
}

// countProcessFailure attributes a pipeline failure to its stage. Gate
// rejections and repository errors count toward neither stage.
func countProcessFailure(err error) {
	var recovery *jsonout.RecoveryError
	switch {
	case errors.Is(err, records.ErrExtractionFailed):
		middleware.IncrementExtractionsFailed()
	case errors.Is(err, records.ErrGenerationTimeout),
		errors.Is(err, records.ErrGenerationFailed),
		errors.As(err, &recovery):
		middleware.IncrementSummariesFailed()
	}
}

// POST /api/search
func (r *Router) handleSearch(w http.ResponseWriter, req *http.Request) error {
	if _, err := doctorFrom(req); err != nil {
		return err
	}

	var body struct {
		Query   string `json:"query"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return nil
	}

	results, err := r.search.Search(req.Context(), body.Query, body.Context)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
	return nil
}

// POST /api/chat-with-ai
func (r *Router) handleChat(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return nil
	}
	question := middleware.SanitizeString(body.Question)
	if question == "" {
		writeError(w, http.StatusBadRequest, errors.New("question is required"))
		return nil
	}

	answer, err := r.svc.Chat(req.Context(), doctor, question)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"response": answer})
	return nil
}

// POST /api/close-consultation/{id}
func (r *Router) handleCloseConsultation(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, errors.New("consultation id is required"))
		return nil
	}

	result, err := r.svc.CloseConsultation(req.Context(), doctor, consultation.ID(id))
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}

// GET /api/metrics
func (r *Router) handleMetrics(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	metrics, err := r.svc.Metrics(req.Context(), doctor)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, metrics)
	return nil
}

// POST /api/analyze-entities
func (r *Router) handleAnalyzeEntities(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	analysis, err := r.svc.AnalyzeEntities(req.Context(), doctor)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, analysis)
	return nil
}

// POST /api/visualize
func (r *Router) handleVisualize(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	vizs, err := r.svc.Visualizations(req.Context(), doctor)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"visualizations": vizs})
	return nil
}

// GET /api/visualizations/{title}
func (r *Router) handleVisualizationByTitle(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}
	title := chi.URLParam(req, "title")

	viz, err := r.svc.VisualizationByTitle(req.Context(), doctor, title)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, viz)
	return nil
}

// GET /api/lab-results
func (r *Router) handleLabResults(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	tests, err := r.svc.LabResults(req.Context(), doctor)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"lab_results": tests})
	return nil
}

// GET /api/lab-results/names
func (r *Router) handleTestNames(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}

	names, err := r.svc.AllTestNames(req.Context(), doctor)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"test_names": names})
	return nil
}

// GET /api/lab-results/{name}
func (r *Router) handleTestResultsByName(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}
	name := chi.URLParam(req, "name")

	results, err := r.svc.TestResultsByName(req.Context(), doctor, name)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"test_name": name, "results": results})
	return nil
}

// GET /api/performance/stats/{period}
func (r *Router) handlePerformanceStats(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}
	period := chi.URLParam(req, "period")
	if err := middleware.ValidatePeriod(period); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil
	}

	stats, err := r.svc.PerformanceStats(req.Context(), doctor, period)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{"period": period, "stats": stats})
	return nil
}

// GET /api/performance/daily?date=YYYY-MM-DD
func (r *Router) handleDailyBreakdown(w http.ResponseWriter, req *http.Request) error {
	doctor, err := doctorFrom(req)
	if err != nil {
		return err
	}
	day, err := middleware.ParseDate(req.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil
	}

	stats, err := r.svc.DailyBreakdown(req.Context(), doctor, day)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  day.Format("2006-01-02"),
		"stats": stats,
	})
	return nil
}
