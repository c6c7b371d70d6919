package records

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/application"
	"github.com/sperow/medrecords/internal/domain/consultation"
	"github.com/sperow/medrecords/internal/domain/records"
)

// ErrInvalidPeriod indicates a performance period outside weekly/monthly/yearly.
var ErrInvalidPeriod = errors.New("invalid period type, must be weekly, monthly, or yearly")

// Service implements the medical-record use cases: process an upload into a
// cached structured summary, chat over the cached text, project cached
// entities/visualizations/lab data, and manage consultations and their
// metrics. One instance serves all requests; all state lives in the cache,
// the object store and the consultation repository.
type Service struct {
	Extractor     records.TextExtractor
	LLM           records.LLMClient
	Cache         records.SessionCache
	Consultations consultation.Repository
	Clock         application.Clock
	Development   bool
	Log           zerolog.Logger
}

// ProcessResult is the upload response payload.
type ProcessResult struct {
	Summary        records.Summary      `json:"summary"`
	ConsultationID consultation.ID      `json:"consultation_id"`
	Metrics        consultation.Metrics `json:"metrics"`
}

// ProcessRecord runs the full pipeline for one uploaded document. The doctor
// must have no active consultation: the cache holds exactly one summary per
// doctor, so an open consultation and a new upload cannot coexist.
func (s *Service) ProcessRecord(ctx context.Context, doctor string, data []byte, fileName string) (*ProcessResult, error) {
	active, err := s.Consultations.Active(ctx, doctor)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, consultation.ErrAlreadyActive
	}

	text, err := s.extract(ctx, data, fileName)
	if err != nil {
		return nil, err
	}

	summary, err := s.LLM.GetStructuredSummary(ctx, doctor, text)
	if err != nil {
		return nil, err
	}
	EnrichLabTrends(summary)

	// A degraded cache only costs the incremental read endpoints; the upload
	// response still carries the full summary.
	if !s.Cache.SetMedicalRecord(ctx, doctor, text) {
		s.Log.Warn().Str("doctor", doctor).Msg("records.cache_raw_text_skipped")
	}
	if !s.Cache.SetStructuredSummary(ctx, doctor, summary) {
		s.Log.Warn().Str("doctor", doctor).Msg("records.cache_summary_skipped")
	}

	c := &consultation.Consultation{
		ID:        consultation.ID(uuid.New().String()),
		Doctor:    doctor,
		FileName:  fileName,
		StartedAt: s.Clock.Now(),
	}
	if err := s.Consultations.Start(ctx, c); err != nil {
		return nil, err
	}

	metrics, err := s.Consultations.Metrics(ctx, doctor)
	if err != nil {
		return nil, err
	}

	return &ProcessResult{Summary: summary, ConsultationID: c.ID, Metrics: metrics}, nil
}

// extract resolves raw text, replaying cached extractions in development so
// repeated uploads of the same file skip the OCR round-trip.
func (s *Service) extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if s.Development {
		if cached, ok := s.Cache.GetCachedText(ctx, fileName); ok {
			s.Log.Info().Str("file", fileName).Msg("records.extract_replay")
			return cached, nil
		}
		text, err := s.Extractor.ExtractText(ctx, data, fileName)
		if err != nil {
			return "", err
		}
		s.Cache.SetCachedText(ctx, fileName, text)
		return text, nil
	}
	return s.Extractor.ExtractText(ctx, data, fileName)
}

// Chat answers a question strictly from the cached raw text. Requires an
// active consultation.
func (s *Service) Chat(ctx context.Context, doctor, question string) (string, error) {
	active, err := s.Consultations.Active(ctx, doctor)
	if err != nil {
		return "", err
	}
	if active == nil {
		return "", consultation.ErrNotActive
	}

	text, ok := s.Cache.GetMedicalRecord(ctx, doctor)
	if !ok {
		return "", records.ErrNoRecord
	}
	return s.LLM.ChatWithDoctor(ctx, doctor, text, question)
}

// EntityAnalysis reshapes the cached medical entities into the
// entities/correlations/risk-assessments view.
type EntityAnalysis struct {
	Entities        map[string]any   `json:"entities"`
	Correlations    []any            `json:"correlations"`
	RiskAssessments []RiskAssessment `json:"risk_assessments"`
}

type RiskAssessment struct {
	Condition   string `json:"condition"`
	RiskFactors []any  `json:"risk_factors"`
	FutureRisks []any  `json:"future_risks"`
}

// AnalyzeEntities projects the cached summary's medical entities. Requires an
// active consultation; never re-invokes the model.
func (s *Service) AnalyzeEntities(ctx context.Context, doctor string) (*EntityAnalysis, error) {
	if err := s.requireActive(ctx, doctor); err != nil {
		return nil, err
	}

	entities := s.Cache.GetMedicalEntities(ctx, doctor)
	if entities == nil {
		return nil, records.ErrNoSummary
	}

	conditions, _ := entities["conditions"].([]any)
	if conditions == nil {
		conditions = []any{}
	}

	assessments := []RiskAssessment{}
	for _, c := range conditions {
		cond, ok := c.(map[string]any)
		if !ok {
			continue
		}
		name, _ := cond["name"].(string)
		rf, _ := cond["risk_factors"].([]any)
		fr, _ := cond["future_risks"].([]any)
		assessments = append(assessments, RiskAssessment{
			Condition:   name,
			RiskFactors: rf,
			FutureRisks: fr,
		})
	}

	return &EntityAnalysis{
		Entities:        entities,
		Correlations:    conditions,
		RiskAssessments: assessments,
	}, nil
}

// Visualizations returns the cached charts trimmed to their presentational
// fields. Requires an active consultation.
func (s *Service) Visualizations(ctx context.Context, doctor string) ([]map[string]any, error) {
	if err := s.requireActive(ctx, doctor); err != nil {
		return nil, err
	}

	vizs := s.Cache.GetVisualizations(ctx, doctor)
	if vizs == nil {
		return nil, records.ErrNoSummary
	}

	out := []map[string]any{}
	for _, v := range vizs {
		viz, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, map[string]any{
			"title":                 viz["title"],
			"type":                  viz["type"],
			"data":                  viz["data"],
			"source":                viz["source"],
			"clinical_significance": viz["clinical_significance"],
		})
	}
	return out, nil
}

// LabResults returns the cached lab tests.
func (s *Service) LabResults(ctx context.Context, doctor string) ([]any, error) {
	tests := s.Cache.GetLabResults(ctx, doctor)
	if tests == nil {
		return nil, records.ErrNoSummary
	}
	return tests, nil
}

// TestResultsByName returns all cached results for one named test.
func (s *Service) TestResultsByName(ctx context.Context, doctor, name string) ([]any, error) {
	if s.Cache.GetStructuredSummary(ctx, doctor) == nil {
		return nil, records.ErrNoSummary
	}
	return s.Cache.GetTestResultsByName(ctx, doctor, name), nil
}

// AllTestNames returns the distinct test names present in the cached summary.
func (s *Service) AllTestNames(ctx context.Context, doctor string) ([]string, error) {
	if s.Cache.GetStructuredSummary(ctx, doctor) == nil {
		return nil, records.ErrNoSummary
	}
	return s.Cache.GetAllTestNames(ctx, doctor), nil
}

// VisualizationByTitle returns one cached chart matched case-insensitively.
func (s *Service) VisualizationByTitle(ctx context.Context, doctor, title string) (map[string]any, error) {
	viz := s.Cache.GetVisualizationByTitle(ctx, doctor, title)
	if viz == nil {
		return nil, records.ErrNoSummary
	}
	return viz, nil
}

// CloseResult is the close-consultation response payload.
type CloseResult struct {
	Message         string               `json:"message"`
	DurationMinutes float64              `json:"duration_minutes"`
	Metrics         consultation.Metrics `json:"metrics"`
}

// CloseConsultation ends the consultation, clears the doctor's session cache
// so the next upload starts clean, and returns refreshed metrics.
func (s *Service) CloseConsultation(ctx context.Context, doctor string, id consultation.ID) (*CloseResult, error) {
	ended, err := s.Consultations.End(ctx, doctor, id, s.Clock.Now())
	if err != nil {
		return nil, err
	}

	if !s.Cache.ClearAllUserData(ctx, doctor) {
		s.Log.Warn().Str("doctor", doctor).Msg("records.session_clear_skipped")
	}

	minutes := math.Round(ended.Duration().Minutes()*100) / 100
	return &CloseResult{
		Message:         "Consultation closed successfully",
		DurationMinutes: minutes,
		Metrics:         metricsOrZero(ctx, s.Consultations, doctor),
	}, nil
}

// Metrics returns the doctor's productivity rollup.
func (s *Service) Metrics(ctx context.Context, doctor string) (consultation.Metrics, error) {
	return s.Consultations.Metrics(ctx, doctor)
}

// PerformanceStats returns period buckets for weekly, monthly or yearly views.
func (s *Service) PerformanceStats(ctx context.Context, doctor, period string) ([]consultation.PeriodStat, error) {
	switch period {
	case "weekly", "monthly", "yearly":
	default:
		return nil, ErrInvalidPeriod
	}
	return s.Consultations.PeriodStats(ctx, doctor, period)
}

// DailyBreakdown returns the hourly consultation counts for one day.
func (s *Service) DailyBreakdown(ctx context.Context, doctor string, day time.Time) ([]consultation.HourStat, error) {
	return s.Consultations.DailyBreakdown(ctx, doctor, day)
}

func (s *Service) requireActive(ctx context.Context, doctor string) error {
	active, err := s.Consultations.Active(ctx, doctor)
	if err != nil {
		return err
	}
	if active == nil {
		return consultation.ErrNotActive
	}
	return nil
}

func metricsOrZero(ctx context.Context, repo consultation.Repository, doctor string) consultation.Metrics {
	m, err := repo.Metrics(ctx, doctor)
	if err != nil {
		return consultation.Metrics{}
	}
	return m
}
