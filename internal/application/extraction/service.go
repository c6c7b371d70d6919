package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sperow/medrecords/internal/domain/records"
)

// Service turns an uploaded document into raw text: upload to the temporary
// bucket, run the async OCR job to completion, concatenate recognized lines,
// delete the temporary object. Blocking by design; the poll loop is bounded
// only by ctx, which carries the outer request timeout.
type Service struct {
	Store        records.ObjectStore
	OCR          records.OCRClient
	PollInterval time.Duration
	Log          zerolog.Logger
}

const defaultPollInterval = 2 * time.Second

// ExtractText implements records.TextExtractor. Every failure path collapses
// to records.ErrExtractionFailed after logging; provider errors never escape.
// The temporary object is removed only on the success path; a FAILED job
// leaves it behind for the bucket lifecycle to clean up.
func (s *Service) ExtractText(ctx context.Context, data []byte, fileName string) (string, error) {
	key := "uploads/" + fileName

	if err := s.Store.Put(ctx, key, data, ""); err != nil {
		s.Log.Error().Str("key", key).Err(err).Msg("extract.upload_failed")
		return "", records.ErrExtractionFailed
	}

	jobID, err := s.OCR.StartTextDetection(ctx, key)
	if err != nil {
		s.Log.Error().Str("key", key).Err(err).Msg("extract.start_failed")
		return "", records.ErrExtractionFailed
	}

	text, err := s.collect(ctx, jobID)
	if err != nil {
		s.Log.Error().Str("key", key).Str("job_id", jobID).Err(err).Msg("extract.job_failed")
		return "", records.ErrExtractionFailed
	}

	if err := s.Store.Remove(ctx, key); err != nil {
		// Extraction already succeeded; losing the cleanup only leaks a
		// temporary object.
		s.Log.Warn().Str("key", key).Err(err).Msg("extract.cleanup_failed")
	}

	// A job can succeed with zero recognized lines (blank page, image-only
	// scan). There is nothing to summarize, so it counts as a failure.
	if strings.TrimSpace(text) == "" {
		s.Log.Error().Str("key", key).Str("job_id", jobID).Msg("extract.empty_text")
		return "", records.ErrExtractionFailed
	}

	s.Log.Info().Str("key", key).Str("job_id", jobID).Int("text_len", len(text)).Msg("extract.ok")
	return text, nil
}

// collect polls the job on a fixed interval until terminal, then pages
// through every result and joins the LINE blocks with single spaces.
func (s *Service) collect(ctx context.Context, jobID string) (string, error) {
	interval := s.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	for {
		page, err := s.OCR.GetTextDetection(ctx, jobID, "")
		if err != nil {
			return "", err
		}

		switch page.Status {
		case records.JobSucceeded:
			lines := page.Lines
			token := page.NextToken
			for token != "" {
				next, err := s.OCR.GetTextDetection(ctx, jobID, token)
				if err != nil {
					return "", err
				}
				lines = append(lines, next.Lines...)
				token = next.NextToken
			}
			return strings.Join(lines, " "), nil

		case records.JobFailed:
			return "", fmt.Errorf("document analysis failed")
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
}
