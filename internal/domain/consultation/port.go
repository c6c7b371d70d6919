package consultation

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyActive indicates the doctor already has an open consultation.
var ErrAlreadyActive = errors.New("an active consultation already exists")

// ErrNotActive indicates no open consultation exists for the doctor.
var ErrNotActive = errors.New("no active consultation")

// ErrNotFound indicates the consultation does not exist or is already closed.
var ErrNotFound = errors.New("consultation not found or already closed")

// Repository port for consultation persistence and metrics aggregation.
type Repository interface {
	Start(ctx context.Context, c *Consultation) error
	Active(ctx context.Context, doctor string) (*Consultation, error)
	End(ctx context.Context, doctor string, id ID, at time.Time) (*Consultation, error)

	Metrics(ctx context.Context, doctor string) (Metrics, error)
	// PeriodStats aggregates over a rolling window: 7 days for weekly,
	// 30 for monthly, 365 for yearly, bucketed by period label.
	PeriodStats(ctx context.Context, doctor, period string) ([]PeriodStat, error)
	DailyBreakdown(ctx context.Context, doctor string, day time.Time) ([]HourStat, error)
}
