package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	domain "github.com/sperow/medrecords/internal/domain/consultation"
)

type ConsultationRepository struct {
	db *sql.DB
}

func NewConsultationRepository(db *sql.DB) *ConsultationRepository {
	return &ConsultationRepository{db: db}
}

// Start inserts a new open consultation row.
func (r *ConsultationRepository) Start(ctx context.Context, c *domain.Consultation) error {
	const q = `
INSERT INTO consultations (id, doctor, file_name, started_at, ended_at)
VALUES (?,?,?,?,NULL);
`
	started := c.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, c.ID, c.Doctor, c.FileName, started)
	return err
}

// Active returns the doctor's open consultation, or nil when none exists.
func (r *ConsultationRepository) Active(ctx context.Context, doctor string) (*domain.Consultation, error) {
	const q = `
SELECT id, doctor, file_name, started_at, ended_at
FROM consultations
WHERE doctor=? AND ended_at IS NULL
ORDER BY started_at DESC
LIMIT 1;
`
	c, err := scanConsultation(r.db.QueryRowContext(ctx, q, doctor))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// End closes an open consultation. Closing a missing or already-closed row
// yields domain.ErrNotFound.
func (r *ConsultationRepository) End(ctx context.Context, doctor string, id domain.ID, at time.Time) (*domain.Consultation, error) {
	const q = `
UPDATE consultations SET ended_at=?
WHERE id=? AND doctor=? AND ended_at IS NULL;
`
	res, err := r.db.ExecContext(ctx, q, at, id, doctor)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.ErrNotFound
	}

	const sel = `
SELECT id, doctor, file_name, started_at, ended_at
FROM consultations
WHERE id=? AND doctor=?;
`
	return scanConsultation(r.db.QueryRowContext(ctx, sel, id, doctor))
}

// Metrics aggregates duration stats over the doctor's completed consultations.
func (r *ConsultationRepository) Metrics(ctx context.Context, doctor string) (domain.Metrics, error) {
	const q = `
SELECT COUNT(*),
       COALESCE(AVG(TIMESTAMPDIFF(SECOND, started_at, ended_at))/60, 0),
       COALESCE(MIN(TIMESTAMPDIFF(SECOND, started_at, ended_at))/60, 0),
       COALESCE(MAX(TIMESTAMPDIFF(SECOND, started_at, ended_at))/60, 0)
FROM consultations
WHERE doctor=? AND ended_at IS NOT NULL;
`
	var m domain.Metrics
	err := r.db.QueryRowContext(ctx, q, doctor).Scan(
		&m.TotalConsultations, &m.AvgMinutes, &m.MinMinutes, &m.MaxMinutes,
	)
	if err != nil {
		return domain.Metrics{}, err
	}
	m.AvgMinutes = round2(m.AvgMinutes)
	m.MinMinutes = round2(m.MinMinutes)
	m.MaxMinutes = round2(m.MaxMinutes)
	return m, nil
}

// PeriodStats buckets consultations started within a rolling window (7, 30 or
// 365 days) by week, month or year label.
func (r *ConsultationRepository) PeriodStats(ctx context.Context, doctor, period string) ([]domain.PeriodStat, error) {
	var days int
	var format string
	switch period {
	case "weekly":
		days, format = 7, "%Y-%U"
	case "monthly":
		days, format = 30, "%Y-%m"
	case "yearly":
		days, format = 365, "%Y"
	default:
		return nil, fmt.Errorf("invalid period type: %s", period)
	}

	const q = `
SELECT DATE_FORMAT(started_at, ?) AS period,
       COUNT(*),
       SUM(CASE WHEN ended_at IS NOT NULL THEN 1 ELSE 0 END),
       COALESCE(AVG(CASE WHEN ended_at IS NOT NULL
                         THEN TIMESTAMPDIFF(SECOND, started_at, ended_at) END)/60, 0)
FROM consultations
WHERE doctor=? AND started_at >= DATE_SUB(UTC_TIMESTAMP(), INTERVAL ? DAY)
GROUP BY period
ORDER BY period ASC;
`
	rows, err := r.db.QueryContext(ctx, q, format, doctor, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PeriodStat
	for rows.Next() {
		var p domain.PeriodStat
		if err := rows.Scan(&p.Period, &p.TotalRecords, &p.CompletedCases, &p.AvgDurationMinutes); err != nil {
			return nil, err
		}
		p.AvgDurationMinutes = round2(p.AvgDurationMinutes)
		out = append(out, p)
	}
	return out, rows.Err()
}

// DailyBreakdown returns per-hour counts for one UTC day, zero-filled for all
// 24 hours.
func (r *ConsultationRepository) DailyBreakdown(ctx context.Context, doctor string, day time.Time) ([]domain.HourStat, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	const q = `
SELECT HOUR(started_at),
       COUNT(*),
       SUM(CASE WHEN ended_at IS NOT NULL THEN 1 ELSE 0 END),
       COALESCE(AVG(CASE WHEN ended_at IS NOT NULL
                         THEN TIMESTAMPDIFF(SECOND, started_at, ended_at) END)/60, 0)
FROM consultations
WHERE doctor=? AND started_at >= ? AND started_at < ?
GROUP BY HOUR(started_at)
ORDER BY HOUR(started_at) ASC;
`
	rows, err := r.db.QueryContext(ctx, q, doctor, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := zeroHourStats()
	for rows.Next() {
		var hour, total, completed int
		var avg float64
		if err := rows.Scan(&hour, &total, &completed, &avg); err != nil {
			return nil, err
		}
		if hour >= 0 && hour < 24 {
			buckets[hour].TotalRecords = total
			buckets[hour].CompletedCases = completed
			buckets[hour].AvgDurationMinutes = round2(avg)
		}
	}
	return buckets, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row rowScanner) (*domain.Consultation, error) {
	var c domain.Consultation
	var ended sql.NullTime
	if err := row.Scan(&c.ID, &c.Doctor, &c.FileName, &c.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		c.EndedAt = &t
	}
	return &c, nil
}

func zeroHourStats() []domain.HourStat {
	out := make([]domain.HourStat, 24)
	for h := range out {
		out[h] = domain.HourStat{Hour: fmt.Sprintf("%02d", h)}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
