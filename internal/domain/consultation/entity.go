package consultation

import "time"

// ID type for a consultation.
type ID string

// Consultation is one doctor/document engagement window. At most one may be
// active (EndedAt null) per doctor at any time.
type Consultation struct {
	ID        ID         `json:"id"`
	Doctor    string     `json:"doctor"`
	FileName  string     `json:"file_name"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Active reports whether the consultation is still open.
func (c *Consultation) Active() bool { return c.EndedAt == nil }

// Duration of a closed consultation.
func (c *Consultation) Duration() time.Duration {
	if c.EndedAt == nil {
		return 0
	}
	return c.EndedAt.Sub(c.StartedAt)
}

// Metrics is the productivity rollup over a doctor's completed consultations.
type Metrics struct {
	TotalConsultations int     `json:"total_consultations"`
	AvgMinutes         float64 `json:"avg_minutes"`
	MinMinutes         float64 `json:"min_minutes"`
	MaxMinutes         float64 `json:"max_minutes"`
}

// PeriodStat is one bucket of a weekly/monthly/yearly performance breakdown.
// TotalRecords counts every consultation started in the bucket; completed
// ones additionally feed CompletedCases and the duration average.
type PeriodStat struct {
	Period             string  `json:"period"`
	TotalRecords       int     `json:"total_records"`
	CompletedCases     int     `json:"completed_cases"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}

// HourStat is one hour bucket of a daily breakdown. All 24 hours are always
// present, zero-filled.
type HourStat struct {
	Hour               string  `json:"hour"`
	TotalRecords       int     `json:"total_records"`
	CompletedCases     int     `json:"completed_cases"`
	AvgDurationMinutes float64 `json:"avg_duration_minutes"`
}
