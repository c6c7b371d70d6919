package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Input validation and sanitization utilities

var doctorIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._@-]{1,64}$`)

// ValidateDoctorID validates the doctor identifier. Colons are rejected
// because the cache keys are colon-delimited.
func ValidateDoctorID(doctor string) error {
	if doctor == "" {
		return fmt.Errorf("doctor ID cannot be empty")
	}
	if strings.Contains(doctor, ":") {
		return fmt.Errorf("doctor ID must not contain ':'")
	}
	if !doctorIDPattern.MatchString(doctor) {
		return fmt.Errorf("invalid doctor ID format (alphanumeric, dot, dash, underscore, at-sign only, max 64 chars)")
	}
	return nil
}

// ValidateFileName validates an uploaded document name.
func ValidateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	cleaned := filepath.Clean(name)
	if strings.Contains(cleaned, "..") || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid file name")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".png", ".jpg", ".jpeg", ".tiff":
		return nil
	}
	return fmt.Errorf("unsupported file type (allowed: pdf, png, jpg, jpeg, tiff)")
}

// ValidatePeriod validates the performance period selector.
func ValidatePeriod(period string) error {
	switch period {
	case "weekly", "monthly", "yearly":
		return nil
	}
	return fmt.Errorf("invalid period type: %s (allowed: weekly, monthly, yearly)", period)
}

// ParseDate parses a YYYY-MM-DD query parameter, defaulting to today (UTC).
func ParseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected YYYY-MM-DD")
	}
	return day, nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
