package records

import "errors"

// ErrExtractionFailed indicates the OCR job failed or the provider errored.
// Callers must treat it as "no document text available".
var ErrExtractionFailed = errors.New("text extraction failed")

// ErrGenerationTimeout indicates the language-model call exceeded its deadline.
var ErrGenerationTimeout = errors.New("llm request timed out")

// ErrGenerationFailed indicates a non-timeout language-model provider failure.
var ErrGenerationFailed = errors.New("llm request failed")

// ErrNoRecord indicates no cached raw text exists for the user.
var ErrNoRecord = errors.New("no medical record found")

// ErrNoSummary indicates no cached structured summary exists for the user.
var ErrNoSummary = errors.New("no structured summary found")

// ErrInvalidUserID indicates a user identifier that would break cache key
// namespacing (contains the separator).
var ErrInvalidUserID = errors.New("invalid user id")
