package records

import "context"

// ObjectStore port for the temporary document bucket.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Remove(ctx context.Context, key string) error
}

// OCRClient port for the asynchronous text-detection provider.
// StartTextDetection returns a job id; GetTextDetection returns one result
// page plus the continuation token for the next one ("" when exhausted).
type OCRClient interface {
	StartTextDetection(ctx context.Context, key string) (string, error)
	GetTextDetection(ctx context.Context, jobID, nextToken string) (*TextDetectionPage, error)
}

// Job states reported by the OCR provider.
const (
	JobInProgress = "IN_PROGRESS"
	JobSucceeded  = "SUCCEEDED"
	JobFailed     = "FAILED"
)

// TextDetectionPage is one page of an OCR job result. Lines holds the
// recognized LINE blocks in page order.
type TextDetectionPage struct {
	Status    string
	Lines     []string
	NextToken string
}

// LLMClient is the capability port for the language-model provider. Both
// provider families (OpenAI, Azure OpenAI) implement it; the concrete one is
// chosen once at process start from configuration.
type LLMClient interface {
	GetStructuredSummary(ctx context.Context, userID, text string) (Summary, error)
	ChatWithDoctor(ctx context.Context, userID, text, question string) (string, error)
}

// SessionCache is the per-user, TTL-bound cache port. Implementations fail
// closed: a disconnected backend or an invalid user id yields false/nil, never
// an error that escapes to callers.
type SessionCache interface {
	SetMedicalRecord(ctx context.Context, userID, text string) bool
	GetMedicalRecord(ctx context.Context, userID string) (string, bool)
	ClearMedicalRecord(ctx context.Context, userID string) bool
	ClearAllUserData(ctx context.Context, userID string) bool

	SetStructuredSummary(ctx context.Context, userID string, s Summary) bool
	GetStructuredSummary(ctx context.Context, userID string) Summary

	// Derived projections over the cached structured summary. Pure reads:
	// they never reach the OCR or LLM providers.
	GetVisualizations(ctx context.Context, userID string) []any
	GetMedicalEntities(ctx context.Context, userID string) map[string]any
	GetLabResults(ctx context.Context, userID string) []any
	GetTestResultsByName(ctx context.Context, userID, testName string) []any
	GetVisualizationByTitle(ctx context.Context, userID, title string) map[string]any
	GetAllTestNames(ctx context.Context, userID string) []string

	// Dev-mode replay cache keyed by filename, not by user.
	SetCachedText(ctx context.Context, fileName, text string) bool
	GetCachedText(ctx context.Context, fileName string) (string, bool)
}

// TextExtractor port for the document-to-text pipeline.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, fileName string) (string, error)
}
