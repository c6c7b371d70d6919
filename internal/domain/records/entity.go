package records

// Summary is the structured clinical summary extracted from a document.
// The shape is fixed by the prompt schema but the model fills it free-form,
// so it stays a generic JSON object end to end. It is regenerated whole on
// every upload and never partially updated.
type Summary map[string]any

// Visualizations returns the visualizations array, or nil when absent.
func (s Summary) Visualizations() []any {
	v, _ := s["visualizations"].([]any)
	return v
}

// MedicalEntities returns the medical_entities object, or nil when absent.
func (s Summary) MedicalEntities() map[string]any {
	m, _ := s["medical_entities"].(map[string]any)
	return m
}

// LabTests returns lab_results.tests, or nil when absent.
func (s Summary) LabTests() []any {
	lab, _ := s["lab_results"].(map[string]any)
	if lab == nil {
		return nil
	}
	tests, _ := lab["tests"].([]any)
	return tests
}

// Categories of per-user cache entries.
const (
	CategoryMedicalRecord     = "medical_record"
	CategoryStructuredSummary = "structured_summary"
)
