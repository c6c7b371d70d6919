package prompt

import "fmt"

// SummarySystem provides strict directions for JSON-only extraction output.
func SummarySystem() string {
	return `You are a clinical documentation analyst. You turn raw medical-record text into one valid JSON object following the exact schema given in the user message. Extract only what the record states; never infer, estimate, or fabricate.`
}

// SummaryUser builds the extraction prompt around the full record text. The
// schema template and numbered rules are part of the contract with the model:
// the recovery parser and downstream projections rely on these field names.
func SummaryUser(medicalText string) string {
	return fmt.Sprintf(`Here is a medical record. Create a detailed JSON summary with comprehensive analysis:

Medical Record:
%s

Required JSON Format:
%s

Rules:
1. ONLY include information explicitly stated in the record
2. Use exact values and dates from the record
3. For any missing fields, use "Not Available"
4. Do not generate or assume any information
5. For risk percentages and correlations, only use explicitly stated numerical values
6. Include all relevant timestamps exactly as they appear
7. Provide detailed clinical interpretations where data supports it
8. Highlight critical values and urgent concerns
9. Return ONLY valid JSON, no additional text
10. IMPORTANT: Include ALL test results with their exact timestamps - do not skip any results
11. For each type of test (e.g., blood tests), create a separate visualization showing trends over time
12. If multiple results exist for the same test on different dates, include ALL of them
13. Generate visualizations for ALL numeric measurements that have multiple values over time

Format your response like this:
`+"```json"+`
{
    "your": "json here"
}
`+"```", medicalText, summarySchemaTemplate)
}

// ChatUser builds the conversational prompt. The model is constrained to the
// supplied record text and must say when something is not available.
func ChatUser(medicalText, question string) string {
	return fmt.Sprintf(`Here is a medical record and a question about it:

Medical Record:
%s

Question: %s

IMPORTANT:
1. Use ONLY information from the provided medical record above
2. If information is not available, say "This information is not available in the medical record"
3. Do not make assumptions or generate information
4. Quote exact values and dates when relevant
5. Be clear about what information you're basing your answer on`, medicalText, question)
}
