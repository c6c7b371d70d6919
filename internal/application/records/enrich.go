package records

import (
	"sort"

	"github.com/sperow/medrecords/internal/domain/records"
)

// EnrichLabTrends rebuilds lab_results.test_trends from the individual test
// entries and synthesizes a line-chart visualization for every test observed
// more than once. Runs at generation time, before the summary is cached, so
// the cache and all read paths see one consistent enriched object. No-op when
// the summary has no lab_results section.
func EnrichLabTrends(s records.Summary) {
	lab, ok := s["lab_results"].(map[string]any)
	if !ok {
		return
	}
	tests, _ := lab["tests"].([]any)

	// Group observations per test, preserving first-seen name order so the
	// output is deterministic.
	var order []string
	grouped := make(map[string][]map[string]any)
	for _, t := range tests {
		test, ok := t.(map[string]any)
		if !ok {
			continue
		}
		name, _ := test["name"].(string)
		if name == "" {
			continue
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], map[string]any{
			"value":           test["value"],
			"timestamp":       test["timestamp"],
			"trend_direction": test["trend"],
			"clinical_impact": test["clinical_significance"],
		})
	}

	trends := []any{}
	for _, name := range order {
		values := grouped[name]
		sort.SliceStable(values, func(i, j int) bool {
			return timestampOf(values[i]) < timestampOf(values[j])
		})
		trends = append(trends, map[string]any{
			"test_name":        name,
			"values_over_time": toAnySlice(values),
		})
	}
	lab["test_trends"] = trends

	visualizations, _ := s["visualizations"].([]any)
	if visualizations == nil {
		visualizations = []any{}
	}
	for _, name := range order {
		values := grouped[name]
		if len(values) < 2 {
			continue
		}
		timestamps := make([]any, len(values))
		testValues := make([]any, len(values))
		for i, v := range values {
			timestamps[i] = v["timestamp"]
			testValues[i] = v["value"]
		}
		visualizations = append(visualizations, map[string]any{
			"title": name + " Trend Analysis",
			"type":  "line_chart",
			"data": map[string]any{
				"x_axis": map[string]any{
					"label":  "Time",
					"values": timestamps,
				},
				"y_axis": map[string]any{
					"label":  name + " Values",
					"values": testValues,
				},
			},
			"source":                "Lab Results",
			"clinical_significance": "Trend analysis of " + name + " over time",
			"annotations":           []any{"Multiple " + name + " measurements found"},
			"recommendations":       []any{"Monitor trend for clinical decision making"},
		})
	}
	s["visualizations"] = visualizations
}

func timestampOf(v map[string]any) string {
	ts, _ := v["timestamp"].(string)
	return ts
}

func toAnySlice(values []map[string]any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
