package worker

import (
	"fmt"
	"sort"
	"strings"

	"example.com/fittrack/internal/events"
)

// BuildPrompt renders the deterministic prompt sent to the generation
// capability. Identical facts produce byte-identical prompts; metric keys
// are emitted in sorted order.
func BuildPrompt(fact events.ActivityRecorded) string {
	var b strings.Builder

	b.WriteString("Analyze this fitness activity and provide recommendations in the following EXACT JSON format:\n")
	b.WriteString(`{
  "analysis": "Overall analysis of the session",
  "improvements": ["improvement 1", "improvement 2"],
  "suggestions": ["suggestion 1", "suggestion 2"],
  "safety": ["safety point 1", "safety point 2"]
}`)
	b.WriteString("\n\nAnalyze this activity:\n")
	fmt.Fprintf(&b, "Activity Type: %s\n", fact.Kind)
	fmt.Fprintf(&b, "Duration: %d minutes\n", fact.DurationMin)
	fmt.Fprintf(&b, "Calories Burned: %d\n", fact.Calories)

	if len(fact.Metrics) > 0 {
		b.WriteString("Additional Metrics:\n")
		keys := make([]string, 0, len(fact.Metrics))
		for key := range fact.Metrics {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(&b, "- %s: %g\n", key, fact.Metrics[key])
		}
	}

	b.WriteString("\nProvide detailed analysis focusing on performance, improvements, next workout suggestions, and safety guidelines.\n")
	b.WriteString("Ensure the response follows the EXACT JSON format shown above.")

	return b.String()
}
