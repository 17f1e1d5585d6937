package synthesis

import (
	"fmt"
	"strings"

	"github.com/jyang234/mull/internal/core"
)

// maxResponseExcerpt caps each response in the detail listing.
const maxResponseExcerpt = 200

// bucketHeadings maps buckets to their section headings.
var bucketHeadings = map[string]string{
	core.TimeMorning:   "Morning",
	core.TimeAfternoon: "Afternoon",
	core.TimeEvening:   "Evening",
	core.TimeLateNight: "Late Night",
}

// Render converts a task's history and analysis into the final synthesis
// document.
func Render(task *core.Task, analysis core.TemporalAnalysis) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Synthesis: %s\n\n", task.Title))
	sb.WriteString(fmt.Sprintf("%d check-ins across %d days.\n\n",
		len(task.CheckIns), DaySpan(task.CheckIns)))

	for _, bucket := range core.TimeBuckets {
		insights := analysis.InsightsByTime[bucket]
		if len(insights) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## %s Insights\n\n", bucketHeadings[bucket]))
		for _, insight := range insights {
			sb.WriteString(fmt.Sprintf("- %s\n", insight))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Temporal Analysis\n\n")
	sb.WriteString(fmt.Sprintf("%s.\n", analysis.StateConsistency))
	sb.WriteString(fmt.Sprintf("Best decision window: %s (average energy+focus %.1f).\n\n",
		bucketHeadings[analysis.OptimalDecisionTime.TimeOfDay],
		analysis.OptimalDecisionTime.Average))

	sb.WriteString("## Check-In Detail\n\n")
	for _, ci := range task.CheckIns {
		sb.WriteString(fmt.Sprintf("### Check-in %d (%s)\n\n", ci.Number, bucketHeadings[ci.TimeOfDay]))
		sb.WriteString(fmt.Sprintf("**Q:** %s\n\n", ci.QuestionAsked))
		sb.WriteString(fmt.Sprintf("**A:** %s\n\n", truncate(ci.Response, maxResponseExcerpt)))

		var scores []string
		if ci.Energy != nil {
			scores = append(scores, fmt.Sprintf("energy %d/5", *ci.Energy))
		}
		if ci.Mood != nil {
			scores = append(scores, fmt.Sprintf("mood %d/5", *ci.Mood))
		}
		if ci.Focus != nil {
			scores = append(scores, fmt.Sprintf("focus %d/5", *ci.Focus))
		}
		if len(scores) > 0 {
			sb.WriteString(fmt.Sprintf("Reported: %s\n\n", strings.Join(scores, ", ")))
		}
	}

	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
