package engine

import (
	"fmt"
	"strings"

	"github.com/umputun/feedscope/pkg/domain"
)

// templateSummary builds a statistical answer from the snapshot alone, used
// when the AI boundary is unavailable
func templateSummary(snap *domain.InsightSnapshot) string {
	if snap.KPI.Total == 0 {
		return "No feedback records match the current filter."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyzed %d feedback records: %.1f%% positive, %.1f%% negative (average sentiment score %.2f).",
		snap.KPI.Total, snap.KPI.PositivePct, snap.KPI.NegativePct, snap.KPI.AvgScore)

	if snap.KPI.AvgRating != nil {
		fmt.Fprintf(&sb, " Average rating is %.1f/5.", *snap.KPI.AvgRating)
	}

	fmt.Fprintf(&sb, " %d records look like bugs (%d critical) and %d are feature requests.",
		snap.KPI.BugCount, snap.KPI.CriticalCount, snap.KPI.FeatureCount)

	if len(snap.Topics) > 0 {
		names := make([]string, 0, len(snap.Topics))
		for i, t := range snap.Topics {
			if i == 3 {
				break
			}
			names = append(names, fmt.Sprintf("%s (%d)", t.Topic, t.Count))
		}
		fmt.Fprintf(&sb, " Top topics: %s.", strings.Join(names, ", "))
	}

	if dir := sentimentDirection(snap.Trends.AvgSentiment); dir != "" {
		fmt.Fprintf(&sb, " Sentiment is trending %s in the most recent period.", dir)
	}

	if snap.Notices.Degraded > 0 {
		fmt.Fprintf(&sb, " Note: %d records used fallback classification.", snap.Notices.Degraded)
	}

	return sb.String()
}

// sentimentDirection reports the latest non-flat movement, empty when the
// series is too short or flat throughout
func sentimentDirection(points []domain.TrendPoint) string {
	for i := len(points) - 1; i > 0; i-- {
		switch points[i].Direction {
		case domain.TrendUp:
			return "up"
		case domain.TrendDown:
			return "down"
		}
	}
	return ""
}
