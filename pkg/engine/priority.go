package engine

import (
	"sort"
	"strings"

	"github.com/umputun/feedscope/pkg/domain"
)

// Prioritizer flags bug-like records with a severity and tags feature
// requests. Decisions are rule-based and deterministic so the bug board
// stays stable regardless of which classification path ran.
type Prioritizer struct {
	lowRatingThreshold int
}

// NewPrioritizer creates a prioritizer. Records rated at or below the
// threshold with negative sentiment are bug-flagged even without indicator
// terms.
func NewPrioritizer(lowRatingThreshold int) *Prioritizer {
	if lowRatingThreshold == 0 {
		lowRatingThreshold = 2
	}
	return &Prioritizer{lowRatingThreshold: lowRatingThreshold}
}

// bug indicator terms, matched as lowercase substrings
var bugTerms = []string{
	"crash", "bug", "broken", "error", "freeze", "fail", "glitch",
	"not working", "doesn't work", "won't", "can't", "stopped working",
}

// terms that escalate a bug to critical: crashes, data loss, security
var criticalTerms = []string{
	"crash", "freeze", "data loss", "lost data", "lose data", "data-loss",
	"hacked", "security", "login", "stuck", "disappear",
}

// feature request indicator terms
var featureTerms = []string{
	"please add", "would love", "feature request", "wish", "add option",
	"would be great", "suggest", "needs a", "would be incredible",
	"add support", "desperately needed",
}

const (
	strongNegativeScore = -0.6
	moderateConfidence  = 55
)

// Apply decides is_bug, priority and is_feature for a classified record.
// Priority is populated iff is_bug is true.
func (p *Prioritizer) Apply(rec *domain.FeedbackRecord) {
	text := strings.ToLower(rec.Text + " " + rec.Title)

	hasBugTerms := containsAny(text, bugTerms)
	hasCriticalTerms := containsAny(text, criticalTerms)
	lowRating := rec.Rating != nil && *rec.Rating <= p.lowRatingThreshold
	negative := rec.Sentiment == domain.SentimentNegative

	rec.IsBug = negative && (hasBugTerms || lowRating)

	switch {
	case !rec.IsBug:
		rec.Priority = ""
	case hasCriticalTerms || (rec.Rating != nil && *rec.Rating == 1 && rec.SentimentScore <= strongNegativeScore):
		rec.Priority = domain.PriorityCritical
	case hasBugTerms && rec.Confidence >= moderateConfidence:
		rec.Priority = domain.PriorityHigh
	case lowRating && !hasBugTerms:
		rec.Priority = domain.PriorityNormal
	default:
		rec.Priority = domain.PriorityLow
	}

	// feature requests are a parallel tag on non-negative records
	rec.IsFeature = !negative && containsAny(text, featureTerms)
}

// BugBoard returns all bug-flagged records ranked by priority, newest first
// within a tier
func BugBoard(records []domain.FeedbackRecord) []domain.FeedbackRecord {
	var bugs []domain.FeedbackRecord
	for _, rec := range records {
		if rec.IsBug {
			bugs = append(bugs, rec)
		}
	}
	sort.SliceStable(bugs, func(i, j int) bool {
		if bugs[i].Priority.Rank() != bugs[j].Priority.Rank() {
			return bugs[i].Priority.Rank() < bugs[j].Priority.Rank()
		}
		return bugs[i].Date.After(bugs[j].Date)
	})
	return bugs
}

// FeatureRequests returns feature-tagged records sorted by rating descending,
// unrated records last
func FeatureRequests(records []domain.FeedbackRecord) []domain.FeedbackRecord {
	var features []domain.FeedbackRecord
	for _, rec := range records {
		if rec.IsFeature {
			features = append(features, rec)
		}
	}
	sort.SliceStable(features, func(i, j int) bool {
		ri, rj := -1, -1
		if features[i].Rating != nil {
			ri = *features[i].Rating
		}
		if features[j].Rating != nil {
			rj = *features[j].Rating
		}
		return ri > rj
	})
	return features
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
