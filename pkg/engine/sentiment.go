package engine

import (
	"strings"

	"github.com/umputun/feedscope/pkg/domain"
)

// RuleClassifier is the deterministic lexicon-based fallback used when the
// AI path is unavailable or fails. Same text and rating always produce the
// same result. Confidence is capped at fallbackConfidenceCeiling, below the
// AI path's typical range, to signal lower certainty.
type RuleClassifier struct{}

const (
	// sentiment thresholds on the blended score
	positiveThreshold = 0.2
	negativeThreshold = -0.2

	// confidence when the lexicon has nothing to say
	noHitConfidence = 50

	fallbackConfidenceCeiling = 80
)

// indicator lexicons. Terms are matched as lowercase substrings, each term
// counts at most once per record.
var positiveTerms = []string{
	"love", "great", "amazing", "excellent", "perfect", "awesome", "fantastic",
	"wonderful", "best", "thank", "happy", "smooth", "fast", "flawless",
	"brilliant", "reliable", "superb", "impressed", "exceptional",
}

var negativeTerms = []string{
	"terrible", "awful", "horrible", "useless", "worst", "hate", "uninstall",
	"disappointed", "frustrated", "angry", "waste", "crash", "broken", "bug",
	"error", "freeze", "fail", "glitch", "unacceptable", "unusable", "slow",
	"lag", "drain",
}

// Classify scores the record's text against the lexicons. The score is
// (positive hits - negative hits) / total hits, blended 3:1 with the rating
// prior (rating-3)/2 when any hit exists. No hits yields a neutral result
// with fixed moderate confidence.
func (RuleClassifier) Classify(rec *domain.FeedbackRecord) domain.Classification {
	text := strings.ToLower(rec.Text + " " + rec.Title)

	posHits := countHits(text, positiveTerms)
	negHits := countHits(text, negativeTerms)
	totalHits := posHits + negHits

	cl := domain.Classification{ID: rec.ID}

	if totalHits == 0 {
		cl.Sentiment = domain.SentimentNeutral
		cl.SentimentScore = 0
		cl.Confidence = noHitConfidence
		return cl
	}

	score := float64(posHits-negHits) / float64(totalHits)
	if rec.Rating != nil {
		prior := (float64(*rec.Rating) - 3) / 2 // maps 1-5 to -1..+1
		score = 0.75*score + 0.25*prior
	}

	switch {
	case score > positiveThreshold:
		cl.Sentiment = domain.SentimentPositive
	case score < negativeThreshold:
		cl.Sentiment = domain.SentimentNegative
	default:
		cl.Sentiment = domain.SentimentNeutral
	}

	cl.SentimentScore = score

	// more lexicon matches, higher confidence
	confidence := float64(noHitConfidence + 8*totalHits)
	if confidence > fallbackConfidenceCeiling {
		confidence = fallbackConfidenceCeiling
	}
	cl.Confidence = confidence

	return cl
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}
