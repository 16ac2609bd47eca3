package domain

import "time"

// Source identifies where a feedback record came from
type Source string

// known feedback sources
const (
	SourceGooglePlay Source = "google_play"
	SourceAppStore   Source = "app_store"
	SourceCSV        Source = "csv"
	SourceSynthetic  Source = "synthetic"
)

// Valid reports whether the source is one of the known values
func (s Source) Valid() bool {
	switch s {
	case SourceGooglePlay, SourceAppStore, SourceCSV, SourceSynthetic:
		return true
	}
	return false
}

// Sentiment is the classified polarity of a record
type Sentiment string

// sentiment labels
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Priority ranks bug-flagged records
type Priority string

// bug priorities, ordered from most to least severe
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityNormal   Priority = "normal"
	PriorityLow      Priority = "low"
)

// Rank returns the sort rank of a priority, critical first
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityNormal:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// FeedbackRecord is the canonical unit all components consume. Records are
// created by the normalizer, classified and prioritized in a single pass, and
// read-only afterwards.
type FeedbackRecord struct {
	ID      string    `json:"id"`
	Source  Source    `json:"source"`
	Text    string    `json:"text"`
	Title   string    `json:"title,omitempty"`
	Rating  *int      `json:"rating,omitempty"` // 1-5, absent for unrated sources
	Date    time.Time `json:"date"`
	Author  string    `json:"author,omitempty"`
	Version string    `json:"version,omitempty"`

	// InferredDate marks records whose date failed to parse and was
	// substituted with ingestion time
	InferredDate bool `json:"inferred_date,omitempty"`

	// classification results, absent until classified
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	SentimentScore float64   `json:"sentiment_score"`
	Confidence     float64   `json:"confidence"`

	// prioritization results
	IsBug     bool     `json:"is_bug"`
	IsFeature bool     `json:"is_feature"`
	Priority  Priority `json:"priority,omitempty"` // set iff IsBug

	Topics   []string `json:"topics,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// Classified reports whether the record went through sentiment classification
func (r *FeedbackRecord) Classified() bool {
	return r.Sentiment != ""
}

// Classification is the result of one sentiment classification attempt,
// produced by either the AI path or the rule-based fallback
type Classification struct {
	ID             string    `json:"id"`
	Sentiment      Sentiment `json:"sentiment"`
	SentimentScore float64   `json:"score"`
	Confidence     float64   `json:"confidence"`
	Topics         []string  `json:"topics,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	IsBug          bool      `json:"is_bug"`
	IsFeature      bool      `json:"is_feature"`
	Priority       Priority  `json:"priority,omitempty"`
}

// Apply copies classification results onto a record, clamping values into
// their documented ranges
func (c Classification) Apply(r *FeedbackRecord) {
	r.Sentiment = c.Sentiment
	r.SentimentScore = clamp(c.SentimentScore, -1, 1)
	r.Confidence = clamp(c.Confidence, 0, 100)
	if len(c.Topics) > 0 {
		r.Topics = c.Topics
	}
	if len(c.Keywords) > 0 {
		r.Keywords = c.Keywords
	}
	r.IsBug = c.IsBug
	r.IsFeature = c.IsFeature
	if c.IsBug {
		r.Priority = c.Priority
		if r.Priority == "" {
			r.Priority = PriorityLow
		}
	} else {
		r.Priority = ""
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Filter selects a subset of records, intersection semantics - every set
// field must match
type Filter struct {
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Source    Source     `json:"source,omitempty"`
	Sentiment Sentiment  `json:"sentiment,omitempty"`
	Priority  Priority   `json:"priority,omitempty"`
}

// Match reports whether a record passes the filter
func (f Filter) Match(r *FeedbackRecord) bool {
	if f.From != nil && r.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Date.After(*f.To) {
		return false
	}
	if f.Source != "" && r.Source != f.Source {
		return false
	}
	if f.Sentiment != "" && r.Sentiment != f.Sentiment {
		return false
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	return true
}
