package source

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/umputun/feedscope/pkg/domain"
)

// Normalizer converts provider-shaped items into canonical feedback records.
// Records with empty text after cleanup are dropped and counted, never fatal.
type Normalizer struct {
	policy *bluemonday.Policy
	now    func() time.Time
}

// Stats reports what happened during one normalization pass
type Stats struct {
	Normalized    int
	Skipped       int // dropped, empty text after cleanup
	InferredDates int // date missing or unparseable, ingestion time substituted
}

// NewNormalizer creates a normalizer with the strict HTML-stripping policy
func NewNormalizer() *Normalizer {
	return &Normalizer{
		policy: bluemonday.StrictPolicy(),
		now:    time.Now,
	}
}

// Normalize maps items to canonical records in input order. Duplicate IDs are
// dropped, first occurrence wins.
func (n *Normalizer) Normalize(items []Item) ([]domain.FeedbackRecord, Stats) {
	records := make([]domain.FeedbackRecord, 0, len(items))
	stats := Stats{}
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		rec, ok := n.normalizeOne(item.raw())
		if !ok {
			stats.Skipped++
			continue
		}
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		if rec.InferredDate {
			stats.InferredDates++
		}
		records = append(records, rec)
		stats.Normalized++
	}
	return records, stats
}

func (n *Normalizer) normalizeOne(r rawItem) (domain.FeedbackRecord, bool) {
	text := n.clean(r.text)
	if text == "" {
		return domain.FeedbackRecord{}, false
	}

	rec := domain.FeedbackRecord{
		ID:      r.id,
		Source:  r.source,
		Text:    text,
		Title:   n.clean(r.title),
		Rating:  clampRating(r.rating),
		Author:  strings.TrimSpace(r.author),
		Version: strings.TrimSpace(r.version),
	}

	if rec.ID == "" {
		rec.ID = fmt.Sprintf("%s_%s", r.source, uuid.NewString())
	}

	switch {
	case r.parsed != nil && !r.parsed.IsZero():
		rec.Date = *r.parsed
	default:
		if ts, ok := parseDate(r.date); ok {
			rec.Date = ts
		} else {
			// missing dates must not exclude a record from trend bucketing
			rec.Date = n.now()
			rec.InferredDate = true
		}
	}
	// providers parse in mixed locations, canonical records are always UTC
	rec.Date = rec.Date.UTC()

	return rec, true
}

// clean strips HTML tags, unescapes entities and trims whitespace
func (n *Normalizer) clean(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(s)))
}

// dateFormats accepted by the normalizer, most specific first
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// parseRating converts a raw rating string to an int pointer, nil when
// absent or unreadable
func parseRating(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	r := int(f)
	return &r
}

func clampRating(r *int) *int {
	if r == nil {
		return nil
	}
	v := *r
	if v < 1 || v > 5 {
		return nil
	}
	return &v
}
