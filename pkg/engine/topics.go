package engine

import (
	"sort"
	"strings"

	"github.com/umputun/feedscope/pkg/domain"
)

// TopicExtractor derives recurring topics and keywords across a record set.
// Extraction is idempotent: the same records always produce the same ranked
// tables, ties broken by first-seen order.
type TopicExtractor struct {
	topN int
}

// NewTopicExtractor creates an extractor bounded to topN table rows
func NewTopicExtractor(topN int) *TopicExtractor {
	if topN == 0 {
		topN = 8
	}
	return &TopicExtractor{topN: topN}
}

// topicBucket maps a topic name to its indicator terms. Order matters for
// first-seen tie-breaking, so this is a slice rather than a map.
type topicBucket struct {
	name  string
	terms []string
}

var topicBuckets = []topicBucket{
	{"performance", []string{"slow", "fast", "speed", "lag", "battery", "memory", "optimization"}},
	{"crashes", []string{"crash", "freeze", "froze", "startup"}},
	{"bugs", []string{"bug", "error", "broken", "fix", "glitch", "not working"}},
	{"UI/UX", []string{"ui", "interface", "design", "dark mode", "layout", "navigation", "clean"}},
	{"features", []string{"feature", "add", "option", "schedule", "export", "widget"}},
	{"notifications", []string{"notification", "alert", "push", "badge"}},
	{"privacy", []string{"privacy", "security", "encrypted", "safe", "hacked"}},
	{"support", []string{"support", "help", "customer service", "response"}},
	{"sync", []string{"sync", "devices", "transfer"}},
	{"login", []string{"login", "log in", "sign", "verification", "account"}},
}

// common words excluded from keyword counting
var stopWords = map[string]bool{
	"about": true, "after": true, "again": true, "all": true, "also": true,
	"and": true, "been": true, "before": true, "being": true, "but": true,
	"cannot": true, "could": true, "every": true, "from": true, "have": true,
	"just": true, "like": true, "more": true, "most": true, "much": true,
	"never": true, "not": true, "only": true, "other": true, "should": true,
	"since": true, "some": true, "still": true, "than": true, "that": true,
	"the": true, "their": true, "them": true, "then": true, "there": true,
	"they": true, "this": true, "time": true, "very": true, "when": true,
	"which": true, "while": true, "will": true, "with": true, "would": true,
	"your": true,
}

// AssignTopics fills in topics and keywords for records that lack them, then
// returns the aggregate frequency tables. AI-provided topics are preserved
// and counted alongside derived ones.
func (e *TopicExtractor) AssignTopics(records []domain.FeedbackRecord) (topics, keywords []domain.TopicCount) {
	for i := range records {
		if len(records[i].Topics) == 0 {
			records[i].Topics = deriveTopics(records[i].Text + " " + records[i].Title)
		}
		if len(records[i].Keywords) == 0 {
			records[i].Keywords = deriveKeywords(records[i].Text)
		}
	}
	return e.topTopics(records), e.topKeywords(records)
}

// deriveTopics matches text against the topic buckets, bounded to three
func deriveTopics(text string) []string {
	text = strings.ToLower(text)
	var topics []string
	for _, bucket := range topicBuckets {
		if containsAny(text, bucket.terms) {
			topics = append(topics, bucket.name)
			if len(topics) == 3 {
				break
			}
		}
	}
	return topics
}

// deriveKeywords picks up to five notable alphabetic tokens
func deriveKeywords(text string) []string {
	var keywords []string
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,!?:;\"'()")
		if len(tok) <= 4 || stopWords[tok] || !alphabetic(tok) {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}

func (e *TopicExtractor) topTopics(records []domain.FeedbackRecord) []domain.TopicCount {
	return rankCounts(records, e.topN, func(r domain.FeedbackRecord) []string { return r.Topics })
}

func (e *TopicExtractor) topKeywords(records []domain.FeedbackRecord) []domain.TopicCount {
	return rankCounts(records, e.topN, func(r domain.FeedbackRecord) []string { return r.Keywords })
}

// rankCounts counts values across records and returns the topN, descending
// by count with first-seen order breaking ties
func rankCounts(records []domain.FeedbackRecord, topN int, pick func(domain.FeedbackRecord) []string) []domain.TopicCount {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0

	for _, rec := range records {
		for _, v := range pick(rec) {
			if _, ok := counts[v]; !ok {
				firstSeen[v] = order
				order++
			}
			counts[v]++
		}
	}

	ranked := make([]domain.TopicCount, 0, len(counts))
	for v, c := range counts {
		ranked = append(ranked, domain.TopicCount{Topic: v, Count: c})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return firstSeen[ranked[i].Topic] < firstSeen[ranked[j].Topic]
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

func alphabetic(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
