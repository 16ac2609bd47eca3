package source

import (
	"time"

	"github.com/umputun/feedscope/pkg/domain"
)

// Item is one provider-shaped feedback entry. The set of implementations is
// closed: GooglePlayItem, AppStoreEntry, CSVRow and SyntheticItem, each with
// an explicit mapping to the canonical record. Raw field values are carried
// as-is, cleanup and validation happen in the normalizer.
type Item interface {
	// raw returns the provider-independent intermediate shape consumed by
	// the normalizer
	raw() rawItem
}

// rawItem is the intermediate shape between a provider item and the
// canonical record. Date stays a string so the normalizer can apply its
// multi-format parsing and inferred-date fallback uniformly.
type rawItem struct {
	id      string
	source  domain.Source
	text    string
	title   string
	rating  *int
	date    string
	parsed  *time.Time // set when the provider already has a parsed time
	author  string
	version string
}

// GooglePlayItem is a review row produced by an external Play Store scraper
type GooglePlayItem struct {
	ReviewID string    `json:"reviewId"`
	Content  string    `json:"content"`
	Score    int       `json:"score"`
	At       time.Time `json:"at"`
	UserName string    `json:"userName"`
	Version  string    `json:"reviewCreatedVersion"`
}

func (g GooglePlayItem) raw() rawItem {
	var rating *int
	if g.Score != 0 {
		score := g.Score
		rating = &score
	}
	var parsed *time.Time
	if !g.At.IsZero() {
		at := g.At
		parsed = &at
	}
	return rawItem{
		id:      g.ReviewID,
		source:  domain.SourceGooglePlay,
		text:    g.Content,
		rating:  rating,
		parsed:  parsed,
		author:  g.UserName,
		version: g.Version,
	}
}

// AppStoreEntry is one entry of the iTunes customer-reviews feed
type AppStoreEntry struct {
	ID      string
	Title   string
	Content string // may contain HTML
	Rating  string // im:rating, "1".."5"
	Updated string
	Author  string
	Version string // im:version
}

func (a AppStoreEntry) raw() rawItem {
	return rawItem{
		id:      a.ID,
		source:  domain.SourceAppStore,
		text:    a.Content,
		title:   a.Title,
		rating:  parseRating(a.Rating),
		date:    a.Updated,
		author:  a.Author,
		version: a.Version,
	}
}

// CSVRow is one row of an uploaded survey CSV, column values as read
type CSVRow struct {
	ID      string
	Text    string
	Rating  string
	Date    string
	Author  string
	Title   string
	Version string
}

func (c CSVRow) raw() rawItem {
	return rawItem{
		id:      c.ID,
		source:  domain.SourceCSV,
		text:    c.Text,
		title:   c.Title,
		rating:  parseRating(c.Rating),
		date:    c.Date,
		author:  c.Author,
		version: c.Version,
	}
}

// SyntheticItem is produced by the deterministic generator
type SyntheticItem struct {
	ID      string
	Text    string
	Rating  int
	Date    time.Time
	Author  string
	Version string
}

func (s SyntheticItem) raw() rawItem {
	rating := s.Rating
	date := s.Date
	return rawItem{
		id:      s.ID,
		source:  domain.SourceSynthetic,
		text:    s.Text,
		rating:  &rating,
		parsed:  &date,
		author:  s.Author,
		version: s.Version,
	}
}
