package source

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedscope/pkg/domain"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := NewNormalizer()

	t.Run("maps fields to canonical record", func(t *testing.T) {
		at := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
		items := []Item{
			GooglePlayItem{ReviewID: "gp1", Content: "works well", Score: 4, At: at, UserName: "alice", Version: "2.1.0"},
		}
		records, stats := n.Normalize(items)

		require.Len(t, records, 1)
		assert.Equal(t, 1, stats.Normalized)
		rec := records[0]
		assert.Equal(t, "gp1", rec.ID)
		assert.Equal(t, domain.SourceGooglePlay, rec.Source)
		assert.Equal(t, "works well", rec.Text)
		require.NotNil(t, rec.Rating)
		assert.Equal(t, 4, *rec.Rating)
		assert.Equal(t, at, rec.Date)
		assert.Equal(t, "alice", rec.Author)
		assert.False(t, rec.InferredDate)
	})

	t.Run("drops records with empty text", func(t *testing.T) {
		items := []Item{
			CSVRow{ID: "c1", Text: "real feedback"},
			CSVRow{ID: "c2", Text: "   "},
			CSVRow{ID: "c3", Text: "<p></p>"},
		}
		records, stats := n.Normalize(items)

		require.Len(t, records, 1)
		assert.Equal(t, "c1", records[0].ID)
		assert.Equal(t, 2, stats.Skipped)
	})

	t.Run("strips html and unescapes entities", func(t *testing.T) {
		items := []Item{
			AppStoreEntry{ID: "a1", Content: "<b>Great</b> app &amp; support", Rating: "5"},
		}
		records, _ := n.Normalize(items)

		require.Len(t, records, 1)
		assert.Equal(t, "Great app & support", records[0].Text)
	})

	t.Run("duplicate ids dropped, first wins", func(t *testing.T) {
		items := []Item{
			CSVRow{ID: "dup", Text: "first version"},
			CSVRow{ID: "dup", Text: "second version"},
		}
		records, stats := n.Normalize(items)

		require.Len(t, records, 1)
		assert.Equal(t, "first version", records[0].Text)
		assert.Equal(t, 1, stats.Normalized)
		assert.Zero(t, stats.Skipped, "duplicates are not counted as skipped")
	})

	t.Run("unparseable date substituted with ingestion time", func(t *testing.T) {
		fixed := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)
		n := NewNormalizer()
		n.now = func() time.Time { return fixed }

		items := []Item{
			CSVRow{ID: "c1", Text: "no date at all"},
			CSVRow{ID: "c2", Text: "garbage date", Date: "sometime last week"},
			CSVRow{ID: "c3", Text: "good date", Date: "2025-06-01"},
		}
		records, stats := n.Normalize(items)

		require.Len(t, records, 3)
		assert.Equal(t, 2, stats.InferredDates)
		assert.Equal(t, fixed, records[0].Date)
		assert.True(t, records[0].InferredDate)
		assert.Equal(t, fixed, records[1].Date)
		assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), records[2].Date)
		assert.False(t, records[2].InferredDate)
	})

	t.Run("dates converted to UTC", func(t *testing.T) {
		offset := time.FixedZone("UTC+5", 5*60*60)
		local := time.Date(2025, 6, 10, 1, 30, 0, 0, offset)
		n := NewNormalizer()
		n.now = func() time.Time { return time.Date(2025, 6, 20, 3, 0, 0, 0, time.Local) }

		items := []Item{
			GooglePlayItem{ReviewID: "g1", Content: "zoned provider time", Score: 4, At: local},
			CSVRow{ID: "c1", Text: "offset date string", Date: "2025-06-10T01:30:00+05:00"},
			CSVRow{ID: "c2", Text: "inferred"},
		}
		records, _ := n.Normalize(items)

		require.Len(t, records, 3)
		for _, rec := range records {
			assert.Equal(t, time.UTC, rec.Date.Location(), rec.ID)
		}
		assert.Equal(t, time.Date(2025, 6, 9, 20, 30, 0, 0, time.UTC), records[0].Date)
		assert.True(t, records[0].Date.Equal(records[1].Date))
	})

	t.Run("accepts multiple date formats", func(t *testing.T) {
		for _, date := range []string{
			"2025-06-01T10:30:00Z",
			"2025-06-01 10:30:00",
			"2025/06/01",
			"06/01/2025",
		} {
			items := []Item{CSVRow{ID: "d_" + date, Text: "dated", Date: date}}
			records, _ := n.Normalize(items)
			require.Len(t, records, 1, date)
			assert.False(t, records[0].InferredDate, date)
		}
	})

	t.Run("out of range rating dropped", func(t *testing.T) {
		items := []Item{
			CSVRow{ID: "c1", Text: "rated eleven", Rating: "11"},
			CSVRow{ID: "c2", Text: "rated zero", Rating: "0"},
			CSVRow{ID: "c3", Text: "not a number", Rating: "five"},
			CSVRow{ID: "c4", Text: "valid", Rating: "3"},
		}
		records, _ := n.Normalize(items)

		require.Len(t, records, 4)
		assert.Nil(t, records[0].Rating)
		assert.Nil(t, records[1].Rating)
		assert.Nil(t, records[2].Rating)
		require.NotNil(t, records[3].Rating)
		assert.Equal(t, 3, *records[3].Rating)
	})

	t.Run("missing id generated with source prefix", func(t *testing.T) {
		items := []Item{CSVRow{Text: "anonymous row"}}
		records, _ := n.Normalize(items)

		require.Len(t, records, 1)
		assert.True(t, strings.HasPrefix(records[0].ID, "csv_"), records[0].ID)
	})

	t.Run("input order preserved", func(t *testing.T) {
		items := []Item{
			CSVRow{ID: "first", Text: "one"},
			SyntheticItem{ID: "second", Text: "two", Rating: 3, Date: time.Now()},
			CSVRow{ID: "third", Text: "three"},
		}
		records, _ := n.Normalize(items)

		require.Len(t, records, 3)
		assert.Equal(t, "first", records[0].ID)
		assert.Equal(t, "second", records[1].ID)
		assert.Equal(t, "third", records[2].ID)
	})
}
