package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/feedscope/pkg/domain"
)

// ErrStale is returned by Load when the cached dataset is older than the TTL
var ErrStale = errors.New("cached dataset is stale")

// ErrEmpty is returned by Load when no dataset was ever cached
var ErrEmpty = errors.New("no cached dataset")

// recordSQL represents a feedback record for SQL operations
type recordSQL struct {
	ID             string     `db:"id"`
	Source         string     `db:"source"`
	Text           string     `db:"text"`
	Title          string     `db:"title"`
	Rating         *int       `db:"rating"`
	Date           time.Time  `db:"date"`
	Author         string     `db:"author"`
	Version        string     `db:"version"`
	InferredDate   bool       `db:"inferred_date"`
	Sentiment      string     `db:"sentiment"`
	SentimentScore float64    `db:"sentiment_score"`
	Confidence     float64    `db:"confidence"`
	IsBug          bool       `db:"is_bug"`
	IsFeature      bool       `db:"is_feature"`
	Priority       string     `db:"priority"`
	Topics         stringsSQL `db:"topics"`
	Keywords       stringsSQL `db:"keywords"`
	Position       int        `db:"position"`
}

// stringsSQL is a JSON array of strings for SQL operations
type stringsSQL []string

// Value implements driver.Valuer for database storage
func (s stringsSQL) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for database retrieval
func (s *stringsSQL) Scan(value interface{}) error {
	if value == nil {
		*s = stringsSQL{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for strings: %T", value)
	}

	if len(data) == 0 {
		*s = stringsSQL{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// Replace transactionally swaps the cached dataset for a new one. Writes
// retry with backoff on transient sqlite busy errors.
func (r *Repository) Replace(ctx context.Context, records []domain.FeedbackRecord, notices domain.Notices) error {
	retrier := repeater.NewBackoff(5, 50*time.Millisecond, repeater.WithMaxDelay(2*time.Second))

	return retrier.Do(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.ExecContext(ctx, "DELETE FROM records"); err != nil {
			return fmt.Errorf("clear records: %w", err)
		}

		const insertSQL = `INSERT INTO records
			(id, source, text, title, rating, date, author, version, inferred_date,
			 sentiment, sentiment_score, confidence, is_bug, is_feature, priority,
			 topics, keywords, position)
			VALUES (:id, :source, :text, :title, :rating, :date, :author, :version, :inferred_date,
			 :sentiment, :sentiment_score, :confidence, :is_bug, :is_feature, :priority,
			 :topics, :keywords, :position)`

		for i, rec := range records {
			if _, err := tx.NamedExecContext(ctx, insertSQL, toSQL(rec, i)); err != nil {
				return fmt.Errorf("insert record %s: %w", rec.ID, err)
			}
		}

		degraded, err := json.Marshal(notices.SourcesDegraded)
		if err != nil {
			return fmt.Errorf("marshal degraded sources: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO dataset_meta (id, loaded_at, skipped, degraded, sources_degraded)
			 VALUES (1, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET loaded_at=excluded.loaded_at, skipped=excluded.skipped,
			   degraded=excluded.degraded, sources_degraded=excluded.sources_degraded`,
			time.Now().UTC(), notices.Skipped, notices.Degraded, string(degraded)); err != nil {
			return fmt.Errorf("update dataset meta: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
}

// Load returns the cached dataset in ingestion order. ErrEmpty when nothing
// was cached, ErrStale when the cache is older than ttl.
func (r *Repository) Load(ctx context.Context, ttl time.Duration) ([]domain.FeedbackRecord, domain.Notices, error) {
	var meta struct {
		LoadedAt        time.Time `db:"loaded_at"`
		Skipped         int       `db:"skipped"`
		Degraded        int       `db:"degraded"`
		SourcesDegraded string    `db:"sources_degraded"`
	}
	err := r.db.GetContext(ctx, &meta,
		"SELECT loaded_at, skipped, degraded, sources_degraded FROM dataset_meta WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Notices{}, ErrEmpty
	}
	if err != nil {
		return nil, domain.Notices{}, fmt.Errorf("load dataset meta: %w", err)
	}

	if time.Since(meta.LoadedAt) > ttl {
		return nil, domain.Notices{}, ErrStale
	}

	var rows []recordSQL
	if err := r.db.SelectContext(ctx, &rows, "SELECT * FROM records ORDER BY position"); err != nil {
		return nil, domain.Notices{}, fmt.Errorf("load records: %w", err)
	}

	notices := domain.Notices{Skipped: meta.Skipped, Degraded: meta.Degraded}
	if err := json.Unmarshal([]byte(meta.SourcesDegraded), &notices.SourcesDegraded); err != nil {
		return nil, domain.Notices{}, fmt.Errorf("parse degraded sources: %w", err)
	}

	records := make([]domain.FeedbackRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromSQL(row))
	}
	return records, notices, nil
}

func toSQL(rec domain.FeedbackRecord, position int) recordSQL {
	return recordSQL{
		ID:             rec.ID,
		Source:         string(rec.Source),
		Text:           rec.Text,
		Title:          rec.Title,
		Rating:         rec.Rating,
		Date:           rec.Date,
		Author:         rec.Author,
		Version:        rec.Version,
		InferredDate:   rec.InferredDate,
		Sentiment:      string(rec.Sentiment),
		SentimentScore: rec.SentimentScore,
		Confidence:     rec.Confidence,
		IsBug:          rec.IsBug,
		IsFeature:      rec.IsFeature,
		Priority:       string(rec.Priority),
		Topics:         stringsSQL(rec.Topics),
		Keywords:       stringsSQL(rec.Keywords),
		Position:       position,
	}
}

func fromSQL(row recordSQL) domain.FeedbackRecord {
	return domain.FeedbackRecord{
		ID:             row.ID,
		Source:         domain.Source(row.Source),
		Text:           row.Text,
		Title:          row.Title,
		Rating:         row.Rating,
		Date:           row.Date,
		Author:         row.Author,
		Version:        row.Version,
		InferredDate:   row.InferredDate,
		Sentiment:      domain.Sentiment(row.Sentiment),
		SentimentScore: row.SentimentScore,
		Confidence:     row.Confidence,
		IsBug:          row.IsBug,
		IsFeature:      row.IsFeature,
		Priority:       domain.Priority(row.Priority),
		Topics:         row.Topics,
		Keywords:       row.Keywords,
	}
}
