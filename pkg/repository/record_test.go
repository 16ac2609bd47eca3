package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedscope/pkg/domain"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?mode=rwc"
	repo, err := New(context.Background(), Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func intPtr(v int) *int { return &v }

func sampleRecords() []domain.FeedbackRecord {
	date := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []domain.FeedbackRecord{
		{
			ID: "r1", Source: domain.SourceGooglePlay, Text: "love it", Title: "Great",
			Rating: intPtr(5), Date: date, Author: "alice", Version: "2.1.0",
			Sentiment: domain.SentimentPositive, SentimentScore: 0.9, Confidence: 85,
			Topics: []string{"performance"}, Keywords: []string{"smooth", "fast"},
		},
		{
			ID: "r2", Source: domain.SourceAppStore, Text: "crash on startup",
			Rating: intPtr(1), Date: date.AddDate(0, 0, 1), InferredDate: true,
			Sentiment: domain.SentimentNegative, SentimentScore: -0.95, Confidence: 70,
			IsBug: true, Priority: domain.PriorityCritical, Topics: []string{"crashes"},
		},
		{
			ID: "r3", Source: domain.SourceCSV, Text: "please add exports",
			Date: date.AddDate(0, 0, 2), Sentiment: domain.SentimentPositive,
			SentimentScore: 0.4, Confidence: 60, IsFeature: true,
		},
	}
}

func TestRepository_ReplaceAndLoad(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	notices := domain.Notices{Skipped: 3, Degraded: 1, SourcesDegraded: []string{"app_store"}}
	require.NoError(t, repo.Replace(ctx, sampleRecords(), notices))

	loaded, loadedNotices, err := repo.Load(ctx, time.Hour)
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	assert.Equal(t, notices, loadedNotices)

	// round trip preserves everything including order
	want := sampleRecords()
	for i := range want {
		assert.Equal(t, want[i].ID, loaded[i].ID)
		assert.Equal(t, want[i].Source, loaded[i].Source)
		assert.Equal(t, want[i].Text, loaded[i].Text)
		assert.Equal(t, want[i].Rating, loaded[i].Rating)
		assert.True(t, want[i].Date.Equal(loaded[i].Date), "record %d date", i)
		assert.Equal(t, want[i].InferredDate, loaded[i].InferredDate)
		assert.Equal(t, want[i].Sentiment, loaded[i].Sentiment)
		assert.InDelta(t, want[i].SentimentScore, loaded[i].SentimentScore, 0.0001)
		assert.Equal(t, want[i].IsBug, loaded[i].IsBug)
		assert.Equal(t, want[i].IsFeature, loaded[i].IsFeature)
		assert.Equal(t, want[i].Priority, loaded[i].Priority)
	}
	assert.Equal(t, []string{"performance"}, loaded[0].Topics)
	assert.Equal(t, []string{"smooth", "fast"}, loaded[0].Keywords)
	assert.Nil(t, loaded[2].Rating)
}

func TestRepository_Replace_overwrites(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, sampleRecords(), domain.Notices{}))
	require.NoError(t, repo.Replace(ctx, sampleRecords()[:1], domain.Notices{Skipped: 7}))

	loaded, notices, err := repo.Load(ctx, time.Hour)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Equal(t, 7, notices.Skipped)
}

func TestRepository_Load_empty(t *testing.T) {
	repo := setupTestRepo(t)

	_, _, err := repo.Load(context.Background(), time.Hour)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRepository_Load_stale(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, sampleRecords(), domain.Notices{}))

	_, _, err := repo.Load(ctx, time.Nanosecond)
	assert.ErrorIs(t, err, ErrStale)

	_, _, err = repo.Load(ctx, time.Hour)
	assert.NoError(t, err)
}

func TestRepository_Replace_emptyDataset(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, sampleRecords(), domain.Notices{}))
	require.NoError(t, repo.Replace(ctx, nil, domain.Notices{}))

	loaded, _, err := repo.Load(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
