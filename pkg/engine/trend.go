package engine

import (
	"time"

	"github.com/umputun/feedscope/pkg/domain"
)

// TrendEngine buckets records by time period and derives directional deltas
// between adjacent buckets. A dead-band suppresses noise-driven flapping on
// near-zero changes.
type TrendEngine struct {
	deadBand float64
}

// NewTrendEngine creates a trend engine with the given dead-band
func NewTrendEngine(deadBand float64) *TrendEngine {
	if deadBand == 0 {
		deadBand = 0.05
	}
	return &TrendEngine{deadBand: deadBand}
}

// bucketStats accumulates one bucket's metrics
type bucketStats struct {
	start       time.Time
	end         time.Time
	count       int
	scoreSum    float64
	ratingSum   int
	ratingCount int
	bugCount    int
}

// Compute partitions records into contiguous buckets covering the active
// date range and derives per-metric series with directions. Empty input
// yields an empty series, empty buckets report zero counts and absent
// averages.
func (e *TrendEngine) Compute(records []domain.FeedbackRecord, width domain.BucketWidth) domain.TrendSeries {
	series := domain.TrendSeries{Width: width}
	if len(records) == 0 {
		return series
	}

	// find the active date range
	minDate, maxDate := records[0].Date, records[0].Date
	for _, rec := range records[1:] {
		if rec.Date.Before(minDate) {
			minDate = rec.Date
		}
		if rec.Date.After(maxDate) {
			maxDate = rec.Date
		}
	}

	buckets := makeBuckets(bucketStart(minDate, width), bucketStart(maxDate, width), width)
	index := make(map[int64]*bucketStats, len(buckets))
	for _, b := range buckets {
		index[b.start.Unix()] = b
	}

	for _, rec := range records {
		b, ok := index[bucketStart(rec.Date, width).Unix()]
		if !ok {
			continue // the contiguous chain covers min..max, a miss means malformed input
		}
		b.count++
		b.scoreSum += rec.SentimentScore
		if rec.Rating != nil {
			b.ratingSum += *rec.Rating
			b.ratingCount++
		}
		if rec.IsBug {
			b.bugCount++
		}
	}

	series.Count = e.metricSeries(buckets, "count", func(b *bucketStats) *float64 {
		v := float64(b.count)
		return &v
	})
	series.AvgSentiment = e.metricSeries(buckets, "avg_sentiment", func(b *bucketStats) *float64 {
		if b.count == 0 {
			return nil
		}
		v := b.scoreSum / float64(b.count)
		return &v
	})
	series.AvgRating = e.metricSeries(buckets, "avg_rating", func(b *bucketStats) *float64 {
		if b.ratingCount == 0 {
			return nil
		}
		v := float64(b.ratingSum) / float64(b.ratingCount)
		return &v
	})
	series.BugCount = e.metricSeries(buckets, "bug_count", func(b *bucketStats) *float64 {
		v := float64(b.bugCount)
		return &v
	})

	return series
}

// metricSeries builds one metric's points with directions against the
// preceding bucket. The first bucket is flat by convention, as is any bucket
// whose own or preceding value is absent.
func (e *TrendEngine) metricSeries(buckets []*bucketStats, metric string, value func(*bucketStats) *float64) []domain.TrendPoint {
	points := make([]domain.TrendPoint, 0, len(buckets))
	var prev *float64

	for i, b := range buckets {
		v := value(b)
		point := domain.TrendPoint{
			PeriodStart: b.start,
			PeriodEnd:   b.end,
			Metric:      metric,
			Value:       v,
			Direction:   domain.TrendFlat,
		}

		if i > 0 && v != nil && prev != nil {
			delta := *v - *prev
			switch {
			case delta > e.deadBand:
				point.Direction = domain.TrendUp
			case delta < -e.deadBand:
				point.Direction = domain.TrendDown
			}
		}

		if v != nil {
			prev = v
		}
		points = append(points, point)
	}
	return points
}

// makeBuckets creates the contiguous bucket chain from first to last
func makeBuckets(first, last time.Time, width domain.BucketWidth) []*bucketStats {
	var buckets []*bucketStats
	for start := first; !start.After(last); start = nextBucket(start, width) {
		buckets = append(buckets, &bucketStats{start: start, end: nextBucket(start, width)})
	}
	return buckets
}

// bucketStart truncates a timestamp to its bucket boundary in UTC, so record
// dates carrying different locations land in the same bucket. Weeks start on
// Monday.
func bucketStart(ts time.Time, width domain.BucketWidth) time.Time {
	ts = ts.In(time.UTC)
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	if width == domain.BucketDay {
		return day
	}
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func nextBucket(start time.Time, width domain.BucketWidth) time.Time {
	if width == domain.BucketDay {
		return start.AddDate(0, 0, 1)
	}
	return start.AddDate(0, 0, 7)
}
