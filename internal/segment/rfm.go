package segment

import (
	"math"
	"sort"
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
)

// ComputeSegments runs the full RFM pipeline over a transaction batch:
// aggregate metrics, score each dimension against batch quartiles,
// classify, and project LTV. The result is sorted by OverallScore
// descending (customer ID breaks ties for determinism).
//
// Quartile boundaries are derived from the customers in this batch, so
// the returned scores are only comparable within one call.
func ComputeSegments(transactions []*domain.TransactionRecord) []domain.CustomerSegment {
	return computeSegments(transactions, time.Now().UTC())
}

func computeSegments(transactions []*domain.TransactionRecord, now time.Time) []domain.CustomerSegment {
	metrics := AggregateMetrics(transactions, now)
	if len(metrics) == 0 {
		return []domain.CustomerSegment{}
	}

	recencies := make([]float64, 0, len(metrics))
	frequencies := make([]float64, 0, len(metrics))
	monetaries := make([]float64, 0, len(metrics))
	for _, m := range metrics {
		recencies = append(recencies, float64(m.Recency))
		frequencies = append(frequencies, float64(m.Frequency))
		monetaries = append(monetaries, float64(m.Monetary))
	}

	recencyQ := Quartiles(recencies)
	frequencyQ := Quartiles(frequencies)
	monetaryQ := Quartiles(monetaries)

	segments := make([]domain.CustomerSegment, 0, len(metrics))
	for customerID, m := range metrics {
		score := domain.RFMScore{
			RecencyScore:   Score(float64(m.Recency), recencyQ, true),
			FrequencyScore: Score(float64(m.Frequency), frequencyQ, false),
			MonetaryScore:  Score(float64(m.Monetary), monetaryQ, false),
		}
		score.OverallScore = score.RecencyScore + score.FrequencyScore + score.MonetaryScore
		score.Segment = Classify(score)

		segments = append(segments, domain.CustomerSegment{
			CustomerID:       customerID,
			Segment:          score.Segment,
			Score:            score,
			Metrics:          m,
			LastPurchaseDate: now.AddDate(0, 0, -m.Recency),
			PredictedLTV:     predictLTV(m, score.OverallScore),
		})
	}

	sort.Slice(segments, func(i, j int) bool {
		if segments[i].Score.OverallScore != segments[j].Score.OverallScore {
			return segments[i].Score.OverallScore > segments[j].Score.OverallScore
		}
		return segments[i].CustomerID < segments[j].CustomerID
	})

	return segments
}

// predictLTV projects lifetime value as
// avgOrderValue * annualPurchaseFrequency * min(overall/3, 5).
// Zero frequency projects zero, and the result is never negative.
func predictLTV(m domain.RFMMetrics, overall int) float64 {
	if m.Frequency == 0 {
		return 0
	}

	avgOrderValue := m.Monetary / float64(m.Frequency)

	recency := m.Recency
	if recency < 1 {
		recency = 1
	}
	annualFrequency := 365.0 / float64(recency)

	multiplier := math.Min(float64(overall)/3.0, 5.0)

	ltv := avgOrderValue * annualFrequency * multiplier
	if ltv < 0 {
		return 0
	}
	return math.Round(ltv*100) / 100
}
