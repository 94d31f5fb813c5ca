package domain

import "time"

// RFMMetrics are per-customer recency/frequency/monetary metrics derived
// from a transaction batch. Recency is days since the last purchase
// (smaller is better).
type RFMMetrics struct {
	Recency   int     `json:"recency"`
	Frequency int     `json:"frequency"`
	Monetary  float64 `json:"monetary"`
}

// RFMScore holds the quartile scores for one customer. Component scores
// are in [1,5]; OverallScore is their sum and lies in [3,15].
//
// Scores are batch-relative: quartile boundaries come from the customer
// population of the current computation, so identical metrics can score
// differently across runs with different populations. Scores must not be
// compared across batches.
type RFMScore struct {
	RecencyScore   int    `json:"recency_score"`
	FrequencyScore int    `json:"frequency_score"`
	MonetaryScore  int    `json:"monetary_score"`
	OverallScore   int    `json:"overall_score"`
	Segment        string `json:"segment"`
}

// CustomerSegment is the externally consumed segmentation output record.
type CustomerSegment struct {
	CustomerID       string     `json:"customer_id"`
	Segment          string     `json:"segment"`
	Score            RFMScore   `json:"rfm_score"`
	Metrics          RFMMetrics `json:"metrics"`
	LastPurchaseDate time.Time  `json:"last_purchase_date"`
	PredictedLTV     float64    `json:"predicted_ltv"`
}

// Segment labels assigned by the classifier, in decision-table order.
const (
	SegmentChampions          = "Champions"
	SegmentLoyalCustomers     = "Loyal Customers"
	SegmentNewCustomers       = "New Customers"
	SegmentPotentialLoyalists = "Potential Loyalists"
	SegmentAtRisk             = "At Risk"
	SegmentCannotLoseThem     = "Cannot Lose Them"
	SegmentHibernating        = "Hibernating"
	SegmentOthers             = "Others"
)
