// Package segment implements RFM customer segmentation over transaction
// batches.
package segment

import (
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
)

// AggregateMetrics folds a transaction batch into per-customer RFM
// metrics relative to now. Records without a customer identifier are
// skipped. Recency is the smallest days-since-purchase observed for the
// customer; it is recomputed per call, never cached.
func AggregateMetrics(transactions []*domain.TransactionRecord, now time.Time) map[string]domain.RFMMetrics {
	metrics := make(map[string]domain.RFMMetrics)

	for _, tx := range transactions {
		if tx == nil || tx.CustomerID == "" {
			continue
		}

		days := daysSince(tx.CreatedAt, now)

		m, seen := metrics[tx.CustomerID]
		if !seen || days < m.Recency {
			m.Recency = days
		}
		m.Frequency++
		m.Monetary += tx.TotalAmount
		metrics[tx.CustomerID] = m
	}

	return metrics
}

func daysSince(t, now time.Time) int {
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
