// Package analytics builds aggregated sales reports over transaction
// history and computed customer segments.
package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
)

// topProductLimit bounds the product leaderboard in a report.
const topProductLimit = 10

// Processor aggregates transactions into a sales report.
type Processor struct {
	// CountedStatuses lists transaction statuses included in revenue.
	CountedStatuses map[string]bool
}

// NewProcessor creates a processor that counts completed sales.
func NewProcessor() *Processor {
	return &Processor{
		CountedStatuses: map[string]bool{
			"completed": true,
		},
	}
}

// ReportInput contains all data needed for a report.
type ReportInput struct {
	OrgID        string
	Transactions []*domain.TransactionRecord
	Segments     []domain.CustomerSegment
}

// Process aggregates the input batch into a sales report.
func (p *Processor) Process(ctx context.Context, input *ReportInput) *domain.SalesReport {
	report := &domain.SalesReport{
		OrganizationID: input.OrgID,
	}

	products := make(map[string]*domain.ProductSales)
	daily := make(map[string]*domain.TrendPoint)
	monthly := make(map[string]*domain.TrendPoint)

	for _, tx := range input.Transactions {
		if tx == nil || !p.counted(tx.Status) {
			continue
		}

		report.TotalRevenue += tx.TotalAmount
		report.TransactionCount++

		accumulateTrend(daily, tx.CreatedAt.Format("2006-01-02"), tx.TotalAmount)
		accumulateTrend(monthly, tx.CreatedAt.Format("2006-01"), tx.TotalAmount)

		for _, item := range tx.Items {
			ps, ok := products[item.ProductID]
			if !ok {
				ps = &domain.ProductSales{ProductID: item.ProductID, Name: item.Name}
				products[item.ProductID] = ps
			}
			ps.Units += item.Quantity
			ps.Revenue += float64(item.Quantity) * item.UnitPrice
		}
	}

	if report.TransactionCount > 0 {
		report.AvgOrderValue = report.TotalRevenue / float64(report.TransactionCount)
	}

	report.TopProducts = rankProducts(products)
	report.DailyTrend = sortTrend(daily)
	report.MonthlyTrend = sortTrend(monthly)

	if len(input.Segments) > 0 {
		report.SegmentCounts = make(map[string]int)
		for _, seg := range input.Segments {
			report.SegmentCounts[seg.Segment]++
		}
	}

	return report
}

func (p *Processor) counted(status string) bool {
	if len(p.CountedStatuses) == 0 {
		return true
	}
	return p.CountedStatuses[status]
}

func accumulateTrend(buckets map[string]*domain.TrendPoint, period string, amount float64) {
	point, ok := buckets[period]
	if !ok {
		point = &domain.TrendPoint{Period: period}
		buckets[period] = point
	}
	point.Revenue += amount
	point.Orders++
}

// rankProducts orders products by revenue descending, product ID
// ascending on ties, keeping the top entries.
func rankProducts(products map[string]*domain.ProductSales) []domain.ProductSales {
	ranked := make([]domain.ProductSales, 0, len(products))
	for _, ps := range products {
		ranked = append(ranked, *ps)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].ProductID < ranked[j].ProductID
	})

	if len(ranked) > topProductLimit {
		ranked = ranked[:topProductLimit]
	}
	return ranked
}

func sortTrend(buckets map[string]*domain.TrendPoint) []domain.TrendPoint {
	trend := make([]domain.TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		trend = append(trend, *point)
	}
	sort.Slice(trend, func(i, j int) bool {
		return trend[i].Period < trend[j].Period
	})
	return trend
}

// Window bounds a reporting period ending now.
func Window(days int) time.Time {
	if days <= 0 {
		return time.Time{}
	}
	return time.Now().UTC().AddDate(0, 0, -days)
}
