package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/opensource-retail/kestrel/internal/domain"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestProcessor(t *testing.T) {
	proc := NewProcessor()
	ctx := context.Background()

	t.Run("Totals", func(t *testing.T) {
		input := &ReportInput{
			OrgID: "org-001",
			Transactions: []*domain.TransactionRecord{
				{ID: "tx-1", Status: "completed", TotalAmount: 100, CreatedAt: day("2025-06-01")},
				{ID: "tx-2", Status: "completed", TotalAmount: 50, CreatedAt: day("2025-06-02")},
				{ID: "tx-3", Status: "pending", TotalAmount: 999, CreatedAt: day("2025-06-02")},
			},
		}

		report := proc.Process(ctx, input)

		if report.TotalRevenue != 150 {
			t.Errorf("expected revenue 150, got %.2f", report.TotalRevenue)
		}
		if report.TransactionCount != 2 {
			t.Errorf("expected 2 counted transactions, got %d", report.TransactionCount)
		}
		if report.AvgOrderValue != 75 {
			t.Errorf("expected avg order value 75, got %.2f", report.AvgOrderValue)
		}
		if report.OrganizationID != "org-001" {
			t.Errorf("expected org-001, got %s", report.OrganizationID)
		}
	})

	t.Run("TopProducts", func(t *testing.T) {
		input := &ReportInput{
			OrgID: "org-001",
			Transactions: []*domain.TransactionRecord{
				{
					ID: "tx-1", Status: "completed", TotalAmount: 130, CreatedAt: day("2025-06-01"),
					Items: []domain.LineItem{
						{ProductID: "sku-a", Name: "Grinder", Quantity: 2, UnitPrice: 40},
						{ProductID: "sku-b", Name: "Filter", Quantity: 5, UnitPrice: 10},
					},
				},
				{
					ID: "tx-2", Status: "completed", TotalAmount: 40, CreatedAt: day("2025-06-02"),
					Items: []domain.LineItem{
						{ProductID: "sku-a", Name: "Grinder", Quantity: 1, UnitPrice: 40},
					},
				},
			},
		}

		report := proc.Process(ctx, input)

		if len(report.TopProducts) != 2 {
			t.Fatalf("expected 2 products, got %d", len(report.TopProducts))
		}
		top := report.TopProducts[0]
		if top.ProductID != "sku-a" {
			t.Errorf("expected sku-a to lead by revenue, got %s", top.ProductID)
		}
		if top.Units != 3 || top.Revenue != 120 {
			t.Errorf("expected 3 units / 120 revenue, got %d / %.2f", top.Units, top.Revenue)
		}
	})

	t.Run("Trends", func(t *testing.T) {
		input := &ReportInput{
			OrgID: "org-001",
			Transactions: []*domain.TransactionRecord{
				{ID: "tx-1", Status: "completed", TotalAmount: 100, CreatedAt: day("2025-05-31")},
				{ID: "tx-2", Status: "completed", TotalAmount: 50, CreatedAt: day("2025-06-01")},
				{ID: "tx-3", Status: "completed", TotalAmount: 25, CreatedAt: day("2025-06-01")},
			},
		}

		report := proc.Process(ctx, input)

		if len(report.DailyTrend) != 2 {
			t.Fatalf("expected 2 daily buckets, got %d", len(report.DailyTrend))
		}
		if report.DailyTrend[0].Period != "2025-05-31" {
			t.Errorf("expected trends sorted ascending, got %s first", report.DailyTrend[0].Period)
		}
		if report.DailyTrend[1].Revenue != 75 || report.DailyTrend[1].Orders != 2 {
			t.Errorf("unexpected daily bucket: %+v", report.DailyTrend[1])
		}

		if len(report.MonthlyTrend) != 2 {
			t.Fatalf("expected 2 monthly buckets, got %d", len(report.MonthlyTrend))
		}
		if report.MonthlyTrend[0].Period != "2025-05" || report.MonthlyTrend[1].Period != "2025-06" {
			t.Errorf("unexpected monthly periods: %+v", report.MonthlyTrend)
		}
	})

	t.Run("SegmentCounts", func(t *testing.T) {
		input := &ReportInput{
			OrgID: "org-001",
			Segments: []domain.CustomerSegment{
				{CustomerID: "a", Segment: domain.SegmentChampions},
				{CustomerID: "b", Segment: domain.SegmentChampions},
				{CustomerID: "c", Segment: domain.SegmentOthers},
			},
		}

		report := proc.Process(ctx, input)

		if report.SegmentCounts[domain.SegmentChampions] != 2 {
			t.Errorf("expected 2 Champions, got %d", report.SegmentCounts[domain.SegmentChampions])
		}
		if report.SegmentCounts[domain.SegmentOthers] != 1 {
			t.Errorf("expected 1 Others, got %d", report.SegmentCounts[domain.SegmentOthers])
		}
	})

	t.Run("EmptyInput", func(t *testing.T) {
		report := proc.Process(ctx, &ReportInput{OrgID: "org-001"})

		if report.TotalRevenue != 0 || report.TransactionCount != 0 || report.AvgOrderValue != 0 {
			t.Errorf("expected zeroed report, got %+v", report)
		}
		if report.SegmentCounts != nil {
			t.Error("expected nil segment counts for empty input")
		}
	})

	t.Run("NilTransactionSkipped", func(t *testing.T) {
		input := &ReportInput{
			OrgID: "org-001",
			Transactions: []*domain.TransactionRecord{
				nil,
				{ID: "tx-1", Status: "completed", TotalAmount: 10, CreatedAt: day("2025-06-01")},
			},
		}

		report := proc.Process(ctx, input)
		if report.TransactionCount != 1 {
			t.Errorf("expected 1 counted transaction, got %d", report.TransactionCount)
		}
	})
}

func TestWindow(t *testing.T) {
	if !Window(0).IsZero() {
		t.Error("expected zero time for non-positive window")
	}

	since := Window(30)
	if time.Since(since) < 29*24*time.Hour {
		t.Errorf("expected window ~30 days back, got %v", since)
	}
}
