package segment

import (
	"testing"

	"github.com/opensource-retail/kestrel/internal/domain"
)

func score(r, f, m int) domain.RFMScore {
	return domain.RFMScore{RecencyScore: r, FrequencyScore: f, MonetaryScore: m}
}

func TestClassifyDecisionTable(t *testing.T) {
	tests := []struct {
		r, f, m int
		want    string
	}{
		{5, 5, 5, domain.SegmentChampions},
		{4, 4, 4, domain.SegmentChampions},
		{3, 3, 3, domain.SegmentLoyalCustomers},
		{4, 3, 3, domain.SegmentLoyalCustomers},
		{5, 1, 1, domain.SegmentNewCustomers},
		{4, 2, 5, domain.SegmentNewCustomers},
		{3, 4, 2, domain.SegmentPotentialLoyalists},
		{2, 4, 4, domain.SegmentAtRisk},
		{1, 3, 5, domain.SegmentAtRisk},
		{2, 2, 1, domain.SegmentHibernating},
		{1, 1, 1, domain.SegmentHibernating},
		{2, 5, 2, domain.SegmentOthers},
		{3, 2, 3, domain.SegmentOthers},
	}

	for _, tt := range tests {
		got := Classify(score(tt.r, tt.f, tt.m))
		if got != tt.want {
			t.Errorf("Classify(%d,%d,%d) = %q, want %q", tt.r, tt.f, tt.m, got, tt.want)
		}
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// 4/4/4 qualifies for Champions and Loyal Customers; the earlier
	// table row must win.
	if got := Classify(score(4, 4, 4)); got != domain.SegmentChampions {
		t.Errorf("expected Champions, got %q", got)
	}

	// 2/4/4 qualifies for At Risk before Cannot Lose Them is reachable.
	if got := Classify(score(2, 4, 4)); got != domain.SegmentAtRisk {
		t.Errorf("expected At Risk, got %q", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	s := score(3, 3, 4)
	first := Classify(s)
	for i := 0; i < 10; i++ {
		if got := Classify(s); got != first {
			t.Fatalf("classification changed between calls: %q vs %q", first, got)
		}
	}
}
