package segment

import "github.com/opensource-retail/kestrel/internal/domain"

// segmentRule is one row of the classification decision table.
type segmentRule struct {
	name  string
	match func(r, f, m int) bool
}

// segmentTable is evaluated in order; the first matching row wins, so a
// customer qualifying for several segments gets the earliest one.
var segmentTable = []segmentRule{
	{domain.SegmentChampions, func(r, f, m int) bool { return r >= 4 && f >= 4 && m >= 4 }},
	{domain.SegmentLoyalCustomers, func(r, f, m int) bool { return r >= 3 && f >= 3 && m >= 3 }},
	{domain.SegmentNewCustomers, func(r, f, m int) bool { return r >= 4 && f <= 2 }},
	{domain.SegmentPotentialLoyalists, func(r, f, m int) bool { return r >= 3 && f >= 3 && m <= 2 }},
	{domain.SegmentAtRisk, func(r, f, m int) bool { return r <= 2 && f >= 3 && m >= 3 }},
	{domain.SegmentCannotLoseThem, func(r, f, m int) bool { return r <= 1 && f >= 4 }},
	{domain.SegmentHibernating, func(r, f, m int) bool { return r <= 2 && f <= 2 }},
}

// Classify maps an RFM score triple to a segment label. Total function:
// anything the table does not catch falls back to "Others".
func Classify(score domain.RFMScore) string {
	for _, rule := range segmentTable {
		if rule.match(score.RecencyScore, score.FrequencyScore, score.MonetaryScore) {
			return rule.name
		}
	}
	return domain.SegmentOthers
}
