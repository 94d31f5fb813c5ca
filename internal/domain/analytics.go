package domain

// SalesReport is the composite analytics output built over a transaction
// batch and its computed segments.
type SalesReport struct {
	OrganizationID   string         `json:"organizationId"`
	TotalRevenue     float64        `json:"totalRevenue"`
	TransactionCount int            `json:"transactionCount"`
	AvgOrderValue    float64        `json:"avgOrderValue"`
	TopProducts      []ProductSales `json:"topProducts"`
	DailyTrend       []TrendPoint   `json:"dailyTrend"`
	MonthlyTrend     []TrendPoint   `json:"monthlyTrend"`
	SegmentCounts    map[string]int `json:"segmentCounts,omitempty"`
}

// ProductSales aggregates revenue and units for one product.
type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Units     int     `json:"units"`
	Revenue   float64 `json:"revenue"`
}

// TrendPoint is one bucket of a revenue trend ("2025-06-01" for daily,
// "2025-06" for monthly).
type TrendPoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}
