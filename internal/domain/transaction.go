package domain

import "time"

// TransactionRecord is a historical sales transaction pulled from storage.
// Read-only input to the segmentation and analytics engines.
type TransactionRecord struct {
	ID             string     `json:"id"`
	OrganizationID string     `json:"organizationId"`
	CustomerID     string     `json:"customerId"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	TotalAmount    float64    `json:"totalAmount"`
	CreatedAt      time.Time  `json:"createdAt"`
	Items          []LineItem `json:"items,omitempty"`
}

// LineItem is a product line within a transaction.
type LineItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Category  string  `json:"category,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// TransactionRequest is the API payload for recording a transaction.
type TransactionRequest struct {
	CustomerID  string     `json:"customer_id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	TotalAmount float64    `json:"total_amount"`
	CreatedAt   time.Time  `json:"created_at"`
	Items       []LineItem `json:"items,omitempty"`
}

// ToRecord converts a request to a TransactionRecord.
func (r *TransactionRequest) ToRecord(orgID string) *TransactionRecord {
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &TransactionRecord{
		OrganizationID: orgID,
		CustomerID:     r.CustomerID,
		Type:           r.Type,
		Status:         r.Status,
		TotalAmount:    r.TotalAmount,
		CreatedAt:      createdAt,
		Items:          r.Items,
	}
}
