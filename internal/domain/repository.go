package domain

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence.
// All methods require orgID for strict multi-org isolation.
type Repository interface {
	// Transaction history (input to segmentation and analytics)
	SaveTransaction(ctx context.Context, orgID string, tx *TransactionRecord) error
	GetTransaction(ctx context.Context, orgID string, txID string) (*TransactionRecord, error)
	ListTransactions(ctx context.Context, orgID string, since time.Time) ([]*TransactionRecord, error)
	ListTransactionsByCustomer(ctx context.Context, orgID string, customerID string, since time.Time) ([]*TransactionRecord, error)

	// Engine results (processed-event records)
	SaveEngineResult(ctx context.Context, orgID string, eventID string, result *EngineResult) error
	GetEngineResult(ctx context.Context, orgID string, resultID string) (*EngineResult, error)

	// Audit trail written by the audit_log action handler
	SaveAuditEntry(ctx context.Context, orgID string, entry *AuditEntry) error
	ListAuditEntries(ctx context.Context, orgID string, since time.Time) ([]*AuditEntry, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// AuditEntry records a rule-triggered administrative change.
type AuditEntry struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organizationId"`
	EventType      string                 `json:"eventType"`
	Action         string                 `json:"action"`
	Detail         map[string]interface{} `json:"detail,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string `yaml:"driver"`

	// SQLite specific
	SQLitePath string `yaml:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `yaml:"postgresHost"`
	PostgresPort     int    `yaml:"postgresPort"`
	PostgresUser     string `yaml:"postgresUser"`
	PostgresPassword string `yaml:"postgresPassword"`
	PostgresDB       string `yaml:"postgresDb"`
	PostgresSSLMode  string `yaml:"postgresSslMode"`

	// Connection pool settings
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}
