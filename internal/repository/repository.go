// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-retail/kestrel/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (domain.Repository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// SaveTransaction stores a transaction with org isolation.
func (r *SQLRepository) SaveTransaction(ctx context.Context, orgID string, tx *domain.TransactionRecord) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	items, _ := json.Marshal(tx.Items)

	query := `
		INSERT INTO transactions (
			id, org_id, customer_id, type, status, total_amount, created_at, items
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		tx.ID, orgID, tx.CustomerID, tx.Type, tx.Status,
		tx.TotalAmount, tx.CreatedAt, string(items),
	)
	return err
}

// GetTransaction retrieves a transaction by ID with org isolation.
func (r *SQLRepository) GetTransaction(ctx context.Context, orgID string, txID string) (*domain.TransactionRecord, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, org_id, customer_id, type, status, total_amount, created_at, items
		FROM transactions
		WHERE org_id = ? AND id = ?
	`

	tx, err := scanTransaction(r.db.QueryRowContext(ctx, r.rebind(query), orgID, txID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return tx, err
}

// ListTransactions retrieves all transactions for an org since a point in time.
// A zero since returns the full history.
func (r *SQLRepository) ListTransactions(ctx context.Context, orgID string, since time.Time) ([]*domain.TransactionRecord, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, org_id, customer_id, type, status, total_amount, created_at, items
		FROM transactions
		WHERE org_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// ListTransactionsByCustomer retrieves a single customer's transactions with org isolation.
func (r *SQLRepository) ListTransactionsByCustomer(ctx context.Context, orgID string, customerID string, since time.Time) ([]*domain.TransactionRecord, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, org_id, customer_id, type, status, total_amount, created_at, items
		FROM transactions
		WHERE org_id = ? AND customer_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, customerID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTransactions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.TransactionRecord, error) {
	var tx domain.TransactionRecord
	var items string

	if err := row.Scan(
		&tx.ID, &tx.OrganizationID, &tx.CustomerID, &tx.Type, &tx.Status,
		&tx.TotalAmount, &tx.CreatedAt, &items,
	); err != nil {
		return nil, err
	}

	if items != "" && items != "null" {
		json.Unmarshal([]byte(items), &tx.Items)
	}

	return &tx, nil
}

func collectTransactions(rows *sql.Rows) ([]*domain.TransactionRecord, error) {
	var transactions []*domain.TransactionRecord
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// SaveEngineResult stores the outcome of processing one event.
// The eventID doubles as the record ID; a fresh one is generated when
// the platform did not supply an identifier.
func (r *SQLRepository) SaveEngineResult(ctx context.Context, orgID string, eventID string, result *domain.EngineResult) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	if eventID == "" {
		eventID = uuid.NewString()
	}

	results, _ := json.Marshal(result.Results)

	success := 0
	if result.Success {
		success = 1
	}

	query := `
		INSERT INTO engine_results (
			id, org_id, event_id, event_type, success, rule, reason,
			actions_executed, results, error, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		eventID, orgID, eventID, result.EventType, success,
		result.Rule, result.Reason, result.ActionsExecuted,
		string(results), result.Error, result.Timestamp,
	)
	return err
}

// GetEngineResult retrieves a processed-event record with org isolation.
func (r *SQLRepository) GetEngineResult(ctx context.Context, orgID string, resultID string) (*domain.EngineResult, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT event_type, success, rule, reason, actions_executed, results, error, timestamp
		FROM engine_results
		WHERE org_id = ? AND id = ?
	`

	var result domain.EngineResult
	var success int
	var results string

	err := r.db.QueryRowContext(ctx, r.rebind(query), orgID, resultID).Scan(
		&result.EventType, &success, &result.Rule, &result.Reason,
		&result.ActionsExecuted, &results, &result.Error, &result.Timestamp,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	result.Success = success == 1
	if results != "" && results != "null" {
		json.Unmarshal([]byte(results), &result.Results)
	}

	return &result, nil
}

// SaveAuditEntry stores an audit trail entry with org isolation.
func (r *SQLRepository) SaveAuditEntry(ctx context.Context, orgID string, entry *domain.AuditEntry) error {
	if orgID == "" {
		return fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	detail, _ := json.Marshal(entry.Detail)

	query := `
		INSERT INTO audit_log (
			id, org_id, event_type, action, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, r.rebind(query),
		entry.ID, orgID, entry.EventType, entry.Action,
		string(detail), entry.CreatedAt,
	)
	return err
}

// ListAuditEntries retrieves audit entries for an org since a point in time.
func (r *SQLRepository) ListAuditEntries(ctx context.Context, orgID string, since time.Time) ([]*domain.AuditEntry, error) {
	if orgID == "" {
		return nil, fmt.Errorf("%w: orgID is required", ErrInvalidInput)
	}

	query := `
		SELECT id, org_id, event_type, action, detail, created_at
		FROM audit_log
		WHERE org_id = ? AND created_at >= ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, r.rebind(query), orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var detail string

		if err := rows.Scan(
			&entry.ID, &entry.OrganizationID, &entry.EventType,
			&entry.Action, &detail, &entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		if detail != "" && detail != "null" {
			json.Unmarshal([]byte(detail), &entry.Detail)
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
