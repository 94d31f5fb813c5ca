package repository

// Schema definitions for the Kestrel database.
// Compatible with both SQLite and PostgreSQL.

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    customer_id TEXT NOT NULL,
    type TEXT NOT NULL,
    status TEXT NOT NULL,
    total_amount REAL NOT NULL,
    created_at TIMESTAMP NOT NULL,
    items TEXT
);

CREATE INDEX IF NOT EXISTS idx_transactions_org ON transactions(org_id);
CREATE INDEX IF NOT EXISTS idx_transactions_customer ON transactions(org_id, customer_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created ON transactions(org_id, created_at);
`

const schemaEngineResults = `
CREATE TABLE IF NOT EXISTS engine_results (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    event_id TEXT,
    event_type TEXT NOT NULL,
    success INTEGER NOT NULL,
    rule TEXT,
    reason TEXT,
    actions_executed INTEGER NOT NULL DEFAULT 0,
    results TEXT,
    error TEXT,
    timestamp TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_engine_results_org ON engine_results(org_id);
CREATE INDEX IF NOT EXISTS idx_engine_results_event_type ON engine_results(org_id, event_type);
CREATE INDEX IF NOT EXISTS idx_engine_results_timestamp ON engine_results(org_id, timestamp);
`

const schemaAuditLog = `
CREATE TABLE IF NOT EXISTS audit_log (
    id TEXT PRIMARY KEY,
    org_id TEXT NOT NULL,
    event_type TEXT NOT NULL,
    action TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_org ON audit_log(org_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_created ON audit_log(org_id, created_at);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransactions,
		schemaEngineResults,
		schemaAuditLog,
	}
}
