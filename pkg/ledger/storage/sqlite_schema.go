package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the ledger schema.
// Timestamps are stored as unix nanoseconds so both drivers round-trip them
// identically.
const Schema = `
-- Reply switch per scope key; the only mutable rows
CREATE TABLE IF NOT EXISTS gate_state (
    scope_key TEXT PRIMARY KEY,
    enabled INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);

-- Append-only exchange log
CREATE TABLE IF NOT EXISTS turn_log (
    id TEXT PRIMARY KEY,
    conversation_id TEXT NOT NULL,
    principal_id TEXT NOT NULL DEFAULT '',
    display_name TEXT NOT NULL DEFAULT '',
    username TEXT NOT NULL DEFAULT '',
    user_text TEXT NOT NULL,
    assistant_text TEXT NOT NULL,
    model TEXT NOT NULL DEFAULT '',
    prompt_tokens INTEGER NOT NULL DEFAULT 0,
    completion_tokens INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_turn_log_conversation ON turn_log(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_turn_log_principal ON turn_log(principal_id, created_at);
CREATE INDEX IF NOT EXISTS idx_turn_log_created_at ON turn_log(created_at);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// InsertSchemaVersion records the applied schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, ?)
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the highest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertRecordSQL = `
INSERT INTO turn_log (
    id, conversation_id, principal_id, display_name, username,
    user_text, assistant_text, model, prompt_tokens, completion_tokens, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectGateSQL = `
SELECT scope_key, enabled, updated_at FROM gate_state WHERE scope_key = ?
`

const upsertGateSQL = `
INSERT INTO gate_state (scope_key, enabled, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(scope_key) DO UPDATE SET
    enabled = excluded.enabled,
    updated_at = excluded.updated_at
`

const selectRecordsSQL = `
SELECT id, conversation_id, principal_id, display_name, username,
       user_text, assistant_text, model, prompt_tokens, completion_tokens, created_at
FROM turn_log
`
