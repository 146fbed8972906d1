package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/relay/pkg/ledger"
)

// Driver names accepted by SQLiteConfig.
const (
	DriverCGO    = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPureGo = "sqlite"  // modernc.org/sqlite
)

// SQLiteConfig contains configuration for the SQLite ledger backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string

	// Path is the database file path. ":memory:" is accepted for tests.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       DriverCGO,
		Path:         "data/relay.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements ledger.Store on SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger

	insertRecord *sql.Stmt
	selectGate   *sql.Stmt
	upsertGate   *sql.Stmt

	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens the database, creates the schema and prepares the
// statements used on the hot path.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverCGO
	}
	if config.Driver != DriverCGO && config.Driver != DriverPureGo {
		return nil, ledger.NewStorageError(config.Driver, "open",
			fmt.Errorf("unsupported driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "ledger.storage.sqlite", "driver", config.Driver)

	if config.Path != ":memory:" && !strings.HasPrefix(config.Path, "file:") {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0o750); err != nil {
			return nil, ledger.NewStorageError(config.Driver, "open", err)
		}
	}

	db, err := sql.Open(config.Driver, dsn(config))
	if err != nil {
		return nil, ledger.NewStorageError(config.Driver, "open", err)
	}

	maxOpen := config.MaxOpenConns
	// Every connection to ":memory:" is a separate database.
	if config.Path == ":memory:" {
		maxOpen = 1
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.prepare(); err != nil {
		s.closeStatements()
		db.Close()
		return nil, err
	}

	logger.Info("SQLite ledger initialized",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", maxOpen,
	)

	return s, nil
}

// dsn carries the connection pragmas in the data source name so every
// pooled connection gets them, not only the one that ran a PRAGMA.
func dsn(config *SQLiteConfig) string {
	var params []string
	wal := config.WALMode && config.Path != ":memory:"

	switch config.Driver {
	case DriverPureGo:
		if config.BusyTimeout > 0 {
			params = append(params, fmt.Sprintf("_pragma=busy_timeout(%d)", config.BusyTimeout.Milliseconds()))
		}
		if wal {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	default:
		if config.BusyTimeout > 0 {
			params = append(params, fmt.Sprintf("_busy_timeout=%d", config.BusyTimeout.Milliseconds()))
		}
		if wal {
			params = append(params, "_journal_mode=WAL")
		}
	}
	if len(params) == 0 {
		return config.Path
	}

	sep := "?"
	if strings.Contains(config.Path, "?") {
		sep = "&"
	}
	return config.Path + sep + strings.Join(params, "&")
}

// initialize creates the schema and verifies its version.
func (s *SQLiteStore) initialize() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return s.storageError("create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion, time.Now().UnixNano()); err != nil {
		return s.storageError("insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.storageError("get_schema_version", err)
	}
	if version != SchemaVersion {
		return s.storageError("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	s.logger.Debug("schema version verified", "version", version)
	return nil
}

func (s *SQLiteStore) prepare() error {
	var err error
	if s.insertRecord, err = s.db.Prepare(insertRecordSQL); err != nil {
		return s.storageError("prepare_append", err)
	}
	if s.selectGate, err = s.db.Prepare(selectGateSQL); err != nil {
		return s.storageError("prepare_gate_get", err)
	}
	if s.upsertGate, err = s.db.Prepare(upsertGateSQL); err != nil {
		return s.storageError("prepare_gate_put", err)
	}
	return nil
}

// AppendRecord inserts one exchange into the turn log.
func (s *SQLiteStore) AppendRecord(ctx context.Context, record *ledger.Record) error {
	if err := record.Validate(); err != nil {
		return s.storageError("append", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return s.storageError("append", ledger.ErrClosed)
	}

	_, err := s.insertRecord.ExecContext(ctx,
		record.ID, record.ConversationID, record.PrincipalID, record.DisplayName, record.Username,
		record.UserText, record.AssistantText, record.Model,
		record.PromptTokens, record.CompletionTokens, record.CreatedAt.UnixNano(),
	)
	if err != nil {
		return s.storageError("append", err)
	}
	return nil
}

// Records returns turn-log rows matching query, newest first.
func (s *SQLiteStore) Records(ctx context.Context, query *ledger.Query) ([]*ledger.Record, error) {
	if query == nil {
		query = &ledger.Query{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, s.storageError("records", ledger.ErrClosed)
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := selectRecordsSQL
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"

	limit := query.Limit
	if limit <= 0 {
		limit = ledger.DefaultQueryLimit
	}
	args = append(args, limit, max(query.Offset, 0))

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, s.storageError("records", err)
	}
	defer rows.Close()

	records := []*ledger.Record{}
	for rows.Next() {
		var (
			r         ledger.Record
			createdAt int64
		)
		if err := rows.Scan(
			&r.ID, &r.ConversationID, &r.PrincipalID, &r.DisplayName, &r.Username,
			&r.UserText, &r.AssistantText, &r.Model,
			&r.PromptTokens, &r.CompletionTokens, &createdAt,
		); err != nil {
			return nil, s.storageError("scan", err)
		}
		r.CreatedAt = time.Unix(0, createdAt).UTC()
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storageError("records", err)
	}

	return records, nil
}

// buildWhereClause turns the query filters into a parameterized clause.
func buildWhereClause(query *ledger.Query) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if query.ConversationID != "" {
		conditions = append(conditions, "conversation_id = ?")
		args = append(args, query.ConversationID)
	}
	if query.PrincipalID != "" {
		conditions = append(conditions, "principal_id = ?")
		args = append(args, query.PrincipalID)
	}
	if !query.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if !query.Until.IsZero() {
		conditions = append(conditions, "created_at < ?")
		args = append(args, query.Until.UnixNano())
	}

	return strings.Join(conditions, " AND "), args
}

// GateState reads the switch row for key.
func (s *SQLiteStore) GateState(ctx context.Context, key string) (*ledger.GateState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, s.storageError("gate_get", ledger.ErrClosed)
	}

	var (
		state     ledger.GateState
		enabled   int64
		updatedAt int64
	)
	err := s.selectGate.QueryRowContext(ctx, key).Scan(&state.ScopeKey, &enabled, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.storageError("gate_get", err)
	}

	state.Enabled = enabled != 0
	state.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return &state, true, nil
}

// PutGateState upserts the switch row for state.ScopeKey.
func (s *SQLiteStore) PutGateState(ctx context.Context, state *ledger.GateState) error {
	if state == nil || state.ScopeKey == "" {
		return s.storageError("gate_put", &ledger.ValidationError{Field: "scope_key", Message: "scope key is required"})
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return s.storageError("gate_put", ledger.ErrClosed)
	}

	var enabled int64
	if state.Enabled {
		enabled = 1
	}
	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := s.upsertGate.ExecContext(ctx, state.ScopeKey, enabled, updatedAt.UnixNano()); err != nil {
		return s.storageError("gate_put", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return s.storageError("ping", ledger.ErrClosed)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return s.storageError("ping", err)
	}
	return nil
}

// Checkpoint folds the write-ahead log back into the main database file.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return s.storageError("checkpoint", ledger.ErrClosed)
	}
	if !s.config.WALMode {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return s.storageError("checkpoint", err)
	}
	return nil
}

// Close releases the prepared statements and the connection pool.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.closeStatements()
	if err := s.db.Close(); err != nil {
		return s.storageError("close", err)
	}
	s.logger.Info("SQLite ledger closed")
	return nil
}

func (s *SQLiteStore) closeStatements() {
	for _, stmt := range []*sql.Stmt{s.insertRecord, s.selectGate, s.upsertGate} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

func (s *SQLiteStore) storageError(op string, err error) error {
	return ledger.NewStorageError(s.config.Driver, op, err)
}
