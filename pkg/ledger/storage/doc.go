// Package storage provides ledger backends.
//
// SQLiteStore works with either github.com/mattn/go-sqlite3 (driver "sqlite3")
// or modernc.org/sqlite (driver "sqlite"); the schema and statements are the
// same for both. MemoryStore keeps everything in process memory.
//
// All statements are prepared and parameterized. Each call is its own
// implicit transaction, so no transaction is held open across a completion
// call.
package storage
