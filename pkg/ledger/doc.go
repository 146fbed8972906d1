// Package ledger defines the durable record of the relay: an append-only log of
// completed exchanges and the small table of reply-switch states.
//
// The interfaces here are the minimal read/write contract the session core
// depends on. Backends live in the storage subpackage:
//
//	store, err := storage.NewSQLiteStore(&storage.SQLiteConfig{
//	    Driver: "sqlite3",
//	    Path:   "data/relay.db",
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	rec := ledger.NewRecord("chat-42", "user-7", time.Now())
//	rec.UserText, rec.AssistantText = "Where is Paris?", "Paris is in France."
//	err = store.AppendRecord(ctx, rec)
//
// Turn-log rows are never updated or deleted through this package. Gate rows are
// the only mutable rows and are replaced in place.
package ledger
