// Package journal batches topic lifecycle events and browser sessions into
// PostgreSQL.
//
// Recording never blocks the caller: entries go onto an unbounded queue and a
// background loop flushes them with pgx.Batch either when BatchSize entries
// are waiting or every FlushInterval.
package journal
