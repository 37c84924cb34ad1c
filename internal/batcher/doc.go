// Package batcher collects log-like notification messages into per-topic
// batches and dispatches them to registered processors.
//
// # Triggers
//
// A topic is flushed when its pending count reaches MaxBatchSize, or on the
// periodic MaxWait timer, whichever comes first. A flush drains the topic
// atomically, so messages enqueued during dispatch start the next batch.
//
// # Dispatch
//
// Every registered processor (the base set from New plus extras added at
// runtime) receives the same batch snapshot. Async dispatch (Flush, both
// triggers) runs processors concurrently; FlushSync runs them in order.
// Failures are isolated per processor and reported through the logger and
// the event bus. The core never retries; delivery is at-most-once.
//
// # Lifecycle
//
// New starts the flush timer immediately. Destroy stops it, discards all
// pending messages and is terminal: later enqueues return ErrStopped.
package batcher
