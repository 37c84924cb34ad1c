package batcher

import "context"

// Processor is the minimal capability every registered sink carries.
// Names must be unique among the processors registered with one Service.
type Processor interface {
	Name() string
}

// BatchProcessor delivers a batch on the asynchronous dispatch path
// (Flush, the size trigger, and the periodic timer).
//
// The batch slice is a shared snapshot; implementations must treat it as
// read-only. Retry policy, if any, lives entirely inside the implementation:
// once ProcessBatch returns, the batcher considers the batch settled.
type BatchProcessor interface {
	Processor
	ProcessBatch(ctx context.Context, batch []Message) error
}

// SyncBatchProcessor delivers a batch on the synchronous dispatch path
// (FlushSync). Implementing it is optional: a processor without it is
// served by FlushSync through its ProcessBatch method instead.
type SyncBatchProcessor interface {
	Processor
	ProcessBatchSync(batch []Message) error
}
