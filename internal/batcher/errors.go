package batcher

import "errors"

var (
	// ErrStopped is returned by enqueue operations after Destroy.
	ErrStopped = errors.New("batcher destroyed")

	// ErrDuplicateProcessor is returned by AddExtraProcessor when a
	// processor with the same name is already registered.
	ErrDuplicateProcessor = errors.New("processor name already registered")

	// ErrUnknownProcessor is returned by RemoveExtraProcessor when no
	// extra processor matches the given name. The registration set is
	// left unchanged.
	ErrUnknownProcessor = errors.New("no extra processor with that name")

	// ErrNoBatchCapability marks a dispatch that could not run because the
	// processor implements neither ProcessBatch nor ProcessBatchSync for
	// the requested mode. It is reported per-processor, never propagated.
	ErrNoBatchCapability = errors.New("processor implements no batch operation for this dispatch mode")
)
