package loader

import "github.com/google/uuid"

// AssetTypeID identifies an asset type for storage dispatch. IDs are assigned
// explicitly when a type is registered, never derived from type names, so the
// tag stays stable across builds and across the daemon protocol.
type AssetTypeID = uuid.UUID

// GenericHandle is a type-erased reference token for one LoadHandle.
// Constructing or cloning one enqueues an Increase op and releasing one
// enqueues a Decrease op; the counter itself is owned by the engine and only
// mutated when the pump drains the queue. Handles are independently owned
// tokens, never shared mutable state.
type GenericHandle struct {
	refops *RefOpQueue
	handle LoadHandle
}

func NewGenericHandle(refops *RefOpQueue, handle LoadHandle) GenericHandle {
	refops.Enqueue(RefOp{Kind: RefOpIncrease, Handle: handle})
	return GenericHandle{refops: refops, handle: handle}
}

func (h GenericHandle) LoadHandle() LoadHandle {
	return h.handle
}

// Clone mints an independently owned reference to the same identifier.
func (h GenericHandle) Clone() GenericHandle {
	return NewGenericHandle(h.refops, h.handle)
}

// Release gives up this reference. Releasing the same handle twice is a
// double-free and aborts the process at the next pump.
func (h GenericHandle) Release() {
	h.refops.Enqueue(RefOp{Kind: RefOpDecrease, Handle: h.handle})
}

// Handle is the typed flavor of GenericHandle. The type parameter is a
// caller-side assertion; the stored type is decided by the backend's type
// tag, and a mismatch surfaces when the typed store is read.
type Handle[T any] struct {
	GenericHandle
}

func NewHandle[T any](refops *RefOpQueue, handle LoadHandle) Handle[T] {
	return Handle[T]{NewGenericHandle(refops, handle)}
}

func (h Handle[T]) Clone() Handle[T] {
	return Handle[T]{h.GenericHandle.Clone()}
}

// Untyped drops the type assertion. It returns the same reference token, not
// a new reference; release it exactly once.
func (h Handle[T]) Untyped() GenericHandle {
	return h.GenericHandle
}
