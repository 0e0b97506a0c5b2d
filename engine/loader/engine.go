package loader

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/astra/engine/core"
)

// LoadError records why one specific load failed. The identifier it names has
// returned to Unloaded; a later request retries from scratch under a fresh
// version number.
type LoadError struct {
	Handle  LoadHandle
	Locator string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load asset %q (handle %d): %v", e.Locator, e.Handle, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// AssetInfo is a snapshot of one identifier's bookkeeping.
type AssetInfo struct {
	Handle  LoadHandle
	Path    string
	Status  LoadStatus
	Version uint32
	Refs    int64
	LastErr error
}

type loadState struct {
	handle    LoadHandle
	locator   string
	typeID    AssetTypeID
	status    LoadStatus
	refs      int64
	version   uint32 // last version handed to storage
	committed uint32 // last version made visible
	lastErr   error
}

type EngineConfig struct {
	// MaxLoaderThreads is the number of fetch workers. Defaults to 4.
	MaxLoaderThreads int
	// QueueSize caps the pending-request channel. Defaults to 256.
	QueueSize int
}

// Engine drives the per-identifier load state machines: it hands pending
// requests to the fetch pool, routes arriving bytes through an AssetStorage
// for decode and commit, and owns the reference counts fed by the RefOpQueue.
//
// ApplyRefOps and Process must be called from one goroutine only (the pump);
// RequestLoad, Status and Info are safe from any goroutine.
type Engine struct {
	allocator *HandleAllocator
	refops    *RefOpQueue
	pool      *fetchPool

	mu       sync.RWMutex
	states   map[LoadHandle]*loadState
	indirect map[string]LoadHandle
}

func NewEngine(io BackendIO, allocator *HandleAllocator, cfg EngineConfig) *Engine {
	if cfg.MaxLoaderThreads <= 0 {
		cfg.MaxLoaderThreads = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Engine{
		allocator: allocator,
		refops:    NewRefOpQueue(),
		pool:      newFetchPool(io, cfg.MaxLoaderThreads, cfg.QueueSize),
		states:    make(map[LoadHandle]*loadState),
		indirect:  make(map[string]LoadHandle),
	}
}

// RefOps exposes the queue handles enqueue their ref-count ops on.
func (e *Engine) RefOps() *RefOpQueue {
	return e.refops
}

// RequestLoad resolves an indirect identifier to a LoadHandle, registering a
// new load if the path is not already tracked. Resolution is idempotent:
// requests for a path already requested, fetching or committed coalesce onto
// the same identifier. A path whose previous load failed is re-requested
// fresh.
func (e *Engine) RequestLoad(path string) LoadHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	if h, ok := e.indirect[path]; ok {
		st := e.states[h]
		if st.status == StatusUnloaded {
			st.status = StatusRequested
			st.lastErr = nil
		}
		return h
	}

	h := e.allocator.Allocate()
	e.indirect[path] = h
	e.states[h] = &loadState{handle: h, locator: path, status: StatusRequested}
	core.MetricsLoadRequested()
	return h
}

// Status reports the load state for an identifier. Unknown identifiers are
// Unloaded.
func (e *Engine) Status(h LoadHandle) LoadStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if st, ok := e.states[h]; ok {
		return st.status
	}
	return StatusUnloaded
}

// Info returns a bookkeeping snapshot for an identifier.
func (e *Engine) Info(h LoadHandle) (AssetInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st, ok := e.states[h]
	if !ok {
		return AssetInfo{}, false
	}
	return AssetInfo{
		Handle:  st.handle,
		Path:    st.locator,
		Status:  st.status,
		Version: st.committed,
		Refs:    st.refs,
		LastErr: st.lastErr,
	}, true
}

// ApplyRefOps drains every queued ref-count op, applies them all, and then
// frees committed identifiers whose count reached zero. Applying the whole
// batch before checking for zero lets an Increase/Decrease pair from the same
// cycle net out. A count dropping below zero means a handle was released
// twice; that is an implementation defect in a collaborator and panics rather
// than risking a premature free.
func (e *Engine) ApplyRefOps(storage AssetStorage) {
	ops := e.refops.drain()
	if len(ops) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	touched := make(map[LoadHandle]struct{}, len(ops))
	for _, op := range ops {
		st, ok := e.states[op.Handle]
		if !ok {
			// A handle constructed for an identifier the engine never saw
			// (GetHandle on a foreign id). Track it so the accounting holds.
			st = &loadState{handle: op.Handle, status: StatusUnloaded}
			e.states[op.Handle] = st
		}
		switch op.Kind {
		case RefOpIncrease:
			st.refs++
		case RefOpDecrease:
			st.refs--
			if st.refs < 0 {
				panic(fmt.Sprintf("loader: reference count for handle %d dropped below zero, a handle was released twice", op.Handle))
			}
		}
		touched[op.Handle] = struct{}{}
	}

	for h := range touched {
		st := e.states[h]
		if st.refs != 0 {
			continue
		}
		switch {
		case st.status == StatusCommitted:
			e.freeLocked(st, storage)
		case st.status == StatusUnloaded && st.locator == "":
			// Untracked placeholder, fully released. Forget it.
			delete(e.states, h)
		}
	}
}

// Process advances every pending load by one step using whatever fetch
// results arrived since the last call. It never blocks: completed fetches are
// decoded and committed first, then queued requests are handed to the pool
// with whatever capacity is left.
func (e *Engine) Process(storage AssetStorage) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		res, ok := e.pool.tryResult()
		if !ok {
			break
		}
		e.applyResultLocked(res, storage)
	}

	for _, st := range e.states {
		if st.status != StatusRequested {
			continue
		}
		if e.pool.trySubmit(LoadRequest{Handle: st.handle, Locator: st.locator}) {
			st.status = StatusBytesPending
		}
	}
}

// Shutdown stops the fetch workers and closes the backend. Pending results
// are discarded.
func (e *Engine) Shutdown() error {
	e.pool.shutdown()
	return e.pool.io.Close()
}

func (e *Engine) applyResultLocked(res fetchResult, storage AssetStorage) {
	st, ok := e.states[res.handle]
	if !ok || st.status != StatusBytesPending {
		// Freed or restarted while the fetch was in flight. Drop the bytes;
		// there is no cancellation for in-flight reads.
		return
	}

	if res.err != nil {
		if isTransient(res.err) {
			st.status = StatusRequested
			core.MetricsLoadRetried()
			return
		}
		st.status = StatusUnloaded
		st.lastErr = &LoadError{Handle: st.handle, Locator: st.locator, Err: res.err}
		core.MetricsLoadFailed()
		core.LogError(st.lastErr.Error())
		return
	}

	st.status = StatusDecoding
	st.version++
	if err := storage.UpdateAsset(res.typeID, st.handle, res.data, st.version); err != nil {
		st.status = StatusUnloaded
		st.lastErr = &LoadError{Handle: st.handle, Locator: st.locator, Err: err}
		core.MetricsLoadFailed()
		core.LogError(st.lastErr.Error())
		return
	}

	storage.CommitAssetVersion(res.typeID, st.handle, st.version)
	core.MetricsLoadCompleted(len(res.data))
	st.typeID = res.typeID
	st.committed = st.version
	st.status = StatusCommitted
	st.lastErr = nil

	if st.refs == 0 {
		// Every handle was dropped while the load was in flight; the asset
		// became eligible for free the moment it committed.
		e.freeLocked(st, storage)
	}
}

func (e *Engine) freeLocked(st *loadState, storage AssetStorage) {
	storage.Free(st.typeID, st.handle, st.committed)
	st.status = StatusFreed
	delete(e.indirect, st.locator)
	delete(e.states, st.handle)
	e.allocator.Recycle(st.handle)
	core.MetricsAssetFreed()
	core.LogDebug("freed asset %q (handle %d)", st.locator, st.handle)
}
