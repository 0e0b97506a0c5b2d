package loader

import "sync"

// LoadHandle uniquely names one loaded asset slot. A handle stays valid for
// the lifetime of the process unless it is explicitly recycled after its
// asset has been freed.
type LoadHandle uint64

// InvalidLoadHandle is never issued by an allocator.
const InvalidLoadHandle LoadHandle = 0

// HandleAllocator issues LoadHandles. It is owned by the coordinator and
// injected into the engine, so independent instances can coexist in one
// process. Recycled handles are reused before new ones are minted.
type HandleAllocator struct {
	mu   sync.Mutex
	next LoadHandle
	free []LoadHandle
}

func NewHandleAllocator() *HandleAllocator {
	return &HandleAllocator{next: 1}
}

func (a *HandleAllocator) Allocate() LoadHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		return h
	}
	h := a.next
	a.next++
	return h
}

// Recycle returns a handle to the allocator for reuse. The engine calls this
// once an identifier has been freed from typed storage; nothing may still
// reference the handle at that point.
func (a *HandleAllocator) Recycle(h LoadHandle) {
	if h == InvalidLoadHandle {
		return
	}
	a.mu.Lock()
	a.free = append(a.free, h)
	a.mu.Unlock()
}
