package loader

import (
	"sync"

	"github.com/spaghettifunk/astra/engine/containers"
)

type RefOpKind uint8

const (
	RefOpIncrease RefOpKind = iota
	RefOpDecrease
)

// RefOp is one deferred reference-count mutation for a LoadHandle.
type RefOp struct {
	Kind   RefOpKind
	Handle LoadHandle
}

// RefOpQueue decouples handle construction and destruction, which may happen
// on any goroutine, from the single place reference counts are applied.
// Enqueue never blocks; the engine drains the queue once per coordinator
// cycle on the pump goroutine.
type RefOpQueue struct {
	mu  sync.Mutex
	ops *containers.RingQueue[RefOp]
}

func NewRefOpQueue() *RefOpQueue {
	return &RefOpQueue{
		ops: containers.NewRingQueue[RefOp](64),
	}
}

func (q *RefOpQueue) Enqueue(op RefOp) {
	q.mu.Lock()
	q.ops.Enqueue(op)
	q.mu.Unlock()
}

// drain returns every queued op in enqueue order and empties the queue.
func (q *RefOpQueue) drain() []RefOp {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ops.IsEmpty() {
		return nil
	}
	return q.ops.DrainTo(make([]RefOp, 0, q.ops.Len()))
}
