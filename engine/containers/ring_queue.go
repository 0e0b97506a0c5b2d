package containers

// RingQueue is a growable FIFO queue backed by a circular buffer. It is not
// safe for concurrent use; callers that share one across goroutines must
// provide their own locking.
type RingQueue[T any] struct {
	data       []T
	readIndex  int
	writeIndex int
	count      int
}

// Create a new RingQueue with the given initial capacity.
func NewRingQueue[T any](capacity int) *RingQueue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &RingQueue[T]{
		data: make([]T, capacity),
	}
}

// Enqueue adds an element to the queue, growing the buffer when full.
func (rq *RingQueue[T]) Enqueue(value T) {
	if rq.count == len(rq.data) {
		rq.grow()
	}
	rq.data[rq.writeIndex] = value
	rq.writeIndex = (rq.writeIndex + 1) % len(rq.data)
	rq.count++
}

// Dequeue removes and returns the front element in the queue.
func (rq *RingQueue[T]) Dequeue() (T, bool) {
	var zero T
	if rq.count == 0 {
		return zero, false
	}
	value := rq.data[rq.readIndex]
	rq.data[rq.readIndex] = zero
	rq.readIndex = (rq.readIndex + 1) % len(rq.data)
	rq.count--
	return value, true
}

// Peek returns the front element without removing it.
func (rq *RingQueue[T]) Peek() (T, bool) {
	var zero T
	if rq.count == 0 {
		return zero, false
	}
	return rq.data[rq.readIndex], true
}

// DrainTo appends every queued element to dst in FIFO order, emptying the
// queue, and returns the extended slice.
func (rq *RingQueue[T]) DrainTo(dst []T) []T {
	for {
		v, ok := rq.Dequeue()
		if !ok {
			return dst
		}
		dst = append(dst, v)
	}
}

// IsEmpty checks if the queue is empty.
func (rq *RingQueue[T]) IsEmpty() bool {
	return rq.count == 0
}

// Len returns the number of queued elements.
func (rq *RingQueue[T]) Len() int {
	return rq.count
}

func (rq *RingQueue[T]) grow() {
	bigger := make([]T, len(rq.data)*2)
	for i := 0; i < rq.count; i++ {
		bigger[i] = rq.data[(rq.readIndex+i)%len(rq.data)]
	}
	rq.data = bigger
	rq.readIndex = 0
	rq.writeIndex = rq.count
}
