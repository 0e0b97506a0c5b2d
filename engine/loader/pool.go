package loader

import "sync"

// LoadRequest is one queued byte-fetch. It is owned exclusively by the worker
// that picks it up.
type LoadRequest struct {
	Handle  LoadHandle
	Locator string
}

// fetchResult carries one backend read outcome back to the pump goroutine.
type fetchResult struct {
	handle LoadHandle
	typeID AssetTypeID
	data   []byte
	err    error
}

// fetchPool is a fixed-size worker pool performing the blocking backend
// reads so the pump goroutine never does.
type fetchPool struct {
	io       BackendIO
	requests chan LoadRequest
	results  chan fetchResult
	wg       sync.WaitGroup
}

// The results channel holds every outcome a full request queue plus the
// in-flight workers can produce, so workers never block on it.
func newFetchPool(io BackendIO, workers, queueSize int) *fetchPool {
	p := &fetchPool{
		io:       io,
		requests: make(chan LoadRequest, queueSize),
		results:  make(chan fetchResult, queueSize+workers),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for req := range p.requests {
				typeID, data, err := p.io.ReadAsset(req.Locator)
				p.results <- fetchResult{handle: req.Handle, typeID: typeID, data: data, err: err}
			}
		}()
	}
	return p
}

// trySubmit enqueues a request without blocking. It reports false when the
// queue is full; the engine retries on a later Process pass.
func (p *fetchPool) trySubmit(req LoadRequest) bool {
	select {
	case p.requests <- req:
		return true
	default:
		return false
	}
}

// tryResult pops one completed fetch without blocking.
func (p *fetchPool) tryResult() (fetchResult, bool) {
	select {
	case res := <-p.results:
		return res, true
	default:
		return fetchResult{}, false
	}
}

func (p *fetchPool) shutdown() {
	close(p.requests)
	p.wg.Wait()
}
