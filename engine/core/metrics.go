package core

import "sync"

type MetricsState struct {
	LoadsRequested uint64
	LoadsCompleted uint64
	LoadsFailed    uint64
	LoadsRetried   uint64
	AssetsFreed    uint64
	BytesFetched   uint64
}

var metricsMutex sync.Mutex
var metricsState MetricsState

func MetricsLoadRequested() {
	metricsMutex.Lock()
	metricsState.LoadsRequested++
	metricsMutex.Unlock()
}

func MetricsLoadCompleted(bytes int) {
	metricsMutex.Lock()
	metricsState.LoadsCompleted++
	metricsState.BytesFetched += uint64(bytes)
	metricsMutex.Unlock()
}

func MetricsLoadFailed() {
	metricsMutex.Lock()
	metricsState.LoadsFailed++
	metricsMutex.Unlock()
}

func MetricsLoadRetried() {
	metricsMutex.Lock()
	metricsState.LoadsRetried++
	metricsMutex.Unlock()
}

func MetricsAssetFreed() {
	metricsMutex.Lock()
	metricsState.AssetsFreed++
	metricsMutex.Unlock()
}

// MetricsSnapshot returns a copy of the counters accumulated so far.
func MetricsSnapshot() MetricsState {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	return metricsState
}
