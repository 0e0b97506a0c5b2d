package storage

import (
	"sync"

	"github.com/spaghettifunk/astra/engine/loader"
)

// ResourceSet is the host-owned, type-keyed container concrete asset stores
// live in. Stores are inserted once at registration time and fetched by the
// registry's visitor closures during dispatch.
type ResourceSet struct {
	mu      sync.RWMutex
	entries map[loader.AssetTypeID]interface{}
}

func NewResourceSet() *ResourceSet {
	return &ResourceSet{
		entries: make(map[loader.AssetTypeID]interface{}),
	}
}

func (rs *ResourceSet) Insert(typeID loader.AssetTypeID, value interface{}) {
	rs.mu.Lock()
	rs.entries[typeID] = value
	rs.mu.Unlock()
}

func (rs *ResourceSet) Lookup(typeID loader.AssetTypeID) (interface{}, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	value, ok := rs.entries[typeID]
	return value, ok
}
