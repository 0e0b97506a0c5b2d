package storage

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/astra/engine/loader"
)

// TypedStorage is the uniform capability every concrete asset store exposes.
// The registry's visitors hand it to type-erased callers without those
// callers ever learning the concrete asset type.
type TypedStorage interface {
	UpdateAsset(handle loader.LoadHandle, data []byte, version uint32) error
	CommitAssetVersion(handle loader.LoadHandle, version uint32)
	Free(handle loader.LoadHandle, version uint32)
}

// VisitorFn locates the concrete store for one asset type inside a
// ResourceSet and invokes the callback with it as the uniform capability.
type VisitorFn func(resources *ResourceSet, visit func(TypedStorage))

// MissingRegistrationError reports bytes arriving from a backend for an asset
// type nobody registered. The affected load is dropped; the system keeps
// running.
type MissingRegistrationError struct {
	TypeID loader.AssetTypeID
}

func (e *MissingRegistrationError) Error() string {
	return fmt.Sprintf("no asset registration found for type %s", e.TypeID)
}

var ErrAlreadyRegistered = errors.New("asset type already registered")

// Registry maps asset type IDs to visitor closures. Registration happens once
// per type at startup; lookups are concurrent and lock-cheap afterwards. This
// is the single seam where the type-erased and the strongly typed worlds
// cross.
type Registry struct {
	mu            sync.RWMutex
	registrations map[loader.AssetTypeID]VisitorFn
}

func NewRegistry() *Registry {
	return &Registry{
		registrations: make(map[loader.AssetTypeID]VisitorFn),
	}
}

func (r *Registry) Register(typeID loader.AssetTypeID, fn VisitorFn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.registrations[typeID]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, typeID)
	}
	r.registrations[typeID] = fn
	return nil
}

func (r *Registry) visitor(typeID loader.AssetTypeID) (VisitorFn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.registrations[typeID]
	return fn, ok
}
