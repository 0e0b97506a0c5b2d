package storage

import (
	"sync"

	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/engine/loader"
)

// Importer decodes raw asset bytes into the typed value.
type Importer[T any] interface {
	Import(data []byte) (T, error)
}

// ImporterFunc adapts a plain function to Importer.
type ImporterFunc[T any] func(data []byte) (T, error)

func (f ImporterFunc[T]) Import(data []byte) (T, error) {
	return f(data)
}

type stagedKey struct {
	handle  loader.LoadHandle
	version uint32
}

type committedAsset[T any] struct {
	value   T
	version uint32
}

// Assets is the strongly typed store for one asset type. Decoded values are
// staged per version and become visible to readers only on commit. The swap
// happens under one lock, so a concurrent Get observes the fully-old or the
// fully-new value, never a partial one.
type Assets[T any] struct {
	importer Importer[T]

	mu        sync.RWMutex
	staged    map[stagedKey]T
	committed map[loader.LoadHandle]committedAsset[T]
}

func NewAssets[T any](importer Importer[T]) *Assets[T] {
	return &Assets[T]{
		importer:  importer,
		staged:    make(map[stagedKey]T),
		committed: make(map[loader.LoadHandle]committedAsset[T]),
	}
}

// UpdateAsset decodes data into a staged version. A decode failure leaves the
// store untouched and is reported to the engine, which marks the request
// failed; retrying is the caller's decision.
func (a *Assets[T]) UpdateAsset(handle loader.LoadHandle, data []byte, version uint32) error {
	value, err := a.importer.Import(data)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.staged[stagedKey{handle: handle, version: version}] = value
	a.mu.Unlock()
	return nil
}

// CommitAssetVersion promotes the staged version to the visible value,
// retiring whatever was visible before.
func (a *Assets[T]) CommitAssetVersion(handle loader.LoadHandle, version uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	key := stagedKey{handle: handle, version: version}
	value, ok := a.staged[key]
	if !ok {
		core.LogError("commit of unstaged version %d for handle %d", version, handle)
		return
	}
	delete(a.staged, key)
	a.committed[handle] = committedAsset[T]{value: value, version: version}
}

// Free releases the committed value for an identifier. A stale version is
// ignored: a newer commit already replaced it.
func (a *Assets[T]) Free(handle loader.LoadHandle, version uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.committed[handle]; ok && cur.version == version {
		delete(a.committed, handle)
	}
}

// Get returns the committed value for an identifier, if any. Safe to call
// from any goroutine, including while a commit is in progress.
func (a *Assets[T]) Get(handle loader.LoadHandle) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cur, ok := a.committed[handle]
	return cur.value, ok
}

// GetVersion returns the committed value together with its version number.
func (a *Assets[T]) GetVersion(handle loader.LoadHandle) (T, uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cur, ok := a.committed[handle]
	return cur.value, cur.version, ok
}

// Len reports how many identifiers currently have a committed value.
func (a *Assets[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.committed)
}

// RegisterAssetType wires one concrete asset type into the loading pipeline:
// it creates the typed store, parks it in the host resource set, and installs
// the visitor closure that lets type-erased dispatch reach the store without
// knowing T.
func RegisterAssetType[T any](registry *Registry, resources *ResourceSet, typeID loader.AssetTypeID, importer Importer[T]) (*Assets[T], error) {
	store := NewAssets[T](importer)
	resources.Insert(typeID, store)
	err := registry.Register(typeID, func(rs *ResourceSet, visit func(TypedStorage)) {
		value, ok := rs.Lookup(typeID)
		if !ok {
			core.LogError("resource set has no store for registered asset type %s", typeID)
			return
		}
		if s, ok := value.(*Assets[T]); ok {
			visit(s)
		}
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
