package storage

import (
	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/engine/loader"
)

// Resolver bridges the engine's type-erased storage calls to the concrete
// typed stores through the registry. It implements loader.AssetStorage.
type Resolver struct {
	registry  *Registry
	resources *ResourceSet
}

func NewResolver(registry *Registry, resources *ResourceSet) *Resolver {
	return &Resolver{registry: registry, resources: resources}
}

func (r *Resolver) UpdateAsset(typeID loader.AssetTypeID, handle loader.LoadHandle, data []byte, version uint32) error {
	fn, ok := r.registry.visitor(typeID)
	if !ok {
		core.LogError("loaded asset type %s but it was not registered", typeID)
		return &MissingRegistrationError{TypeID: typeID}
	}
	var err error
	fn(r.resources, func(s TypedStorage) {
		err = s.UpdateAsset(handle, data, version)
	})
	return err
}

func (r *Resolver) CommitAssetVersion(typeID loader.AssetTypeID, handle loader.LoadHandle, version uint32) {
	fn, ok := r.registry.visitor(typeID)
	if !ok {
		core.LogError("commit for unregistered asset type %s (handle %d)", typeID, handle)
		return
	}
	fn(r.resources, func(s TypedStorage) {
		s.CommitAssetVersion(handle, version)
	})
}

func (r *Resolver) Free(typeID loader.AssetTypeID, handle loader.LoadHandle, version uint32) {
	fn, ok := r.registry.visitor(typeID)
	if !ok {
		core.LogError("free for unregistered asset type %s (handle %d)", typeID, handle)
		return
	}
	fn(r.resources, func(s TypedStorage) {
		s.Free(handle, version)
	})
}
