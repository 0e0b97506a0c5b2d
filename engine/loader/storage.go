package loader

import "errors"

// AssetStorage routes type-erased storage operations for loaded bytes. The
// engine only ever sees bytes and a type tag; implementations dispatch each
// call to the strongly typed store registered for that tag.
type AssetStorage interface {
	// UpdateAsset decodes data into a staged, not-yet-visible version.
	UpdateAsset(typeID AssetTypeID, handle LoadHandle, data []byte, version uint32) error
	// CommitAssetVersion atomically makes the staged version the visible one.
	// Concurrent readers see the old value or the new one, never a mix.
	CommitAssetVersion(typeID AssetTypeID, handle LoadHandle, version uint32)
	// Free releases storage for an identifier whose reference count reached
	// zero. Only called after commit, never while a load is in flight.
	Free(typeID AssetTypeID, handle LoadHandle, version uint32)
}

// BackendIO supplies raw bytes for a locator, tagged with the asset type the
// backend determined for it. ReadAsset may block; the engine only calls it
// from fetch workers, never from the pump goroutine.
type BackendIO interface {
	ReadAsset(locator string) (AssetTypeID, []byte, error)
	Close() error
}

// Transient marks backend errors that should keep a request queued instead
// of failing it, e.g. a daemon that has not indexed the path yet.
type Transient interface {
	Transient() bool
}

func isTransient(err error) bool {
	var t Transient
	return errors.As(err, &t) && t.Transient()
}
