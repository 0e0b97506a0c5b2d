package assets

import (
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/astra/engine/backend"
	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/engine/loader"
	"github.com/spaghettifunk/astra/engine/storage"
)

// ErrUnsupported marks capabilities the coordinator deliberately does not
// provide because no backend guarantees the semantics they would need.
var ErrUnsupported = errors.New("unsupported operation")

// Coordinator is the public entry point for asset loading. It creates
// handles, resolves logical paths to load slots, and pumps the reference-count
// queue and the load engine once per cycle.
//
// Handles may be created, cloned and released from any goroutine; Process
// must run on one designated goroutine (typically the application's update
// loop) and never concurrently with itself.
type Coordinator struct {
	config    *Config
	allocator *loader.HandleAllocator
	engine    *loader.Engine
	registry  *storage.Registry
	resources *storage.ResourceSet
	resolver  *storage.Resolver
	daemon    *backend.Daemon // directory mode only
}

// NewCoordinator builds the coordinator for the configured source mode.
// extensions maps file extensions (".png" style) to asset type IDs; directory
// mode hands it to the daemon so it knows which files to index, packfile mode
// ignores it because archived entries already carry their type tag.
func NewCoordinator(cfg *Config, extensions map[string]loader.AssetTypeID) (*Coordinator, error) {
	var (
		io     loader.BackendIO
		daemon *backend.Daemon
	)

	switch cfg.Mode {
	case ModeDirectory:
		if cfg.Address == "" {
			return nil, ErrNoDaemonAddress
		}
		if cfg.Directory == "" {
			return nil, ErrInvalidRootPath
		}
		info, err := os.Stat(cfg.Directory)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRootPath, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %q", ErrAssetFolderNotADirectory, cfg.Directory)
		}
		d, err := backend.NewDaemon(cfg.Directory, cfg.Address)
		if err != nil {
			return nil, err
		}
		for ext, typeID := range extensions {
			d.WithImporter(ext, typeID)
		}
		if err := d.Start(); err != nil {
			return nil, err
		}
		client, err := backend.DialDaemon(d.Addr())
		if err != nil {
			d.Close()
			return nil, err
		}
		io = client
		daemon = d

	case ModePackfile:
		if cfg.Packfile == "" {
			return nil, ErrInvalidRootPath
		}
		pf, err := backend.OpenPackfile(cfg.Packfile)
		if err != nil {
			return nil, err
		}
		core.LogInfo("serving %d assets from packfile %q", pf.Len(), cfg.Packfile)
		io = pf

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}

	allocator := loader.NewHandleAllocator()
	registry := storage.NewRegistry()
	resources := storage.NewResourceSet()
	return &Coordinator{
		config:    cfg,
		allocator: allocator,
		engine: loader.NewEngine(io, allocator, loader.EngineConfig{
			MaxLoaderThreads: cfg.MaxLoaderThreads,
		}),
		registry:  registry,
		resources: resources,
		resolver:  storage.NewResolver(registry, resources),
		daemon:    daemon,
	}, nil
}

// RegisterAssetType wires a concrete asset type into this coordinator and
// returns its typed store. Register every type once, at startup, before the
// first Process call.
func RegisterAssetType[T any](c *Coordinator, typeID loader.AssetTypeID, importer storage.Importer[T]) (*storage.Assets[T], error) {
	return storage.RegisterAssetType(c.registry, c.resources, typeID, importer)
}

// LoadUntyped resolves path and registers a load, returning a reference
// token immediately. It never blocks; poll Status for readiness.
func (c *Coordinator) LoadUntyped(path string) loader.GenericHandle {
	h := c.engine.RequestLoad(path)
	return loader.NewGenericHandle(c.engine.RefOps(), h)
}

// Load is the typed flavor of LoadUntyped.
func Load[T any](c *Coordinator, path string) loader.Handle[T] {
	h := c.engine.RequestLoad(path)
	return loader.NewHandle[T](c.engine.RefOps(), h)
}

// GetHandleUntyped constructs a new reference to an identifier that is
// already known to be loading or loaded, without issuing a new load.
func (c *Coordinator) GetHandleUntyped(h loader.LoadHandle) loader.GenericHandle {
	return loader.NewGenericHandle(c.engine.RefOps(), h)
}

// GetHandle is the typed flavor of GetHandleUntyped.
func GetHandle[T any](c *Coordinator, h loader.LoadHandle) loader.Handle[T] {
	return loader.NewHandle[T](c.engine.RefOps(), h)
}

// Process runs one coordinator cycle: pending ref-count ops are applied
// first, then the load state machines advance. Ref changes land first so an
// identifier that just gained a reference is never freed in the same cycle.
func (c *Coordinator) Process() {
	c.engine.ApplyRefOps(c.resolver)
	c.engine.Process(c.resolver)
}

// Status reports the load state for a handle's identifier.
func (c *Coordinator) Status(h loader.LoadHandle) loader.LoadStatus {
	return c.engine.Status(h)
}

// IsLoaded reports whether a committed value is visible for the identifier.
func (c *Coordinator) IsLoaded(h loader.LoadHandle) bool {
	return c.engine.Status(h).Loaded()
}

// Info returns the bookkeeping snapshot for a handle's identifier, including
// the last load error if the most recent attempt failed.
func (c *Coordinator) Info(h loader.LoadHandle) (loader.AssetInfo, bool) {
	return c.engine.Info(h)
}

// LoadFolder would need directory semantics that not every backend can honor
// (a packfile has no directories). It fails explicitly instead of guessing.
func (c *Coordinator) LoadFolder(path string) ([]loader.GenericHandle, error) {
	return nil, fmt.Errorf("%w: LoadFolder(%q)", ErrUnsupported, path)
}

// HandlePath, the reverse lookup from a handle to the path it was loaded
// from, is likewise not provided.
func (c *Coordinator) HandlePath(h loader.LoadHandle) (string, error) {
	return "", fmt.Errorf("%w: HandlePath(%d)", ErrUnsupported, h)
}

// Shutdown stops the fetch workers, closes the backend and, in directory
// mode, the daemon.
func (c *Coordinator) Shutdown() error {
	err := c.engine.Shutdown()
	if c.daemon != nil {
		if derr := c.daemon.Close(); err == nil {
			err = derr
		}
	}
	return err
}
