package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spaghettifunk/astra/engine/assets/importers"
	"github.com/spaghettifunk/astra/engine/backend"
	"github.com/spaghettifunk/astra/engine/loader"
	"github.com/spaghettifunk/astra/engine/storage"
)

// buildPack writes a packfile with the given binary entries and returns its
// path.
func buildPack(t *testing.T, entries map[string][]byte) string {
	t.Helper()
	w := backend.NewPackfileWriter()
	for path, data := range entries {
		w.Add(path, importers.BinaryAssetType, data)
	}
	path := filepath.Join(t.TempDir(), "assets.pack")
	if err := w.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// waitLoaded pumps the coordinator until the identifier is ready or the load
// settles in a failure.
func waitLoaded(t *testing.T, c *Coordinator, h loader.LoadHandle) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.Process()
		if c.IsLoaded(h) {
			return
		}
		if info, ok := c.Info(h); ok && info.LastErr != nil {
			t.Fatalf("load failed: %v", info.LastErr)
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("asset never became ready")
}

func newPackCoordinator(t *testing.T, entries map[string][]byte) (*Coordinator, *storage.Assets[*importers.BinaryAsset]) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Packfile = buildPack(t, entries)

	c, err := NewCoordinator(cfg, importers.DefaultExtensions())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	t.Cleanup(func() { c.Shutdown() })

	binaries, err := RegisterAssetType[*importers.BinaryAsset](c, importers.BinaryAssetType, importers.BinaryImporter{})
	if err != nil {
		t.Fatalf("RegisterAssetType: %v", err)
	}
	return c, binaries
}

func TestCoordinator_PackfileLoadAndRelease(t *testing.T) {
	c, binaries := newPackCoordinator(t, map[string][]byte{
		"shaders/main.spv": []byte("spirv words"),
	})

	handle := Load[*importers.BinaryAsset](c, "shaders/main.spv")
	if c.IsLoaded(handle.LoadHandle()) {
		t.Error("asset reported ready before any cycle ran")
	}

	waitLoaded(t, c, handle.LoadHandle())

	asset, ok := binaries.Get(handle.LoadHandle())
	if !ok || string(asset.Data) != "spirv words" {
		t.Fatalf("typed store Get = %v,%v, want spirv words,true", asset, ok)
	}

	handle.Release()
	c.Process()

	if _, ok := binaries.Get(handle.LoadHandle()); ok {
		t.Error("value still visible after the last handle was released")
	}
	if binaries.Len() != 0 {
		t.Errorf("store Len = %d after release, want 0", binaries.Len())
	}
}

func TestCoordinator_SamePathSameIdentifier(t *testing.T) {
	c, _ := newPackCoordinator(t, map[string][]byte{
		"a.bin": []byte("a"),
	})

	h1 := Load[*importers.BinaryAsset](c, "a.bin")
	h2 := Load[*importers.BinaryAsset](c, "a.bin")
	defer h1.Release()
	defer h2.Release()

	if h1.LoadHandle() != h2.LoadHandle() {
		t.Errorf("same path resolved to %d and %d", h1.LoadHandle(), h2.LoadHandle())
	}

	untyped := c.LoadUntyped("a.bin")
	defer untyped.Release()
	if untyped.LoadHandle() != h1.LoadHandle() {
		t.Errorf("untyped load resolved to %d, want %d", untyped.LoadHandle(), h1.LoadHandle())
	}

	extra := c.GetHandleUntyped(h1.LoadHandle())
	if extra.LoadHandle() != h1.LoadHandle() {
		t.Errorf("GetHandleUntyped = %d, want %d", extra.LoadHandle(), h1.LoadHandle())
	}
	extra.Release()
	c.Process()
}

func TestCoordinator_MissingAssetRecordsError(t *testing.T) {
	c, _ := newPackCoordinator(t, map[string][]byte{
		"a.bin": []byte("a"),
	})

	handle := Load[*importers.BinaryAsset](c, "missing.bin")
	defer handle.Release()

	deadline := time.Now().Add(2 * time.Second)
	for {
		c.Process()
		if info, ok := c.Info(handle.LoadHandle()); ok && info.LastErr != nil {
			if !errors.Is(info.LastErr, backend.ErrNotFound) {
				t.Errorf("LastErr = %v, want ErrNotFound", info.LastErr)
			}
			if info.Status != loader.StatusUnloaded {
				t.Errorf("Status = %v, want %v", info.Status, loader.StatusUnloaded)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("missing asset never settled in a failure")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCoordinator_DirectoryMode(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "blob.bin"), []byte("from disk"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Mode = ModeDirectory
	cfg.Directory = root
	cfg.Address = "127.0.0.1:0"

	c, err := NewCoordinator(cfg, importers.DefaultExtensions())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	defer c.Shutdown()

	binaries, err := RegisterAssetType[*importers.BinaryAsset](c, importers.BinaryAssetType, importers.BinaryImporter{})
	if err != nil {
		t.Fatalf("RegisterAssetType: %v", err)
	}

	handle := Load[*importers.BinaryAsset](c, "blob.bin")
	defer handle.Release()
	waitLoaded(t, c, handle.LoadHandle())

	asset, ok := binaries.Get(handle.LoadHandle())
	if !ok || string(asset.Data) != "from disk" {
		t.Errorf("Get = %v,%v, want from disk,true", asset, ok)
	}
}

func TestNewCoordinator_ConfigErrors(t *testing.T) {
	exts := importers.DefaultExtensions()

	cfg := DefaultConfig()
	cfg.Mode = "network"
	if _, err := NewCoordinator(cfg, exts); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("unknown mode error = %v, want ErrUnknownMode", err)
	}

	cfg = DefaultConfig()
	cfg.Mode = ModeDirectory
	cfg.Address = ""
	if _, err := NewCoordinator(cfg, exts); !errors.Is(err, ErrNoDaemonAddress) {
		t.Errorf("missing address error = %v, want ErrNoDaemonAddress", err)
	}

	cfg = DefaultConfig()
	cfg.Mode = ModeDirectory
	cfg.Directory = filepath.Join(t.TempDir(), "absent")
	if _, err := NewCoordinator(cfg, exts); !errors.Is(err, ErrInvalidRootPath) {
		t.Errorf("missing directory error = %v, want ErrInvalidRootPath", err)
	}

	file := filepath.Join(t.TempDir(), "afile")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg = DefaultConfig()
	cfg.Mode = ModeDirectory
	cfg.Directory = file
	if _, err := NewCoordinator(cfg, exts); !errors.Is(err, ErrAssetFolderNotADirectory) {
		t.Errorf("file-as-directory error = %v, want ErrAssetFolderNotADirectory", err)
	}

	cfg = DefaultConfig()
	cfg.Packfile = filepath.Join(t.TempDir(), "absent.pack")
	if _, err := NewCoordinator(cfg, exts); err == nil {
		t.Error("missing packfile accepted")
	}
}

func TestCoordinator_UnsupportedOperations(t *testing.T) {
	c, _ := newPackCoordinator(t, map[string][]byte{"a.bin": []byte("a")})

	if _, err := c.LoadFolder("textures"); !errors.Is(err, ErrUnsupported) {
		t.Errorf("LoadFolder error = %v, want ErrUnsupported", err)
	}
	if _, err := c.HandlePath(1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("HandlePath error = %v, want ErrUnsupported", err)
	}
}
