/*
Package testbed is an example application exercising the asset coordinator:
it registers the stock asset types, kicks off a few loads and polls them to
completion in its update loop.
*/
package testbed

import (
	"fmt"

	"github.com/spaghettifunk/astra/engine/assets"
	"github.com/spaghettifunk/astra/engine/assets/importers"
	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/engine/loader"
	"github.com/spaghettifunk/astra/engine/storage"
)

type App struct {
	coordinator *assets.Coordinator
	clock       *core.Clock

	images   *storage.Assets[*importers.ImageAsset]
	fonts    *storage.Assets[*importers.BitmapFontAsset]
	binaries *storage.Assets[*importers.BinaryAsset]

	skullHandle loader.Handle[*importers.ImageAsset]
	skullShown  bool
}

func New(cfg *assets.Config) (*App, error) {
	coordinator, err := assets.NewCoordinator(cfg, importers.DefaultExtensions())
	if err != nil {
		return nil, err
	}

	app := &App{
		coordinator: coordinator,
		clock:       core.NewClock(),
	}

	app.images, err = assets.RegisterAssetType(coordinator, importers.ImageAssetType, importers.ImageImporter{})
	if err != nil {
		return nil, err
	}
	app.fonts, err = assets.RegisterAssetType(coordinator, importers.BitmapFontAssetType, importers.BitmapFontImporter{})
	if err != nil {
		return nil, err
	}
	app.binaries, err = assets.RegisterAssetType(coordinator, importers.BinaryAssetType, importers.BinaryImporter{})
	if err != nil {
		return nil, err
	}

	return app, nil
}

func (a *App) Initialize() error {
	core.LogInfo("testbed booting, loading initial assets...")
	a.clock.Start()
	a.skullHandle = assets.Load[*importers.ImageAsset](a.coordinator, "textures/skull.png")
	return nil
}

// Update runs one coordinator cycle and reports on anything that finished
// loading since the last one.
func (a *App) Update() error {
	a.coordinator.Process()

	h := a.skullHandle.LoadHandle()
	if !a.skullShown && a.coordinator.IsLoaded(h) {
		img, ok := a.images.Get(h)
		if !ok {
			return fmt.Errorf("skull image committed but missing from storage")
		}
		a.clock.Update()
		bounds := img.Image.Bounds()
		core.LogInfo("skull texture ready: %dx%d (%s) after %s", bounds.Dx(), bounds.Dy(), img.Format, a.clock.Elapsed())
		a.skullShown = true
	}

	if info, ok := a.coordinator.Info(h); ok && info.LastErr != nil {
		return info.LastErr
	}
	return nil
}

func (a *App) Shutdown() error {
	a.skullHandle.Release()
	a.coordinator.Process()

	m := core.MetricsSnapshot()
	core.LogInfo("asset pipeline: %d requested, %d completed, %d failed, %d freed, %d bytes fetched",
		m.LoadsRequested, m.LoadsCompleted, m.LoadsFailed, m.AssetsFreed, m.BytesFetched)

	return a.coordinator.Shutdown()
}
