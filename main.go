/*
This is an example of application that will use the
astra package to test things out
*/
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spaghettifunk/astra/engine/assets"
	"github.com/spaghettifunk/astra/engine/core"
	"github.com/spaghettifunk/astra/testbed"
)

const configPath = "astra.toml"

func main() {
	cfg := assets.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		loaded, err := assets.LoadConfig(configPath)
		if err != nil {
			core.LogFatal("failed to read %s: %v", configPath, err)
		}
		cfg = loaded
	}

	app, err := testbed.New(cfg)
	if err != nil {
		panic(err)
	}

	if err := app.Initialize(); err != nil {
		panic(err)
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			if err := app.Shutdown(); err != nil {
				core.LogError("shutdown: %v", err)
			}
			return
		case <-ticker.C:
			if err := app.Update(); err != nil {
				core.LogError("update: %v", err)
			}
		}
	}
}
