package assets

import (
	"errors"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	// ModeDirectory loads from an asset directory watched by an in-process
	// build daemon.
	ModeDirectory = "directory"
	// ModePackfile loads from a single prebuilt read-only archive.
	ModePackfile = "packfile"
)

// Configuration errors are fatal at startup; nothing recovers from them.
var (
	ErrUnknownMode              = errors.New("unknown asset source mode")
	ErrInvalidRootPath          = errors.New("invalid root path")
	ErrAssetFolderNotADirectory = errors.New("asset folder path is not a directory")
	ErrNoDaemonAddress          = errors.New("directory mode requires a daemon address")
)

// Config selects where asset bytes come from. In directory mode a build
// daemon watching Directory is started at Address; in packfile mode the
// archive at Packfile is opened read-only.
type Config struct {
	Mode             string `toml:"mode"`
	Directory        string `toml:"directory"`
	Packfile         string `toml:"packfile"`
	Address          string `toml:"address"`
	MaxLoaderThreads int    `toml:"max_loader_threads"`
}

func DefaultConfig() *Config {
	return &Config{
		Mode:             ModePackfile,
		Directory:        "assets",
		Packfile:         "assets.pack",
		Address:          "127.0.0.1:9999",
		MaxLoaderThreads: 4,
	}
}

// LoadConfig reads a TOML config file; fields left out keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
