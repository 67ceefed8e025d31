package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultPath is the config file looked up in the working directory.
	DefaultPath = ".pixelfit.yml"

	DefaultPageOrigin     = "https://pixelfit.app"
	DefaultProductionBase = "https://pixelfit-api.onrender.com"
	DefaultWorkbenchAddr  = "127.0.0.1:8790"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PageOrigin:     DefaultPageOrigin,
		ProductionBase: DefaultProductionBase,
		StateDB:        DefaultStateDB(),
		OutputDir:      ".",
		TimeoutSeconds: 120,
		Workbench: WorkbenchConfig{
			Addr:        DefaultWorkbenchAddr,
			OpenBrowser: true,
		},
	}
}

// DefaultStateDB is the session and history database under the user's
// config directory.
func DefaultStateDB() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".pixelfit", "state.db")
	}
	return filepath.Join(dir, "pixelfit", "state.db")
}
