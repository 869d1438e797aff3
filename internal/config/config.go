// Package config loads prised's daemon configuration from YAML and offers
// Watch, which reloads the file whenever it changes. prised itself loads
// the file once at startup and does not call Watch.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds every daemon-wide setting that isn't specific to one
// session or connection.
type Config struct {
	// SocketPath is the Unix domain socket prised listens on. Defaults to
	// /tmp/prise-<uid>.sock when empty.
	SocketPath string `yaml:"socket_path"`

	// DefaultShell is read from the file but not passed to the registry:
	// spawn_pty always runs $SHELL, or /bin/sh when $SHELL is unset.
	DefaultShell string `yaml:"default_shell"`

	// StateDir receives the best-effort per-session metadata sidecar
	// files; the core never reads them back. Defaults to
	// $XDG_STATE_HOME/prise or ~/.local/state/prise.
	StateDir string `yaml:"state_dir"`

	// ExitOnIdle mirrors the registry option of the same name; false in
	// production, set true by the integration test harness.
	ExitOnIdle bool `yaml:"exit_on_idle"`
}

// Default returns a Config with every field at its production default.
func Default() Config {
	return Config{
		StateDir: defaultStateDir(),
	}
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "prise")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "prise")
}

// Load reads and parses the YAML file at path, applying it on top of
// Default(). A missing file is not an error; Load returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}
