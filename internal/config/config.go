// Package config loads the synchronization agent's YAML configuration
// file: where the control core keeps its database and how verbosely it
// logs. It holds no sync-root location.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/syncctl/internal/synclog"
)

// Config is the agent's on-disk configuration, per spec.md §6.
type Config struct {
	ConfigFolder string          `yaml:"configFolder"`
	LogLevel     synclog.Level   `yaml:"logLevel"`
	JSONLogs     bool            `yaml:"jsonLogs"`
	DebugLogSQL  bool            `yaml:"-"` // always sourced from SYNCCTL_DEBUG_SQL, never from file
}

// debugSQLEnvVar is the opt-in debug flag of spec.md §6: its presence,
// not its value, enables SQL tracing.
const debugSQLEnvVar = "SYNCCTL_DEBUG_SQL"

// Default returns a Config pointing at the standard per-user
// configuration folder, with info-level console logging.
func Default() (Config, error) {
	configFolder, err := defaultConfigFolder()
	if err != nil {
		return Config{}, err
	}
	return Config{
		ConfigFolder: configFolder,
		LogLevel:     synclog.InfoLevel,
		DebugLogSQL:  debugSQLEnabled(),
	}, nil
}

// Load reads a YAML config file at path, falling back to Default for
// any field the file leaves unset, and always re-derives DebugLogSQL
// from the environment.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.DebugLogSQL = debugSQLEnabled()
	return cfg, nil
}

func debugSQLEnabled() bool {
	_, ok := os.LookupEnv(debugSQLEnvVar)
	return ok
}

// defaultConfigFolder returns a ".syncctl" folder inside the user's
// Documents folder when that folder exists, otherwise inside their home
// directory. Default uses it as the ConfigFolder.
func defaultConfigFolder() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	documents := filepath.Join(home, "Documents")
	if info, err := os.Stat(documents); err == nil && info.IsDir() {
		return filepath.Join(documents, ".syncctl"), nil
	}
	return filepath.Join(home, ".syncctl"), nil
}
