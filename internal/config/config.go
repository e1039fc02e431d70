// Package config loads persistent defaults for flags a user would otherwise
// repeat on every invocation. Values come from an optional YAML file with
// environment-variable overrides; explicit flags always win.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Defaults holds the configurable baseline for a run. Every field maps to a
// flag of the same meaning; zero values defer to the flag's own default.
type Defaults struct {
	OutputDir      string `yaml:"output_dir" env:"YTAUDIO_OUTPUT_DIR"`
	ArchivePath    string `yaml:"archive" env:"YTAUDIO_ARCHIVE"`
	ToolPath       string `yaml:"tool_path" env:"YTAUDIO_TOOL_PATH"`
	OutputTemplate string `yaml:"output_template" env:"YTAUDIO_OUTPUT_TEMPLATE"`
	AutoFetchTool  bool   `yaml:"auto_fetch_tool" env:"YTAUDIO_AUTO_FETCH_TOOL" env-default:"true"`
}

// DefaultPath is where Load looks when no explicit config path is given.
func DefaultPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "ytaudio", "config.yml")
}

// Load reads defaults from the given file, falling back to environment
// variables only when the file does not exist. A missing file is not an
// error; a malformed one is.
func Load(path string) (Defaults, error) {
	var d Defaults
	if path == "" {
		if err := cleanenv.ReadEnv(&d); err != nil {
			return Defaults{}, fmt.Errorf("reading environment defaults: %w", err)
		}
		return d, nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("expanding config path %q: %w", path, err)
	}
	if _, err := os.Stat(expanded); err != nil {
		if os.IsNotExist(err) {
			if err := cleanenv.ReadEnv(&d); err != nil {
				return Defaults{}, fmt.Errorf("reading environment defaults: %w", err)
			}
			return d, nil
		}
		return Defaults{}, fmt.Errorf("checking config file %q: %w", expanded, err)
	}

	if err := cleanenv.ReadConfig(expanded, &d); err != nil {
		return Defaults{}, fmt.Errorf("loading config file %q: %w", expanded, err)
	}
	return d, nil
}
