package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/agentic-research/refview/api"
)

// defaultConfigPath returns ~/.config/refview/config.json.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "refview", "config.json"), nil
}

// loadConfig reads a JSON or YAML config file. JSON is decoded by the YAML
// parser, which accepts it as a subset.
func loadConfig(path string) (api.Options, error) {
	var opts api.Options
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parse config %s: %w", path, err)
	}
	return opts, nil
}

// options merges the config file with the flags that were set explicitly.
// A missing default config file is fine; a missing --config file is not.
func (f *rootFlags) options(cmd *cobra.Command) (api.Options, error) {
	path := f.configPath
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return api.Options{}, err
		}
	}

	opts, err := loadConfig(path)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !explicit:
		opts = api.Options{}
	default:
		return api.Options{}, fmt.Errorf("failed to read config file: %w", err)
	}

	if cmd.Flags().Changed("redact") {
		opts.Redact = f.redact
	}
	if cmd.Flags().Changed("internal-prefix") {
		opts.InternalPrefix = f.internalPrefix
	}
	return opts, nil
}
