package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	return loadFs(afero.NewBasePathFs(afero.NewOsFs(), path), path)
}

// LoadOrDefault loads the configuration from path, falling back to the
// built-in default if none was initialized there.
func LoadOrDefault(path string) (*Configuration, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = defaultConfig()
		cfg.configFs = afero.NewBasePathFs(afero.NewOsFs(), path)
		cfg.configurationDir = path
		return cfg, nil
	}
	return cfg, err
}

func loadFs(configFs afero.Fs, dir string) (*Configuration, error) {
	configContents, err := afero.ReadFile(configFs, ConfigurationName)
	if err != nil {
		return nil, err
	}
	var out Configuration
	if err := yaml.UnmarshalStrict(configContents, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigurationName, err)
	}
	out.configFs = configFs
	out.configurationDir = dir
	return &out, nil
}

// Initialize writes the default configuration into dir unless one already
// exists, then loads it.
func Initialize(dir string, logger *zap.SugaredLogger) (*Configuration, error) {
	return initializeFs(afero.NewBasePathFs(afero.NewOsFs(), dir), dir, logger)
}

func initializeFs(configFs afero.Fs, dir string, logger *zap.SugaredLogger) (*Configuration, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if err := configFs.MkdirAll("/", 0700); err != nil {
		return nil, err
	}

	exists, err := afero.Exists(configFs, ConfigurationName)
	switch {
	case err != nil:
		return nil, err
	case exists:
		logger.Infow("keeping existing configuration", "path", filepath.Join(dir, ConfigurationName))
	default:
		logger.Infow("writing default configuration", "path", filepath.Join(dir, ConfigurationName))
		if err := afero.WriteFile(configFs, ConfigurationName, defaultConfigData, 0600); err != nil {
			return nil, err
		}
	}

	return loadFs(configFs, dir)
}
