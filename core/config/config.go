package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

//go:embed default/config.yaml
var defaultConfigData []byte

const (
	ConfigurationName = "config.yaml"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configFs afero.Fs
	// configurationDir is where relative paths resolve, empty for the
	// built-in default.
	configurationDir string

	Shell Shell `json:"shell"`
	Log   Log   `json:"log"`

	// Env is layered over the inherited environment of external commands.
	Env map[string]string `json:"env" validate:"dive,keys,required,excludesall==,endkeys"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

type Shell struct {
	Prompt        string `json:"prompt" validate:"required"`
	Color         string `json:"color" validate:"oneof=always auto never"`
	HijackShebang string `json:"hijack_shebang"`
	HistoryFile   string `json:"history_file"`
}

type Log struct {
	Level  string `json:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" validate:"oneof=console json"`
	Path   string `json:"path"`
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewMemMapFs()
	}
	return c.configFs
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// HistoryPath returns the absolute location of the readline history, or ""
// if history isn't persisted.
func (c *Configuration) HistoryPath() string {
	if c.Shell.HistoryFile == "" || c.configurationDir == "" {
		return ""
	}
	if filepath.IsAbs(c.Shell.HistoryFile) {
		return c.Shell.HistoryFile
	}
	return filepath.Join(c.configurationDir, c.Shell.HistoryFile)
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.Log.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadAppLog opens the application log for reading.
func (c *Configuration) ReadAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.Log.Path, os.O_RDONLY, 0600)
}

// Default returns the built-in configuration, used when no config.yaml
// exists.
func Default() *Configuration {
	return defaultConfig()
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
