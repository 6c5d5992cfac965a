// Package config holds the per-user configuration of the shell.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/lush/core/history"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte

	//go:embed default/example.lua
	exampleScriptData []byte
)

const (
	ConfigurationName = "config.yaml"
	ExampleScriptName = "example.lua"
)

type Configuration struct {
	configFs         afero.Fs
	configurationDir string

	PromptColor  bool   `json:"prompt_color"`
	LineCapacity int    `json:"line_capacity" validate:"gte=1"`
	Debug        bool   `json:"debug"`
	HistoryFile  string `json:"history_file" validate:"required"`
	ScriptsDir   string `json:"scripts_dir" validate:"required"`
	EventLog     string `json:"event_log" validate:"required"`
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

func (c *Configuration) fs() afero.Fs {
	return c.configFs
}

// fsFor returns the filesystem a configured path lives on: absolute paths are
// on the host, relative ones inside the configuration directory.
func (c *Configuration) fsFor(path string) afero.Fs {
	if filepath.IsAbs(path) {
		return afero.NewOsFs()
	}
	return c.fs()
}

// Dir is the directory the configuration was loaded from.
func (c *Configuration) Dir() string {
	return c.configurationDir
}

// History returns the command history stored alongside the configuration.
func (c *Configuration) History() *history.History {
	return history.New(c.fsFor(c.HistoryFile), c.HistoryFile)
}

// ScriptsPath is the OS path of the scripts directory.
func (c *Configuration) ScriptsPath() string {
	return c.resolve(c.ScriptsDir)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fsFor(c.EventLog).OpenFile(c.EventLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fsFor(c.EventLog).OpenFile(c.EventLog, os.O_RDONLY, 0600)
}

func (c *Configuration) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.configurationDir, path)
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
