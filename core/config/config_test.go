package config

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v2"
)

func TestBuiltinConfig(t *testing.T) {
	rawConfig := make(map[string]interface{})
	assert.Nil(t, yaml.Unmarshal(defaultConfigData, &rawConfig))

	knownFields := make(map[string]bool)
	rt := reflect.TypeOf(Configuration{})
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		assert.NotEmpty(t, jsonTag)
		jsonField := strings.Split(jsonTag, ",")[0]
		knownFields[jsonField] = true

		if _, ok := rawConfig[jsonField]; !ok {
			assert.False(t, true, "default config missing field: %q", jsonField)
		}
	}

	for k := range rawConfig {
		_, ok := knownFields[k]
		assert.True(t, ok, "default config contains invalid field: %q", k)
	}
}

func TestDefaultConfig(t *testing.T) {
	// Will panic() on load failure because it should never happen at runtime.
	cfg := defaultConfig()
	assert.NotNil(t, cfg)
	assert.Nil(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	cases := map[string]struct {
		contents string
		check    func(t *testing.T, cfg *Configuration)
		errText  string
	}{
		"defaults fill missing fields": {
			contents: "debug: true\n",
			check: func(t *testing.T, cfg *Configuration) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, 1024, cfg.LineCapacity)
				assert.Equal(t, "history", cfg.HistoryFile)
			},
		},
		"empty file": {
			contents: "",
			check: func(t *testing.T, cfg *Configuration) {
				assert.Equal(t, defaultConfig().ScriptsDir, cfg.ScriptsDir)
			},
		},
		"unknown field": {
			contents: "colour: true\n",
			errText:  "colour",
		},
		"capacity too small": {
			contents: "line_capacity: 0\n",
			errText:  "line_capacity",
		},
		"missing history file": {
			contents: "history_file: \"\"\n",
			errText:  "history_file",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			assert.Nil(t, afero.WriteFile(fs, ConfigurationName, []byte(tc.contents), 0600))

			cfg, err := load(fs, "/home/user/.lush")

			if tc.errText != "" {
				assert.NotNil(t, err)
				assert.Contains(t, err.Error(), tc.errText)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, "/home/user/.lush", cfg.Dir())
			tc.check(t, cfg)
		})
	}
}

func TestLoad_missing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.NotNil(t, err)
}

func TestConfiguration_ScriptsPath(t *testing.T) {
	cfg := defaultConfig()
	cfg.configurationDir = "/home/user/.lush"

	assert.Equal(t, filepath.Join("/home/user/.lush", "scripts"), cfg.ScriptsPath())

	cfg.ScriptsDir = "/opt/scripts"
	assert.Equal(t, "/opt/scripts", cfg.ScriptsPath())
}

func TestConfiguration_absolutePaths(t *testing.T) {
	dir := t.TempDir()
	configFs := afero.NewMemMapFs()

	cfg := defaultConfig()
	cfg.configFs = configFs
	cfg.configurationDir = "/home/user/.lush"
	cfg.HistoryFile = filepath.Join(dir, "history")
	cfg.EventLog = filepath.Join(dir, "events.log")

	assert.Nil(t, cfg.History().Append("echo hi"))

	log, err := cfg.OpenEventLog()
	assert.Nil(t, err)
	_, err = io.WriteString(log, "{}\n")
	assert.Nil(t, err)
	assert.Nil(t, log.Close())

	for _, path := range []string{cfg.HistoryFile, cfg.EventLog} {
		_, err := os.Stat(path)
		assert.Nil(t, err, "%s not written to the host", path)

		exists, err := afero.Exists(configFs, path)
		assert.Nil(t, err)
		assert.False(t, exists, "%s written inside the configuration fs", path)
	}

	read, err := cfg.ReadEventLog()
	assert.Nil(t, err)
	defer read.Close()
	contents, err := io.ReadAll(read)
	assert.Nil(t, err)
	assert.Equal(t, "{}\n", string(contents))
}

func TestConfiguration_relativePaths(t *testing.T) {
	configFs := afero.NewMemMapFs()

	cfg := defaultConfig()
	cfg.configFs = configFs
	cfg.configurationDir = "/home/user/.lush"

	assert.Nil(t, cfg.History().Append("echo hi"))

	exists, err := afero.Exists(configFs, cfg.HistoryFile)
	assert.Nil(t, err)
	assert.True(t, exists)
}
