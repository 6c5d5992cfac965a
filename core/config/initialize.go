package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize writes a default configuration to path. Files that already
// exist are left untouched.
func Initialize(path string, logger *log.Logger) error {
	if err := os.MkdirAll(path, 0700); err != nil {
		return err
	}

	return initialize(afero.NewBasePathFs(afero.NewOsFs(), path), path, logger)
}

func initialize(configFs afero.Fs, path string, logger *log.Logger) error {
	if err := writeIfMissing(configFs, ConfigurationName, defaultConfigData, logger); err != nil {
		return err
	}

	cfg, err := load(configFs, path)
	if err != nil {
		return err
	}

	// Scripts are loaded from the OS path, so a scripts dir outside the
	// configuration directory is created there.
	scriptsFs := configFs
	scriptsDir := cfg.ScriptsDir
	if filepath.IsAbs(scriptsDir) {
		scriptsFs = afero.NewOsFs()
	}
	if err := scriptsFs.MkdirAll(scriptsDir, 0700); err != nil {
		return err
	}
	return writeIfMissing(scriptsFs, filepath.Join(scriptsDir, ExampleScriptName), exampleScriptData, logger)
}

func writeIfMissing(fsys afero.Fs, name string, contents []byte, logger *log.Logger) error {
	_, err := fsys.Stat(name)
	switch {
	case err == nil:
		logger.Printf("%s already exists, skipping", name)
		return nil
	case !errors.Is(err, fs.ErrNotExist):
		return err
	}

	logger.Printf("Writing %s", name)
	return afero.WriteFile(fsys, name, contents, 0600)
}
