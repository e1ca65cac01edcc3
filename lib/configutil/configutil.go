package configutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LocalPath returns the override file that sits next to `name`,
// ex. `freqgrabber.json5` -> `freqgrabber.local.json5`.
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	prefix := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s.local%s", prefix, ext)
}

// readJson5 returns fs.ErrNotExist when the file is missing or empty.
func readJson5[T any](path string) (T, error) {
	var out T
	contents, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	if len(contents) == 0 {
		return out, fs.ErrNotExist
	}
	err = json5.Unmarshal(contents, &out)
	if err != nil {
		return out, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// ReadConfig reads a json5 configuration file, `name` should come with a file extension.
// It merges the following files, where a higher number takes priority.
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// os.ErrNotExist is returned only if neither file exists.
func ReadConfig[T any](name string) (T, error) {
	out, err := readJson5[T](name)
	found := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return out, err
	}

	localPath := LocalPath(name)
	override, err := readJson5[T](localPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return out, err
	}
	if err == nil {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", localPath, err)
		}
		slog.Info("merging config with local overrides", "local", localPath)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

// ReadRecursively is ReadConfig but it walks up from the working directory
// to the filesystem root until it finds a configuration file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	var defaultOut T

	current, err := os.Getwd()
	if err != nil {
		return defaultOut, err
	}

	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return defaultOut, err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return defaultOut, os.ErrNotExist
		}
		current = parent
	}
}
