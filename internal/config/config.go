// Package config holds the run configuration read from freqgrabber.json5.
package config

import (
	"errors"
	"fmt"
	"freqgrabber/internal/engine"
	"freqgrabber/internal/telemetry"
	"freqgrabber/lib/configutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
)

const DefaultPath = "freqgrabber.json5"

type Engine struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	// OutputFile is truncated at the start of every run.
	OutputFile string `json:"output_file"`
	// BaseUrl overrides the service address, used for mirrors and tests.
	BaseUrl string `json:"base_url"`
}

type Http struct {
	TimeoutSeconds   int    `json:"timeout_seconds"`
	UserAgent        string `json:"user_agent"`
	BrowserTransport bool   `json:"browser_transport"`
}

type Config struct {
	WordListFile    string   `json:"word_list_file"`
	Debug           bool     `json:"debug"`
	ContinueOnError bool     `json:"continue_on_error"`
	Engines         []Engine `json:"engines"`
	Http            Http     `json:"http"`

	// dir is where the config file was read from, relative paths resolve against it.
	dir string
}

// Load reads the config at path and its `.local` override.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("couldn't open configuration file: %s", path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("couldn't read configuration file: %w", err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Validate checks the config against the engines this program knows about.
func (c Config) Validate(registry engine.Registry) error {
	if c.WordListFile == "" {
		return fmt.Errorf("couldn't find 'word_list_file' in the configuration file")
	}
	if len(c.Engines) == 0 {
		return fmt.Errorf("couldn't find any query engine in 'engines' in the configuration file")
	}
	if c.Http.TimeoutSeconds < 0 {
		return fmt.Errorf("'http.timeout_seconds' must not be negative")
	}

	seen := map[string]bool{}
	outputs := map[string]string{}
	for i, e := range c.Engines {
		if e.Name == "" {
			return fmt.Errorf("couldn't find 'name' field for engine #%d", i+1)
		}
		if !registry.Has(e.Name) {
			if suggestion := closestName(e.Name, registry.Names()); suggestion != "" {
				return fmt.Errorf("Unknown query engine: %s (did you mean %s?)", e.Name, suggestion)
			}
			return fmt.Errorf("Unknown query engine: %s", e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("query engine '%s' is configured more than once", e.Name)
		}
		seen[e.Name] = true

		for _, field := range []struct {
			name  string
			value string
		}{
			{"username", e.Username},
			{"password", e.Password},
			{"output_file", e.OutputFile},
		} {
			if field.value == "" {
				return fmt.Errorf("couldn't find '%s' field for '%s'", field.name, e.Name)
			}
		}

		output := c.Resolve(e.OutputFile)
		if other, ok := outputs[output]; ok {
			return fmt.Errorf("'%s' and '%s' write to the same output file: %s", other, e.Name, e.OutputFile)
		}
		outputs[output] = e.Name
	}
	return nil
}

// closestName returns the known name that looks most like name, or "" if
// none is close enough.
func closestName(name string, known []string) string {
	best := ""
	bestScore := 0.85
	for _, candidate := range known {
		score := matchr.JaroWinkler(strings.ToUpper(name), strings.ToUpper(candidate), false)
		if score >= bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best
}

// Resolve makes a path from the config relative to the config file's directory.
func (c Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// EngineOptions returns the constructor options for one configured engine.
func (c Config) EngineOptions(e Engine, tel telemetry.API) engine.Options {
	return engine.Options{
		Username:         e.Username,
		Password:         e.Password,
		Debug:            c.Debug,
		BaseUrl:          e.BaseUrl,
		Timeout:          time.Duration(c.Http.TimeoutSeconds) * time.Second,
		UserAgent:        c.Http.UserAgent,
		BrowserTransport: c.Http.BrowserTransport,
		Telemetry:        tel,
	}
}
