// Package config loads the kicadbridge configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file name inside the config directory.
const FileName = "config.yaml"

// DefaultWorkerTimeout bounds one worker invocation.
const DefaultWorkerTimeout = 60 * time.Second

// Config is the whole configuration file.
type Config struct {
	Worker    Worker    `yaml:"worker"`
	Libraries Libraries `yaml:"libraries"`
	Log       Log       `yaml:"log"`
	Metrics   Metrics   `yaml:"metrics"`
}

// Worker controls how the bridge finds and runs the worker process.
type Worker struct {
	Path       string        `yaml:"path,omitempty"`
	Candidates []string      `yaml:"candidates,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	LogFile    string        `yaml:"log_file,omitempty"`
}

// Libraries locates the user's footprint and symbol libraries.
type Libraries struct {
	FootprintDir         string   `yaml:"footprint_dir,omitempty"`
	SymbolDir            string   `yaml:"symbol_dir,omitempty"`
	FootprintTable       string   `yaml:"fp_lib_table,omitempty"`
	SymbolTable          string   `yaml:"sym_lib_table,omitempty"`
	FootprintSearchPaths []string `yaml:"footprint_search_paths,omitempty"`
}

type Log struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

type Metrics struct {
	// Addr is where serve exposes /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Worker: Worker{Timeout: DefaultWorkerTimeout},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// Dir returns the per-user configuration directory:
// %APPDATA%\kicadbridge on Windows, $XDG_CONFIG_HOME/kicadbridge or
// ~/.config/kicadbridge elsewhere.
func Dir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, "kicadbridge"), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kicadbridge"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "kicadbridge"), nil
}

// DefaultPath returns the config file path inside Dir.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads path, or DefaultPath when path is empty. A missing default
// file yields Default; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a YAML document on top of Default and validates it.
// Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fills defaults, expands ~ and environment variables in paths,
// and rejects values the rest of the program cannot use.
func (c *Config) Validate() error {
	if c.Worker.Timeout < 0 {
		return fmt.Errorf("worker.timeout must not be negative, got %s", c.Worker.Timeout)
	}
	if c.Worker.Timeout == 0 {
		c.Worker.Timeout = DefaultWorkerTimeout
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("log.level %q is not a valid level", c.Log.Level)
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "":
		c.Log.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	for _, p := range []*string{
		&c.Worker.Path,
		&c.Worker.LogFile,
		&c.Libraries.FootprintDir,
		&c.Libraries.SymbolDir,
		&c.Libraries.FootprintTable,
		&c.Libraries.SymbolTable,
	} {
		*p = expandPath(*p)
	}
	c.Worker.Candidates = expandPaths(c.Worker.Candidates)
	c.Libraries.FootprintSearchPaths = expandPaths(c.Libraries.FootprintSearchPaths)
	return nil
}

func expandPaths(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p = expandPath(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func expandPath(p string) string {
	p = os.ExpandEnv(strings.TrimSpace(p))
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
