// Package config loads build settings from an optional config file and the
// environment. Command-line flags are applied on top by the CLI.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml"
	"gitlab.com/tozd/go/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/morozRed/capibara/internal/document"
	"github.com/morozRed/capibara/internal/walk"
)

// EnvPrefix prefixes every environment override, e.g. CAPIBARA_OUTPUT.
const EnvPrefix = "CAPIBARA_"

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrMissingReference  = errors.New("reference URL is required")
)

// Config holds the settings of one build.
type Config struct {
	Root         string   `json:"root" yaml:"root" toml:"root"`
	ReferenceURL string   `json:"reference_url" yaml:"reference_url" toml:"reference_url"`
	Output       string   `json:"output" yaml:"output" toml:"output"`
	Marker       string   `json:"marker" yaml:"marker" toml:"marker"`
	Ignore       []string `json:"ignore" yaml:"ignore" toml:"ignore"`
	Parallel     bool     `json:"parallel" yaml:"parallel" toml:"parallel"`
	Strict       bool     `json:"strict" yaml:"strict" toml:"strict"`
	Indent       int      `json:"indent" yaml:"indent" toml:"indent"`
	LogLevel     string   `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		Root:     ".",
		Output:   document.DefaultOutput,
		Marker:   walk.DefaultMarker,
		Ignore:   []string{},
		LogLevel: "info",
	}
}

// CandidatePaths lists the config files looked up in dir, in priority order.
func CandidatePaths(dir string) []string {
	var paths []string
	for _, base := range []string{"capibara", ".capibara"} {
		for _, ext := range []string{".yaml", ".yml", ".toml", ".json"} {
			paths = append(paths, filepath.Join(dir, base+ext))
		}
	}
	return paths
}

// Discover returns the first existing candidate in dir, or "".
func Discover(dir string) string {
	for _, path := range CandidatePaths(dir) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// Load reads path and overlays it on Default. An empty path returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Errorf("reading config: %w", err)
	}

	var file Config
	switch format := FormatOf(path); format {
	case "yaml":
		err = yaml.Unmarshal(data, &file)
	case "toml":
		err = toml.Unmarshal(data, &file)
	case "json":
		err = json.Unmarshal(data, &file)
	default:
		return cfg, errors.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return cfg, errors.Errorf("parsing config %s: %w", path, err)
	}
	return overlay(cfg, file), nil
}

// FormatOf maps a file extension to a config format name, or "".
func FormatOf(path string) string {
	return normalizeFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}

// overlay copies every non-zero field of top onto base.
func overlay(base, top Config) Config {
	if top.Root != "" {
		base.Root = top.Root
	}
	if top.ReferenceURL != "" {
		base.ReferenceURL = top.ReferenceURL
	}
	if top.Output != "" {
		base.Output = top.Output
	}
	if top.Marker != "" {
		base.Marker = top.Marker
	}
	if len(top.Ignore) > 0 {
		base.Ignore = append([]string{}, top.Ignore...)
	}
	if top.Parallel {
		base.Parallel = true
	}
	if top.Strict {
		base.Strict = true
	}
	if top.Indent > 0 {
		base.Indent = top.Indent
	}
	if top.LogLevel != "" {
		base.LogLevel = top.LogLevel
	}
	return base
}

// ApplyEnv overlays CAPIBARA_* variables found through lookup.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) (Config, error) {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("ROOT", &cfg.Root)
	str("REFERENCE_URL", &cfg.ReferenceURL)
	str("OUTPUT", &cfg.Output)
	str("MARKER", &cfg.Marker)
	str("LOG_LEVEL", &cfg.LogLevel)
	if v, ok := lookup(EnvPrefix + "IGNORE"); ok && v != "" {
		cfg.Ignore = nil
		for _, rule := range strings.Split(v, ",") {
			if rule = strings.TrimSpace(rule); rule != "" {
				cfg.Ignore = append(cfg.Ignore, rule)
			}
		}
	}
	if v, ok := lookup(EnvPrefix + "INDENT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Errorf("%sINDENT: %w", EnvPrefix, err)
		}
		cfg.Indent = n
	}
	if err := boolean("PARALLEL", &cfg.Parallel); err != nil {
		return cfg, err
	}
	if err := boolean("STRICT", &cfg.Strict); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the settings a build cannot run without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ReferenceURL) == "" {
		return ErrMissingReference
	}
	if c.Root == "" {
		return errors.New("root is required")
	}
	if c.Marker == "" || strings.ContainsRune(c.Marker, '/') {
		return errors.Errorf("invalid marker %q", c.Marker)
	}
	if c.Indent < 0 {
		return errors.Errorf("invalid indent %d", c.Indent)
	}
	return nil
}

// Template renders Default in format ("yaml", "toml" or "json").
func Template(format string) ([]byte, error) {
	cfg := Default()
	cfg.ReferenceURL = "https://example.org/reference"
	switch normalizeFormat(format) {
	case "yaml":
		return yaml.Marshal(cfg)
	case "toml":
		return toml.Marshal(cfg)
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, errors.Errorf("%s: %w", format, ErrUnsupportedFormat)
	}
}
