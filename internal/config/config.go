// Package config loads jsondash settings: the embedded defaults merged with
// an optional user file.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsondash/pkg/settings"
)

//go:embed default_config.yaml
var embeddedDefaultConfig []byte

// DefaultFileName is the user config file inside the config directory.
const DefaultFileName = "config.yaml"

// Config is the merged configuration.
type Config struct {
	App    AppConfig    `yaml:"app" json:"app"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Poll   PollConfig   `yaml:"poll" json:"poll"`
	Fetch  FetchConfig  `yaml:"fetch" json:"fetch"`
	Render RenderConfig `yaml:"render" json:"render"`
}

// AppConfig holds the about text shown by the version command.
type AppConfig struct {
	About AboutConfig `yaml:"about" json:"about"`
}

// AboutConfig describes the application.
type AboutConfig struct {
	Name          string `yaml:"name" json:"name"`
	Description   string `yaml:"description,omitempty" json:"description,omitempty"`
	RepositoryURL string `yaml:"repository_url,omitempty" json:"repository_url,omitempty"`
}

// StoreConfig locates the widget store.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// PollConfig tunes the scheduler.
type PollConfig struct {
	DefaultInterval time.Duration `yaml:"default_interval" json:"default_interval"`
	MinInterval     time.Duration `yaml:"min_interval" json:"min_interval"`
	WatchDebounce   time.Duration `yaml:"watch_debounce" json:"watch_debounce"`
}

// FetchConfig tunes the HTTP client.
type FetchConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" json:"max_body_bytes"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
}

// RenderConfig controls terminal output.
type RenderConfig struct {
	Placeholder string       `yaml:"placeholder" json:"placeholder"`
	NotFound    string       `yaml:"not_found" json:"not_found"`
	PageSize    int          `yaml:"page_size" json:"page_size"`
	NoColor     bool         `yaml:"no_color" json:"no_color"`
	Colors      ColorsConfig `yaml:"colors" json:"colors"`
}

// ColorsConfig holds ANSI color codes or hex colors for table output.
type ColorsConfig struct {
	HeaderFG  string `yaml:"header_fg,omitempty" json:"header_fg,omitempty"`
	HeaderBG  string `yaml:"header_bg,omitempty" json:"header_bg,omitempty"`
	Key       string `yaml:"key,omitempty" json:"key,omitempty"`
	Value     string `yaml:"value,omitempty" json:"value,omitempty"`
	Separator string `yaml:"separator,omitempty" json:"separator,omitempty"`
	Bar       string `yaml:"bar,omitempty" json:"bar,omitempty"`
}

// DefaultConfigYAML returns a copy of the embedded default config.
func DefaultConfigYAML() []byte {
	return append([]byte(nil), embeddedDefaultConfig...)
}

// Default parses the embedded defaults.
func Default() (Config, error) {
	var cfg Config
	if len(embeddedDefaultConfig) == 0 {
		return cfg, errors.New("embedded default config is empty")
	}
	if err := decodeStrict(embeddedDefaultConfig, &cfg); err != nil {
		return cfg, fmt.Errorf("decode embedded default config: %w", err)
	}
	return cfg, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/jsondash/config.yaml or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, settings.CliBinaryName, DefaultFileName), nil
}

// Load merges the file at path over the defaults. An explicit path must
// exist; with an empty path the default location is used when present.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return cfg, nil
		}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return cfg, nil
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if len(bytes.TrimSpace(data)) > 0 {
		// Fields absent from the file keep their default values.
		if err := decodeStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// Validate rejects settings the scheduler or renderer cannot work with.
func (c Config) Validate() error {
	var problems []error
	if c.Poll.MinInterval < 0 {
		problems = append(problems, fmt.Errorf("poll.min_interval must not be negative"))
	}
	if c.Poll.DefaultInterval < time.Second {
		problems = append(problems, fmt.Errorf("poll.default_interval must be at least 1s, got %s", c.Poll.DefaultInterval))
	}
	if c.Fetch.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("fetch.timeout must be positive"))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		problems = append(problems, fmt.Errorf("fetch.max_body_bytes must be positive"))
	}
	if c.Render.PageSize < 1 {
		problems = append(problems, fmt.Errorf("render.page_size must be at least 1"))
	}
	return errors.Join(problems...)
}

// StorePath returns the configured store file or the default location.
func (c Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return expandHome(c.Store.Path)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config directory: %w", err)
	}
	return filepath.Join(dir, settings.CliBinaryName, "widgets.yaml"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !hasHomePrefix(p) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, p[1:]), nil
}

func hasHomePrefix(p string) bool {
	return len(p) > 1 && p[0] == '~' && (p[1] == '/' || p[1] == filepath.Separator)
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
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
