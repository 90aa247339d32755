package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied before the file is decoded.
const (
	DefaultShowTime     = true
	DefaultTickInterval = 500 * time.Millisecond
)

// Environment variables that override the file.
const (
	EnvIdentifier = "PRESENCE_IDENTIFIER"
	EnvShowTime   = "PRESENCE_SHOW_TIME"
	EnvJournal    = "PRESENCE_JOURNAL"
)

// Config is the host configuration of the presence sync.
type Config struct {
	// Identifier is the application id registered with the presence service.
	Identifier uint64 `yaml:"identifier"`
	// ShowTime stamps the process start time so an elapsed timer is shown.
	ShowTime bool `yaml:"show_time"`
	// TickInterval is how often the engine checks the snapshot.
	TickInterval time.Duration `yaml:"tick_interval"`
	// Journal is an optional SQLite path recording events and submissions.
	Journal string `yaml:"journal"`
	// Activity is the presence shown at startup.
	Activity *ActivityConfig `yaml:"activity"`
}

// ActivityConfig is the file form of a presence. Empty strings are unset.
type ActivityConfig struct {
	State    string         `yaml:"state"`
	Details  string         `yaml:"details"`
	Instance *bool          `yaml:"instance"`
	Assets   *AssetsConfig  `yaml:"assets"`
	Party    *PartyConfig   `yaml:"party"`
	Secrets  *SecretsConfig `yaml:"secrets"`
	Buttons  []ButtonConfig `yaml:"buttons"`
}

type AssetsConfig struct {
	LargeImage string `yaml:"large_image"`
	LargeText  string `yaml:"large_text"`
	SmallImage string `yaml:"small_image"`
	SmallText  string `yaml:"small_text"`
}

// PartyConfig describes the party. Size and Max are shown only when Max > 0.
type PartyConfig struct {
	ID   string `yaml:"id"`
	Size int    `yaml:"size"`
	Max  int    `yaml:"max"`
}

type SecretsConfig struct {
	Join     string `yaml:"join"`
	Spectate string `yaml:"spectate"`
	Match    string `yaml:"match"`
}

type ButtonConfig struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

// Default returns a config holding only the defaults.
func Default() *Config {
	return &Config{
		ShowTime:     DefaultShowTime,
		TickInterval: DefaultTickInterval,
	}
}

// Load reads the YAML config at path over the defaults, then applies
// environment overrides. A .env file next to the config is consulted for
// variables missing from the process environment.
//
// Load does not validate; call Validate before use.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	dotenv, err := readDotenv(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(envLookup(dotenv)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// readDotenv returns the variables of a .env file, or nil if there is none.
// The process environment is left untouched.
func readDotenv(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return vars, nil
}

// envLookup prefers the process environment over dotenv.
func envLookup(dotenv map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvIdentifier); ok && v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvIdentifier, err)
		}
		c.Identifier = id
	}
	if v, ok := lookup(EnvShowTime); ok && v != "" {
		show, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvShowTime, err)
		}
		c.ShowTime = show
	}
	if v, ok := lookup(EnvJournal); ok {
		c.Journal = v
	}
	return nil
}
