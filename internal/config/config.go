// Package config handles service configuration: a YAML file layered with
// ALCHEMY_* environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Vocabulary VocabularyConfig `yaml:"vocabulary"`
	Resolver   ResolverConfig   `yaml:"resolver"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`

	// BotToken is the chat-platform token for the bot front-end. The
	// engine only carries it; it never uses it.
	BotToken string `yaml:"bot_token,omitempty"`
}

// StoreConfig selects and addresses the shared store.
type StoreConfig struct {
	Backend   string `yaml:"backend"`             // mongo, sqlite, or memory
	Address   string `yaml:"address"`             // mongo URI or sqlite path
	Namespace string `yaml:"namespace,omitempty"` // mongo database name
}

// VocabularyConfig locates the read-only vocabulary inputs.
type VocabularyConfig struct {
	Words     string `yaml:"words"`
	Vectors   string `yaml:"vectors"`
	Blocklist string `yaml:"blocklist,omitempty"`
}

// ResolverConfig tunes the similarity resolver.
type ResolverConfig struct {
	ScanDepth int `yaml:"scan_depth,omitempty"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Listen string  `yaml:"listen"`
	Rate   float64 `yaml:"rate,omitempty"`  // requests per second per client
	Burst  int     `yaml:"burst,omitempty"` // token bucket burst
}

// LogConfig selects the logging mode.
type LogConfig struct {
	Mode string `yaml:"mode,omitempty"` // dev or prod
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   "mongo",
			Address:   "mongodb://localhost:27017",
			Namespace: "alchemy",
		},
		Vocabulary: VocabularyConfig{
			Words:   "words.list",
			Vectors: "word_embeddings.alcv",
		},
		Resolver: ResolverConfig{ScanDepth: 16},
		Server:   ServerConfig{Listen: ":8080", Rate: 5, Burst: 10},
		Log:      LogConfig{Mode: "dev"},
	}
}

// Load reads the config file at path (missing file falls back to
// defaults when path is empty) and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers ALCHEMY_* environment variables over the file values.
func applyEnv(cfg *Config) {
	setString(&cfg.Store.Backend, "ALCHEMY_STORE_BACKEND")
	setString(&cfg.Store.Address, "ALCHEMY_STORE_ADDR")
	setString(&cfg.Store.Namespace, "ALCHEMY_STORE_NAMESPACE")
	setString(&cfg.Vocabulary.Words, "ALCHEMY_WORDS")
	setString(&cfg.Vocabulary.Vectors, "ALCHEMY_VECTORS")
	setString(&cfg.Vocabulary.Blocklist, "ALCHEMY_BLOCKLIST")
	setString(&cfg.Server.Listen, "ALCHEMY_LISTEN")
	setString(&cfg.Log.Mode, "ALCHEMY_LOG_MODE")
	setString(&cfg.BotToken, "BOT_TOKEN")

	if v := os.Getenv("ALCHEMY_SCAN_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Resolver.ScanDepth = n
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "mongo", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid store backend %q (valid: mongo, sqlite, memory)", c.Store.Backend)
	}
	if c.Store.Backend != "memory" && c.Store.Address == "" {
		return fmt.Errorf("store backend %q requires an address", c.Store.Backend)
	}
	if c.Vocabulary.Words == "" || c.Vocabulary.Vectors == "" {
		return fmt.Errorf("vocabulary words and vectors paths are required")
	}
	if c.Resolver.ScanDepth <= 0 {
		return fmt.Errorf("resolver scan_depth must be positive, got %d", c.Resolver.ScanDepth)
	}
	return nil
}
