package faz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tailored-agentic-units/caw/kv"
	"github.com/tailored-agentic-units/caw/stream"
)

const DefaultAddress = "localhost:50000"

// Config holds initialization parameters for a faz server and the store it
// dispatches against.
type Config struct {
	Address string        `json:"address,omitempty" yaml:"address,omitempty"`
	KV      kv.Config     `json:"kv" yaml:"kv"`
	Stream  stream.Config `json:"stream" yaml:"stream"`
	HookAll bool          `json:"hook_all,omitempty" yaml:"hook_all,omitempty"` // Bind DefaultHooks at startup.
}

// DefaultConfig listens on DefaultAddress and reaches the store over the
// kv service.
func DefaultConfig() Config {
	kvCfg := kv.DefaultConfig()
	kvCfg.Backend = kv.BackendRemote

	return Config{
		Address: DefaultAddress,
		KV:      kvCfg,
		Stream:  stream.DefaultConfig(),
	}
}

// Merge applies non-zero values from source into c, delegating to each
// subsystem's Merge method.
func (c *Config) Merge(source *Config) {
	if source.Address != "" {
		c.Address = source.Address
	}
	c.KV.Merge(&source.KV)
	c.Stream.Merge(&source.Stream)

	if source.HookAll {
		c.HookAll = true
	}
}

// LoadConfig reads a JSON config file, or YAML when the extension is .yaml
// or .yml, merges it with defaults, and returns the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch filepath.Ext(filename) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
