package core

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

/** @brief Logger settings. */
type LogConfig struct {
	/** @brief One of debug, info, warn, error, fatal. */
	Level string `toml:"level"`
	/** @brief Prefix printed before every log line. */
	Prefix string `toml:"prefix"`
}

/** @brief Optional device capabilities that influence layout validation. */
type FeaturesConfig struct {
	/** @brief Whether a binding may declare an array of textures. */
	ArrayOfTextures bool `toml:"array_of_textures"`
	/** @brief Whether a binding may declare an array of samplers. */
	ArrayOfSamplers bool `toml:"array_of_samplers"`
}

/** @brief Device limits checked while building layouts. */
type LimitsConfig struct {
	/** @brief Largest inline uniform block, in bytes, allowed in a push descriptor set layout. */
	MaxPushInlineBlockSize uint32 `toml:"max_push_inline_block_size"`
}

/**
 * @brief Configuration of the binding core.
 */
type Config struct {
	Log      LogConfig      `toml:"log"`
	Features FeaturesConfig `toml:"features"`
	Limits   LimitsConfig   `toml:"limits"`
	/** @brief Surfaces recoverable validation failures as warnings instead of debug output. */
	Strict bool `toml:"strict"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Features: FeaturesConfig{
			ArrayOfTextures: true,
			ArrayOfSamplers: true,
		},
		Limits: LimitsConfig{
			MaxPushInlineBlockSize: 256,
		},
	}
}

// LoadConfig reads a TOML configuration file. Keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML document on top of DefaultConfig.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		err = fmt.Errorf("unable to decode configuration: %w", err)
		LogError(err.Error())
		return nil, err
	}
	return cfg, nil
}
