// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Nil fields are unset.
type FileConfig struct {
	Timer     TimerConfig     `toml:"timer"`
	Starfield StarfieldConfig `toml:"starfield"`
	Sync      SyncConfig      `toml:"sync"`
	Audio     AudioConfig     `toml:"audio"`
}

// TimerConfig maps countdown settings.
type TimerConfig struct {
	Target    *string `toml:"target"`
	ClockMode *bool   `toml:"clock-mode"`
}

// StarfieldConfig maps background animation settings.
type StarfieldConfig struct {
	Stars       *int     `toml:"stars"`
	FocalLength *float64 `toml:"focal-length"`
	BaseRadius  *float64 `toml:"base-radius"`
	Trail       *float64 `toml:"trail"`
	FPS         *int     `toml:"fps"`
	Hidden      *bool    `toml:"hidden"`
}

// SyncConfig maps remote time correction settings.
type SyncConfig struct {
	Enabled *bool   `toml:"enabled"`
	URL     *string `toml:"url"`
	Field   *string `toml:"field"`
	Timeout *string `toml:"timeout"`
}

// AudioConfig maps alarm settings.
type AudioConfig struct {
	Mute   *bool    `toml:"mute"`
	Sound  *string  `toml:"sound"`
	Volume *float64 `toml:"volume"`
	Repeat *int     `toml:"repeat"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
