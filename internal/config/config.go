package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

const (
	ModePushToTalk = "PushToTalk"
	ModeToggle     = "Toggle"
)

type Config struct {
	Hotkey       string      `json:"hotkey" yaml:"hotkey"`
	HotkeyDarwin string      `json:"hotkey_darwin" yaml:"hotkey_darwin"`
	Mode         string      `json:"mode" yaml:"mode"` // "PushToTalk" or "Toggle"
	LogLevel     string      `json:"log_level" yaml:"log_level"`
	Audio        AudioConfig `json:"audio" yaml:"audio"`
	RunAtLogin   bool        `json:"run_at_login" yaml:"run_at_login"`

	path string
}

type AudioConfig struct {
	// DeviceID is the ordinal of the input device; empty means the default device.
	DeviceID         string `json:"device_id" yaml:"device_id"`
	SampleFormat     string `json:"sample_format" yaml:"sample_format"` // "i8", "i16", "i32" or "f32"
	TargetSampleRate int    `json:"target_sample_rate" yaml:"target_sample_rate"`
	BufferSeconds    int    `json:"buffer_seconds" yaml:"buffer_seconds"`
	FramesPerBuffer  int    `json:"frames_per_buffer" yaml:"frames_per_buffer"`
	Downmix          bool   `json:"downmix" yaml:"downmix"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Hotkey:       "Alt+Space",
		HotkeyDarwin: "Ctrl+Space",
		Mode:         ModePushToTalk,
		LogLevel:     "info",
		Audio: AudioConfig{
			DeviceID:         "",
			SampleFormat:     "f32",
			TargetSampleRate: 16000,
			BufferSeconds:    60,
			FramesPerBuffer:  512,
			Downmix:          true,
		},
		RunAtLogin: false,
	}
}

// Load reads the config from disk or returns defaults. A config.yaml next to
// config.json takes precedence over it.
func Load() (*Config, error) {
	return LoadFrom(configDir())
}

// LoadFrom reads config.json, then config.yaml, from dir over the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default()
	cfg.path = filepath.Join(dir, "config.json")

	if data, err := os.ReadFile(cfg.path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cfg.path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	yamlPath := filepath.Join(dir, "config.yaml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the capture pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Mode != ModePushToTalk && c.Mode != ModeToggle {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.Audio.TargetSampleRate <= 0 {
		return fmt.Errorf("invalid target_sample_rate %d", c.Audio.TargetSampleRate)
	}
	if c.Audio.BufferSeconds <= 0 {
		return fmt.Errorf("invalid buffer_seconds %d", c.Audio.BufferSeconds)
	}
	if c.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("invalid frames_per_buffer %d", c.Audio.FramesPerBuffer)
	}
	return nil
}

// Save writes the config to disk as JSON
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = filepath.Join(configDir(), "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// PlatformHotkey returns the appropriate hotkey for the current platform
func (c *Config) PlatformHotkey() string {
	if runtime.GOOS == "darwin" && c.HotkeyDarwin != "" {
		return c.HotkeyDarwin
	}
	return c.Hotkey
}

// configDir returns the platform-specific config directory
func configDir() string {
	var base string

	switch runtime.GOOS {
	case "darwin":
		base = os.Getenv("HOME") + "/Library/Application Support"
	case "windows":
		base = os.Getenv("APPDATA")
	default: // linux
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = xdg
		} else {
			base = os.Getenv("HOME") + "/.config"
		}
	}

	return filepath.Join(base, "voicetype")
}
