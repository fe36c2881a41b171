package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/fixwire/internal/protocol/dict"
	"github.com/danmuck/fixwire/internal/protocol/frame"
	"github.com/danmuck/fixwire/internal/protocol/value"
)

type cliConfig struct {
	Delimiter        byte
	DisplayDelimiter byte
	BeginString      string
	BufferSize       int
	MaxBodyBytes     int
	Dictionary       string
}

func defaultConfig() cliConfig {
	return cliConfig{
		Delimiter:        value.SOH,
		DisplayDelimiter: '|',
		BeginString:      "FIX.4.4",
		BufferSize:       4096,
		MaxBodyBytes:     frame.DefaultLimits().MaxBodyBytes,
	}
}

type fileConfig struct {
	Delimiter        string `toml:"delimiter"`
	DisplayDelimiter string `toml:"display_delimiter"`
	BeginString      string `toml:"begin_string"`
	BufferSize       int    `toml:"buffer_size"`
	MaxBodyBytes     int    `toml:"max_body_bytes"`
	Dictionary       string `toml:"dictionary"`
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load fixctl config: %w", err)
	}

	if meta.IsDefined("delimiter") {
		b, err := parseDelimiter(raw.Delimiter)
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse delimiter: %w", err)
		}
		cfg.Delimiter = b
	}

	if meta.IsDefined("display_delimiter") {
		b, err := parseDelimiter(raw.DisplayDelimiter)
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse display_delimiter: %w", err)
		}
		cfg.DisplayDelimiter = b
	}

	if meta.IsDefined("begin_string") {
		v := strings.TrimSpace(raw.BeginString)
		if v != "" {
			cfg.BeginString = v
		}
	}

	if meta.IsDefined("buffer_size") {
		if raw.BufferSize <= 0 {
			return cliConfig{}, fmt.Errorf("buffer_size must be positive: %d", raw.BufferSize)
		}
		cfg.BufferSize = raw.BufferSize
	}

	if meta.IsDefined("max_body_bytes") {
		if raw.MaxBodyBytes <= 0 {
			return cliConfig{}, fmt.Errorf("max_body_bytes must be positive: %d", raw.MaxBodyBytes)
		}
		cfg.MaxBodyBytes = raw.MaxBodyBytes
	}

	if meta.IsDefined("dictionary") {
		cfg.Dictionary = strings.TrimSpace(raw.Dictionary)
		if cfg.Dictionary != "" && !filepath.IsAbs(cfg.Dictionary) {
			cfg.Dictionary = filepath.Join(filepath.Dir(path), cfg.Dictionary)
		}
	}

	return cfg, nil
}

// parseDelimiter accepts "soh", a single character, or a byte literal such
// as "0x01".
func parseDelimiter(raw string) (byte, error) {
	v := strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(v, "soh"):
		return value.SOH, nil
	case len(v) == 1:
		return v[0], nil
	case strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X"):
		n, err := strconv.ParseUint(v[2:], 16, 8)
		if err != nil {
			return 0, err
		}
		return byte(n), nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", raw)
}

func (c cliConfig) dictionary() (*dict.Dictionary, error) {
	if c.Dictionary == "" {
		return dict.Builtin(), nil
	}
	return dict.LoadFile(c.Dictionary)
}

func (c cliConfig) framer(d *dict.Dictionary) (*frame.Framer, error) {
	if c.Delimiter == value.TagDelimiter || (c.Delimiter >= '0' && c.Delimiter <= '9') {
		return nil, fmt.Errorf("delimiter %q collides with tag syntax", c.Delimiter)
	}
	return frame.NewFramer(d.Header, d.Trailer, frame.WithDelimiter(c.Delimiter))
}

func (c cliConfig) limits() frame.Limits {
	limits := frame.DefaultLimits()
	limits.MaxBodyBytes = c.MaxBodyBytes
	return limits
}
