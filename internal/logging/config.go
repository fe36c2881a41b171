package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "FIXWIRE_LOG_LEVEL"
	EnvLogTimestamp = "FIXWIRE_LOG_TIMESTAMP"
	EnvLogNoColor   = "FIXWIRE_LOG_NOCOLOR"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Config is the resolved logger setup for one profile.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure installs the global logger once per process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		applyEnvOverrides(&cfg)
		log.Logger = New(colorable.NewColorableStderr(), cfg)
		zerolog.SetGlobalLevel(cfg.Level)
	})
}

// SetLevel adjusts the global level after Configure, e.g. from a config file.
func SetLevel(raw string) bool {
	lvl, ok := ParseLevel(raw)
	if ok {
		log.Logger = log.Logger.Level(lvl)
		zerolog.SetGlobalLevel(lvl)
	}
	return ok
}

func DefaultConfig(profile Profile) Config {
	cfg := Config{NoColor: !isatty.IsTerminal(os.Stderr.Fd())}
	switch profile {
	case ProfileTest:
		cfg.Level = zerolog.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = zerolog.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

// New builds a console logger writing to out.
func New(out io.Writer, cfg Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	ctx := zerolog.New(output).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// ParseLevel accepts zerolog level names plus the aliases used in env files.
func ParseLevel(raw string) (zerolog.Level, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "":
		return zerolog.InfoLevel, false
	case "diagnostics":
		name = zerolog.LevelTraceValue
	case "warning":
		name = zerolog.LevelWarnValue
	case "disable", "off", "none", "inactive":
		name = "disabled"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, false
	}
	return lvl, true
}

// parseBool extends strconv.ParseBool with yes/no and on/off.
func parseBool(raw string) (bool, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "yes", "on":
		return true, true
	case "no", "off":
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	return v, err == nil
}
