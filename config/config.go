// Package config loads bridge settings from defaults, an optional file and
// UU_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	uulog "github.com/uu-dev/uu-bridge/log"
	"github.com/uu-dev/uu-bridge/reconciler"
	"github.com/uu-dev/uu-bridge/transport"
	"github.com/uu-dev/uu-bridge/wireformat"
)

// EnvPrefix prefixes every environment override, e.g. UU_WIRE_FORMAT.
const EnvPrefix = "UU"

// DefaultModuleName is the import module the host functions live in.
const DefaultModuleName = "env"

// Config holds the settings of one bridge session.
type Config struct {
	WireFormat      string `mapstructure:"wire_format" json:"wire_format" validate:"oneof=flat json cbor" jsonschema:"enum=flat,enum=json,enum=cbor,default=flat"`
	Mode            string `mapstructure:"mode" json:"mode" validate:"oneof=incremental full" jsonschema:"enum=incremental,enum=full,default=incremental"`
	ParentPolicy    string `mapstructure:"parent_policy" json:"parent_policy" validate:"oneof=defer reject" jsonschema:"enum=defer,enum=reject,default=defer"`
	ModuleName      string `mapstructure:"module_name" json:"module_name" validate:"required" jsonschema:"default=env"`
	LogLevel        string `mapstructure:"log_level" json:"log_level" validate:"loglevel" jsonschema:"default=info"`
	LogFormat       string `mapstructure:"log_format" json:"log_format" validate:"oneof=text json" jsonschema:"enum=text,enum=json,default=text"`
	MaxPending      int    `mapstructure:"max_pending" json:"max_pending" validate:"gte=0" jsonschema:"minimum=0,default=1024"`
	BufferSize      uint32 `mapstructure:"buffer_size" json:"buffer_size" validate:"gt=0" jsonschema:"minimum=1,default=128000"`
	EventBufferSize uint32 `mapstructure:"event_buffer_size" json:"event_buffer_size" validate:"gt=0" jsonschema:"minimum=1,default=64000"`
	MaxRequestSize  uint32 `mapstructure:"max_request_size" json:"max_request_size" validate:"gt=0" jsonschema:"minimum=1,default=1048576"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		WireFormat:      string(wireformat.FormatFlat),
		Mode:            string(reconciler.ModeIncremental),
		ParentPolicy:    string(reconciler.ParentDefer),
		ModuleName:      DefaultModuleName,
		LogLevel:        "info",
		LogFormat:       "text",
		MaxPending:      reconciler.DefaultMaxPending,
		BufferSize:      transport.DefaultBufferSize,
		EventBufferSize: transport.DefaultEventBufferSize,
		MaxRequestSize:  transport.DefaultMaxRequestSize,
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("wire_format", d.WireFormat)
	v.SetDefault("mode", d.Mode)
	v.SetDefault("parent_policy", d.ParentPolicy)
	v.SetDefault("module_name", d.ModuleName)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("max_pending", d.MaxPending)
	v.SetDefault("buffer_size", d.BufferSize)
	v.SetDefault("event_buffer_size", d.EventBufferSize)
	v.SetDefault("max_request_size", d.MaxRequestSize)
}

// Load reads the configuration. path may be empty; otherwise it names a
// YAML, TOML or JSON file. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: failed to decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Format returns the configured wire format.
func (c *Config) Format() (wireformat.Format, error) {
	return wireformat.ParseFormat(c.WireFormat)
}

// Codec returns the codec for the configured wire format.
func (c *Config) Codec() (wireformat.Codec, error) {
	f, err := c.Format()
	if err != nil {
		return nil, err
	}
	return wireformat.NewCodec(f)
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	return uulog.ParseLevel(c.LogLevel)
}

// ReconcilerOptions translates the settings into reconciler options.
func (c *Config) ReconcilerOptions() ([]reconciler.Option, error) {
	mode, modeErr := reconciler.ParseMode(c.Mode)
	policy, policyErr := reconciler.ParseParentPolicy(c.ParentPolicy)
	if err := errors.Join(modeErr, policyErr); err != nil {
		return nil, err
	}
	return []reconciler.Option{
		reconciler.WithMode(mode),
		reconciler.WithParentPolicy(policy),
		reconciler.WithMaxPending(c.MaxPending),
	}, nil
}
