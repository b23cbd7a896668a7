// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. SINGLE_INSTANCE_CLAIM_NAME.
const EnvPrefix = "SINGLE_INSTANCE"

// DefaultClaimName is the name used by the example programs.
const DefaultClaimName = "aa2d0258-ffe9-11e7-ba89-0ed5f89f718b"

// Config holds all configuration for the example programs.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	ClaimName         string        `mapstructure:"claim_name" validate:"required,max=255"`
	Backend           string        `mapstructure:"backend" validate:"required,oneof=auto mutex abstract-socket flock record-lock"`
	HoldDuration      time.Duration `mapstructure:"hold_duration" validate:"gte=0"`
	HttpListenAddr    string        `mapstructure:"http_listen_addr" validate:"omitempty,hostname_port"`
	GrpcListenAddr    string        `mapstructure:"grpc_listen_addr" validate:"omitempty,hostname_port"`
	HeartbeatSchedule string        `mapstructure:"heartbeat_schedule" validate:"omitempty,cron"`
	ServiceName       string        `mapstructure:"service_name" validate:"required"`
	TracingEnabled    bool          `mapstructure:"tracing_enabled"`
}

// CronParser parses six-field schedules (with seconds), matching the heartbeat scheduler.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

func setDefaults(v *viper.Viper) {
	v.SetDefault("claim_name", DefaultClaimName)
	v.SetDefault("backend", "auto")
	v.SetDefault("hold_duration", "100s")
	v.SetDefault("http_listen_addr", ":8080")
	v.SetDefault("grpc_listen_addr", ":50052")
	v.SetDefault("heartbeat_schedule", "*/10 * * * * *")
	v.SetDefault("service_name", "single-instance")
	v.SetDefault("tracing_enabled", false)
}

// Load loads configuration from defaults, an optional config file,
// environment variables and, if flags is non-nil, command-line flags.
// Flag names use dashes in place of the key underscores (claim-name).
func Load(flags *pflag.FlagSet) (*Config, error) {
	return load(viper.New(), flags)
}

func load(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	setDefaults(v)

	v.SetConfigName("config")    // name of config file (without extension)
	v.SetConfigType("yaml")      // or "json", "toml"
	v.AddConfigPath("./configs") // path to look for the config file in
	v.AddConfigPath(".")         // optionally look for config in the working directory

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Config file was found but another error was produced
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults, env and flags are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, "field '"+fe.Field()+"' failed on the '"+fe.Tag()+"' tag")
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := CronParser.Parse(fl.Field().String())
		return err == nil
	})
	return validate
}
