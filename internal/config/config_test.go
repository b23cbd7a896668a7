package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultClaimName, cfg.ClaimName)
	assert.Equal(t, "auto", cfg.Backend)
	assert.Equal(t, 100*time.Second, cfg.HoldDuration)
	assert.Equal(t, ":8080", cfg.HttpListenAddr)
	assert.Equal(t, ":50052", cfg.GrpcListenAddr)
	assert.Equal(t, "*/10 * * * * *", cfg.HeartbeatSchedule)
	assert.Equal(t, "single-instance", cfg.ServiceName)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	yaml := "claim_name: from-file\nbackend: flock\nhold_duration: 5s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SINGLE_INSTANCE_BACKEND", "record-lock")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("hold-duration", 0, "")
	flags.String("claim-name", "", "")
	require.NoError(t, flags.Parse([]string{"--hold-duration=2m"}))

	v := viper.New()
	v.AddConfigPath(dir)
	cfg, err := load(v, flags)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.ClaimName, "file beats default and unset flag")
	assert.Equal(t, "record-lock", cfg.Backend, "env beats file")
	assert.Equal(t, 2*time.Minute, cfg.HoldDuration, "flag beats file")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		tag  string
	}{
		{name: "unknown backend", env: map[string]string{"SINGLE_INSTANCE_BACKEND": "etcd"}, tag: "oneof"},
		{name: "bad schedule", env: map[string]string{"SINGLE_INSTANCE_HEARTBEAT_SCHEDULE": "every minute"}, tag: "cron"},
		{name: "bad listen addr", env: map[string]string{"SINGLE_INSTANCE_HTTP_LISTEN_ADDR": "no-port"}, tag: "hostname_port"},
		{name: "negative hold", env: map[string]string{"SINGLE_INSTANCE_HOLD_DURATION": "-1s"}, tag: "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load(nil)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "'"+tt.tag+"'")
		})
	}
}

func TestValidateEmptyOptionalFields(t *testing.T) {
	cfg := Config{
		ClaimName:   "app",
		Backend:     "abstract-socket",
		ServiceName: "svc",
	}
	assert.NoError(t, cfg.Validate())
}
