package config

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	failerrors "github.com/kart-io/failurous/errors"
	"github.com/kart-io/failurous/logger/adapters"
)

// EnvPrefix prefixes every environment override, e.g. FAILUROUS_API_KEY or
// FAILUROUS_LOGGING_LEVEL.
const EnvPrefix = "FAILUROUS"

// configKeys lists every key that may come from the environment alone.
var configKeys = []string{
	"api_key",
	"server_name",
	"server_port",
	"use_ssl",
	"send_timeout",
	"https_ca_file",
	"https_verify_mode",
	"validate_payload",
	"rate_per_sec",
	"logging.level",
	"logging.format",
	"telemetry.service_name",
	"telemetry.service_version",
	"telemetry.environment",
	"telemetry.otlp_endpoint",
	"telemetry.tracing_enabled",
	"telemetry.metrics_enabled",
	"telemetry.prometheus_enabled",
	"telemetry.sample_rate",
	"telemetry.enabled",
}

// Load reads failurous.yaml from the working directory or ./configs, if
// present, then applies FAILUROUS_* environment overrides. A .env file in the
// working directory is loaded first.
func Load() (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigName("failurous")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, failerrors.Wrap(err, failerrors.ErrConfigLoadFailed, "error reading config")
		}
	}

	return decode(v)
}

// LoadFromFile loads configuration from a specific file. The format follows
// the file extension.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile(".env")

	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, failerrors.Wrap(err, failerrors.ErrConfigLoadFailed, "failed to read config file").
			WithContext("path", path)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("telemetry.sample_rate", DefaultSampleRate)
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, failerrors.Wrap(err, failerrors.ErrConfigLoadFailed, "failed to unmarshal config")
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l, err := adapters.NewZap(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, failerrors.Wrap(err, failerrors.ErrConfigLoadFailed, "failed to build logger")
	}
	cfg.Logger = l

	return &cfg, nil
}

// secondsToDurationHook reads bare numbers as seconds, so send_timeout: 2
// means two seconds.
func secondsToDurationHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}

	switch from.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
	case reflect.Float32, reflect.Float64:
		return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
	case reflect.String:
		if secs, err := strconv.ParseFloat(data.(string), 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
	}
	return data, nil
}

func loadEnvFile(path string) {
	if _, err := os.Stat(path); err == nil {
		_ = godotenv.Load(path)
	}
}
