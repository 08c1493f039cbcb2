package config

import (
	"errors"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/wrongbook/pkg/service/tutor"
	"github.com/secmon-lab/wrongbook/pkg/usecase"
)

// AppConfig holds tunables loaded from the optional TOML file
type AppConfig struct {
	Upload    UploadConfig    `toml:"upload"`
	Inference InferenceConfig `toml:"inference"`
}

type UploadConfig struct {
	TimeoutMS     int `toml:"timeout_ms"`
	InlineCeiling int `toml:"inline_ceiling"`
}

type InferenceConfig struct {
	Model          string `toml:"model"`
	MaxAttempts    int    `toml:"max_attempts"`
	InitialDelayMS int    `toml:"initial_delay_ms"`
}

// DefaultAppConfig returns the tunables used when no file is given
func DefaultAppConfig() *AppConfig {
	policy := tutor.DefaultRetryPolicy()
	return &AppConfig{
		Upload: UploadConfig{
			TimeoutMS:     int(usecase.DefaultUploadTimeout / time.Millisecond),
			InlineCeiling: usecase.DefaultInlineCeiling,
		},
		Inference: InferenceConfig{
			MaxAttempts:    policy.MaxAttempts,
			InitialDelayMS: int(policy.InitialDelay / time.Millisecond),
		},
	}
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	if a.Upload.TimeoutMS <= 0 {
		return goerr.Wrap(ErrInvalidConfig, "upload.timeout_ms must be positive", goerr.V("value", a.Upload.TimeoutMS))
	}
	if a.Upload.InlineCeiling <= 0 || a.Upload.InlineCeiling > 1<<20 {
		return goerr.Wrap(ErrInvalidConfig, "upload.inline_ceiling must be between 1 and 1048576", goerr.V("value", a.Upload.InlineCeiling))
	}
	if a.Inference.MaxAttempts < 1 {
		return goerr.Wrap(ErrInvalidConfig, "inference.max_attempts must be at least 1", goerr.V("value", a.Inference.MaxAttempts))
	}
	if a.Inference.InitialDelayMS < 0 {
		return goerr.Wrap(ErrInvalidConfig, "inference.initial_delay_ms must not be negative", goerr.V("value", a.Inference.InitialDelayMS))
	}
	return nil
}

// RemoteOptions returns the upload tunables for the remote store
func (a *AppConfig) RemoteOptions() []usecase.RemoteOption {
	return []usecase.RemoteOption{
		usecase.WithUploadTimeout(time.Duration(a.Upload.TimeoutMS) * time.Millisecond),
		usecase.WithInlineCeiling(a.Upload.InlineCeiling),
	}
}

// RetryPolicy returns the inference retry policy
func (a *AppConfig) RetryPolicy() tutor.RetryPolicy {
	policy := tutor.DefaultRetryPolicy()
	policy.MaxAttempts = a.Inference.MaxAttempts
	policy.InitialDelay = time.Duration(a.Inference.InitialDelayMS) * time.Millisecond
	return policy
}

// LoadAppConfig reads tunables from path. Keys missing from the file keep
// their defaults. An empty path returns the defaults.
func LoadAppConfig(path string) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(errors.Join(ErrInvalidConfig, err), "failed to parse config file", goerr.V(ConfigPathKey, path))
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid config file", goerr.V(ConfigPathKey, path))
	}
	return cfg, nil
}
