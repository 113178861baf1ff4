package config

import (
	"fmt"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend/providers"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Validator checks a loaded configuration for internal consistency.
type Validator interface {
	Validate(cfg *Config) error
}

// defaultValidator implements Validator.
type defaultValidator struct{}

// NewValidator creates the default Validator.
func NewValidator() Validator {
	return &defaultValidator{}
}

// Validate implements Validator.
func (v *defaultValidator) Validate(cfg *Config) error {
	if cfg.Core.DefaultShots < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("core.default_shots must be >= 1, got %d", cfg.Core.DefaultShots))
	}
	if cfg.Core.TimeoutSeconds < 1 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("core.timeout_seconds must be >= 1, got %d", cfg.Core.TimeoutSeconds))
	}

	if len(cfg.Backends) == 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			"at least one backend must be configured")
	}
	for id, bc := range cfg.Backends {
		switch bc.Type {
		case providers.TypeAer, providers.TypeMock:
		case providers.TypeIBMQ:
			if bc.Endpoint == "" {
				return types.NewError(types.CONFIG_VALIDATION_FAILED,
					fmt.Sprintf("backends.%s: ibmq provider requires an endpoint", id))
			}
		default:
			return types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("backends.%s: unknown provider type %q", id, bc.Type))
		}
	}

	if _, ok := cfg.Backends[cfg.Core.DefaultBackend]; !ok {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("core.default_backend %q is not a configured backend", cfg.Core.DefaultBackend))
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "", "text", "json":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("logging.format must be text or json, got %q", cfg.Logging.Format))
	}

	return nil
}
