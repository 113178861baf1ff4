package providers

import (
	"fmt"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/credential"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Provider type discriminators used in configuration.
const (
	TypeAer  = "aer"
	TypeIBMQ = "ibmq"
	TypeMock = "mock"
)

// Config describes one backend instance to construct.
type Config struct {
	// ID is the registry id.
	ID string
	// Type selects the implementation (aer, ibmq, mock).
	Type string
	// DisplayName is shown in `show backends`; defaults per implementation.
	DisplayName string
	// Endpoint and Region apply to remote providers.
	Endpoint string
	Region   string
	// MaxQubits and MaxShots declare capacity limits for remote providers.
	MaxQubits int
	MaxShots  int
	// Seed fixes simulator sampling; zero derives one from the clock.
	Seed int64
}

// New creates a backend from the configuration.
func New(cfg Config, creds credential.Provider) (backend.Backend, error) {
	switch cfg.Type {
	case TypeAer:
		return NewAerSimulator(cfg.Seed), nil

	case TypeIBMQ:
		if cfg.Endpoint == "" {
			return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("backend %s: ibmq provider requires an endpoint", cfg.ID))
		}
		name := cfg.DisplayName
		if name == "" {
			name = fmt.Sprintf("IBM Quantum (%s)", cfg.ID)
		}
		return NewIBMQBackend(IBMQConfig{
			ID:          cfg.ID,
			DisplayName: name,
			Endpoint:    cfg.Endpoint,
			Region:      cfg.Region,
			MaxQubits:   cfg.MaxQubits,
			MaxShots:    cfg.MaxShots,
		}, creds), nil

	case TypeMock:
		m := NewMockBackend()
		if cfg.ID != "" {
			m.ID = cfg.ID
		}
		return m, nil

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown backend provider type: %s", cfg.Type))
	}
}
