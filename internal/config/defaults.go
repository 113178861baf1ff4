package config

import (
	"os"
	"path/filepath"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend/providers"
)

// DefaultConfig returns a Config with sensible default values: the local
// simulator plus an unauthenticated IBM Quantum entry the operator can
// point a token at.
func DefaultConfig() *Config {
	homeDir := getDefaultHomeDir()

	return &Config{
		Core: CoreConfig{
			HomeDir:        homeDir,
			DefaultBackend: providers.AerSimulatorID,
			DefaultShots:   1024,
			TimeoutSeconds: 300,
			Debug:          false,
		},
		Backends: map[string]BackendConfig{
			providers.AerSimulatorID: {
				Type: providers.TypeAer,
			},
			"ibm_quantum": {
				Type:        providers.TypeIBMQ,
				DisplayName: "IBM Quantum",
				Endpoint:    "https://api.quantum.ibm.com/v1",
				TokenSource: "IBM_QUANTUM_TOKEN",
				MaxQubits:   127,
				MaxShots:    20000,
			},
		},
		Credentials: CredentialsConfig{
			StorePath:     filepath.Join(homeDir, "credentials.yml"),
			PassphraseEnv: "HOUDINIS_STORE_KEY",
		},
		Modules: ModulesConfig{
			ManifestDirs: []string{filepath.Join(homeDir, "modules.d")},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// getDefaultHomeDir returns ~/.houdinis, falling back to a relative
// directory when the home directory cannot be determined.
func getDefaultHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".houdinis"
	}
	return filepath.Join(home, ".houdinis")
}
