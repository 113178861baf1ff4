// Package config loads and validates the framework configuration from
// YAML, with ${ENV_VAR} interpolation for values that should not live in
// the file itself.
package config

// Config is the root configuration for the Houdinis framework.
type Config struct {
	Core        CoreConfig               `mapstructure:"core" yaml:"core"`
	Backends    map[string]BackendConfig `mapstructure:"backends" yaml:"backends"`
	Credentials CredentialsConfig        `mapstructure:"credentials" yaml:"credentials"`
	Modules     ModulesConfig            `mapstructure:"modules" yaml:"modules"`
	Logging     LoggingConfig            `mapstructure:"logging" yaml:"logging"`
}

// CoreConfig contains core application settings.
type CoreConfig struct {
	// HomeDir is the framework state directory (~/.houdinis by default).
	HomeDir string `mapstructure:"home_dir" yaml:"home_dir"`
	// DefaultBackend seeds the session's BACKEND global option.
	DefaultBackend string `mapstructure:"default_backend" yaml:"default_backend"`
	// DefaultShots seeds the session's SHOTS global option.
	DefaultShots int `mapstructure:"default_shots" yaml:"default_shots"`
	// TimeoutSeconds seeds the session's TIMEOUT global option.
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// Debug switches logging to debug level regardless of Logging.Level.
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// BackendConfig declares one backend instance. The map key in
// Config.Backends is the backend's registry id.
type BackendConfig struct {
	// Type selects the provider implementation (aer, ibmq, mock).
	Type string `mapstructure:"type" yaml:"type"`
	// DisplayName overrides the provider's default listing name.
	DisplayName string `mapstructure:"display_name" yaml:"display_name,omitempty"`
	// Endpoint and Region apply to remote providers.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	Region   string `mapstructure:"region" yaml:"region,omitempty"`
	// TokenSource names the environment variable holding this backend's
	// API token.
	TokenSource string `mapstructure:"token_source" yaml:"token_source,omitempty"`
	// MaxQubits and MaxShots declare the provider's capacity limits.
	MaxQubits int `mapstructure:"max_qubits" yaml:"max_qubits,omitempty"`
	MaxShots  int `mapstructure:"max_shots" yaml:"max_shots,omitempty"`
	// Seed fixes simulator sampling for reproducible runs.
	Seed int64 `mapstructure:"seed" yaml:"seed,omitempty"`
}

// CredentialsConfig configures the encrypted credential store.
type CredentialsConfig struct {
	// StorePath is the encrypted YAML store location.
	StorePath string `mapstructure:"store_path" yaml:"store_path"`
	// PassphraseEnv names the environment variable holding the store
	// passphrase. The store is skipped when the variable is empty.
	PassphraseEnv string `mapstructure:"passphrase_env" yaml:"passphrase_env"`
}

// ModulesConfig configures module loading.
type ModulesConfig struct {
	// ManifestDirs are scanned for YAML module manifests at startup.
	ManifestDirs []string `mapstructure:"manifest_dirs" yaml:"manifest_dirs,omitempty"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is text or json.
	Format string `mapstructure:"format" yaml:"format"`
}
