package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maurorisonho/Houdinis-sub002/cmd/houdinis/internal"
	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/backend/providers"
	"github.com/maurorisonho/Houdinis-sub002/internal/config"
	"github.com/maurorisonho/Houdinis-sub002/internal/console"
	"github.com/maurorisonho/Houdinis-sub002/internal/credential"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/modules"
	"github.com/maurorisonho/Houdinis-sub002/internal/session"
	"github.com/maurorisonho/Houdinis-sub002/pkg/version"
)

// Global flags.
var (
	configPath string
	debugMode  bool
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "houdinis",
	Short: "Houdinis - Quantum-Era Security Testing Framework",
	Long: `Houdinis is an interactive console for testing cryptographic systems
against quantum attacks. Operators select pluggable attack modules,
configure typed options, and execute them against local simulators or
queued remote quantum backends.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
	RunE:              runConsole,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ~/.houdinis/config.yml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig is called before any command runs to load configuration.
func loadConfig(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultConfig().Core.HomeDir + "/config.yml"
	}

	loaded, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(path)
	if err != nil {
		return internal.WrapError(internal.ExitConfigError, "failed to load configuration", err)
	}
	if debugMode {
		loaded.Core.Debug = true
	}
	cfg = loaded
	return nil
}

// runConsole bootstraps the framework and starts the interactive loop.
func runConsole(cmd *cobra.Command, args []string) error {
	logger := newLogger(cfg)

	creds := buildCredentials(cfg)
	backends, err := buildBackends(cfg, creds, logger)
	if err != nil {
		return err
	}

	registry := module.NewRegistry()
	report, err := module.LoadAll(registry, modules.Builtins(), cfg.Modules.ManifestDirs, logger)
	if err != nil {
		// Zero usable modules is an unrecoverable startup failure.
		return internal.WrapError(internal.ExitRegistryError, "module loading failed", err)
	}
	for id, loadErr := range report.Failures {
		cmd.PrintErrf("Warning: %s failed to load: %v\n", id, loadErr)
	}

	sess := session.New(registry, backends, logger, session.Defaults{
		BackendID:      cfg.Core.DefaultBackend,
		Shots:          cfg.Core.DefaultShots,
		TimeoutSeconds: cfg.Core.TimeoutSeconds,
	})

	c := console.New(sess, creds, logger, version.Version, cmd.InOrStdin(), cmd.OutOrStdout())
	if f, ok := cmd.InOrStdin().(*os.File); ok {
		c.SetInteractive(term.IsTerminal(int(f.Fd())))
	}

	// Ctrl-C cancels the in-flight local wait rather than killing the
	// console; SIGTERM still terminates via the command context.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	defer signal.Stop(sigChan)
	go func() {
		for sig := range sigChan {
			select {
			case c.Interrupt() <- sig:
			default:
			}
		}
	}()

	return c.Run(cmd.Context())
}

// buildCredentials assembles the resolution chain: environment variables
// named by token_source first, then the encrypted store when unlocked.
func buildCredentials(cfg *config.Config) credential.Provider {
	envVars := make(map[string]string)
	for id, bc := range cfg.Backends {
		if bc.TokenSource != "" {
			envVars[id] = bc.TokenSource
		}
	}

	chain := []credential.Provider{credential.NewEnvProvider(envVars)}
	if passphrase := os.Getenv(cfg.Credentials.PassphraseEnv); passphrase != "" {
		chain = append(chain, credential.NewFileStore(cfg.Credentials.StorePath, []byte(passphrase)))
	}
	return credential.NewChainProvider(chain...)
}

// buildBackends constructs and registers every configured backend, in
// lexicographic id order for deterministic listings.
func buildBackends(cfg *config.Config, creds credential.Provider, logger *slog.Logger) (*backend.Manager, error) {
	manager := backend.NewManager(logger)

	ids := make([]string, 0, len(cfg.Backends))
	for id := range cfg.Backends {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	fallbackID := ""
	for _, id := range ids {
		bc := cfg.Backends[id]
		b, err := providers.New(providers.Config{
			ID:          id,
			Type:        bc.Type,
			DisplayName: bc.DisplayName,
			Endpoint:    bc.Endpoint,
			Region:      bc.Region,
			MaxQubits:   bc.MaxQubits,
			MaxShots:    bc.MaxShots,
			Seed:        bc.Seed,
		}, creds)
		if err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "backend construction failed", err)
		}
		if err := manager.Register(b); err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "backend registration failed", err)
		}
		if fallbackID == "" && bc.Type == providers.TypeAer {
			fallbackID = b.Descriptor().ID
		}
	}

	if fallbackID != "" {
		if err := manager.SetFallback(fallbackID); err != nil {
			return nil, internal.WrapError(internal.ExitConfigError, "fallback configuration failed", err)
		}
	}
	return manager, nil
}

// newLogger builds the slog logger per the logging configuration.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Core.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
