// Package session holds the in-memory state of one console instance: the
// active module, global option values, and the history of executed runs.
// Exactly one Session exists per console process; it is passed explicitly
// into every command handler rather than living in a package global, so
// tests can drive several independent consoles.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// State is the dispatcher-visible session state.
type State string

const (
	StateNoModule  State = "no_module_selected"
	StateModule    State = "module_selected"
	StateExecuting State = "executing"
)

// Global option names.
const (
	OptBackend = "BACKEND"
	OptShots   = "SHOTS"
	OptTimeout = "TIMEOUT"
)

// Defaults seeds the global option values from configuration.
type Defaults struct {
	BackendID      string
	Shots          int
	TimeoutSeconds int
}

// HistoryEntry records one executed run. Entries are appended only after
// the owning job reached a terminal state.
type HistoryEntry struct {
	ID        types.ID
	ModuleID  string
	BackendID string
	StartedAt time.Time
	Duration  time.Duration
	Succeeded bool
	Error     string
	Result    *backend.Result
}

// Session is the mutable console state. The console loop is single
// threaded, so Session itself needs no locking; blocking backend waits
// happen inside Run with a caller-supplied context.
type Session struct {
	registry *module.Registry
	backends *backend.Manager
	logger   *slog.Logger

	globals *option.Set
	active  module.Module
	state   State
	history []HistoryEntry
}

// New creates a session over a populated registry and backend manager.
func New(registry *module.Registry, backends *backend.Manager, logger *slog.Logger, defaults Defaults) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	globals := option.NewSet()
	_ = globals.Define(option.Option{
		Name:        OptBackend,
		Kind:        option.KindString,
		Required:    true,
		Default:     defaults.BackendID,
		Description: "Backend id jobs are submitted to",
	})
	_ = globals.Define(option.Option{
		Name:        OptShots,
		Kind:        option.KindInt,
		Required:    true,
		Default:     strconv.Itoa(defaults.Shots),
		Description: "Measurement shots per job",
		Min:         option.IntPtr(1),
	})
	_ = globals.Define(option.Option{
		Name:        OptTimeout,
		Kind:        option.KindInt,
		Required:    true,
		Default:     strconv.Itoa(defaults.TimeoutSeconds),
		Description: "Seconds to wait for a remote job before giving up",
		Min:         option.IntPtr(1),
	})

	return &Session{
		registry: registry,
		backends: backends,
		logger:   logger,
		globals:  globals,
		state:    StateNoModule,
	}
}

// State returns the current dispatcher state.
func (s *Session) State() State { return s.state }

// Registry returns the module registry.
func (s *Session) Registry() *module.Registry { return s.registry }

// ActiveModule returns the selected module, nil when none is active.
func (s *Session) ActiveModule() module.Module { return s.active }

// Globals returns the global option set for display.
func (s *Session) Globals() *option.Set { return s.globals }

// History returns the executed-run history, oldest first.
func (s *Session) History() []HistoryEntry { return s.history }

// Use activates the module registered under id. Option state of a
// previously activated module is retained, so returning to it restores
// the operator's configuration.
func (s *Session) Use(id string) (module.Module, error) {
	m, err := s.registry.Find(id)
	if err != nil {
		return nil, err
	}
	s.active = m
	s.state = StateModule
	return m, nil
}

// Back deselects the active module. Its option values stay as configured
// for the next activation.
func (s *Session) Back() {
	s.active = nil
	s.state = StateNoModule
}

// Set stores a value on the active module's option when the name matches
// one, otherwise on the globals. Module-local names shadow globals.
func (s *Session) Set(name, value string) error {
	if s.active != nil && s.active.Options().Has(name) {
		return s.active.Options().Set(name, value)
	}
	if s.globals.Has(name) {
		return s.globals.Set(name, value)
	}
	return types.NewError(types.OPTION_NOT_FOUND,
		fmt.Sprintf("no such option: %s", name))
}

// Unset clears a value with the same precedence rules as Set.
func (s *Session) Unset(name string) error {
	if s.active != nil && s.active.Options().Has(name) {
		return s.active.Options().Unset(name)
	}
	if s.globals.Has(name) {
		return s.globals.Unset(name)
	}
	return types.NewError(types.OPTION_NOT_FOUND,
		fmt.Sprintf("no such option: %s", name))
}

// Option implements module.Session with module-local-shadows-global
// resolution.
func (s *Session) Option(name string) (string, error) {
	if s.active != nil && s.active.Options().Has(name) {
		return s.active.Options().Get(name)
	}
	return s.globals.Get(name)
}

// OptionInt implements module.Session.
func (s *Session) OptionInt(name string) (int, error) {
	if s.active != nil && s.active.Options().Has(name) {
		return s.active.Options().GetInt(name)
	}
	return s.globals.GetInt(name)
}

// OptionBool implements module.Session.
func (s *Session) OptionBool(name string) (bool, error) {
	if s.active != nil && s.active.Options().Has(name) {
		return s.active.Options().GetBool(name)
	}
	return s.globals.GetBool(name)
}

// Backends implements module.Session.
func (s *Session) Backends() *backend.Manager { return s.backends }

// BackendID implements module.Session.
func (s *Session) BackendID() string {
	id, err := s.Option(OptBackend)
	if err != nil {
		return ""
	}
	return id
}

// Shots implements module.Session.
func (s *Session) Shots() (int, error) {
	return s.OptionInt(OptShots)
}

// Timeout implements module.Session.
func (s *Session) Timeout() time.Duration {
	secs, err := s.OptionInt(OptTimeout)
	if err != nil || secs <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(secs) * time.Second
}

// Logger implements module.Session.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Run validates and executes the active module. A validation failure
// leaves session state untouched so the operator can fix options and
// retry. Success and execution failure both return the session to
// module_selected with configuration preserved, and both append a history
// entry once the run reached a terminal state.
func (s *Session) Run(ctx context.Context) (*backend.Result, error) {
	if s.active == nil {
		return nil, types.NewError(types.MODULE_NONE_ACTIVE,
			"no module selected; `use <module-id>` first")
	}

	m := s.active
	if missing := m.Options().MissingRequired(); len(missing) > 0 {
		return nil, types.NewError(types.OPTION_REQUIRED_UNSET,
			fmt.Sprintf("required option %s is not set", missing[0]))
	}
	if err := m.Validate(s); err != nil {
		return nil, err
	}

	s.state = StateExecuting
	defer func() { s.state = StateModule }()

	started := time.Now()
	result, err := m.Run(ctx, s)

	entry := HistoryEntry{
		ID:        types.NewID(),
		ModuleID:  m.ID(),
		BackendID: s.BackendID(),
		StartedAt: started,
		Duration:  time.Since(started),
		Succeeded: err == nil,
		Result:    result,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	s.history = append(s.history, entry)

	if err != nil {
		return nil, err
	}
	return result, nil
}
