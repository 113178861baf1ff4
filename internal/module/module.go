// Package module defines the pluggable attack module capability and the
// registry that indexes modules for the console. Modules are concrete
// implementations of a fixed interface registered through an explicit
// builtin list or typed manifests; the framework never discovers them via
// runtime type introspection.
package module

import (
	"context"
	"log/slog"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
)

// Session is the view of console state a module sees while validating and
// running. The concrete session type lives in internal/session; the
// interface keeps the dependency direction module <- session.
type Session interface {
	// Option resolves a named option, letting module-local values shadow
	// globals on name collision.
	Option(name string) (string, error)
	// OptionInt resolves a named option as an integer.
	OptionInt(name string) (int, error)
	// OptionBool resolves a named option as a boolean.
	OptionBool(name string) (bool, error)
	// Backends exposes the backend manager for job submission.
	Backends() *backend.Manager
	// BackendID returns the currently selected backend id.
	BackendID() string
	// Shots returns the effective shot count for submissions.
	Shots() (int, error)
	// Timeout returns the effective wait timeout for remote jobs.
	Timeout() time.Duration
	// Logger returns the session logger.
	Logger() *slog.Logger
}

// Module is the capability every attack module implements. A module is
// immutable once registered except for its option values.
type Module interface {
	// ID is the unique path-like registry name (e.g. "exploit/shor_rsa").
	ID() string
	// Category groups modules in listings (exploit, scanner, ...).
	Category() string
	// DisplayName is the human-readable module title.
	DisplayName() string
	// Description is a one-line summary used by listings and search.
	Description() string
	// Options returns the module's typed option set.
	Options() *option.Set
	// FallbackEligible reports whether the module tolerates transparent
	// substitution of the local simulator when a remote backend is down.
	FallbackEligible() bool

	// Validate fails when required options are unset or mutually
	// inconsistent. It runs before every execution.
	Validate(s Session) error
	// Run executes the module against the session's selected backend.
	Run(ctx context.Context, s Session) (*backend.Result, error)
}

// Descriptor is the immutable metadata of a registered module, used by
// listings without touching the live option set.
type Descriptor struct {
	ID               string
	Category         string
	DisplayName      string
	Description      string
	FallbackEligible bool
}

// Describe builds a Descriptor from a module.
func Describe(m Module) Descriptor {
	return Descriptor{
		ID:               m.ID(),
		Category:         m.Category(),
		DisplayName:      m.DisplayName(),
		Description:      m.Description(),
		FallbackEligible: m.FallbackEligible(),
	}
}

// Base carries the common metadata and option plumbing concrete modules
// embed. Embedders implement Validate and Run.
type Base struct {
	ModuleID       string
	ModuleCategory string
	Name           string
	Summary        string
	Fallback       bool
	Opts           *option.Set
}

// ID implements Module.
func (b *Base) ID() string { return b.ModuleID }

// Category implements Module.
func (b *Base) Category() string { return b.ModuleCategory }

// DisplayName implements Module.
func (b *Base) DisplayName() string { return b.Name }

// Description implements Module.
func (b *Base) Description() string { return b.Summary }

// Options implements Module.
func (b *Base) Options() *option.Set { return b.Opts }

// FallbackEligible implements Module.
func (b *Base) FallbackEligible() bool { return b.Fallback }
