// Package option implements the typed option system shared by all attack
// modules and the session's global settings. All coercion and validation of
// free-text console input is centralized here so every module benefits from
// the same rules.
package option

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Kind identifies the value type an option accepts.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindPath   Kind = "path"
	KindEnum   Kind = "enum"
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	return string(k)
}

// IsValid checks if the Kind is a valid value.
func (k Kind) IsValid() bool {
	switch k {
	case KindString, KindInt, KindBool, KindPath, KindEnum:
		return true
	default:
		return false
	}
}

// Option is one typed, named parameter. Once set, the current value always
// satisfies the kind's validator; required options with no value block
// execution.
type Option struct {
	Name        string
	Kind        Kind
	Required    bool
	Default     string
	Description string

	// Allowed constrains enum options to a fixed set declared by the module.
	Allowed []string

	// Min and Max bound int options when non-nil.
	Min *int
	Max *int

	value    string
	hasValue bool
	explicit bool
}

// Value returns the raw current value and whether one is present
// (default or explicitly set).
func (o *Option) Value() (string, bool) {
	return o.value, o.hasValue
}

// Explicit reports whether the current value was set by the operator rather
// than seeded from the declared default.
func (o *Option) Explicit() bool {
	return o.explicit
}

// Entry is one row of an option listing, used for `show options` display.
type Entry struct {
	Name        string
	Kind        Kind
	Required    bool
	Value       string
	HasValue    bool
	Explicit    bool
	Description string
}

// Set is an ordered collection of options keyed by name. Listing order is
// the declaration order, which keeps `show options` output reproducible.
type Set struct {
	opts  map[string]*Option
	order []string
}

// NewSet creates an empty option set.
func NewSet() *Set {
	return &Set{opts: make(map[string]*Option)}
}

// Define declares a new option. The default value, when non-empty, is
// validated against the kind and seeded as the current value. Option names
// are case-insensitive and stored upper-cased, following the console
// convention (RHOST, SHOTS, ...).
func (s *Set) Define(opt Option) error {
	if opt.Name == "" {
		return types.NewError(types.OPTION_VALIDATION_FAILED, "option name cannot be empty")
	}
	if !opt.Kind.IsValid() {
		return types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s: invalid kind %q", opt.Name, opt.Kind))
	}
	if opt.Kind == KindEnum && len(opt.Allowed) == 0 {
		return types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s: enum kind requires an allowed set", opt.Name))
	}

	name := canonical(opt.Name)
	if _, exists := s.opts[name]; exists {
		return types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s already defined", name))
	}

	stored := opt
	stored.Name = name
	if opt.Default != "" {
		coerced, err := validate(&stored, opt.Default)
		if err != nil {
			return types.WrapError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s: default value rejected", name), err)
		}
		stored.value = coerced
		stored.hasValue = true
	}

	s.opts[name] = &stored
	s.order = append(s.order, name)
	return nil
}

// Has reports whether an option with the given name is defined.
func (s *Set) Has(name string) bool {
	_, ok := s.opts[canonical(name)]
	return ok
}

// Set validates and stores a raw value for a named option, marking it as
// explicitly set. Fails with OPTION_NOT_FOUND for undefined names and
// OPTION_VALIDATION_FAILED when the raw value cannot be coerced to the
// option's kind.
func (s *Set) Set(name, raw string) error {
	opt, ok := s.opts[canonical(name)]
	if !ok {
		return types.NewError(types.OPTION_NOT_FOUND,
			fmt.Sprintf("no such option: %s", canonical(name)))
	}

	coerced, err := validate(opt, raw)
	if err != nil {
		return err
	}

	opt.value = coerced
	opt.hasValue = true
	opt.explicit = true
	return nil
}

// SetDefault validates raw and installs it as the option's declared
// default. The current value follows the new default unless the operator
// has explicitly set one; the option is never marked explicitly set, so
// listings keep showing it as a default.
func (s *Set) SetDefault(name, raw string) error {
	opt, ok := s.opts[canonical(name)]
	if !ok {
		return types.NewError(types.OPTION_NOT_FOUND,
			fmt.Sprintf("no such option: %s", canonical(name)))
	}

	coerced, err := validate(opt, raw)
	if err != nil {
		return err
	}

	opt.Default = coerced
	if !opt.explicit {
		opt.value = coerced
		opt.hasValue = true
	}
	return nil
}

// Unset clears an explicitly set value, restoring the declared default
// if one exists.
func (s *Set) Unset(name string) error {
	opt, ok := s.opts[canonical(name)]
	if !ok {
		return types.NewError(types.OPTION_NOT_FOUND,
			fmt.Sprintf("no such option: %s", canonical(name)))
	}

	opt.explicit = false
	if opt.Default != "" {
		opt.value = opt.Default
		opt.hasValue = true
	} else {
		opt.value = ""
		opt.hasValue = false
	}
	return nil
}

// Get returns the current raw value for name. Fails with
// OPTION_REQUIRED_UNSET when the option is required and has no value.
func (s *Set) Get(name string) (string, error) {
	opt, ok := s.opts[canonical(name)]
	if !ok {
		return "", types.NewError(types.OPTION_NOT_FOUND,
			fmt.Sprintf("no such option: %s", canonical(name)))
	}
	if !opt.hasValue {
		if opt.Required {
			return "", types.NewError(types.OPTION_REQUIRED_UNSET,
				fmt.Sprintf("required option %s is not set", opt.Name))
		}
		return "", nil
	}
	return opt.value, nil
}

// GetInt returns the current value of an int option as an int.
func (s *Set) GetInt(name string) (int, error) {
	raw, err := s.Get(name)
	if err != nil {
		return 0, err
	}
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.WrapError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s holds a non-integer value", canonical(name)), err)
	}
	return v, nil
}

// GetBool returns the current value of a bool option as a bool.
func (s *Set) GetBool(name string) (bool, error) {
	raw, err := s.Get(name)
	if err != nil {
		return false, err
	}
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, types.WrapError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s holds a non-boolean value", canonical(name)), err)
	}
	return v, nil
}

// MissingRequired returns the names of required options without a value,
// in declaration order.
func (s *Set) MissingRequired() []string {
	var missing []string
	for _, name := range s.order {
		opt := s.opts[name]
		if opt.Required && !opt.hasValue {
			missing = append(missing, name)
		}
	}
	return missing
}

// List produces the options in declaration order for display. The returned
// slice is rebuilt on every call so callers may iterate it repeatedly.
func (s *Set) List() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, name := range s.order {
		opt := s.opts[name]
		entries = append(entries, Entry{
			Name:        opt.Name,
			Kind:        opt.Kind,
			Required:    opt.Required,
			Value:       opt.value,
			HasValue:    opt.hasValue,
			Explicit:    opt.explicit,
			Description: opt.Description,
		})
	}
	return entries
}

// Len returns the number of defined options.
func (s *Set) Len() int {
	return len(s.order)
}

// validate coerces raw into a canonical stored form for the option's kind,
// or returns an OPTION_VALIDATION_FAILED error.
func validate(opt *Option, raw string) (string, error) {
	switch opt.Kind {
	case KindString:
		return raw, nil

	case KindInt:
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s expects an integer, got %q", opt.Name, raw))
		}
		if opt.Min != nil && v < *opt.Min {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s must be >= %d, got %d", opt.Name, *opt.Min, v))
		}
		if opt.Max != nil && v > *opt.Max {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s must be <= %d, got %d", opt.Name, *opt.Max, v))
		}
		return strconv.Itoa(v), nil

	case KindBool:
		v, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(raw)))
		if err != nil {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s expects true/false, got %q", opt.Name, raw))
		}
		return strconv.FormatBool(v), nil

	case KindPath:
		// Existence is checked at use-time, not set-time, so operators can
		// point at files created later. Only syntactic validity matters here.
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s expects a non-empty path", opt.Name))
		}
		if strings.ContainsRune(trimmed, '\x00') {
			return "", types.NewError(types.OPTION_VALIDATION_FAILED,
				fmt.Sprintf("option %s contains an invalid path character", opt.Name))
		}
		return filepath.Clean(trimmed), nil

	case KindEnum:
		for _, allowed := range opt.Allowed {
			if strings.EqualFold(raw, allowed) {
				return allowed, nil
			}
		}
		return "", types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s must be one of [%s], got %q",
				opt.Name, strings.Join(opt.Allowed, ", "), raw))

	default:
		return "", types.NewError(types.OPTION_VALIDATION_FAILED,
			fmt.Sprintf("option %s has unknown kind %q", opt.Name, opt.Kind))
	}
}

func canonical(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// IntPtr is a convenience for declaring int option bounds inline.
func IntPtr(v int) *int {
	return &v
}
