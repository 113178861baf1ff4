// Package credential supplies provider tokens to the backend layer through a
// narrow accessor. Tokens are resolved per job and never cached in session
// state beyond a single job's lifetime.
package credential

import (
	"fmt"
	"os"
	"strings"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Token is resolved credential material for one backend.
type Token struct {
	// Value is the secret itself. Never logged.
	Value string
	// Source names where the token came from (env var, store file) for
	// diagnostics.
	Source string
}

// Provider resolves credential material for a backend id.
type Provider interface {
	// Resolve returns the token for backendID, or CREDENTIAL_NOT_FOUND
	// when no source can supply one.
	Resolve(backendID string) (Token, error)
	// Sources describes the configured lookup locations for display
	// purposes. Values are never included.
	Sources() []string
}

// EnvProvider resolves tokens from environment variables. The mapping from
// backend id to variable name comes from configuration (token_source).
type EnvProvider struct {
	vars map[string]string
}

// NewEnvProvider creates a provider over a backendID -> env var name map.
func NewEnvProvider(vars map[string]string) *EnvProvider {
	if vars == nil {
		vars = make(map[string]string)
	}
	return &EnvProvider{vars: vars}
}

// Resolve implements Provider.
func (p *EnvProvider) Resolve(backendID string) (Token, error) {
	name, ok := p.vars[backendID]
	if !ok || name == "" {
		return Token{}, types.NewError(types.CREDENTIAL_NOT_FOUND,
			fmt.Sprintf("no token source configured for backend %q", backendID))
	}
	value := os.Getenv(name)
	if strings.TrimSpace(value) == "" {
		return Token{}, types.NewError(types.CREDENTIAL_NOT_FOUND,
			fmt.Sprintf("environment variable %s is empty for backend %q", name, backendID))
	}
	return Token{Value: value, Source: "env:" + name}, nil
}

// Sources implements Provider.
func (p *EnvProvider) Sources() []string {
	out := make([]string, 0, len(p.vars))
	for backendID, name := range p.vars {
		out = append(out, fmt.Sprintf("%s -> env:%s", backendID, name))
	}
	return out
}

// ChainProvider tries each wrapped provider in order and returns the first
// token found. Resolution errors other than CREDENTIAL_NOT_FOUND abort the
// chain.
type ChainProvider struct {
	providers []Provider
}

// NewChainProvider creates a provider chain.
func NewChainProvider(providers ...Provider) *ChainProvider {
	return &ChainProvider{providers: providers}
}

// Resolve implements Provider.
func (c *ChainProvider) Resolve(backendID string) (Token, error) {
	for _, p := range c.providers {
		tok, err := p.Resolve(backendID)
		if err == nil {
			return tok, nil
		}
		if code, ok := types.CodeOf(err); !ok || code != types.CREDENTIAL_NOT_FOUND {
			return Token{}, err
		}
	}
	return Token{}, types.NewError(types.CREDENTIAL_NOT_FOUND,
		fmt.Sprintf("no credential source produced a token for backend %q", backendID))
}

// Sources implements Provider.
func (c *ChainProvider) Sources() []string {
	var out []string
	for _, p := range c.providers {
		out = append(out, p.Sources()...)
	}
	return out
}

// StaticProvider holds tokens in memory. Used by tests and by ad hoc
// single-run invocations; not intended for persistent storage.
type StaticProvider struct {
	tokens map[string]string
}

// NewStaticProvider creates a provider over a fixed backendID -> token map.
func NewStaticProvider(tokens map[string]string) *StaticProvider {
	if tokens == nil {
		tokens = make(map[string]string)
	}
	return &StaticProvider{tokens: tokens}
}

// Resolve implements Provider.
func (p *StaticProvider) Resolve(backendID string) (Token, error) {
	value, ok := p.tokens[backendID]
	if !ok || value == "" {
		return Token{}, types.NewError(types.CREDENTIAL_NOT_FOUND,
			fmt.Sprintf("no static token for backend %q", backendID))
	}
	return Token{Value: value, Source: "static"}, nil
}

// Sources implements Provider.
func (p *StaticProvider) Sources() []string {
	out := make([]string, 0, len(p.tokens))
	for backendID := range p.tokens {
		out = append(out, fmt.Sprintf("%s -> static", backendID))
	}
	return out
}
