package module

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/option"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// stubModule is a minimal Module for registry and manifest tests.
type stubModule struct {
	Base
	runErr error
}

func (m *stubModule) Validate(s Session) error {
	return nil
}

func (m *stubModule) Run(ctx context.Context, s Session) (*backend.Result, error) {
	if m.runErr != nil {
		return nil, m.runErr
	}
	return &backend.Result{Counts: map[string]int{"0": 1}}, nil
}

func newStub(id, category, summary string) *stubModule {
	return &stubModule{Base: Base{
		ModuleID:       id,
		ModuleCategory: category,
		Name:           id,
		Summary:        summary,
		Opts:           option.NewSet(),
	}}
}

func TestRegisterAndFind(t *testing.T) {
	reg := NewRegistry()
	m := newStub("exploit/alpha", "exploit", "first")
	require.NoError(t, reg.Register(m))

	got, err := reg.Find("exploit/alpha")
	require.NoError(t, err)
	assert.Same(t, Module(m), got)

	_, err = reg.Find("exploit/missing")
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.MODULE_NOT_FOUND, code)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStub("exploit/alpha", "exploit", "first")))

	err := reg.Register(newStub("exploit/alpha", "exploit", "second"))
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.MODULE_DUPLICATE, code)
	assert.Equal(t, 1, reg.Len(), "failed registration must not grow the registry")
}

func TestRegisterRejectsMalformed(t *testing.T) {
	reg := NewRegistry()

	assert.Error(t, reg.Register(newStub("", "exploit", "no id")))

	bad := newStub("exploit/bad", "exploit", "nil options")
	bad.Opts = nil
	assert.Error(t, reg.Register(bad))

	assert.Equal(t, 0, reg.Len())
}

func TestListIsSorted(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStub("scanner/zeta", "scanner", "")))
	require.NoError(t, reg.Register(newStub("exploit/alpha", "exploit", "")))
	require.NoError(t, reg.Register(newStub("exploit/beta", "exploit", "")))

	var ids []string
	for _, m := range reg.List() {
		ids = append(ids, m.ID())
	}
	assert.Equal(t, []string{"exploit/alpha", "exploit/beta", "scanner/zeta"}, ids)
}

func TestSearchMatchesIDAndDescription(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(newStub("exploit/shor_rsa", "exploit", "factor RSA moduli")))
	require.NoError(t, reg.Register(newStub("exploit/grover_key", "exploit", "brute-force symmetric keys")))
	require.NoError(t, reg.Register(newStub("scanner/qkd_sniff", "scanner", "intercept QKD exchanges")))

	var ids []string
	for _, m := range reg.Search("b") {
		ids = append(ids, m.ID())
	}
	// "b" hits grover's description ("brute-force") only; no id contains it.
	assert.Equal(t, []string{"exploit/grover_key"}, ids)

	assert.Len(t, reg.Search("EXPLOIT"), 2, "search is case-insensitive")
	assert.Empty(t, reg.Search("nonexistent"))
}
