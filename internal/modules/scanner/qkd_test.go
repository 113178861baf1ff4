package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/backend/providers"
	"github.com/maurorisonho/Houdinis-sub002/internal/module"
	"github.com/maurorisonho/Houdinis-sub002/internal/session"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

func newScannerSession(t *testing.T) *session.Session {
	t.Helper()
	reg := module.NewRegistry()
	require.NoError(t, reg.Register(NewQKDSniff()))
	backends := backend.NewManager(nil)
	require.NoError(t, backends.Register(providers.NewAerSimulator(23)))
	return session.New(reg, backends, nil, session.Defaults{
		BackendID:      providers.AerSimulatorID,
		Shots:          512,
		TimeoutSeconds: 60,
	})
}

func TestQKDSniffIsFallbackEligible(t *testing.T) {
	assert.True(t, NewQKDSniff().FallbackEligible())
}

func TestQKDSniffRequiresTarget(t *testing.T) {
	s := newScannerSession(t)
	_, err := s.Use("scanner/qkd_sniff")
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.OPTION_REQUIRED_UNSET, code)
}

func TestQKDSniffFullIntercept(t *testing.T) {
	s := newScannerSession(t)
	_, err := s.Use("scanner/qkd_sniff")
	require.NoError(t, err)
	require.NoError(t, s.Set("RHOST", "qkd.example.com"))
	require.NoError(t, s.Set("BASIS_SEED", "7"))

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "qkd.example.com:8443", result.Metadata["target"])
	assert.Equal(t, 8, result.Metadata["intercepted_qubits"],
		"INTERCEPT_RATE defaults to 100%")

	// Intercepting every qubit in the wrong basis flips half the bits on
	// average, far above the 11% BB84 abort threshold.
	qber := result.Metadata["qber"].(float64)
	assert.InDelta(t, 0.5, qber, 0.1)
	assert.Equal(t, true, result.Metadata["eavesdropper_detectable"])
}

func TestQKDSniffRejectsBadPort(t *testing.T) {
	s := newScannerSession(t)
	_, err := s.Use("scanner/qkd_sniff")
	require.NoError(t, err)

	assert.Error(t, s.Set("RPORT", "0"))
	assert.Error(t, s.Set("RPORT", "70000"))
	assert.Error(t, s.Set("INTERCEPT_RATE", "0"))
}

func TestEstimateQBER(t *testing.T) {
	// Half the shots flip one of two bits: 256 flipped bits over 1024.
	counts := map[string]int{"00": 256, "01": 128, "10": 128}
	assert.InDelta(t, 0.25, estimateQBER(counts, 512, 2), 1e-9)

	assert.Zero(t, estimateQBER(nil, 0, 2))
	assert.Zero(t, estimateQBER(map[string]int{"11": 10}, 10, 0))
}

func TestInterceptCircuitRate(t *testing.T) {
	c, intercepted := interceptCircuit(100, 3)
	assert.Equal(t, qkdBlockQubits, intercepted)
	assert.Equal(t, qkdBlockQubits, c.Depth())

	_, some := interceptCircuit(50, 3)
	assert.LessOrEqual(t, some, qkdBlockQubits)
}
