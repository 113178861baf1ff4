package exploit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

func TestGroverValidate(t *testing.T) {
	tests := []struct {
		name    string
		keybits string
		target  string
		wantMsg string
	}{
		{"matching width passes", "4", "1011", ""},
		{"length mismatch", "4", "10110", "KEYBITS is 4"},
		{"non-binary characters", "4", "10a1", "only 0 and 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newExploitSession(t, NewGroverKey())
			_, err := s.Use("exploit/grover_key")
			require.NoError(t, err)
			require.NoError(t, s.Set("KEYBITS", tt.keybits))
			require.NoError(t, s.Set("TARGET_KEY", tt.target))

			err = s.ActiveModule().Validate(s)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGroverMissingTargetKey(t *testing.T) {
	s := newExploitSession(t, NewGroverKey())
	_, err := s.Use("exploit/grover_key")
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.OPTION_REQUIRED_UNSET, code)
}

func TestGroverFindsTwoBitKey(t *testing.T) {
	// One amplification round recovers a 2-bit key with certainty.
	s := newExploitSession(t, NewGroverKey())
	_, err := s.Use("exploit/grover_key")
	require.NoError(t, err)
	require.NoError(t, s.Set("KEYBITS", "2"))
	require.NoError(t, s.Set("TARGET_KEY", "10"))

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "10", result.Metadata["candidate_key"])
	assert.Equal(t, true, result.Metadata["key_found"])
	assert.Equal(t, 1, result.Metadata["grover_iterations"])
	assert.Equal(t, 512, result.TotalCounts())
}

func TestGroverIterations(t *testing.T) {
	assert.Equal(t, 1, groverIterations(2))
	assert.Equal(t, 3, groverIterations(4))
	assert.Equal(t, 12, groverIterations(8))
}

func TestGroverCircuitShape(t *testing.T) {
	c := groverCircuit("101", 2)
	assert.Equal(t, 3, c.Qubits)
	require.NoError(t, c.Validate())

	// Superposition layer plus two oracle+diffusion rounds.
	assert.Greater(t, c.Depth(), 3)
}

func TestTopOutcome(t *testing.T) {
	best, count := topOutcome(map[string]int{"00": 10, "11": 40, "01": 40})
	assert.Equal(t, "01", best, "ties break toward the lexicographically smaller bitstring")
	assert.Equal(t, 40, count)
}
