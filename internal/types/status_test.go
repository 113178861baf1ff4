package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatusTerminal(t *testing.T) {
	assert.False(t, JobStatusPending.IsTerminal())
	assert.False(t, JobStatusRunning.IsTerminal())
	assert.True(t, JobStatusComplete.IsTerminal())
	assert.True(t, JobStatusFailed.IsTerminal())
	assert.True(t, JobStatusTimedOut.IsTerminal())
}

func TestJobStatusTransitions(t *testing.T) {
	tests := []struct {
		from JobStatus
		to   JobStatus
		want bool
	}{
		{JobStatusPending, JobStatusRunning, true},
		{JobStatusPending, JobStatusFailed, true},
		{JobStatusPending, JobStatusComplete, true},
		{JobStatusRunning, JobStatusComplete, true},
		{JobStatusRunning, JobStatusFailed, true},
		{JobStatusRunning, JobStatusTimedOut, true},
		{JobStatusRunning, JobStatusPending, false},
		{JobStatusComplete, JobStatusFailed, false},
		{JobStatusFailed, JobStatusRunning, false},
		{JobStatusTimedOut, JobStatusComplete, false},
		// Idempotent polls re-report the same status.
		{JobStatusRunning, JobStatusRunning, true},
		{JobStatusComplete, JobStatusComplete, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestJobStatusJSON(t *testing.T) {
	data, err := json.Marshal(JobStatusRunning)
	require.NoError(t, err)
	assert.Equal(t, `"running"`, string(data))

	var s JobStatus
	require.NoError(t, json.Unmarshal([]byte(`"timed_out"`), &s))
	assert.Equal(t, JobStatusTimedOut, s)

	assert.Error(t, json.Unmarshal([]byte(`"exploded"`), &s))
}

func TestBackendKind(t *testing.T) {
	assert.True(t, BackendKindLocalSimulator.IsValid())
	assert.True(t, BackendKindQueuedRemote.IsValid())
	assert.False(t, BackendKind("cloud").IsValid())
}
