package internal

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.SetErr(&nullWriter{})
	return cmd
}

type nullWriter struct{}

func (*nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, ExitSuccess},
		{"cancelled", context.Canceled, ExitCancelled},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ExitTimeout},
		{"cli error", NewCLIError(ExitConfigError, "bad config"), ExitConfigError},
		{"wrapped cli error", fmt.Errorf("outer: %w", WrapError(7, "inner", errors.New("cause"))), 7},
		{"config load", types.NewError(types.CONFIG_LOAD_FAILED, "nope"), ExitConfigError},
		{"config validation", types.NewError(types.CONFIG_VALIDATION_FAILED, "nope"), ExitConfigError},
		{"empty registry", types.NewError(types.REGISTRY_EMPTY, "no modules"), ExitRegistryError},
		{"job timeout", types.NewRetryableError(types.JOB_TIMED_OUT, "still queued"), ExitTimeout},
		{"other framework error", types.NewError(types.MODULE_NOT_FOUND, "nope"), ExitError},
		{"plain error", errors.New("boom"), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HandleError(newTestCmd(), tt.err))
		})
	}
}

func TestCLIErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := WrapError(ExitError, "wrapper", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "wrapper")
	assert.Contains(t, err.Error(), "root cause")
}
