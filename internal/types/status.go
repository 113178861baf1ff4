package types

import (
	"encoding/json"
	"fmt"
)

// JobStatus represents the lifecycle state of a backend job.
type JobStatus string

const (
	JobStatusPending  JobStatus = "pending"
	JobStatusRunning  JobStatus = "running"
	JobStatusComplete JobStatus = "complete"
	JobStatusFailed   JobStatus = "failed"
	JobStatusTimedOut JobStatus = "timed_out"
)

// String returns the string representation of JobStatus.
func (s JobStatus) String() string {
	return string(s)
}

// IsValid checks if the JobStatus is a valid value.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusComplete,
		JobStatusFailed, JobStatusTimedOut:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status is a final state. No transition
// out of a terminal state is permitted.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusComplete, JobStatusFailed, JobStatusTimedOut:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the monotonic lifecycle
// pending -> running -> {complete|failed|timed_out} permits moving from
// s to next. A status may always "transition" to itself (idempotent polls).
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	switch s {
	case JobStatusPending:
		return next == JobStatusRunning || next.IsTerminal()
	case JobStatusRunning:
		return next.IsTerminal()
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (s JobStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := JobStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid job status: %s", str)
	}

	*s = status
	return nil
}

// BackendKind distinguishes synchronous in-process backends from
// asynchronous queued remote providers.
type BackendKind string

const (
	BackendKindLocalSimulator BackendKind = "local-simulator"
	BackendKindQueuedRemote   BackendKind = "queued-remote"
)

// String returns the string representation of BackendKind.
func (k BackendKind) String() string {
	return string(k)
}

// IsValid checks if the BackendKind is a valid value.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendKindLocalSimulator, BackendKindQueuedRemote:
		return true
	default:
		return false
	}
}
