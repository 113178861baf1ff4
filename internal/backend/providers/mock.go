package providers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// MockBackend is a configurable in-memory queued backend for tests and
// offline demos. It completes each job after a fixed number of polls,
// which lets tests exercise the backoff loop, timeouts, and late fetches
// without a network.
type MockBackend struct {
	mu sync.Mutex

	// ID overrides the registry id (default "mock").
	ID string
	// Kind defaults to queued-remote.
	Kind types.BackendKind
	// PollsUntilDone is how many Poll calls a job stays running before
	// turning complete. Zero means complete on the first poll.
	PollsUntilDone int
	// SubmitErr, when set, is returned by every Submit call.
	SubmitErr error
	// FailJobs makes completed jobs report failed instead.
	FailJobs bool
	// Counts is the canned result distribution. When nil, every shot
	// lands on a single all-zeros bitstring.
	Counts map[string]int
	// HandleExpiry, when set, is attached to every status report.
	HandleExpiry *time.Time

	jobs map[string]*mockJob
	next int
}

type mockJob struct {
	spec  backend.JobSpec
	polls int
}

// NewMockBackend creates a mock queued backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		ID:   "mock",
		Kind: types.BackendKindQueuedRemote,
		jobs: make(map[string]*mockJob),
	}
}

// Descriptor implements backend.Backend.
func (m *MockBackend) Descriptor() backend.Descriptor {
	kind := m.Kind
	if kind == "" {
		kind = types.BackendKindQueuedRemote
	}
	return backend.Descriptor{
		ID:          m.ID,
		Kind:        kind,
		DisplayName: "Mock queued backend",
		MaxQubits:   32,
		MaxShots:    1 << 16,
	}
}

// Submit implements backend.Backend.
func (m *MockBackend) Submit(ctx context.Context, spec backend.JobSpec) (backend.JobHandle, error) {
	if m.SubmitErr != nil {
		return backend.JobHandle{}, m.SubmitErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	ref := fmt.Sprintf("mock-%d", m.next)
	m.jobs[ref] = &mockJob{spec: spec}
	return backend.JobHandle{ProviderRef: ref}, nil
}

// Poll implements backend.Backend.
func (m *MockBackend) Poll(ctx context.Context, handle backend.JobHandle) (backend.StatusInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[handle.ProviderRef]
	if !ok {
		return backend.StatusInfo{}, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("mock backend has no job %q", handle.ProviderRef))
	}

	job.polls++
	info := backend.StatusInfo{HandleExpiry: m.HandleExpiry}
	if job.polls <= m.PollsUntilDone {
		info.Status = types.JobStatusRunning
		info.QueuePosition = m.PollsUntilDone - job.polls + 1
		return info, nil
	}

	if m.FailJobs {
		info.Status = types.JobStatusFailed
		info.Message = "mock failure"
	} else {
		info.Status = types.JobStatusComplete
	}
	return info, nil
}

// Fetch implements backend.Backend.
func (m *MockBackend) Fetch(ctx context.Context, handle backend.JobHandle) (*backend.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[handle.ProviderRef]
	if !ok {
		return nil, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("mock backend has no job %q", handle.ProviderRef))
	}

	counts := m.Counts
	if counts == nil {
		n := job.spec.Circuit.Qubits
		zeros := make([]byte, n)
		for i := range zeros {
			zeros[i] = '0'
		}
		counts = map[string]int{string(zeros): job.spec.Shots}
	}

	return &backend.Result{
		Counts:   counts,
		Metadata: map[string]any{"provider": "mock"},
	}, nil
}
