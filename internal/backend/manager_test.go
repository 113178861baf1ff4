package backend

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// fakeSim is a synchronous in-test backend: every job is terminal at
// submission, like the real local simulator.
type fakeSim struct {
	id     string
	counts map[string]int
}

func (f *fakeSim) Descriptor() Descriptor {
	return Descriptor{
		ID:        f.id,
		Kind:      types.BackendKindLocalSimulator,
		MaxQubits: 24,
		MaxShots:  1 << 16,
	}
}

func (f *fakeSim) Submit(ctx context.Context, spec JobSpec) (JobHandle, error) {
	return JobHandle{ProviderRef: "sim-1"}, nil
}

func (f *fakeSim) Poll(ctx context.Context, handle JobHandle) (StatusInfo, error) {
	return StatusInfo{Status: types.JobStatusComplete}, nil
}

func (f *fakeSim) Fetch(ctx context.Context, handle JobHandle) (*Result, error) {
	counts := f.counts
	if counts == nil {
		counts = map[string]int{"00": 100}
	}
	return &Result{Counts: counts}, nil
}

// fakeQueued stays running for pollsUntilDone polls before completing.
type fakeQueued struct {
	mu             sync.Mutex
	id             string
	pollsUntilDone int
	polls          int
	submitErr      error
	failJobs       bool
}

func (f *fakeQueued) Descriptor() Descriptor {
	return Descriptor{
		ID:        f.id,
		Kind:      types.BackendKindQueuedRemote,
		MaxQubits: 127,
		MaxShots:  20000,
	}
}

func (f *fakeQueued) Submit(ctx context.Context, spec JobSpec) (JobHandle, error) {
	if f.submitErr != nil {
		return JobHandle{}, f.submitErr
	}
	return JobHandle{ProviderRef: "remote-1"}, nil
}

func (f *fakeQueued) Poll(ctx context.Context, handle JobHandle) (StatusInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.polls <= f.pollsUntilDone {
		return StatusInfo{Status: types.JobStatusRunning, QueuePosition: f.pollsUntilDone - f.polls + 1}, nil
	}
	if f.failJobs {
		return StatusInfo{Status: types.JobStatusFailed, Message: "hardware fault"}, nil
	}
	return StatusInfo{Status: types.JobStatusComplete}, nil
}

func (f *fakeQueued) Fetch(ctx context.Context, handle JobHandle) (*Result, error) {
	return &Result{Counts: map[string]int{"11": 100}}, nil
}

func newTestManager(t *testing.T, backends ...Backend) *Manager {
	t.Helper()
	m := NewManager(nil)
	m.pollInitial = 5 * time.Millisecond
	m.pollMax = 10 * time.Millisecond
	for _, b := range backends {
		require.NoError(t, m.Register(b))
	}
	return m
}

func bellSpec() JobSpec {
	return JobSpec{
		Module:  "exploit/test",
		Circuit: quantum.NewCircuit(2).H(0).CX(0, 1),
		Shots:   100,
	}
}

func TestRegisterRejectsDuplicateBackends(t *testing.T) {
	m := newTestManager(t, &fakeSim{id: "sim"})
	err := m.Register(&fakeSim{id: "sim"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestSubmitUnknownBackend(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Submit(context.Background(), "nope", bellSpec())
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_UNAVAILABLE, code)
}

func TestSubmitCapacityChecks(t *testing.T) {
	m := newTestManager(t, &fakeQueued{id: "remote"})

	spec := bellSpec()
	spec.Circuit = quantum.NewCircuit(200)
	_, err := m.Submit(context.Background(), "remote", spec)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_CAPACITY_EXCEEDED, code)

	spec = bellSpec()
	spec.Shots = 1 << 20
	_, err = m.Submit(context.Background(), "remote", spec)
	code, _ = types.CodeOf(err)
	assert.Equal(t, types.BACKEND_CAPACITY_EXCEEDED, code)

	spec = bellSpec()
	spec.Circuit = nil
	_, err = m.Submit(context.Background(), "remote", spec)
	code, _ = types.CodeOf(err)
	assert.Equal(t, types.SIMULATION_FAILED, code)
}

func TestExecuteSynchronousBackend(t *testing.T) {
	m := newTestManager(t, &fakeSim{id: "sim", counts: map[string]int{"00": 60, "11": 40}})

	result, job, err := m.Execute(context.Background(), "sim", bellSpec(), time.Second, false)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, 100, result.TotalCounts())
	assert.Equal(t, "sim", result.Metadata["backend_id"])
	assert.Equal(t, types.JobStatusComplete, job.Status())
	assert.NotContains(t, result.Metadata, "fallback_used")
}

func TestAwaitResultPollsQueuedBackend(t *testing.T) {
	remote := &fakeQueued{id: "remote", pollsUntilDone: 3}
	m := newTestManager(t, remote)

	result, job, err := m.Execute(context.Background(), "remote", bellSpec(), 5*time.Second, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"11": 100}, result.Counts)
	assert.Equal(t, types.JobStatusComplete, job.Status())
	assert.GreaterOrEqual(t, remote.polls, 4, "job must have been polled until terminal")
}

func TestAwaitResultTimeoutLeavesJobFetchable(t *testing.T) {
	remote := &fakeQueued{id: "remote", pollsUntilDone: 1000}
	m := newTestManager(t, remote)

	job, err := m.Submit(context.Background(), "remote", bellSpec())
	require.NoError(t, err)

	_, err = m.AwaitResult(context.Background(), job, 40*time.Millisecond)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.JOB_TIMED_OUT, code)
	assert.True(t, types.IsRetryable(err), "timeout leaves the job fetchable")
	assert.Equal(t, types.JobStatusTimedOut, job.Status())

	// The provider finishes later; a manual fetch by id prefix succeeds even
	// though the local record stays timed_out.
	remote.mu.Lock()
	remote.pollsUntilDone = 0
	remote.mu.Unlock()

	result, err := m.Fetch(context.Background(), job.ID().Short())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"11": 100}, result.Counts)
	assert.Equal(t, types.JobStatusTimedOut, job.Status(),
		"late result must not rewrite the terminal local status")
	assert.Same(t, result, job.Result())
}

func TestFetchStillRunning(t *testing.T) {
	remote := &fakeQueued{id: "remote", pollsUntilDone: 1000}
	m := newTestManager(t, remote)

	job, err := m.Submit(context.Background(), "remote", bellSpec())
	require.NoError(t, err)

	_, err = m.Fetch(context.Background(), job.ID().String())
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.JOB_TIMED_OUT, code)
	assert.True(t, types.IsRetryable(err))
}

func TestFetchUnknownJob(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Fetch(context.Background(), "deadbeef")
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.JOB_NOT_FOUND, code)
}

func TestAwaitResultFailedJob(t *testing.T) {
	remote := &fakeQueued{id: "remote", failJobs: true}
	m := newTestManager(t, remote)

	_, job, err := m.Execute(context.Background(), "remote", bellSpec(), time.Second, false)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.SIMULATION_FAILED, code)
	assert.Contains(t, err.Error(), "hardware fault")
	assert.Equal(t, types.JobStatusFailed, job.Status())
}

func TestAwaitResultCancelledWait(t *testing.T) {
	remote := &fakeQueued{id: "remote", pollsUntilDone: 1000}
	m := newTestManager(t, remote)

	job, err := m.Submit(context.Background(), "remote", bellSpec())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err = m.AwaitResult(ctx, job, time.Minute)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.JOB_TIMED_OUT, code)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteFallsBackOnAuthFailure(t *testing.T) {
	remote := &fakeQueued{
		id:        "remote",
		submitErr: types.NewError(types.BACKEND_AUTH_FAILED, "token rejected"),
	}
	sim := &fakeSim{id: "sim", counts: map[string]int{"00": 100}}
	m := newTestManager(t, remote, sim)
	require.NoError(t, m.SetFallback("sim"))

	result, _, err := m.Execute(context.Background(), "remote", bellSpec(), time.Second, true)
	require.NoError(t, err)

	assert.Equal(t, true, result.Metadata["fallback_used"],
		"substitution must be observable in the result")
	assert.Equal(t, "remote", result.Metadata["fallback_from"])
	assert.Equal(t, "sim", result.Metadata["backend_id"])
}

func TestExecuteNoFallbackWhenIneligible(t *testing.T) {
	remote := &fakeQueued{
		id:        "remote",
		submitErr: types.NewRetryableError(types.BACKEND_UNAVAILABLE, "connection refused"),
	}
	sim := &fakeSim{id: "sim"}
	m := newTestManager(t, remote, sim)
	require.NoError(t, m.SetFallback("sim"))

	_, _, err := m.Execute(context.Background(), "remote", bellSpec(), time.Second, false)
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_UNAVAILABLE, code)
}

func TestExecuteNoFallbackOnOtherErrors(t *testing.T) {
	remote := &fakeQueued{
		id:        "remote",
		submitErr: fmt.Errorf("malformed program"),
	}
	sim := &fakeSim{id: "sim"}
	m := newTestManager(t, remote, sim)
	require.NoError(t, m.SetFallback("sim"))

	// A non-availability error is not a fallback trigger even for an
	// eligible module.
	_, _, err := m.Execute(context.Background(), "remote", bellSpec(), time.Second, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed program")
}

func TestSetFallbackRequiresLocalSimulator(t *testing.T) {
	m := newTestManager(t, &fakeQueued{id: "remote"})
	err := m.SetFallback("remote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "local simulator")

	assert.Error(t, m.SetFallback("unregistered"))
}

func TestJobStoreFind(t *testing.T) {
	m := newTestManager(t, &fakeSim{id: "sim"})

	a, err := m.Submit(context.Background(), "sim", bellSpec())
	require.NoError(t, err)
	_, err = m.Submit(context.Background(), "sim", bellSpec())
	require.NoError(t, err)

	found, err := m.Jobs().Find(a.ID().String())
	require.NoError(t, err)
	assert.Same(t, a, found)

	// An empty prefix matches every job.
	_, err = m.Jobs().Find("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	_, err = m.Jobs().Find("zzzz")
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.JOB_NOT_FOUND, code)
}

func TestJobStoreListOrdersBySubmission(t *testing.T) {
	m := newTestManager(t, &fakeSim{id: "sim"})

	a, _ := m.Submit(context.Background(), "sim", bellSpec())
	time.Sleep(2 * time.Millisecond)
	b, _ := m.Submit(context.Background(), "sim", bellSpec())

	jobs := m.Jobs().List()
	require.Len(t, jobs, 2)
	assert.Equal(t, a.ID(), jobs[0].ID())
	assert.Equal(t, b.ID(), jobs[1].ID())
}

func TestListDescriptorsSorted(t *testing.T) {
	m := newTestManager(t, &fakeQueued{id: "zeta"}, &fakeSim{id: "alpha"})

	descs := m.List()
	require.Len(t, descs, 2)
	assert.Equal(t, "alpha", descs[0].ID)
	assert.Equal(t, "zeta", descs[1].ID)
}
