package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

const (
	// pollInitialInterval is the first poll delay for queued backends.
	pollInitialInterval = 1 * time.Second
	// pollMaxInterval caps the exponential backoff.
	pollMaxInterval = 30 * time.Second
	// pollJitterFraction spreads poll intervals by ±20% to avoid
	// synchronized polling against shared provider queues.
	pollJitterFraction = 0.2
)

// Manager owns the backend registry, the job table, and the execution
// pipeline: capacity checks, submission, polling with backoff, and the
// fallback-to-simulator policy. The registry is built once at startup and
// treated as read-only afterwards.
type Manager struct {
	mu       sync.RWMutex
	backends map[string]Backend
	order    []string

	jobs   *JobStore
	logger *slog.Logger

	// fallbackID names the local simulator substituted when a remote
	// backend is unreachable and the module is fallback-eligible.
	fallbackID string

	// pollInitial and pollMax override the backoff schedule in tests.
	pollInitial time.Duration
	pollMax     time.Duration
}

// NewManager creates a manager with an empty registry.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backends:    make(map[string]Backend),
		jobs:        NewJobStore(),
		logger:      logger,
		pollInitial: pollInitialInterval,
		pollMax:     pollMaxInterval,
	}
}

// Register adds a backend to the registry. Duplicate ids are rejected.
func (m *Manager) Register(b Backend) error {
	desc := b.Descriptor()
	if desc.ID == "" {
		return types.NewError(types.BACKEND_UNAVAILABLE, "backend id cannot be empty")
	}
	if !desc.Kind.IsValid() {
		return types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s declares invalid kind %q", desc.ID, desc.Kind))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.backends[desc.ID]; exists {
		return types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s already registered", desc.ID))
	}
	m.backends[desc.ID] = b
	m.order = append(m.order, desc.ID)
	sort.Strings(m.order)
	return nil
}

// SetFallback names the local simulator used by the fallback policy.
// It must already be registered.
func (m *Manager) SetFallback(id string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[id]
	if !ok {
		return types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("fallback backend %s is not registered", id))
	}
	if b.Descriptor().Kind != types.BackendKindLocalSimulator {
		return types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("fallback backend %s must be a local simulator", id))
	}
	m.fallbackID = id
	return nil
}

// Resolve returns the backend registered under id, or BACKEND_UNAVAILABLE.
func (m *Manager) Resolve(id string) (Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.backends[id]
	if !ok {
		return nil, types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("no backend registered as %q", id))
	}
	return b, nil
}

// List returns descriptors for all registered backends in lexicographic
// id order.
func (m *Manager) List() []Descriptor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Descriptor, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.backends[id].Descriptor())
	}
	return out
}

// Jobs exposes the job table for listings and manual fetches.
func (m *Manager) Jobs() *JobStore {
	return m.jobs
}

// Submit validates spec against the backend's declared capacity, submits
// it, and tracks the job. The returned job is pending until the provider
// accepts it and running afterwards.
func (m *Manager) Submit(ctx context.Context, backendID string, spec JobSpec) (*Job, error) {
	b, err := m.Resolve(backendID)
	if err != nil {
		return nil, err
	}

	desc := b.Descriptor()
	if spec.Circuit == nil {
		return nil, types.NewError(types.SIMULATION_FAILED, "job spec has no circuit")
	}
	if desc.MaxQubits > 0 && spec.Circuit.Qubits > desc.MaxQubits {
		return nil, types.NewError(types.BACKEND_CAPACITY_EXCEEDED,
			fmt.Sprintf("backend %s supports at most %d qubits, job needs %d",
				desc.ID, desc.MaxQubits, spec.Circuit.Qubits))
	}
	if desc.MaxShots > 0 && spec.Shots > desc.MaxShots {
		return nil, types.NewError(types.BACKEND_CAPACITY_EXCEEDED,
			fmt.Sprintf("backend %s allows at most %d shots, job requests %d",
				desc.ID, desc.MaxShots, spec.Shots))
	}

	job := newJob(spec)
	m.jobs.add(job)

	handle, err := b.Submit(ctx, spec)
	if err != nil {
		_ = job.fail(err.Error())
		return job, err
	}
	handle.ID = job.ID()
	handle.BackendID = desc.ID
	job.setHandle(handle)
	_ = job.transition(types.JobStatusRunning)

	m.logger.Debug("job submitted",
		"job_id", job.ID().Short(),
		"backend", desc.ID,
		"shots", spec.Shots,
		"qubits", spec.Circuit.Qubits)
	return job, nil
}

// AwaitResult polls the job's backend until a terminal status or until
// timeout elapses. Queued backends are polled with exponential backoff
// (1s doubling to a 30s cap, jittered ±20%); synchronous backends report a
// terminal status on the first poll. On timeout the job is marked
// timed_out locally, the remote job is NOT cancelled, and the handle stays
// fetchable.
func (m *Manager) AwaitResult(ctx context.Context, job *Job, timeout time.Duration) (*Result, error) {
	if job.Status().IsTerminal() {
		if r := job.Result(); r != nil {
			return r, nil
		}
		return nil, types.NewError(types.MODULE_RUN_FAILED,
			fmt.Sprintf("job %s already ended: %s", job.ID().Short(), job.Failure()))
	}

	b, err := m.Resolve(job.Handle().BackendID)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(timeout)
	interval := m.pollInitial

	for {
		info, err := b.Poll(ctx, job.Handle())
		if err != nil {
			if types.IsRetryable(err) && time.Now().Before(deadline) {
				m.logger.Debug("poll failed, retrying",
					"job_id", job.ID().Short(), "error", err)
			} else {
				_ = job.fail(err.Error())
				return nil, err
			}
		} else if info.Status.IsTerminal() {
			return m.collect(ctx, b, job, info)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			_ = job.transition(types.JobStatusTimedOut)
			return nil, types.NewRetryableError(types.JOB_TIMED_OUT,
				fmt.Sprintf("job %s did not finish within %s; it is still running remotely, fetch it later with its handle",
					job.ID().Short(), timeout))
		}

		wait := jitter(interval)
		if wait > remaining {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			// Local wait cancelled; the remote job keeps running and the
			// handle stays fetchable.
			return nil, types.WrapError(types.JOB_TIMED_OUT,
				fmt.Sprintf("wait for job %s cancelled; fetch it later with its handle", job.ID().Short()),
				ctx.Err())
		case <-time.After(wait):
		}

		interval *= 2
		if interval > m.pollMax {
			interval = m.pollMax
		}
	}
}

// Fetch retrieves the result of a previously submitted job by id prefix,
// regardless of whether its local wait timed out or was cancelled. A job
// that meanwhile reached a terminal state at the provider completes here.
func (m *Manager) Fetch(ctx context.Context, idPrefix string) (*Result, error) {
	job, err := m.jobs.Find(idPrefix)
	if err != nil {
		return nil, err
	}
	if r := job.Result(); r != nil {
		return r, nil
	}
	if job.Status() == types.JobStatusFailed {
		return nil, types.NewError(types.MODULE_RUN_FAILED,
			fmt.Sprintf("job %s failed: %s", job.ID().Short(), job.Failure()))
	}

	b, err := m.Resolve(job.Handle().BackendID)
	if err != nil {
		return nil, err
	}

	info, err := b.Poll(ctx, job.Handle())
	if err != nil {
		return nil, err
	}
	if !info.Status.IsTerminal() {
		return nil, types.NewRetryableError(types.JOB_TIMED_OUT,
			fmt.Sprintf("job %s is still %s at the provider", job.ID().Short(), info.Status))
	}

	// A locally timed-out job may have completed remotely since. The local
	// record stays terminal; only the result is attached.
	return m.collect(ctx, b, job, info)
}

// Execute is the module-facing entry point: submit to the requested
// backend and await the result. When the remote backend is unreachable or
// rejects credentials and the module declared itself fallback-eligible,
// the job transparently reruns on the local simulator and the result is
// tagged with fallback_used; the substitution is observable, never silent.
func (m *Manager) Execute(ctx context.Context, backendID string, spec JobSpec, timeout time.Duration, fallbackEligible bool) (*Result, *Job, error) {
	job, err := m.Submit(ctx, backendID, spec)
	if err == nil {
		result, waitErr := m.AwaitResult(ctx, job, timeout)
		if waitErr == nil {
			return result, job, nil
		}
		return nil, job, waitErr
	}

	if !fallbackEligible || !isFallbackTrigger(err) || m.fallbackID == "" || m.fallbackID == backendID {
		return nil, job, err
	}

	m.logger.Warn("remote backend unavailable, falling back to local simulator",
		"requested", backendID,
		"fallback", m.fallbackID,
		"reason", err.Error())

	fbJob, fbErr := m.Submit(ctx, m.fallbackID, spec)
	if fbErr != nil {
		return nil, fbJob, fbErr
	}
	result, fbErr := m.AwaitResult(ctx, fbJob, timeout)
	if fbErr != nil {
		return nil, fbJob, fbErr
	}
	if result.Metadata == nil {
		result.Metadata = make(map[string]any)
	}
	result.Metadata["fallback_used"] = true
	result.Metadata["fallback_from"] = backendID
	return result, fbJob, nil
}

// collect fetches and attaches the result for a job whose provider status
// is terminal.
func (m *Manager) collect(ctx context.Context, b Backend, job *Job, info StatusInfo) (*Result, error) {
	switch info.Status {
	case types.JobStatusFailed:
		_ = job.fail(info.Message)
		msg := info.Message
		if msg == "" {
			msg = "provider reported failure"
		}
		return nil, types.NewError(types.SIMULATION_FAILED,
			fmt.Sprintf("job %s failed: %s", job.ID().Short(), msg))
	case types.JobStatusComplete:
		result, err := b.Fetch(ctx, job.Handle())
		if err != nil {
			_ = job.fail(err.Error())
			return nil, err
		}
		if result.Metadata == nil {
			result.Metadata = make(map[string]any)
		}
		result.Metadata["backend_id"] = b.Descriptor().ID
		if err := job.complete(result); err != nil {
			// Job was locally timed out before the provider finished; keep
			// the terminal local status but still hand back the result.
			m.logger.Debug("attaching result to locally terminal job",
				"job_id", job.ID().Short(), "status", job.Status())
			job.mu.Lock()
			job.result = result
			job.mu.Unlock()
		}
		return result, nil
	default:
		return nil, types.NewError(types.SIMULATION_FAILED,
			fmt.Sprintf("job %s reported unexpected terminal status %s", job.ID().Short(), info.Status))
	}
}

// isFallbackTrigger reports whether an error represents a remote backend
// being unreachable or rejecting authentication.
func isFallbackTrigger(err error) bool {
	var herr *types.HoudinisError
	if !errors.As(err, &herr) {
		return false
	}
	switch herr.Code {
	case types.BACKEND_UNAVAILABLE, types.BACKEND_AUTH_FAILED:
		return true
	default:
		return false
	}
}

// jitter spreads d by ±pollJitterFraction.
func jitter(d time.Duration) time.Duration {
	spread := float64(d) * pollJitterFraction
	offset := (rand.Float64()*2 - 1) * spread
	return time.Duration(float64(d) + offset)
}
