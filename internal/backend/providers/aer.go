// Package providers contains the concrete backend implementations: the
// in-process aer statevector simulator, the IBM Quantum queued REST
// client, and a mock provider used by tests and offline demos.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// AerSimulatorID is the registry id of the default local simulator.
const AerSimulatorID = "aer_simulator"

// AerSimulator executes jobs synchronously in-process on the statevector
// simulator. Poll is an immediate no-op returning the terminal status, so
// callers never branch on provider kind.
type AerSimulator struct {
	mu   sync.Mutex
	seed int64
	jobs map[string]*aerJob
	next int
}

type aerJob struct {
	status  types.JobStatus
	result  *backend.Result
	failure string
}

// NewAerSimulator creates a simulator backend. seed fixes measurement
// sampling for reproducible runs; pass 0 to derive one from the clock.
func NewAerSimulator(seed int64) *AerSimulator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &AerSimulator{
		seed: seed,
		jobs: make(map[string]*aerJob),
	}
}

// Descriptor implements backend.Backend.
func (s *AerSimulator) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:           AerSimulatorID,
		Kind:         types.BackendKindLocalSimulator,
		DisplayName:  "Aer statevector simulator (local)",
		RequiresAuth: false,
		MaxQubits:    quantum.MaxSimulatorQubits,
		MaxShots:     1 << 20,
	}
}

// Submit implements backend.Backend. The job executes synchronously; the
// returned handle refers to an already-terminal job.
func (s *AerSimulator) Submit(ctx context.Context, spec backend.JobSpec) (backend.JobHandle, error) {
	s.mu.Lock()
	s.next++
	ref := fmt.Sprintf("aer-%d", s.next)
	seed := s.seed + int64(s.next)
	s.mu.Unlock()

	job := &aerJob{}
	sim := quantum.NewSimulator(seed)
	counts, err := sim.Run(spec.Circuit, spec.Shots)
	if err != nil {
		job.status = types.JobStatusFailed
		job.failure = err.Error()
	} else {
		raw, _ := json.Marshal(map[string]any{"counts": counts, "seed": seed})
		job.status = types.JobStatusComplete
		job.result = &backend.Result{
			Counts: counts,
			Metadata: map[string]any{
				"shots":     spec.Shots,
				"simulator": "statevector",
			},
			Raw: raw,
		}
		for k, v := range spec.Metadata {
			job.result.Metadata[k] = v
		}
	}

	s.mu.Lock()
	s.jobs[ref] = job
	s.mu.Unlock()

	return backend.JobHandle{ProviderRef: ref}, nil
}

// Poll implements backend.Backend, returning the terminal status recorded
// at submission.
func (s *AerSimulator) Poll(ctx context.Context, handle backend.JobHandle) (backend.StatusInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[handle.ProviderRef]
	if !ok {
		return backend.StatusInfo{}, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("simulator has no job %q", handle.ProviderRef))
	}
	return backend.StatusInfo{Status: job.status, Message: job.failure}, nil
}

// Fetch implements backend.Backend.
func (s *AerSimulator) Fetch(ctx context.Context, handle backend.JobHandle) (*backend.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[handle.ProviderRef]
	if !ok {
		return nil, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("simulator has no job %q", handle.ProviderRef))
	}
	if job.status != types.JobStatusComplete {
		return nil, types.NewError(types.SIMULATION_FAILED,
			fmt.Sprintf("simulation failed: %s", job.failure))
	}
	return job.result, nil
}
