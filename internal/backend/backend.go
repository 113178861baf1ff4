// Package backend unifies heterogeneous quantum computation providers
// behind one submit/poll/fetch contract. Synchronous local simulators and
// asynchronous queued cloud providers are indistinguishable to callers:
// a simulator's Poll simply reports a terminal status immediately.
package backend

import (
	"context"
	"encoding/json"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// JobSpec is a backend-agnostic description of one unit of work.
type JobSpec struct {
	// Module records which attack module produced the spec, for job listings.
	Module string `json:"module"`
	// Circuit is the program to execute.
	Circuit *quantum.Circuit `json:"circuit"`
	// Shots is the number of measurement samples requested.
	Shots int `json:"shots"`
	// Metadata carries module-specific annotations into the result.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// JobHandle identifies a submitted job on a specific backend. ProviderRef
// is the provider's own job identifier and stays meaningful for manual
// fetches after a local wait was abandoned.
type JobHandle struct {
	ID          types.ID `json:"id"`
	BackendID   string   `json:"backend_id"`
	ProviderRef string   `json:"provider_ref"`
}

// StatusInfo is a point-in-time view of a job's provider-side state.
type StatusInfo struct {
	Status types.JobStatus `json:"status"`
	// QueuePosition is the provider queue slot, when reported (0 = unknown).
	QueuePosition int `json:"queue_position,omitempty"`
	// HandleExpiry is the provider-declared deadline after which the job
	// handle may no longer be fetchable. Nil when the provider does not
	// advertise one; callers must not assume either behavior.
	HandleExpiry *time.Time `json:"handle_expiry,omitempty"`
	// Message carries provider diagnostic text for failed jobs.
	Message string `json:"message,omitempty"`
}

// Result is the normalized outcome of a completed job.
type Result struct {
	// Counts maps measured bitstrings to observed frequencies. For a
	// successfully completed job the frequencies sum to the requested shots.
	Counts map[string]int `json:"counts"`
	// Metadata carries execution annotations (backend id, elapsed time,
	// fallback_used, module-specific findings).
	Metadata map[string]any `json:"metadata,omitempty"`
	// Raw preserves the provider's payload opaquely for debugging.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// TotalCounts returns the sum of all count frequencies.
func (r *Result) TotalCounts() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// Descriptor is the static identity and capacity declaration of a backend.
type Descriptor struct {
	ID           string            `json:"id"`
	Kind         types.BackendKind `json:"kind"`
	DisplayName  string            `json:"display_name"`
	RequiresAuth bool              `json:"requires_auth"`
	// MaxQubits and MaxShots bound job specs at submit time.
	MaxQubits int `json:"max_qubits"`
	MaxShots  int `json:"max_shots"`
}

// Backend is the four-operation contract every provider implementation
// satisfies regardless of whether the underlying service is synchronous
// or asynchronous.
type Backend interface {
	// Descriptor returns the backend's static identity and limits.
	Descriptor() Descriptor

	// Submit enqueues a job and returns its handle. Fails with
	// BACKEND_AUTH_FAILED when credentials are missing or rejected and
	// BACKEND_UNAVAILABLE when the provider is unreachable.
	Submit(ctx context.Context, spec JobSpec) (JobHandle, error)

	// Poll reports the job's current provider-side status. Synchronous
	// backends return a terminal status immediately.
	Poll(ctx context.Context, handle JobHandle) (StatusInfo, error)

	// Fetch retrieves the normalized result for a job that reached a
	// terminal status.
	Fetch(ctx context.Context, handle JobHandle) (*Result, error)
}
