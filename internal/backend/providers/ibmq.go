package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/credential"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

const (
	// ibmqSubmitTimeout bounds one submit round trip.
	ibmqSubmitTimeout = 30 * time.Second
	// ibmqPollTimeout bounds one poll or fetch round trip; the overall
	// wait deadline belongs to the caller.
	ibmqPollTimeout = 15 * time.Second
	// ibmqRequestsPerSecond rate-limits calls against the shared queue API.
	ibmqRequestsPerSecond = 5
)

// IBMQConfig configures one IBM Quantum queued backend instance.
type IBMQConfig struct {
	// ID is the registry id (e.g. "ibmq_brisbane").
	ID string
	// DisplayName is shown in `show backends`.
	DisplayName string
	// Endpoint is the API base URL.
	Endpoint string
	// Region selects a provider region, sent as a header when non-empty.
	Region string
	// MaxQubits and MaxShots are the provider-declared capacity limits.
	MaxQubits int
	MaxShots  int
}

// IBMQBackend submits jobs to an IBM Quantum style queued REST API:
// POST /jobs enqueues, GET /jobs/{ref} reports status, and
// GET /jobs/{ref}/result returns counts once terminal. Credentials are
// resolved per call through the narrow provider accessor and never cached.
type IBMQBackend struct {
	cfg     IBMQConfig
	creds   credential.Provider
	client  *http.Client
	limiter *rate.Limiter
}

// NewIBMQBackend creates a queued remote backend over cfg.
func NewIBMQBackend(cfg IBMQConfig, creds credential.Provider) *IBMQBackend {
	return &IBMQBackend{
		cfg:     cfg,
		creds:   creds,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(ibmqRequestsPerSecond), ibmqRequestsPerSecond),
	}
}

// Descriptor implements backend.Backend.
func (b *IBMQBackend) Descriptor() backend.Descriptor {
	return backend.Descriptor{
		ID:           b.cfg.ID,
		Kind:         types.BackendKindQueuedRemote,
		DisplayName:  b.cfg.DisplayName,
		RequiresAuth: true,
		MaxQubits:    b.cfg.MaxQubits,
		MaxShots:     b.cfg.MaxShots,
	}
}

type ibmqSubmitRequest struct {
	Program json.RawMessage   `json:"program"`
	Shots   int               `json:"shots"`
	Tags    map[string]string `json:"tags,omitempty"`
}

type ibmqJobResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	QueuePosition int    `json:"queue_position"`
	Error         string `json:"error,omitempty"`
	// ExpiresAt is the provider-declared handle validity window, when the
	// provider advertises one.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type ibmqResultResponse struct {
	Counts map[string]int `json:"counts"`
	Shots  int            `json:"shots"`
}

// Submit implements backend.Backend.
func (b *IBMQBackend) Submit(ctx context.Context, spec backend.JobSpec) (backend.JobHandle, error) {
	program, err := json.Marshal(spec.Circuit)
	if err != nil {
		return backend.JobHandle{}, types.WrapError(types.BACKEND_UNAVAILABLE,
			"failed to serialize circuit", err)
	}

	body, err := json.Marshal(ibmqSubmitRequest{
		Program: program,
		Shots:   spec.Shots,
		Tags:    spec.Metadata,
	})
	if err != nil {
		return backend.JobHandle{}, types.WrapError(types.BACKEND_UNAVAILABLE,
			"failed to encode submit request", err)
	}

	var resp ibmqJobResponse
	if err := b.call(ctx, http.MethodPost, "/jobs", body, ibmqSubmitTimeout, &resp); err != nil {
		return backend.JobHandle{}, err
	}
	if resp.ID == "" {
		return backend.JobHandle{}, types.NewError(types.BACKEND_UNAVAILABLE,
			"provider accepted the job but returned no job id")
	}

	return backend.JobHandle{ProviderRef: resp.ID}, nil
}

// Poll implements backend.Backend.
func (b *IBMQBackend) Poll(ctx context.Context, handle backend.JobHandle) (backend.StatusInfo, error) {
	var resp ibmqJobResponse
	path := fmt.Sprintf("/jobs/%s", handle.ProviderRef)
	if err := b.call(ctx, http.MethodGet, path, nil, ibmqPollTimeout, &resp); err != nil {
		return backend.StatusInfo{}, err
	}

	return backend.StatusInfo{
		Status:        mapProviderStatus(resp.Status),
		QueuePosition: resp.QueuePosition,
		HandleExpiry:  resp.ExpiresAt,
		Message:       resp.Error,
	}, nil
}

// Fetch implements backend.Backend.
func (b *IBMQBackend) Fetch(ctx context.Context, handle backend.JobHandle) (*backend.Result, error) {
	path := fmt.Sprintf("/jobs/%s/result", handle.ProviderRef)

	raw, err := b.callRaw(ctx, http.MethodGet, path, nil, ibmqPollTimeout)
	if err != nil {
		return nil, err
	}

	var resp ibmqResultResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, types.WrapError(types.BACKEND_UNAVAILABLE,
			"failed to decode provider result", err)
	}

	return &backend.Result{
		Counts: resp.Counts,
		Metadata: map[string]any{
			"shots":    resp.Shots,
			"provider": "ibm_quantum",
		},
		Raw: raw,
	}, nil
}

// call performs one rate-limited, timeout-bounded API round trip and
// decodes the JSON response into out.
func (b *IBMQBackend) call(ctx context.Context, method, path string, body []byte, timeout time.Duration, out any) error {
	raw, err := b.callRaw(ctx, method, path, body, timeout)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return types.WrapError(types.BACKEND_UNAVAILABLE,
			"failed to decode provider response", err)
	}
	return nil
}

func (b *IBMQBackend) callRaw(ctx context.Context, method, path string, body []byte, timeout time.Duration) ([]byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, types.WrapError(types.BACKEND_UNAVAILABLE, "rate limiter wait interrupted", err)
	}

	tok, err := b.creds.Resolve(b.cfg.ID)
	if err != nil {
		return nil, types.WrapError(types.BACKEND_AUTH_FAILED,
			fmt.Sprintf("no credentials for backend %s", b.cfg.ID), err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(b.cfg.Endpoint, "/")+path, reader)
	if err != nil {
		return nil, types.WrapError(types.BACKEND_UNAVAILABLE, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if b.cfg.Region != "" {
		req.Header.Set("X-Region", b.cfg.Region)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s unreachable: %v", b.cfg.ID, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("failed to read provider response: %v", err))
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, types.NewError(types.BACKEND_AUTH_FAILED,
			fmt.Sprintf("backend %s rejected credentials (HTTP %d)", b.cfg.ID, resp.StatusCode))
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s throttled the request (HTTP 429)", b.cfg.ID))
	case resp.StatusCode >= 500:
		return nil, types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s server error (HTTP %d)", b.cfg.ID, resp.StatusCode))
	case resp.StatusCode >= 400:
		return nil, types.NewError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s rejected the request (HTTP %d): %s",
				b.cfg.ID, resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	return raw, nil
}

// Ping reports whether the provider endpoint is reachable. It is used by
// the console's backend listing and deliberately skips authentication: a
// 401 still proves the service is up.
func (b *IBMQBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(b.cfg.Endpoint, "/")+"/health", nil)
	if err != nil {
		return types.WrapError(types.BACKEND_UNAVAILABLE, "failed to build health request", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s unreachable: %v", b.cfg.ID, err))
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 500 {
		return types.NewRetryableError(types.BACKEND_UNAVAILABLE,
			fmt.Sprintf("backend %s health check failed (HTTP %d)", b.cfg.ID, resp.StatusCode))
	}
	return nil
}

// mapProviderStatus normalizes IBM Quantum job states onto the framework
// lifecycle. Anything pre-terminal maps to running: the distinction between
// queued and executing lives in QueuePosition, not the status machine.
func mapProviderStatus(s string) types.JobStatus {
	switch strings.ToLower(s) {
	case "completed", "complete", "done":
		return types.JobStatusComplete
	case "failed", "error", "cancelled", "canceled":
		return types.JobStatusFailed
	default:
		return types.JobStatusRunning
	}
}
