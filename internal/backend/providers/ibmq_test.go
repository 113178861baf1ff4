package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maurorisonho/Houdinis-sub002/internal/backend"
	"github.com/maurorisonho/Houdinis-sub002/internal/credential"
	"github.com/maurorisonho/Houdinis-sub002/internal/quantum"
	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// fakeQueueServer emulates the provider's three-endpoint job API.
type fakeQueueServer struct {
	mu          sync.Mutex
	token       string
	pollsToDone int
	polls       map[string]int
	next        int
	submitCode  int
}

func newFakeQueueServer() *fakeQueueServer {
	return &fakeQueueServer{token: "secret-token", polls: make(map[string]int)}
}

func (f *fakeQueueServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if f.submitCode != 0 {
			w.WriteHeader(f.submitCode)
			return
		}
		var req ibmqSubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Program) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.next++
		id := "job-" + string(rune('a'+f.next-1))
		f.polls[id] = 0
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ibmqJobResponse{ID: id, Status: "queued"})
	})
	mux.HandleFunc("GET /jobs/{ref}", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ref := r.PathValue("ref")
		f.mu.Lock()
		f.polls[ref]++
		done := f.polls[ref] > f.pollsToDone
		pos := f.pollsToDone - f.polls[ref] + 1
		f.mu.Unlock()

		resp := ibmqJobResponse{ID: ref, Status: "queued", QueuePosition: pos}
		if done {
			expiry := time.Now().Add(24 * time.Hour)
			resp.Status = "completed"
			resp.QueuePosition = 0
			resp.ExpiresAt = &expiry
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /jobs/{ref}/result", func(w http.ResponseWriter, r *http.Request) {
		if !f.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(ibmqResultResponse{
			Counts: map[string]int{"00": 250, "11": 262},
			Shots:  512,
		})
	})
	return mux
}

func (f *fakeQueueServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func newIBMQForTest(t *testing.T, srv *httptest.Server, token string) *IBMQBackend {
	t.Helper()
	return NewIBMQBackend(IBMQConfig{
		ID:        "ibm_test",
		Endpoint:  srv.URL,
		MaxQubits: 127,
		MaxShots:  20000,
	}, credential.NewStaticProvider(map[string]string{"ibm_test": token}))
}

func TestIBMQSubmitPollFetch(t *testing.T) {
	fake := newFakeQueueServer()
	fake.pollsToDone = 2
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	b := newIBMQForTest(t, srv, "secret-token")
	ctx := context.Background()

	handle, err := b.Submit(ctx, backend.JobSpec{
		Circuit: quantum.NewCircuit(2).H(0).CX(0, 1),
		Shots:   512,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, handle.ProviderRef)

	info, err := b.Poll(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusRunning, info.Status)
	assert.Equal(t, 2, info.QueuePosition)

	_, err = b.Poll(ctx, handle)
	require.NoError(t, err)

	info, err = b.Poll(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusComplete, info.Status)
	require.NotNil(t, info.HandleExpiry, "provider advertises a handle validity window")

	result, err := b.Fetch(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, 512, result.TotalCounts())
	assert.Equal(t, "ibm_quantum", result.Metadata["provider"])
}

func TestIBMQRejectedCredentials(t *testing.T) {
	fake := newFakeQueueServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	b := newIBMQForTest(t, srv, "wrong-token")

	_, err := b.Submit(context.Background(), backend.JobSpec{
		Circuit: quantum.NewCircuit(1).H(0),
		Shots:   10,
	})
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_AUTH_FAILED, code)
	assert.False(t, types.IsRetryable(err))
}

func TestIBMQMissingCredentials(t *testing.T) {
	fake := newFakeQueueServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	b := NewIBMQBackend(IBMQConfig{ID: "ibm_test", Endpoint: srv.URL},
		credential.NewStaticProvider(nil))

	_, err := b.Submit(context.Background(), backend.JobSpec{
		Circuit: quantum.NewCircuit(1).H(0),
		Shots:   10,
	})
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_AUTH_FAILED, code)
}

func TestIBMQServerErrorIsRetryable(t *testing.T) {
	fake := newFakeQueueServer()
	fake.submitCode = http.StatusServiceUnavailable
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	b := newIBMQForTest(t, srv, "secret-token")

	_, err := b.Submit(context.Background(), backend.JobSpec{
		Circuit: quantum.NewCircuit(1).H(0),
		Shots:   10,
	})
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_UNAVAILABLE, code)
	assert.True(t, types.IsRetryable(err))
}

func TestIBMQUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // deliberately closed before use

	b := NewIBMQBackend(IBMQConfig{ID: "ibm_test", Endpoint: srv.URL},
		credential.NewStaticProvider(map[string]string{"ibm_test": "tok"}))

	_, err := b.Poll(context.Background(), backend.JobHandle{ProviderRef: "job-a"})
	require.Error(t, err)
	code, _ := types.CodeOf(err)
	assert.Equal(t, types.BACKEND_UNAVAILABLE, code)
	assert.True(t, types.IsRetryable(err))
}

func TestIBMQPing(t *testing.T) {
	fake := newFakeQueueServer()
	srv := httptest.NewServer(fake.handler())

	b := newIBMQForTest(t, srv, "secret-token")
	assert.NoError(t, b.Ping(context.Background()),
		"any HTTP answer below 500 counts as reachable")

	srv.Close()
	assert.Error(t, b.Ping(context.Background()))
}

func TestMapProviderStatus(t *testing.T) {
	assert.Equal(t, types.JobStatusComplete, mapProviderStatus("Completed"))
	assert.Equal(t, types.JobStatusComplete, mapProviderStatus("DONE"))
	assert.Equal(t, types.JobStatusFailed, mapProviderStatus("failed"))
	assert.Equal(t, types.JobStatusFailed, mapProviderStatus("cancelled"))
	assert.Equal(t, types.JobStatusRunning, mapProviderStatus("queued"))
	assert.Equal(t, types.JobStatusRunning, mapProviderStatus("validating"))
}
