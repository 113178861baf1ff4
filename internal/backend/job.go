package backend

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maurorisonho/Houdinis-sub002/internal/types"
)

// Job tracks one submitted unit of work through its monotonic lifecycle
// pending -> running -> {complete|failed|timed_out}. A timed-out job is
// terminal locally but its handle stays valid for manual fetches as long
// as the provider retains it.
type Job struct {
	mu sync.Mutex

	id          types.ID
	spec        JobSpec
	handle      JobHandle
	status      types.JobStatus
	submittedAt time.Time
	result      *Result
	failure     string
}

// newJob creates a pending job for spec.
func newJob(spec JobSpec) *Job {
	return &Job{
		id:          types.NewID(),
		spec:        spec,
		status:      types.JobStatusPending,
		submittedAt: time.Now(),
	}
}

// ID returns the framework-local job id.
func (j *Job) ID() types.ID { return j.id }

// Spec returns the submitted job spec.
func (j *Job) Spec() JobSpec { return j.spec }

// Handle returns the backend handle assigned at submission.
func (j *Job) Handle() JobHandle {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.handle
}

// Status returns the job's current status.
func (j *Job) Status() types.JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// SubmittedAt returns the local submission time.
func (j *Job) SubmittedAt() time.Time { return j.submittedAt }

// Result returns the attached result, nil until the job completes.
func (j *Job) Result() *Result {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// Failure returns the diagnostic text for a failed job.
func (j *Job) Failure() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.failure
}

// setHandle records the backend handle once submission succeeds.
func (j *Job) setHandle(h JobHandle) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.handle = h
}

// transition moves the job to next, enforcing the monotonic lifecycle.
// Transitions out of a terminal state are rejected.
func (j *Job) transition(next types.JobStatus) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.CanTransitionTo(next) {
		return fmt.Errorf("illegal job status transition %s -> %s", j.status, next)
	}
	j.status = next
	return nil
}

// complete attaches a result and moves the job to complete.
func (j *Job) complete(result *Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.CanTransitionTo(types.JobStatusComplete) {
		return fmt.Errorf("illegal job status transition %s -> %s", j.status, types.JobStatusComplete)
	}
	j.status = types.JobStatusComplete
	j.result = result
	return nil
}

// fail records diagnostic text and moves the job to failed.
func (j *Job) fail(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if !j.status.CanTransitionTo(types.JobStatusFailed) {
		return fmt.Errorf("illegal job status transition %s -> %s", j.status, types.JobStatusFailed)
	}
	j.status = types.JobStatusFailed
	j.failure = message
	return nil
}

// JobStore is the in-memory table of jobs submitted during this process
// lifetime. Timed-out or cancelled waits leave their jobs here so the
// operator can fetch results later.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[types.ID]*Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[types.ID]*Job)}
}

// add inserts a job into the store.
func (s *JobStore) add(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.id] = j
}

// Get returns the job with the given id, or JOB_NOT_FOUND.
func (s *JobStore) Get(id types.ID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("no job with id %s", id))
	}
	return j, nil
}

// Find resolves an id prefix (as shown in job listings) to a job. An
// ambiguous prefix is an error.
func (s *JobStore) Find(prefix string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var match *Job
	for id, j := range s.jobs {
		if len(prefix) <= len(id) && string(id[:len(prefix)]) == prefix {
			if match != nil {
				return nil, types.NewError(types.JOB_NOT_FOUND,
					fmt.Sprintf("job id prefix %q is ambiguous", prefix))
			}
			match = j
		}
	}
	if match == nil {
		return nil, types.NewError(types.JOB_NOT_FOUND,
			fmt.Sprintf("no job matching %q", prefix))
	}
	return match, nil
}

// List returns all jobs ordered by submission time, oldest first.
func (s *JobStore) List() []*Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].submittedAt.Before(out[k].submittedAt)
	})
	return out
}
