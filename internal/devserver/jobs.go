package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/solveya/console/internal/models"
)

// jobStore holds emulated jobs and walks each one through
// pending -> processing -> completed on timers.
type jobStore struct {
	mu              sync.Mutex
	jobs            map[string]*models.JobResponse
	queued          int
	processingDelay time.Duration
	completionDelay time.Duration
}

func newJobStore() *jobStore {
	return &jobStore{
		jobs:            make(map[string]*models.JobResponse),
		processingDelay: 500 * time.Millisecond,
		completionDelay: 2 * time.Second,
	}
}

func (s *jobStore) submit(data []byte) models.JobResponse {
	now := time.Now()
	job := &models.JobResponse{
		JobID:       newJobID(),
		Status:      models.JobPending,
		SubmittedAt: &now,
	}

	s.mu.Lock()
	s.jobs[job.JobID] = job
	s.queued++
	resp := *job
	s.mu.Unlock()

	time.AfterFunc(s.processingDelay, func() {
		s.advance(job.JobID, models.JobProcessing, nil)
	})
	time.AfterFunc(s.processingDelay+s.completionDelay, func() {
		profile := profileEntropy(data)
		s.advance(job.JobID, models.JobCompleted, &models.DiagnosticResult{
			JobID:          job.JobID,
			Timestamp:      time.Now(),
			EntropyProfile: profile,
			AnomalyResults: detectAnomalies(profile),
			Metadata:       map[string]any{"size_bytes": len(data)},
		})
	})
	return resp
}

func (s *jobStore) advance(jobID string, status models.JobStatus, result *models.DiagnosticResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return
	}
	if status == models.JobProcessing {
		s.queued--
	}
	job.Status = status
	if result != nil {
		job.Result = result
	}
}

func (s *jobStore) get(jobID string) *models.JobResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil
	}
	resp := *job
	return &resp
}

// counts reports active (non-terminal) jobs and the pending queue depth.
func (s *jobStore) counts() (active, queued int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, job := range s.jobs {
		if !job.Status.Terminal() {
			active++
		}
	}
	return active, s.queued
}

func newJobID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
