package service

import (
	"fmt"
	"sync"
	"time"
)

// JobStats tracks runs of one recurring job
type JobStats struct {
	mu           sync.RWMutex
	Name         string
	Runs         int
	Failures     int
	LastRun      time.Time
	LastDuration time.Duration
	LastError    string
}

// NewJobStats creates a tracker for the named job
func NewJobStats(name string) *JobStats {
	return &JobStats{Name: name}
}

// RecordSuccess notes a completed run
func (s *JobStats) RecordSuccess(started time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs++
	s.LastRun = started
	s.LastDuration = time.Since(started)
	s.LastError = ""
}

// RecordFailure notes a failed run
func (s *JobStats) RecordFailure(started time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Runs++
	s.Failures++
	s.LastRun = started
	s.LastDuration = time.Since(started)
	if err != nil {
		s.LastError = err.Error()
	}
}

// Healthy is false when the latest run failed
func (s *JobStats) Healthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastError == ""
}

// LastRunAt is when the latest run started, zero before the first run
func (s *JobStats) LastRunAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastRun
}

// String returns a formatted string representation of the stats
func (s *JobStats) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	successRate := float64(0)
	if s.Runs > 0 {
		successRate = float64(s.Runs-s.Failures) / float64(s.Runs) * 100
	}
	return fmt.Sprintf("JobStats{Name=%s, Runs=%d, Failures=%d (%.1f%% ok), LastDuration=%v, LastError=%q}",
		s.Name, s.Runs, s.Failures, successRate, s.LastDuration, s.LastError)
}
