package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopsmart/backend/internal/domain"
)

// startPollingLocked launches the polling loop for generation gen; s.mu must be held
func (s *SearchSession) startPollingLocked(gen uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.stopPoll = cancel
	s.pollDone = done

	go s.pollLoop(ctx, gen, done)
}

// stopPollingLocked cancels the polling loop and returns a channel closed once
// the loop has exited, or nil if no loop was running; s.mu must be held.
// Callers must not wait on the channel while holding s.mu.
func (s *SearchSession) stopPollingLocked() <-chan struct{} {
	if s.stopPoll == nil {
		return nil
	}

	s.stopPoll()
	done := s.pollDone
	s.stopPoll = nil
	s.pollDone = nil
	return done
}

func (s *SearchSession) pollLoop(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx, gen)
		}
	}
}

// tick starts one status check unless a request is already outstanding,
// in which case the tick is dropped.
func (s *SearchSession) tick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx.Err() != nil || gen != s.generation || s.state != domain.StatePolling {
		return
	}
	if s.inFlight {
		s.skippedTicks++
		s.log.Debug("poll still pending, skipping tick", "skipped", s.skippedTicks)
		return
	}

	s.inFlight = true
	go s.runPoll(ctx, gen)
}

// runPoll performs a status check and, when the job is done, the single
// results fetch. Both happen inside the same in-flight slot.
func (s *SearchSession) runPoll(ctx context.Context, gen uint64) {
	defer s.releaseInFlight()

	status, err := s.client.FetchStatus(ctx)
	if !s.applyStatus(gen, status, err) {
		return
	}

	catalog, err := s.client.FetchResults(ctx)
	s.applyResults(gen, catalog, err)
}

func (s *SearchSession) releaseInFlight() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}

// currentLocked reports whether a response for gen may still be applied; s.mu must be held
func (s *SearchSession) currentLocked(gen uint64) bool {
	return !s.closed && gen == s.generation && s.state == domain.StatePolling
}

// applyStatus records a status response and reports whether results should be fetched
func (s *SearchSession) applyStatus(gen uint64, status *domain.JobStatus, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		return false
	}

	if err != nil {
		s.transientLocked(fmt.Errorf("%w: status check: %v", domain.ErrPollTransient, err))
		return false
	}

	s.consecutiveErrs = 0
	s.status = *status
	s.updatedAt = time.Now()
	s.publishLocked(EventStatusUpdated, nil)

	if status.Done() {
		s.stalls = 0
		return true
	}

	if status.Stopped() && s.stallLimit > 0 {
		s.stalls++
		if s.stalls >= s.stallLimit {
			s.log.Warn("job stopped before completion",
				"query", s.query, "progress", status.Progress, "message", status.Message)
			s.failLocked(fmt.Errorf("%w: %s", domain.ErrJobStalled, status.Message))
		}
		return false
	}

	s.stalls = 0
	return false
}

// applyResults publishes a fetched catalog and completes the job
func (s *SearchSession) applyResults(gen uint64, catalog domain.Catalog, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		return
	}

	if err != nil {
		s.transientLocked(fmt.Errorf("%w: results fetch: %v", domain.ErrPollTransient, err))
		return
	}

	if catalog == nil {
		catalog = domain.Catalog{}
	}
	s.catalog = catalog.Clone()
	s.stopPollingLocked()
	s.state = domain.StateCompleted
	s.updatedAt = time.Now()
	s.log.Info("comparison job completed", "query", s.query, "products", len(s.catalog))
	s.publishLocked(EventCompleted, nil)
	s.settleLocked()
}

// transientLocked absorbs a polling failure under the retry policy; s.mu must be held
func (s *SearchSession) transientLocked(err error) {
	s.consecutiveErrs++
	s.log.Warn("polling error", "err", err, "consecutive", s.consecutiveErrs)
	s.publishLocked(EventTransientError, err)

	if s.maxErrors > 0 && s.consecutiveErrs >= s.maxErrors {
		s.failLocked(err)
	}
}
