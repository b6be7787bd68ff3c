package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/pkg/logging"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultStallLimit   = 3

	startingMessage  = "Starting search..."
	cancelledMessage = "Search cancelled"
)

// SearchSessionConfig holds configuration for a search session
type SearchSessionConfig struct {
	// Sites is the full set of selectable sites. Selecting all of them sends
	// no website list, which the job service reads as "every site".
	Sites []domain.Site

	PollInterval time.Duration

	// StallLimit is how many consecutive "stopped below 100%" statuses fail
	// the job. Negative disables the check; 0 uses the default.
	StallLimit int

	// MaxConsecutiveErrors bounds transient polling failures in a row.
	// 0 keeps polling forever.
	MaxConsecutiveErrors int
}

// SearchSession drives one user's comparison job lifecycle:
// submit, poll until done, fetch results, and expose derived views.
type SearchSession struct {
	client    domain.JobClient
	log       *logging.Logger
	sites     []domain.Site
	siteIndex map[string]int

	pollInterval time.Duration
	stallLimit   int
	maxErrors    int

	mu        sync.Mutex
	state     domain.SessionState
	prevState domain.SessionState
	status    domain.JobStatus
	query     string
	lastErr   error
	catalog   domain.Catalog
	criteria  domain.SearchCriteria
	updatedAt time.Time
	closed    bool
	cancelled bool

	// generation is bumped by Submit, Cancel and Close. Responses carrying
	// an older generation are discarded.
	generation uint64
	stopPoll   context.CancelFunc
	pollDone   chan struct{}
	settled    chan struct{}

	inFlight        bool
	skippedTicks    int
	stalls          int
	consecutiveErrs int

	subscribers    map[int]chan Event
	nextSubscriber int
}

// NewSearchSession creates an idle session
func NewSearchSession(client domain.JobClient, config SearchSessionConfig, log *logging.Logger) *SearchSession {
	if log == nil {
		log = logging.NewNop()
	}

	sites := config.Sites
	if len(sites) == 0 {
		sites = domain.DefaultSites()
	}
	siteIndex := make(map[string]int, len(sites))
	for i, site := range sites {
		siteIndex[site.ID] = i
	}

	pollInterval := config.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	stallLimit := config.StallLimit
	if stallLimit == 0 {
		stallLimit = defaultStallLimit
	}

	return &SearchSession{
		client:       client,
		log:          log.With("component", "search_session"),
		sites:        append([]domain.Site(nil), sites...),
		siteIndex:    siteIndex,
		pollInterval: pollInterval,
		stallLimit:   stallLimit,
		maxErrors:    config.MaxConsecutiveErrors,
		state:        domain.StateIdle,
		prevState:    domain.StateIdle,
		criteria:     domain.DefaultCriteria(),
		updatedAt:    time.Now(),
		subscribers:  make(map[int]chan Event),
	}
}

// Sites returns the configured site set
func (s *SearchSession) Sites() []domain.Site {
	return append([]domain.Site(nil), s.sites...)
}

// SiteIDs returns the ids of every configured site, in configuration order
func (s *SearchSession) SiteIDs() []string {
	ids := make([]string, len(s.sites))
	for i, site := range s.sites {
		ids[i] = site.ID
	}
	return ids
}

// OpenSearch moves the session into AwaitingSubmission
func (s *SearchSession) OpenSearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state == domain.StateAwaitingSubmission {
		return nil
	}
	if s.state.Active() {
		return fmt.Errorf("%w: cannot open a search while %s", domain.ErrInvalidTransition, s.state)
	}

	s.prevState = s.state
	s.setStateLocked(domain.StateAwaitingSubmission)
	return nil
}

// CloseSearch leaves AwaitingSubmission without submitting
func (s *SearchSession) CloseSearch() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if s.state != domain.StateAwaitingSubmission {
		return fmt.Errorf("%w: no search is open", domain.ErrInvalidTransition)
	}

	s.setStateLocked(s.prevState)
	return nil
}

// Submit validates query and selected sites, submits the job and starts
// polling. It returns once the job service acknowledged the submission.
func (s *SearchSession) Submit(ctx context.Context, query string, selectedSites []string) error {
	query = normalizeQuery(query)
	if query == "" {
		return fmt.Errorf("%w: search query is required", domain.ErrValidation)
	}

	websites, err := s.resolveWebsites(selectedSites)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if s.state.Active() {
		s.mu.Unlock()
		return domain.ErrJobActive
	}

	s.generation++
	gen := s.generation
	s.query = query
	s.lastErr = nil
	s.cancelled = false
	s.stalls = 0
	s.consecutiveErrs = 0
	s.skippedTicks = 0
	s.settled = make(chan struct{})
	s.status = domain.JobStatus{IsRunning: true, Message: startingMessage, LastSearch: query}
	s.setStateLocked(domain.StateSubmitting)
	s.mu.Unlock()

	s.log.Info("submitting comparison job", "query", query, "websites", websites)
	submitErr := s.client.SubmitJob(ctx, domain.SubmitRequest{Query: query, Websites: websites})

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.Info("submission superseded before acknowledgement", "query", query)
		return domain.ErrCancelled
	}

	if submitErr != nil {
		err := fmt.Errorf("%w: %v", domain.ErrJobSubmit, submitErr)
		s.log.Error("job submission failed", "query", query, "err", submitErr)
		s.status.IsRunning = false
		s.status.Message = "Error starting search"
		s.failLocked(err)
		return err
	}

	s.setStateLocked(domain.StatePolling)
	s.startPollingLocked(gen)
	return nil
}

// Cancel abandons the active job and returns to AwaitingSubmission.
// Responses still in flight are discarded when they arrive.
func (s *SearchSession) Cancel() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if !s.state.Active() {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: nothing to cancel while %s", domain.ErrInvalidTransition, state)
	}

	s.generation++
	done := s.stopPollingLocked()
	s.prevState = domain.StateIdle
	if s.catalog != nil {
		s.prevState = domain.StateCompleted
	}
	s.status.IsRunning = false
	s.status.Message = cancelledMessage
	s.cancelled = true
	query := s.query
	s.state = domain.StateAwaitingSubmission
	s.updatedAt = time.Now()
	s.publishLocked(EventCancelled, nil)
	s.settleLocked()
	s.mu.Unlock()

	waitFor(done)
	s.log.Info("comparison job cancelled", "query", query)
	return nil
}

// Close tears the session down. The polling timer is stopped before Close
// returns and nothing is applied afterwards. Close is idempotent.
func (s *SearchSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	s.generation++
	done := s.stopPollingLocked()
	s.settleLocked()
	s.closeSubscribersLocked()
	s.mu.Unlock()

	waitFor(done)
	return nil
}

// Wait blocks until the current job completes, fails or is cancelled
func (s *SearchSession) Wait(ctx context.Context) (domain.SessionState, error) {
	s.mu.Lock()
	settled := s.settled
	s.mu.Unlock()

	if settled != nil {
		select {
		case <-settled:
		case <-ctx.Done():
			return s.State(), ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return s.state, domain.ErrSessionClosed
	case s.state == domain.StateFailed:
		return s.state, s.lastErr
	case s.cancelled:
		return s.state, domain.ErrCancelled
	}
	return s.state, nil
}

// State returns the current lifecycle state
func (s *SearchSession) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a consistent read of the lifecycle state
func (s *SearchSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := domain.SessionSnapshot{
		State:        s.state,
		Status:       s.status,
		Query:        s.query,
		ProductCount: len(s.catalog),
		SkippedTicks: s.skippedTicks,
		UpdatedAt:    s.updatedAt,
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Catalog returns a copy of the last completed job's products
func (s *SearchSession) Catalog() domain.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog.Clone()
}

// SetCriteria replaces the filter and sort selection
func (s *SearchSession) SetCriteria(criteria domain.SearchCriteria) error {
	criteria = criteria.Normalize()
	if !criteria.SortKey.Valid() {
		return fmt.Errorf("%w: unknown sort key %q", domain.ErrValidation, criteria.SortKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	s.criteria = criteria
	return nil
}

// Criteria returns the current filter and sort selection
func (s *SearchSession) Criteria() domain.SearchCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criteria
}

// View derives the presentation view from the current catalog and criteria
func (s *SearchSession) View() domain.View {
	s.mu.Lock()
	catalog := s.catalog
	criteria := s.criteria
	s.mu.Unlock()

	// catalog is replaced, never mutated, so reading it unlocked is safe
	return Derive(catalog, criteria)
}

// resolveWebsites validates the selection and returns the websites field of
// the submit request: nil when every configured site is selected.
func (s *SearchSession) resolveWebsites(selected []string) ([]string, error) {
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: select at least one website", domain.ErrValidation)
	}

	chosen := make([]bool, len(s.sites))
	count := 0
	for _, id := range selected {
		idx, ok := s.siteIndex[strings.TrimSpace(id)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown website %q", domain.ErrValidation, id)
		}
		if !chosen[idx] {
			chosen[idx] = true
			count++
		}
	}

	if count == len(s.sites) {
		return nil, nil
	}

	websites := make([]string, 0, count)
	for i, site := range s.sites {
		if chosen[i] {
			websites = append(websites, site.ID)
		}
	}
	return websites, nil
}

// setStateLocked records a transition and notifies subscribers; s.mu must be held
func (s *SearchSession) setStateLocked(state domain.SessionState) {
	s.state = state
	s.updatedAt = time.Now()
	s.publishLocked(EventStateChanged, nil)
}

// failLocked moves the session to Failed; s.mu must be held
func (s *SearchSession) failLocked(err error) {
	s.lastErr = err
	s.status.IsRunning = false
	s.stopPollingLocked()
	s.state = domain.StateFailed
	s.updatedAt = time.Now()
	s.publishLocked(EventFailed, err)
	s.settleLocked()
}

// settleLocked releases Wait callers; s.mu must be held
func (s *SearchSession) settleLocked() {
	if s.settled != nil {
		close(s.settled)
		s.settled = nil
	}
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

func waitFor(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}
