package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"valvewatch"
	"valvewatch/internal/repository"
	"valvewatch/internal/telemetry"

	"github.com/google/uuid"
)

var (
	ErrEmptySourceURL = errors.New("source url is empty")
	ErrNoSource       = errors.New("no telemetry source attached")
)

// SourceService binds the poll loop to an attached telemetry source. The
// loop starts on Attach and is canceled on Detach, so nothing keeps fetching
// after the dashboard session ends.
type SourceService struct {
	store  *Store
	events repository.SourceEventRepo
	every  time.Duration

	// newFetcher is swappable in tests.
	newFetcher func(rawURL string) HistoryFetcher

	mu     sync.Mutex
	cancel context.CancelFunc
	base   string
}

func NewSourceService(store *Store, events repository.SourceEventRepo, every time.Duration) *SourceService {
	if every <= 0 {
		every = DefaultPollInterval
	}
	return &SourceService{
		store:  store,
		events: events,
		every:  every,
		newFetcher: func(rawURL string) HistoryFetcher {
			return telemetry.NewClient(rawURL)
		},
	}
}

// Attach normalizes the user-supplied base URL and starts the poll loop for
// it. Attaching while a source is active replaces it: the old loop is
// canceled first. Returns the normalized base.
func (s *SourceService) Attach(ctx context.Context, rawURL string) (string, error) {
	base := telemetry.NormalizeBaseURL(rawURL)
	if base == "" {
		return "", ErrEmptySourceURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	// The loop outlives the attach request, so it gets its own context.
	pollCtx, cancel := context.WithCancel(context.Background())
	poller := NewPoller(s.newFetcher(base), s.store, s.events)
	go poller.Run(pollCtx, s.every)

	s.cancel = cancel
	s.base = base

	s.appendEvent(ctx, EventAttach, "Telemetry source attached", map[string]any{"base_url": base})
	return base, nil
}

// Detach cancels the poll loop. In-memory telemetry is kept so the last view
// stays renderable until a new source arrives.
func (s *SourceService) Detach(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return ErrNoSource
	}
	s.cancel()
	s.cancel = nil

	s.appendEvent(ctx, EventDetach, "Telemetry source detached", map[string]any{"base_url": s.base})
	s.base = ""
	return nil
}

// Attached reports the active source base URL, if any.
func (s *SourceService) Attached() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base, s.cancel != nil
}

func (s *SourceService) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.Append(ctx, valvewatch.SourceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	})
}
