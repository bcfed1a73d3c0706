package service

import (
	"context"
	"time"

	"valvewatch"
	"valvewatch/internal/repository"

	"github.com/google/uuid"
)

// DefaultPollInterval matches the dashboard's fetch cadence.
const DefaultPollInterval = 2 * time.Second

// Source audit event types.
const (
	EventAttach   = "ATTACH"
	EventDetach   = "DETACH"
	EventLinkUp   = "LINK_UP"
	EventLinkDown = "LINK_DOWN"
)

// HistoryFetcher is the outbound telemetry client as the poller sees it.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context) ([]valvewatch.LogRecord, error)
	BaseURL() string
}

// Poller fetches the full history on a fixed cadence and feeds the store.
// One goroutine runs the loop and the fetch happens inline in it, so polls
// are single-flight: a tick that fires during a slow fetch is dropped, never
// issued concurrently.
type Poller struct {
	client HistoryFetcher
	store  *Store
	events repository.SourceEventRepo
}

func NewPoller(client HistoryFetcher, store *Store, events repository.SourceEventRepo) *Poller {
	return &Poller{client: client, store: store, events: events}
}

// Run polls once immediately, then on every tick until ctx is canceled.
func (p *Poller) Run(ctx context.Context, tick time.Duration) {
	p.pollOnce(ctx)

	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce performs a single fetch. Failure flips the link state and leaves
// the previously fetched log untouched; success with a non-empty batch
// replaces the log wholesale. Link transitions are recorded in the audit
// trail, steady states are not.
func (p *Poller) pollOnce(ctx context.Context) {
	records, err := p.client.FetchHistory(ctx)
	if err != nil {
		if p.store.SetOnline(false) {
			p.appendEvent(ctx, EventLinkDown, "Telemetry source unreachable", map[string]any{
				"base_url": p.client.BaseURL(),
				"error":    err.Error(),
			})
		}
		return
	}

	if len(records) == 0 {
		return
	}

	p.store.ReplaceAll(records)
	if p.store.SetOnline(true) {
		p.appendEvent(ctx, EventLinkUp, "Telemetry source reachable again", map[string]any{
			"base_url": p.client.BaseURL(),
			"records":  len(records),
		})
	}
}

func (p *Poller) appendEvent(ctx context.Context, typ, msg string, meta map[string]any) {
	if p.events == nil {
		return
	}
	_ = p.events.Append(ctx, valvewatch.SourceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        typ,
		Description: msg,
		Metadata:    meta,
	})
}
