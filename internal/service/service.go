package service

import (
	"context"
	"time"

	"valvewatch"
	"valvewatch/internal/repository"
	"valvewatch/internal/timefix"
)

type Authorization interface {
	SignUp(email, password string) (int, error)
	GenerateToken(email, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Dashboard exposes the derived views for the currently selected device.
type Dashboard interface {
	View(ctx context.Context) (valvewatch.DashboardView, bool)
	Devices(ctx context.Context) ([]string, string)
	SelectDevice(ctx context.Context, id string) error
	Clock(now time.Time) string
}

// Source owns the telemetry-source lifecycle: attaching a base URL starts the
// poll loop, detaching cancels it.
type Source interface {
	Attach(ctx context.Context, rawURL string) (string, error)
	Detach(ctx context.Context) error
	Attached() (string, bool)
}

// SourceLog exposes the append-only source audit trail with filtering access.
type SourceLog interface {
	List(ctx context.Context, f LogFilter) ([]valvewatch.SourceEvent, error)
}

//
// Root Service aggregates all sub-services.
//

type Service struct {
	Dashboard
	Source
	SourceLog
	Authorization
}

// NewService wires the repository layer into concrete services. The store is
// shared: the poller (owned by Source) writes it, Dashboard reads it.
func NewService(repos *repository.Repository, pollEvery time.Duration) *Service {
	tf := timefix.Default()
	store := NewStore(tf)
	return &Service{
		Dashboard:     NewDashboardService(store, tf),
		Source:        NewSourceService(store, repos.SourceEvents, pollEvery),
		SourceLog:     NewSourceLogService(repos.SourceEvents),
		Authorization: NewAuthService(repos.Auth),
	}
}
