package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"valvewatch"
	"valvewatch/internal/timefix"
)

// Palette shared by the rendered views.
const (
	ColorAccent  = "#00f2ff" // nominal / idle
	ColorSuccess = "#10b981" // flow detected / adhered
	ColorWarn    = "#fbbf24" // partial adherence
	ColorError   = "#ef4444" // non-compliant / alarming status
	ColorFailure = "#ff2a2a" // upstream link failure
)

// Status labels.
const (
	StatusFlowDetected = "FLOW DETECTED"
	StatusIdle         = "IDLE"
	StatusLinkFailure  = "CONNECTION FAILURE"
	statusUnknown      = "Unknown"
)

// Compliance labels and thresholds.
const (
	ComplianceAdhered = "SCHEDULE ADHERED"
	CompliancePartial = "PARTIAL ADHERENCE"
	ComplianceFailed  = "NON-COMPLIANT"

	adheredThreshold = 80
	partialThreshold = 50
)

const (
	maxEventRows = 15
	maxDailyRows = 5
	deviceIDTail = 5
	devicePrefix = "ID:"
)

// DashboardService renders derived views from the shared store. Rendering is
// a pure function of store contents, so repeated builds over an unchanged log
// yield identical views. The last successful view is kept so a device whose
// history vanished mid-poll still shows something (stale-but-visible).
type DashboardService struct {
	store *Store
	tf    timefix.Policy
	now   func() time.Time

	mu       sync.Mutex
	lastView valvewatch.DashboardView
	hasView  bool
}

func NewDashboardService(store *Store, tf timefix.Policy) *DashboardService {
	return &DashboardService{store: store, tf: tf, now: time.Now}
}

// View builds the dashboard for the currently selected device. The second
// return is false only when nothing has ever been renderable.
func (s *DashboardService) View(ctx context.Context) (valvewatch.DashboardView, bool) {
	device := s.store.Current()
	history := s.store.DeviceHistory(device)

	s.mu.Lock()
	defer s.mu.Unlock()

	if device == "" || len(history) == 0 {
		// Stale view persists; never blank out a previously good render.
		return s.lastView, s.hasView
	}

	view := s.buildView(device, history)
	s.lastView = view
	s.hasView = true
	return view, true
}

// Devices lists the known device IDs and the current selection.
func (s *DashboardService) Devices(ctx context.Context) ([]string, string) {
	return s.store.Devices()
}

// SelectDevice switches the renderer's active device.
func (s *DashboardService) SelectDevice(ctx context.Context, id string) error {
	return s.store.Select(id)
}

// Clock renders the live wall clock.
func (s *DashboardService) Clock(now time.Time) string {
	return s.tf.Clock(now)
}

// buildView derives the full view document from one device's history, already
// sorted descending by corrected event time.
func (s *DashboardService) buildView(device string, history []valvewatch.LogRecord) valvewatch.DashboardView {
	latest := history[0]
	turns := latest.EffectiveTurns()

	label, color := ClassifyStatus(turns, latest.ValveStatus)
	diag := valvewatch.Diagnostics{Status: label, Color: color, Online: true}
	if !s.store.Online() {
		diag = valvewatch.Diagnostics{Status: StatusLinkFailure, Color: ColorFailure, Online: false}
	}

	compliance, daily := s.dailyStats(history)

	return valvewatch.DashboardView{
		Device:      device,
		ValveTurns:  turns,
		LastSync:    s.tf.DisplayDateTime(latest.CreatedAt),
		Diagnostics: diag,
		Events:      s.eventRows(history),
		Compliance:  compliance,
		Daily:       daily,
	}
}

// eventRows renders up to the 15 most recent records.
func (s *DashboardService) eventRows(history []valvewatch.LogRecord) []valvewatch.EventRow {
	n := len(history)
	if n > maxEventRows {
		n = maxEventRows
	}
	rows := make([]valvewatch.EventRow, 0, n)
	for _, r := range history[:n] {
		status := r.ValveStatus
		if status == "" {
			status = statusUnknown
		}
		color := ColorSuccess
		if strings.Contains(status, "HIGH") || strings.Contains(status, "LEAK") {
			color = ColorError
		}
		rows = append(rows, valvewatch.EventRow{
			Timestamp:   s.tf.DisplayDateTime(r.CreatedAt),
			DeviceLabel: devicePrefix + idTail(r.ValveID),
			Status:      status,
			StatusColor: color,
			Turns:       r.EffectiveTurns(),
		})
	}
	return rows
}

// dailyStats groups the device's full history by corrected day, scores today
// for the compliance card and summarizes the 5 most recent days.
func (s *DashboardService) dailyStats(history []valvewatch.LogRecord) (valvewatch.Compliance, []valvewatch.DayRow) {
	grouped := GroupByDay(history, s.tf)

	todayKey := s.tf.Today(s.now())
	todayMetrics := CalculateDayMetrics(grouped[todayKey], s.tf)
	label, color := ClassifyCompliance(todayMetrics.Score)
	compliance := valvewatch.Compliance{Metrics: todayMetrics, Label: label, Color: color}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if len(keys) > maxDailyRows {
		keys = keys[:maxDailyRows]
	}

	daily := make([]valvewatch.DayRow, 0, len(keys))
	for _, k := range keys {
		m := CalculateDayMetrics(grouped[k], s.tf)
		_, scoreColor := ClassifyCompliance(m.Score)
		daily = append(daily, valvewatch.DayRow{
			Date:       k,
			StartTime:  m.StartTime,
			Duration:   m.Duration,
			Score:      m.Score,
			ScoreColor: scoreColor,
		})
	}
	return compliance, daily
}

// ClassifyStatus picks the label/color pair for the diagnostic panel from the
// current turn count and the externally supplied status string.
func ClassifyStatus(turns int, external string) (label, color string) {
	if turns > 0 {
		if external != "" {
			return external, ColorSuccess
		}
		return StatusFlowDetected, ColorSuccess
	}
	if external != "" {
		return external, ColorAccent
	}
	return StatusIdle, ColorAccent
}

// ClassifyCompliance maps a daily score onto the adherence label and color.
func ClassifyCompliance(score int) (label, color string) {
	switch {
	case score >= adheredThreshold:
		return ComplianceAdhered, ColorSuccess
	case score >= partialThreshold:
		return CompliancePartial, ColorWarn
	default:
		return ComplianceFailed, ColorError
	}
}

// idTail returns the last few characters of a valve ID for compact display.
func idTail(id string) string {
	if len(id) <= deviceIDTail {
		return id
	}
	return id[len(id)-deviceIDTail:]
}
