package valvewatch

import "time"

// LogRecord is a single telemetry entry as reported by the remote history
// endpoint. Records are never mutated locally; each poll replaces the whole
// in-memory log.
type LogRecord struct {
	ValveID     string `json:"valve_id"`
	CreatedAt   string `json:"created_at"` // naive "YYYY-MM-DD HH:MM:SS"
	Turns       *int   `json:"turns,omitempty"`
	ValveTurns  *int   `json:"valve_turns,omitempty"`
	ValveStatus string `json:"valve_status,omitempty"`
}

// EffectiveTurns resolves the two alternate turn-count fields: the first one
// present wins, absent both defaults to 0.
func (r LogRecord) EffectiveTurns() int {
	if r.Turns != nil {
		return *r.Turns
	}
	if r.ValveTurns != nil {
		return *r.ValveTurns
	}
	return 0
}

// DailyMetrics summarizes one calendar day of valve activity.
type DailyMetrics struct {
	StartTime string `json:"start_time"` // corrected time-of-day, "--:--" if no activity
	Duration  string `json:"duration"`   // e.g. "1h 23m", "0m" if no activity
	Score     int    `json:"score"`      // 0 or [10,100]
}

// Diagnostics is the label/color pair shown on the diagnostic panel plus the
// upstream link state.
type Diagnostics struct {
	Status string `json:"status"`
	Color  string `json:"color"`
	Online bool   `json:"online"`
}

// EventRow is one rendered line of the recent-event table.
type EventRow struct {
	Timestamp   string `json:"timestamp"`
	DeviceLabel string `json:"device_label"` // "ID:" + last 5 chars of valve_id
	Status      string `json:"status"`
	StatusColor string `json:"status_color"`
	Turns       int    `json:"turns"`
}

// DayRow is one rendered line of the daily statistics table.
type DayRow struct {
	Date       string `json:"date"` // corrected day key, "YYYY-MM-DD"
	StartTime  string `json:"start_time"`
	Duration   string `json:"duration"`
	Score      int    `json:"score"`
	ScoreColor string `json:"score_color"`
}

// Compliance is today's metrics with the adherence label/color applied.
type Compliance struct {
	Metrics DailyMetrics `json:"metrics"`
	Label   string       `json:"label"` // SCHEDULE ADHERED | PARTIAL ADHERENCE | NON-COMPLIANT
	Color   string       `json:"color"`
}

// DashboardView is the full derived state for the currently selected device.
// It is recomputed wholesale from the in-memory log; two consecutive builds
// over an unchanged log are identical.
type DashboardView struct {
	Device      string      `json:"device"`
	ValveTurns  int         `json:"valve_turns"`
	LastSync    string      `json:"last_sync"`
	Diagnostics Diagnostics `json:"diagnostics"`
	Events      []EventRow  `json:"events"`
	Compliance  Compliance  `json:"compliance"`
	Daily       []DayRow    `json:"daily"`
}

// SourceEvent is an audit entry for telemetry-source lifecycle transitions.
type SourceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // ATTACH | DETACH | LINK_UP | LINK_DOWN
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // don’t expose hash
}
