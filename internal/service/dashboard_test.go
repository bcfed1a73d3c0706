package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"

	"valvewatch"
	"valvewatch/internal/timefix"
)

// fixedNow pins "today" for daily-stat bucketing: 2024-01-01 in the display zone.
var fixedNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func newTestDashboard(store *Store) *DashboardService {
	svc := NewDashboardService(store, timefix.Default())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestDashboard_SingleOnScheduleRecordScenario(t *testing.T) {
	store := newTestStore()
	store.ReplaceAll([]valvewatch.LogRecord{rec("A", "2024-01-01 04:05:00", intPtr(3))})
	svc := newTestDashboard(store)

	view, ok := svc.View(context.Background())
	if !ok {
		t.Fatalf("expected a view")
	}
	if view.Device != "A" || view.ValveTurns != 3 {
		t.Fatalf("unexpected header: %+v", view)
	}
	if view.Compliance.Metrics.Score != 50 {
		t.Fatalf("compliance score: want 50, got %d", view.Compliance.Metrics.Score)
	}
	// 50 sits exactly on the partial threshold.
	if view.Compliance.Label != CompliancePartial || view.Compliance.Color != ColorWarn {
		t.Fatalf("compliance label: want %q/%q, got %q/%q",
			CompliancePartial, ColorWarn, view.Compliance.Label, view.Compliance.Color)
	}
	if view.Compliance.Metrics.StartTime != "04:05 AM" {
		t.Fatalf("start time: want 04:05 AM, got %q", view.Compliance.Metrics.StartTime)
	}
	if view.LastSync != "Jan 1, 04:05:00 AM" {
		t.Fatalf("last sync: got %q", view.LastSync)
	}
	if view.Diagnostics.Status != "FLOW DETECTED" || view.Diagnostics.Color != ColorSuccess {
		t.Fatalf("diagnostics: %+v", view.Diagnostics)
	}
}

func TestDashboard_ViewIsIdempotent(t *testing.T) {
	store := newTestStore()
	store.ReplaceAll([]valvewatch.LogRecord{
		rec("A", "2024-01-01 04:05:00", intPtr(3)),
		rec("A", "2024-01-01 05:00:00", intPtr(1)),
		rec("A", "2023-12-30 06:00:00", intPtr(2)),
	})
	svc := newTestDashboard(store)

	first, ok1 := svc.View(context.Background())
	second, ok2 := svc.View(context.Background())
	if !ok1 || !ok2 {
		t.Fatalf("expected views")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("views differ across identical builds:\n%+v\n%+v", first, second)
	}

	b1, _ := json.Marshal(first)
	b2, _ := json.Marshal(second)
	if string(b1) != string(b2) {
		t.Fatalf("rendered content not byte-identical")
	}
}

func TestDashboard_AbsentTurnFieldsNeverActive(t *testing.T) {
	store := newTestStore()
	store.ReplaceAll([]valvewatch.LogRecord{
		{ValveID: "A", CreatedAt: "2024-01-01 06:00:00"},
		{ValveID: "A", CreatedAt: "2024-01-01 07:00:00"},
	})
	svc := newTestDashboard(store)

	view, ok := svc.View(context.Background())
	if !ok {
		t.Fatalf("expected a view")
	}
	if view.ValveTurns != 0 {
		t.Fatalf("effective turns: want 0, got %d", view.ValveTurns)
	}
	if view.Diagnostics.Status != "IDLE" || view.Diagnostics.Color != ColorAccent {
		t.Fatalf("diagnostics: %+v", view.Diagnostics)
	}
	if view.Compliance.Metrics.Score != 0 || view.Compliance.Label != ComplianceFailed {
		t.Fatalf("compliance: %+v", view.Compliance)
	}
}

func TestDashboard_LinkFailureKeepsEventTable(t *testing.T) {
	store := newTestStore()
	store.ReplaceAll([]valvewatch.LogRecord{
		rec("A", "2024-01-01 04:05:00", intPtr(3)),
		rec("A", "2024-01-01 05:00:00", intPtr(1)),
	})
	svc := newTestDashboard(store)

	before, _ := svc.View(context.Background())

	// Fetch failed: link drops, data stays.
	store.SetOnline(false)
	after, _ := svc.View(context.Background())

	if after.Diagnostics.Status != StatusLinkFailure || after.Diagnostics.Color != ColorFailure {
		t.Fatalf("diagnostics after failure: %+v", after.Diagnostics)
	}
	if !reflect.DeepEqual(before.Events, after.Events) {
		t.Fatalf("event table must be unchanged on link failure")
	}
	if !reflect.DeepEqual(before.Daily, after.Daily) {
		t.Fatalf("daily stats must be unchanged on link failure")
	}
}

func TestDashboard_EventRows(t *testing.T) {
	records := make([]valvewatch.LogRecord, 0, 20)
	for i := 0; i < 20; i++ {
		r := rec("valve-00731", fmt.Sprintf("2024-01-01 06:%02d:00", i), intPtr(i%3))
		if i == 19 {
			r.ValveStatus = "PRESSURE HIGH"
		}
		records = append(records, r)
	}
	store := newTestStore()
	store.ReplaceAll(records)
	svc := newTestDashboard(store)

	view, _ := svc.View(context.Background())
	if len(view.Events) != 15 {
		t.Fatalf("event rows capped at 15, got %d", len(view.Events))
	}
	top := view.Events[0]
	if top.DeviceLabel != "ID:00731" {
		t.Fatalf("device label: want ID:00731, got %q", top.DeviceLabel)
	}
	if top.Status != "PRESSURE HIGH" || top.StatusColor != ColorError {
		t.Fatalf("alarming status must render red: %+v", top)
	}
	if view.Events[1].Status != "Unknown" || view.Events[1].StatusColor != ColorSuccess {
		t.Fatalf("missing status defaults: %+v", view.Events[1])
	}
}

func TestDashboard_DailyRowsCappedAndDescending(t *testing.T) {
	records := make([]valvewatch.LogRecord, 0, 8)
	for day := 1; day <= 7; day++ {
		records = append(records, rec("A", fmt.Sprintf("2024-01-%02d 06:00:00", day), intPtr(1)))
	}
	store := newTestStore()
	store.ReplaceAll(records)
	svc := newTestDashboard(store)
	svc.now = func() time.Time { return time.Date(2024, time.January, 7, 12, 0, 0, 0, time.UTC) }

	view, _ := svc.View(context.Background())
	if len(view.Daily) != 5 {
		t.Fatalf("daily rows capped at 5, got %d", len(view.Daily))
	}
	for i := 0; i < len(view.Daily)-1; i++ {
		if view.Daily[i].Date <= view.Daily[i+1].Date {
			t.Fatalf("daily rows must be date-descending: %+v", view.Daily)
		}
	}
	if view.Daily[0].Date != "2024-01-07" {
		t.Fatalf("most recent day first: %+v", view.Daily[0])
	}
}

func TestDashboard_StaleViewPersists(t *testing.T) {
	store := newTestStore()
	store.ReplaceAll([]valvewatch.LogRecord{rec("A", "2024-01-01 04:05:00", intPtr(3))})
	svc := newTestDashboard(store)

	first, ok := svc.View(context.Background())
	if !ok {
		t.Fatalf("expected a view")
	}

	// The feed dried up entirely; the last good render survives.
	store.ReplaceAll(nil)
	second, ok := svc.View(context.Background())
	if !ok {
		t.Fatalf("stale view must remain available")
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("stale view differs from last render")
	}
}

func TestDashboard_NoDataNoView(t *testing.T) {
	svc := newTestDashboard(newTestStore())
	if _, ok := svc.View(context.Background()); ok {
		t.Fatalf("no data ever arrived; want ok=false")
	}
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		turns     int
		external  string
		wantLabel string
		wantColor string
	}{
		{name: "active default", turns: 2, external: "", wantLabel: "FLOW DETECTED", wantColor: ColorSuccess},
		{name: "active external wins", turns: 2, external: "VALVE OPEN", wantLabel: "VALVE OPEN", wantColor: ColorSuccess},
		{name: "idle default", turns: 0, external: "", wantLabel: "IDLE", wantColor: ColorAccent},
		{name: "idle external wins", turns: 0, external: "STANDBY", wantLabel: "STANDBY", wantColor: ColorAccent},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			label, color := ClassifyStatus(tc.turns, tc.external)
			if label != tc.wantLabel || color != tc.wantColor {
				t.Fatalf("ClassifyStatus(%d, %q) = %q/%q; want %q/%q",
					tc.turns, tc.external, label, color, tc.wantLabel, tc.wantColor)
			}
		})
	}
}

func TestClassifyCompliance(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score     int
		wantLabel string
	}{
		{score: 100, wantLabel: ComplianceAdhered},
		{score: 80, wantLabel: ComplianceAdhered},
		{score: 79, wantLabel: CompliancePartial},
		{score: 50, wantLabel: CompliancePartial},
		{score: 49, wantLabel: ComplianceFailed},
		{score: 0, wantLabel: ComplianceFailed},
	}
	for _, tc := range cases {
		label, _ := ClassifyCompliance(tc.score)
		if label != tc.wantLabel {
			t.Fatalf("score %d: want %q, got %q", tc.score, tc.wantLabel, label)
		}
	}
}
