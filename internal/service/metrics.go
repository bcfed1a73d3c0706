package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"valvewatch"
	"valvewatch/internal/timefix"
)

// ----------- Compliance scoring constants -----------
const (
	// ScheduleStartHour is the expected irrigation start hour (corrected
	// local time). Starting inside it earns the full time score.
	ScheduleStartHour = 4

	timeScoreOnSchedule  = 50.0
	timeScoreOffSchedule = 10.0

	durationScoreCap    = 50.0
	durationRampMinutes = 120.0
)

// Metrics placeholders for a day with no activity.
const (
	noActivityStart    = "--:--"
	noActivityDuration = "0m"
)

// CalculateDayMetrics derives start time, active duration and the compliance
// score from one calendar day's records. Input order does not matter; the
// active records are sorted internally. Records with an unparseable timestamp
// cannot be placed in time and are ignored rather than pinned to "now".
func CalculateDayMetrics(dayLogs []valvewatch.LogRecord, tf timefix.Policy) valvewatch.DailyMetrics {
	type active struct {
		rec valvewatch.LogRecord
		at  time.Time
	}
	actives := make([]active, 0, len(dayLogs))
	for _, r := range dayLogs {
		if r.EffectiveTurns() <= 0 {
			continue
		}
		at, ok := tf.Parse(r.CreatedAt)
		if !ok {
			continue
		}
		actives = append(actives, active{rec: r, at: at})
	}

	if len(actives) == 0 {
		return valvewatch.DailyMetrics{
			StartTime: noActivityStart,
			Duration:  noActivityDuration,
			Score:     0,
		}
	}

	sort.SliceStable(actives, func(i, j int) bool {
		return actives[i].at.Before(actives[j].at)
	})

	first := actives[0].at
	last := actives[len(actives)-1].at

	// Minutes of activity, clamped to at least 1 once anything happened.
	durationMin := int(last.Sub(first) / time.Minute)
	if durationMin < 1 {
		durationMin = 1
	}

	timeScore := timeScoreOffSchedule
	if tf.StartHour(first) == ScheduleStartHour {
		timeScore = timeScoreOnSchedule
	}
	durationScore := math.Min(float64(durationMin)/durationRampMinutes*durationScoreCap, durationScoreCap)

	return valvewatch.DailyMetrics{
		StartTime: tf.TimeOfDay(first),
		Duration:  fmt.Sprintf("%dh %dm", durationMin/60, durationMin%60),
		Score:     int(math.Floor(timeScore + durationScore)),
	}
}

// GroupByDay buckets records by their corrected calendar day. Records whose
// timestamp does not parse are dropped from the grouping.
func GroupByDay(logs []valvewatch.LogRecord, tf timefix.Policy) map[string][]valvewatch.LogRecord {
	grouped := make(map[string][]valvewatch.LogRecord)
	for _, r := range logs {
		at, ok := tf.Parse(r.CreatedAt)
		if !ok {
			continue
		}
		key := tf.DayKey(at)
		grouped[key] = append(grouped[key], r)
	}
	return grouped
}
