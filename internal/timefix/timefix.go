package timefix

import (
	"time"
)

// The upstream feed reports naive local timestamps that are ahead of the
// moment they describe by a fixed amount. Policy names that correction in one
// place: parse the raw string, subtract Offset, present in Zone.
type Policy struct {
	Offset time.Duration
	Zone   *time.Location
}

// SourceOffset is the assumed skew of the upstream timestamps (5.5 h,
// 19,800,000 ms). It is a static assumption about the feed, not derived from
// actual offsets; if the upstream format ever changes this is the one knob.
const SourceOffset = 5*time.Hour + 30*time.Minute

const displayZoneName = "Asia/Kolkata"

// Placeholder strings for records the pipeline must survive but not disguise.
const (
	PlaceholderEmpty   = "--/-- --:--"
	PlaceholderInvalid = "Invalid Time"
)

const (
	layoutDateTime  = "2006-01-02 15:04:05"
	layoutDateTimeT = "2006-01-02T15:04:05"
	layoutDisplay   = "Jan 2, 03:04:05 PM"
	layoutTimeOfDay = "03:04 PM"
	layoutDayKey    = "2006-01-02"
	layoutClockDate = "Mon, Jan 2"
	layoutClockTime = "03:04:05 PM"
)

// Default returns the production policy.
func Default() Policy {
	return Policy{Offset: SourceOffset, Zone: displayZone()}
}

// displayZone loads the display timezone, falling back to a fixed IST zone
// when the host has no tzdata.
func displayZone() *time.Location {
	loc, err := time.LoadLocation(displayZoneName)
	if err != nil {
		return time.FixedZone("IST", int((5*time.Hour + 30*time.Minute).Seconds()))
	}
	return loc
}

// Parse converts a raw naive timestamp into the corrected moment in the
// display zone. The second return is false for empty or unparseable input;
// callers decide how to degrade — there is no silent "now" substitution.
func (p Policy) Parse(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{layoutDateTime, layoutDateTimeT, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Add(-p.Offset).In(p.Zone), true
		}
	}
	return time.Time{}, false
}

// DisplayDateTime renders the corrected timestamp for the event tables.
// Fails soft: empty and unparseable inputs get distinct placeholders.
func (p Policy) DisplayDateTime(raw string) string {
	if raw == "" {
		return PlaceholderEmpty
	}
	t, ok := p.Parse(raw)
	if !ok {
		return PlaceholderInvalid
	}
	return t.Format(layoutDisplay)
}

// TimeOfDay renders a corrected moment as a 12-hour clock reading.
func (p Policy) TimeOfDay(t time.Time) string {
	return t.In(p.Zone).Format(layoutTimeOfDay)
}

// DayKey buckets a corrected moment into its calendar day in the display
// zone. Grouping and scoring use the same zone so a day never straddles two
// keys.
func (p Policy) DayKey(t time.Time) string {
	return t.In(p.Zone).Format(layoutDayKey)
}

// Today returns the current day key.
func (p Policy) Today(now time.Time) string {
	return p.DayKey(now)
}

// StartHour returns the hour-of-day of a corrected moment, as used by the
// compliance schedule check.
func (p Policy) StartHour(t time.Time) int {
	return t.In(p.Zone).Hour()
}

// Clock renders the live wall clock in the display zone.
func (p Policy) Clock(now time.Time) string {
	local := now.In(p.Zone)
	return local.Format(layoutClockDate) + " • " + local.Format(layoutClockTime)
}
