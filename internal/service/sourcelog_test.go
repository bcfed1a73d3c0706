package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"valvewatch"
)

func fixedZone(name string, offsetSec int) *time.Location {
	return time.FixedZone(name, offsetSec)
}

func mustTimeIn(loc *time.Location, y int, m time.Month, d, hh, mm, ss int) time.Time {
	return time.Date(y, m, d, hh, mm, ss, 0, loc)
}

func Test_normalizeToUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want func(time.Time) bool
	}{
		{
			name: "zero time remains zero",
			in:   time.Time{},
			want: func(out time.Time) bool { return out.IsZero() },
		},
		{
			name: "non-UTC converted to UTC preserving instant",
			in:   mustTimeIn(fixedZone("UTC+3", 3*3600), 2026, time.August, 1, 12, 34, 56),
			want: func(out time.Time) bool {
				exp := time.Date(2026, time.August, 1, 9, 34, 56, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
		{
			name: "already UTC stays UTC and same instant",
			in:   time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC),
			want: func(out time.Time) bool {
				exp := time.Date(2026, time.August, 2, 0, 0, 0, 0, time.UTC)
				return out.Location() == time.UTC && out.Equal(exp)
			},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeToUTC(tc.in)
			if !tc.want(got) {
				t.Fatalf("unexpected normalizeToUTC result: %v (loc=%v)", got, got.Location())
			}
		})
	}
}

func Test_normalizeEventType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		exp  string
	}{
		{name: "empty stays empty", in: "", exp: ""},
		{name: "trim spaces", in: "  ATTACH ", exp: "ATTACH"},
		{name: "uppercase", in: "link_down", exp: "LINK_DOWN"},
		{name: "spaces preserved except ends", in: " link_up ", exp: "LINK_UP"},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := normalizeEventType(c.in)
			if got != c.exp {
				t.Fatalf("normalizeEventType(%q) = %q; want %q", c.in, got, c.exp)
			}
		})
	}
}

func TestSourceLogService_List(t *testing.T) {
	t.Parallel()

	t.Run("passes normalized filter to repo", func(t *testing.T) {
		t.Parallel()
		repo := &fakeSourceEventRepo{listResp: []valvewatch.SourceEvent{{EventID: "e1", Type: EventAttach}}}
		svc := NewSourceLogService(repo)

		from := mustTimeIn(fixedZone("UTC+3", 3*3600), 2026, time.August, 1, 12, 0, 0)
		got, err := svc.List(context.Background(), LogFilter{From: from, Type: " link_down "})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(got) != 1 || got[0].EventID != "e1" {
			t.Fatalf("unexpected events: %v", got)
		}
		if repo.gotType != "LINK_DOWN" {
			t.Fatalf("type not normalized: %q", repo.gotType)
		}
		if repo.gotFrom.Location() != time.UTC {
			t.Fatalf("from not normalized to UTC: %v", repo.gotFrom)
		}
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		t.Parallel()
		svc := NewSourceLogService(&fakeSourceEventRepo{})
		_, err := svc.List(context.Background(), LogFilter{
			From: time.Date(2026, time.August, 10, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC),
		})
		if !errors.Is(err, errInvalidTimeRange) {
			t.Fatalf("want errInvalidTimeRange, got %v", err)
		}
	})

	t.Run("propagates repo error", func(t *testing.T) {
		t.Parallel()
		svc := NewSourceLogService(&fakeSourceEventRepo{listErr: errors.New("db down")})
		if _, err := svc.List(context.Background(), LogFilter{}); err == nil {
			t.Fatalf("expected repo error")
		}
	})
}
