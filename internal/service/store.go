package service

import (
	"errors"
	"sort"
	"sync"
	"time"

	"valvewatch"
	"valvewatch/internal/timefix"
)

var ErrUnknownDevice = errors.New("unknown device")

// Store holds the in-memory telemetry log and the derived device registry.
// It replaces the ambient globals of a typical dashboard client with one
// mutex-guarded object owned by the service layer: the poller writes, the
// renderer reads.
//
// Invariant: the log is replaced wholesale on every successful fetch — no
// incremental merge, no de-duplication across polls.
type Store struct {
	mu      sync.RWMutex
	tf      timefix.Policy
	records []valvewatch.LogRecord
	devices []string
	current string
	online  bool
}

func NewStore(tf timefix.Policy) *Store {
	return &Store{tf: tf, online: true}
}

// ReplaceAll swaps in the latest fetched log and refreshes the device
// registry from it.
func (s *Store) ReplaceAll(records []valvewatch.LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]valvewatch.LogRecord(nil), records...)
	s.syncDevices()
}

// syncDevices derives the distinct valve IDs (first-seen order) and rebuilds
// the selector set when it changed, preserving the current selection if it
// survived. The preserve branch re-asserts current so the selector and the
// renderer can never disagree. Caller holds the lock.
func (s *Store) syncDevices() {
	found := make([]string, 0, 4)
	seen := make(map[string]struct{}, 4)
	for _, r := range s.records {
		if _, ok := seen[r.ValveID]; ok {
			continue
		}
		seen[r.ValveID] = struct{}{}
		found = append(found, r.ValveID)
	}

	if sameIDSet(found, s.devices) {
		return
	}
	s.devices = found

	if _, ok := seen[s.current]; ok && s.current != "" {
		return // selection survived
	}
	if len(s.devices) > 0 {
		s.current = s.devices[0]
	} else {
		s.current = ""
	}
}

// sameIDSet compares two ID slices as sorted sequences.
func sameIDSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// Devices returns the known device IDs and the current selection.
func (s *Store) Devices() ([]string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.devices...), s.current
}

// Select makes id the current device. Unknown IDs are rejected.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.devices {
		if d == id {
			s.current = id
			return nil
		}
	}
	return ErrUnknownDevice
}

// Current returns the selected device ID ("" before any data arrived).
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// DeviceHistory returns the current log filtered to one device, sorted
// descending by corrected event time. Records whose timestamp does not parse
// sort last.
func (s *Store) DeviceHistory(id string) []valvewatch.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type keyed struct {
		rec valvewatch.LogRecord
		at  time.Time
		ok  bool
	}
	history := make([]keyed, 0, len(s.records))
	for _, r := range s.records {
		if r.ValveID != id {
			continue
		}
		at, ok := s.tf.Parse(r.CreatedAt)
		history = append(history, keyed{rec: r, at: at, ok: ok})
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].ok != history[j].ok {
			return history[i].ok
		}
		return history[i].at.After(history[j].at)
	})

	out := make([]valvewatch.LogRecord, len(history))
	for i, k := range history {
		out[i] = k.rec
	}
	return out
}

// SetOnline records the upstream link state and reports whether it changed.
func (s *Store) SetOnline(online bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.online != online
	s.online = online
	return changed
}

// Online reports the last observed link state.
func (s *Store) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// Len reports the size of the in-memory log.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
