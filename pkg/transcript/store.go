package transcript

import (
	"sort"
	"sync"

	"github.com/meetscribe/meetscribe-cli/pkg/logging"
)

// ChangeListener is invoked after a batch of segments mutates the store.
// Listeners are called outside the store lock, one batch at a time.
type ChangeListener func()

// entry pairs a segment with its insertion order, which breaks ties between
// segments sharing a relative start time.
type entry struct {
	seg Segment
	seq int
}

// Store is an in-memory, order-preserving mapping from a segment's stable
// identity (AbsoluteStartTime) to its current content. Upserts are idempotent:
// revisions with the same key merge by UpdatedAt, last write winning when
// either side lacks a revision timestamp. The store is owned by exactly one
// session at a time and is reset on session teardown.
type Store struct {
	mu      sync.RWMutex
	byKey   map[string]*entry
	sorted  []Segment
	seeded  bool
	nextSeq int

	subMu     sync.Mutex
	listeners map[int]ChangeListener
	nextSub   int

	log logging.Logger
}

// NewStore creates an empty transcript store.
func NewStore(log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Store{
		byKey:     make(map[string]*entry),
		listeners: make(map[int]ChangeListener),
		log:       log,
	}
}

// Seed bootstraps the store from a snapshot. It is effective at most once per
// session: subsequent calls are ignored until Reset. Returns whether the
// snapshot was applied.
func (s *Store) Seed(segments []Segment) bool {
	s.mu.Lock()
	if s.seeded {
		s.mu.Unlock()
		return false
	}
	s.seeded = true
	changed := s.mergeLocked(segments)
	s.mu.Unlock()

	if changed > 0 {
		s.notify()
	}
	return true
}

// Seeded reports whether the store has been bootstrapped this session.
func (s *Store) Seeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seeded
}

// Upsert merges a batch of segments into the store and returns the number of
// segments inserted or overwritten. Segments missing an identity key or text
// are dropped; a malformed fragment never corrupts the store.
func (s *Store) Upsert(segments []Segment) int {
	s.mu.Lock()
	changed := s.mergeLocked(segments)
	s.mu.Unlock()

	if changed > 0 {
		s.notify()
	}
	return changed
}

// mergeLocked applies the merge rule per segment and recomputes the ordered
// view if anything changed. Caller holds s.mu.
func (s *Store) mergeLocked(segments []Segment) int {
	changed := 0
	for _, seg := range segments {
		if !seg.Valid() {
			s.log.Debug("dropping malformed segment",
				logging.F("key", seg.AbsoluteStartTime),
				logging.F("has_text", seg.Text != ""))
			continue
		}

		cur, ok := s.byKey[seg.AbsoluteStartTime]
		if !ok {
			s.byKey[seg.AbsoluteStartTime] = &entry{seg: seg, seq: s.nextSeq}
			s.nextSeq++
			changed++
			continue
		}
		if seg.revisedAfter(cur.seg) {
			cur.seg = seg
			changed++
		}
	}

	if changed > 0 {
		s.resortLocked()
	}
	return changed
}

// resortLocked rebuilds the exposed ordered view: sorted by relative start
// time, ties broken by insertion order. O(n log n) per batch, which is fine at
// meeting-scale segment counts.
func (s *Store) resortLocked() {
	entries := make([]*entry, 0, len(s.byKey))
	for _, e := range s.byKey {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].seg.RelativeStartTime != entries[j].seg.RelativeStartTime {
			return entries[i].seg.RelativeStartTime < entries[j].seg.RelativeStartTime
		}
		return entries[i].seq < entries[j].seq
	})

	s.sorted = make([]Segment, len(entries))
	for i, e := range entries {
		s.sorted[i] = e.seg
	}
}

// All returns the current segments ordered by relative start time.
// The returned slice is a copy and safe to retain.
func (s *Store) All() []Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Segment, len(s.sorted))
	copy(out, s.sorted)
	return out
}

// Len returns the number of distinct segments held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Reset clears all segments and the seeded flag. Called on session teardown
// so a future activation re-bootstraps from a fresh snapshot.
func (s *Store) Reset() {
	s.mu.Lock()
	s.byKey = make(map[string]*entry)
	s.sorted = nil
	s.seeded = false
	s.nextSeq = 0
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers a change listener and returns a function that removes
// it. Listeners fire once per mutating batch, after the mutation is visible.
func (s *Store) Subscribe(fn ChangeListener) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

// notify invokes all registered listeners outside the store lock.
func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]ChangeListener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
