package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meetscribe/meetscribe-cli/pkg/logging"
)

func seg(key, text string, start float64, updatedAt string) Segment {
	return Segment{
		AbsoluteStartTime: key,
		RelativeStartTime: start,
		Text:              text,
		Speaker:           "Alice",
		UpdatedAt:         updatedAt,
	}
}

func TestStore_UpsertIdempotent(t *testing.T) {
	s := NewStore(logging.NewNopLogger())

	a := seg("2026-08-26T10:00:00Z", "hello", 1.0, "2026-08-26T10:00:01Z")
	s.Upsert([]Segment{a})
	first := s.All()

	s.Upsert([]Segment{a})
	second := s.All()

	assert.Equal(t, first, second)
	assert.Equal(t, 1, s.Len())
}

func TestStore_LastWriteWinsByRevision(t *testing.T) {
	older := seg("k1", "hello", 1.0, "2026-08-26T10:00:01Z")
	newer := seg("k1", "hello world", 1.0, "2026-08-26T10:00:02Z")

	t.Run("older then newer", func(t *testing.T) {
		s := NewStore(nil)
		s.Upsert([]Segment{older})
		s.Upsert([]Segment{newer})
		all := s.All()
		require.Len(t, all, 1)
		assert.Equal(t, "hello world", all[0].Text)
	})

	t.Run("newer then older", func(t *testing.T) {
		s := NewStore(nil)
		s.Upsert([]Segment{newer})
		s.Upsert([]Segment{older})
		all := s.All()
		require.Len(t, all, 1)
		assert.Equal(t, "hello world", all[0].Text)
	})

	t.Run("equal revisions keep existing", func(t *testing.T) {
		s := NewStore(nil)
		s.Upsert([]Segment{older})
		same := older
		same.Text = "revised with same timestamp"
		s.Upsert([]Segment{same})
		all := s.All()
		require.Len(t, all, 1)
		assert.Equal(t, "hello", all[0].Text)
	})
}

func TestStore_UnconditionalOverwriteWithoutRevision(t *testing.T) {
	s := NewStore(nil)

	s.Upsert([]Segment{seg("k1", "first", 1.0, "")})
	s.Upsert([]Segment{seg("k1", "second", 1.0, "")})

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "second", all[0].Text)

	// Missing on one side also overwrites, regardless of the other's value.
	s.Upsert([]Segment{seg("k1", "third", 1.0, "2026-08-26T10:00:00Z")})
	s.Upsert([]Segment{seg("k1", "fourth", 1.0, "")})
	all = s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "fourth", all[0].Text)
}

func TestStore_OrderingByRelativeStart(t *testing.T) {
	s := NewStore(nil)

	s.Upsert([]Segment{
		seg("c", "third", 30.0, ""),
		seg("a", "first", 10.0, ""),
	})
	s.Upsert([]Segment{seg("b", "second", 20.0, "")})

	all := s.All()
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Text)
	assert.Equal(t, "second", all[1].Text)
	assert.Equal(t, "third", all[2].Text)
}

func TestStore_OrderingTieBreaksByInsertion(t *testing.T) {
	s := NewStore(nil)

	s.Upsert([]Segment{seg("x", "earlier insert", 5.0, "")})
	s.Upsert([]Segment{seg("y", "later insert", 5.0, "")})

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, "earlier insert", all[0].Text)
	assert.Equal(t, "later insert", all[1].Text)
}

func TestStore_MalformedSegmentsDropped(t *testing.T) {
	s := NewStore(nil)

	s.Upsert([]Segment{seg("k1", "kept", 1.0, "")})
	changed := s.Upsert([]Segment{
		{AbsoluteStartTime: "t2", Text: ""},      // empty text
		{AbsoluteStartTime: "", Text: "no key"},  // missing identity
	})

	assert.Equal(t, 0, changed)
	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "kept", all[0].Text)
}

func TestStore_SeedOnlyOnce(t *testing.T) {
	s := NewStore(nil)

	applied := s.Seed([]Segment{seg("k1", "from snapshot", 1.0, "")})
	assert.True(t, applied)
	assert.True(t, s.Seeded())

	applied = s.Seed([]Segment{seg("k2", "second snapshot", 2.0, "")})
	assert.False(t, applied)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SnapshotThenStreamRevision(t *testing.T) {
	s := NewStore(nil)

	s.Seed([]Segment{seg("t1", "hello", 1.0, "")})
	s.Upsert([]Segment{seg("t1", "hello world", 1.0, "2")})

	all := s.All()
	require.Len(t, all, 1)
	assert.Equal(t, "hello world", all[0].Text)
}

func TestStore_ResetClearsSeededFlag(t *testing.T) {
	s := NewStore(nil)

	s.Seed([]Segment{seg("k1", "one", 1.0, "")})
	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Seeded())

	applied := s.Seed([]Segment{seg("k2", "two", 2.0, "")})
	assert.True(t, applied)
	assert.Equal(t, 1, s.Len())
}

func TestStore_SubscribeNotifiesOnMutation(t *testing.T) {
	s := NewStore(nil)

	var calls int
	unsub := s.Subscribe(func() { calls++ })

	s.Upsert([]Segment{seg("k1", "one", 1.0, "")})
	assert.Equal(t, 1, calls)

	// A batch that changes nothing must not notify.
	s.Upsert([]Segment{{AbsoluteStartTime: "bad", Text: ""}})
	assert.Equal(t, 1, calls)

	unsub()
	s.Upsert([]Segment{seg("k2", "two", 2.0, "")})
	assert.Equal(t, 1, calls)
}
