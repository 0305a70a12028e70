package session

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxfield/minesweeper3d-server/internal/field"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func newTestSession(t *testing.T, params field.Params) *Session {
	t.Helper()
	s, err := New(params, testRand())
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadParams(t *testing.T) {
	t.Parallel()

	_, err := New(field.Params{Width: 0, Height: 3, Depth: 3, Density: 0.1}, testRand())
	assert.Error(t, err)

	_, err = New(field.Params{Width: 3, Height: 3, Depth: 3, Density: 1.5}, testRand())
	assert.Error(t, err)

	_, err = New(field.Params{Width: 3, Height: 3, Depth: 3, Density: math.NaN()}, testRand())
	assert.Error(t, err)
}

func TestImmediateVictoryOnEmptyField(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, field.Params{Width: 3, Height: 3, Depth: 3, Density: 0, Safety: field.SafetyClear})
	assert.Equal(t, StatusStart, s.Status())

	events, err := s.Open(field.Index{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)

	assert.Equal(t, StatusVictory, s.Status())
	require.Len(t, events, 28, "27 reveals and one session_ended")
	for _, e := range events[:27] {
		assert.Equal(t, EventCellRevealed, e.Type)
	}
	last := events[27]
	assert.Equal(t, EventSessionEnded, last.Type)
	assert.Equal(t, "victory", last.Result)
	assert.False(t, s.EndedAt().IsZero())
}

func TestVictoryRevealsRemainingMines(t *testing.T) {
	t.Parallel()

	// 2x1x1 with density 0.5 under Safe: the single mine is forced
	// into the cell the player did not open.
	s := newTestSession(t, field.Params{Width: 2, Height: 1, Depth: 1, Density: 0.5, Safety: field.SafetySafe})

	_, err := s.ToggleMark(field.Index{X: 1})
	require.NoError(t, err)

	events, err := s.Open(field.Index{})
	require.NoError(t, err)

	assert.Equal(t, StatusVictory, s.Status())
	require.Len(t, events, 3)
	assert.Equal(t, EventCellRevealed, events[0].Type)
	assert.Equal(t, 1, events[0].Contents.AdjacentMines())
	assert.Equal(t, EventSessionEnded, events[1].Type)
	assert.Equal(t, "victory", events[1].Result)

	reveal := events[2]
	assert.Equal(t, EventEndReveal, reveal.Type)
	assert.Equal(t, field.Index{X: 1}, *reveal.Index)
	assert.True(t, reveal.Contents.IsMine())
	assert.True(t, *reveal.WasMarked)
}

func TestDefeatOnMine(t *testing.T) {
	t.Parallel()

	// Density 1 under Random mines every cell: the first open
	// explodes.
	s := newTestSession(t, field.Params{Width: 2, Height: 2, Depth: 1, Density: 1, Safety: field.SafetyRandom})

	_, err := s.ToggleMark(field.Index{X: 1})
	require.NoError(t, err)

	events, err := s.Open(field.Index{})
	require.NoError(t, err)

	assert.Equal(t, StatusDefeat, s.Status())
	require.Len(t, events, 5, "exploded mine, session_ended, three end reveals")
	assert.Equal(t, EventCellRevealed, events[0].Type)
	assert.True(t, events[0].Contents.IsMine())
	assert.Equal(t, EventSessionEnded, events[1].Type)
	assert.Equal(t, "defeat", events[1].Result)

	marked := 0
	for _, e := range events[2:] {
		assert.Equal(t, EventEndReveal, e.Type)
		assert.True(t, e.Contents.IsMine())
		if *e.WasMarked {
			marked++
		}
	}
	assert.Equal(t, 1, marked)
}

func TestRejectedCommandsAreNoOps(t *testing.T) {
	t.Parallel()

	params := field.Params{Width: 3, Height: 3, Depth: 1, Density: 0.2, Safety: field.SafetySafe}

	t.Run("out of bounds", func(t *testing.T) {
		s := newTestSession(t, params)
		before := s.View()
		for _, idx := range []field.Index{
			{X: -1}, {X: 3}, {Y: 3}, {Z: 1}, {X: 0, Y: 0, Z: -1},
		} {
			_, err := s.Open(idx)
			assert.ErrorIs(t, err, ErrOutOfBounds)
			_, err = s.ToggleMark(idx)
			assert.ErrorIs(t, err, ErrOutOfBounds)
		}
		assert.Equal(t, before, s.View())
		assert.Equal(t, StatusStart, s.Status(), "rejected commands must not start the session")
	})

	t.Run("open on marked cell", func(t *testing.T) {
		s := newTestSession(t, params)
		_, err := s.ToggleMark(field.Index{X: 1, Y: 1})
		require.NoError(t, err)
		before := s.View()

		_, err = s.Open(field.Index{X: 1, Y: 1})
		assert.ErrorIs(t, err, ErrCellMarked)
		assert.Equal(t, before, s.View())
	})

	t.Run("double open and mark on revealed", func(t *testing.T) {
		s := newTestSession(t, field.Params{Width: 3, Height: 3, Depth: 1, Density: 0.5, Safety: field.SafetySafe})
		_, err := s.Open(field.Index{X: 1, Y: 1})
		require.NoError(t, err)
		before := s.View()

		_, err = s.Open(field.Index{X: 1, Y: 1})
		assert.ErrorIs(t, err, ErrCellRevealed)
		_, err = s.ToggleMark(field.Index{X: 1, Y: 1})
		assert.ErrorIs(t, err, ErrCellRevealed)
		assert.Equal(t, before, s.View())
	})

	t.Run("commands after game over", func(t *testing.T) {
		s := newTestSession(t, field.Params{Width: 2, Height: 1, Depth: 1, Density: 1, Safety: field.SafetyRandom})
		_, err := s.Open(field.Index{})
		require.NoError(t, err)
		require.Equal(t, StatusDefeat, s.Status())

		_, err = s.Open(field.Index{X: 1})
		assert.ErrorIs(t, err, ErrGameOver)
		_, err = s.ToggleMark(field.Index{X: 1})
		assert.ErrorIs(t, err, ErrGameOver)
	})
}

func TestToggleMarkEmitsEvent(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, field.Params{Width: 3, Height: 3, Depth: 1, Density: 0.1, Safety: field.SafetySafe})
	idx := field.Index{X: 2, Y: 2}

	events, err := s.ToggleMark(idx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventCellMarked, events[0].Type)
	assert.Equal(t, idx, *events[0].Index)
	assert.True(t, *events[0].Marked)

	events, err = s.ToggleMark(idx)
	require.NoError(t, err)
	assert.False(t, *events[0].Marked)

	assert.Equal(t, StatusStart, s.Status(), "marking alone must not start the session")
}

func TestForfeit(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, field.Params{Width: 2, Height: 2, Depth: 1, Density: 0.25, Safety: field.SafetySafe})
	_, err := s.Open(field.Index{})
	require.NoError(t, err)

	events := s.Forfeit()
	assert.Equal(t, StatusDefeat, s.Status())
	require.NotEmpty(t, events)
	assert.Equal(t, EventSessionEnded, events[0].Type)
	assert.Equal(t, "defeat", events[0].Result)
	for _, e := range events[1:] {
		assert.Equal(t, EventEndReveal, e.Type)
	}

	assert.Nil(t, s.Forfeit(), "forfeiting a finished session is a no-op")
}

func TestBindEntity(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, field.Params{Width: 2, Height: 2, Depth: 2, Density: 0, Safety: field.SafetyRandom})
	assert.NoError(t, s.BindEntity(field.Index{X: 1, Y: 1, Z: 1}, 42))
	assert.ErrorIs(t, s.BindEntity(field.Index{X: 2}, 43), ErrOutOfBounds)
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	s := newTestSession(t, field.Params{Width: 3, Height: 3, Depth: 3, Density: 0.1, Safety: field.SafetySafe})

	h := r.Put(s)
	assert.NotEmpty(t, h.ID)

	got, ok := r.Get(h.ID)
	require.True(t, ok)
	assert.Same(t, h, got)

	err := h.Do(func(s *Session) error {
		_, err := s.ToggleMark(field.Index{X: 1, Y: 1, Z: 1})
		return err
	})
	assert.NoError(t, err)

	r.Delete(h.ID)
	_, ok = r.Get(h.ID)
	assert.False(t, ok)
}

func TestSessionIDs(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for range 100 {
		id := newSessionID()
		assert.Len(t, id, 16)
		assert.NotEqual(t, "0000000000000000", id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
