// Package session owns the lifecycle of one mine-clearing round: it
// validates raw open/mark commands, drives the field, and translates
// field results into the outward disclosure events a front end
// consumes.
package session

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/voxfield/minesweeper3d-server/internal/field"
)

// Status is the session lifecycle state. Transitions only move
// forward: Start -> Playing -> Victory or Defeat.
type Status int8

const (
	// StatusStart: no mines placed yet; the first open triggers
	// placement.
	StatusStart Status = iota
	StatusPlaying
	StatusVictory
	StatusDefeat
)

func (s Status) Over() bool {
	return s == StatusVictory || s == StatusDefeat
}

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "start"
	case StatusPlaying:
		return "playing"
	case StatusVictory:
		return "victory"
	case StatusDefeat:
		return "defeat"
	}
	return "invalid"
}

// Rejected commands. The command is a no-op: no state change, no
// events.
var (
	ErrOutOfBounds  = errors.New("cell index out of bounds")
	ErrCellRevealed = errors.New("cell already revealed")
	ErrCellMarked   = errors.New("cell is marked, unmark it first")
	ErrGameOver     = errors.New("session has ended")
)

// Session couples one Field with the state machine around it. It does
// no locking; the owner serializes commands (see Handle).
type Session struct {
	field     *field.Field
	status    Status
	startedAt time.Time
	endedAt   time.Time
}

func New(params field.Params, rnd *rand.Rand) (*Session, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Session{
		field:     field.New(params, rnd),
		startedAt: time.Now().UTC(),
	}, nil
}

func (s *Session) Status() Status       { return s.status }
func (s *Session) Params() field.Params { return s.field.Params() }
func (s *Session) StartedAt() time.Time { return s.startedAt }

// EndedAt is zero while the session is live.
func (s *Session) EndedAt() time.Time { return s.endedAt }

// View renders the player-visible grid in offset order.
func (s *Session) View() []field.CellView { return s.field.View() }

// BindEntity forwards a presentation-layer object id to the field.
func (s *Session) BindEntity(idx field.Index, id int64) error {
	if !s.field.Params().Contains(idx) {
		return ErrOutOfBounds
	}
	s.field.BindEntity(idx, id)
	return nil
}

// Open resolves an open-cell command. The first successful open moves
// the session to Playing and places the mines. Events carry each
// disclosed cell, then session_ended plus the end-of-round reveal pass
// when this open finished the game.
func (s *Session) Open(idx field.Index) ([]Event, error) {
	if s.status.Over() {
		return nil, ErrGameOver
	}
	if !s.field.Params().Contains(idx) {
		return nil, ErrOutOfBounds
	}
	if s.field.Revealed(idx) {
		return nil, ErrCellRevealed
	}
	if s.field.Marked(idx) {
		return nil, ErrCellMarked
	}

	if s.status == StatusStart {
		s.status = StatusPlaying
	}

	out := s.field.Open(idx)
	events := make([]Event, 0, len(out.Revealed)+1)
	for _, r := range out.Revealed {
		events = append(events, cellRevealed(r))
	}
	switch {
	case out.Exploded:
		events = s.end(StatusDefeat, events)
	case out.Won:
		events = s.end(StatusVictory, events)
	}
	return events, nil
}

// ToggleMark flips the suspected-mine mark on a hidden cell.
func (s *Session) ToggleMark(idx field.Index) ([]Event, error) {
	if s.status.Over() {
		return nil, ErrGameOver
	}
	if !s.field.Params().Contains(idx) {
		return nil, ErrOutOfBounds
	}
	if s.field.Revealed(idx) {
		return nil, ErrCellRevealed
	}
	marked := s.field.ToggleMark(idx)
	return []Event{cellMarked(idx, marked)}, nil
}

// Forfeit ends a live session as a defeat and runs the end-of-round
// reveal. Forfeiting a finished session is a no-op.
func (s *Session) Forfeit() []Event {
	if s.status.Over() {
		return nil
	}
	return s.end(StatusDefeat, nil)
}

func (s *Session) end(st Status, events []Event) []Event {
	s.status = st
	s.endedAt = time.Now().UTC()
	events = append(events, sessionEnded(st))
	for _, h := range s.field.HiddenCells() {
		events = append(events, endReveal(h))
	}
	return events
}

// Playtime is the wall time from session start to end; zero while
// live.
func (s *Session) Playtime() time.Duration {
	if s.endedAt.IsZero() {
		return 0
	}
	return s.endedAt.Sub(s.startedAt)
}
