package session

import "github.com/voxfield/minesweeper3d-server/internal/field"

// EventType discriminates outward disclosures.
type EventType string

const (
	// EventCellRevealed: a cell's true contents became visible.
	EventCellRevealed EventType = "cell_revealed"
	// EventCellMarked: a cell's suspected-mine mark was toggled.
	EventCellMarked EventType = "cell_marked"
	// EventSessionEnded: the round finished with a result.
	EventSessionEnded EventType = "session_ended"
	// EventEndReveal: post-game disclosure of one still-hidden cell.
	EventEndReveal EventType = "end_reveal"
)

// Event is one outward disclosure. Which fields are set depends on
// Type; unset fields are omitted from JSON.
type Event struct {
	Type      EventType       `json:"type"`
	Index     *field.Index    `json:"index,omitempty"`
	Contents  *field.Contents `json:"contents,omitempty"`
	Marked    *bool           `json:"marked,omitempty"`
	WasMarked *bool           `json:"was_marked,omitempty"`
	Result    string          `json:"result,omitempty"`
}

func cellRevealed(r field.Reveal) Event {
	idx, contents := r.Index, r.Contents
	return Event{
		Type:     EventCellRevealed,
		Index:    &idx,
		Contents: &contents,
	}
}

func cellMarked(idx field.Index, marked bool) Event {
	return Event{
		Type:   EventCellMarked,
		Index:  &idx,
		Marked: &marked,
	}
}

func sessionEnded(st Status) Event {
	return Event{
		Type:   EventSessionEnded,
		Result: st.String(),
	}
}

func endReveal(h field.Hidden) Event {
	idx, contents, wasMarked := h.Index, h.Contents, h.WasMarked
	return Event{
		Type:      EventEndReveal,
		Index:     &idx,
		Contents:  &contents,
		WasMarked: &wasMarked,
	}
}
