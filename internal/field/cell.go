package field

import "strconv"

// Contents is what a cell holds once mines are placed: Mine, or an
// empty cell with its count of mined neighbors (0..26 in a 3x3x3
// neighborhood).
type Contents int8

const Mine Contents = -1

func (c Contents) IsMine() bool { return c == Mine }

// AdjacentMines is only meaningful for empty cells.
func (c Contents) AdjacentMines() int { return int(c) }

func (c Contents) String() string {
	if c == Mine {
		return "*"
	}
	return strconv.Itoa(int(c))
}

// CellView is a cell as the player sees it.
type CellView int8

const (
	ViewHidden CellView = -2
	ViewMarked CellView = -1
	// 0..26 for a revealed empty cell
	ViewMine CellView = 64 // revealed (exploded) mine
)

func (v CellView) String() string {
	switch {
	case v == ViewHidden:
		return "."
	case v == ViewMarked:
		return "?"
	case v == ViewMine:
		return "*"
	case 0 <= v && v <= 26:
		return strconv.Itoa(int(v))
	default:
		return "!"
	}
}

type cell struct {
	contents Contents
	revealed bool
	marked   bool
	// id of the presentation-layer object bound to this cell, opaque
	// to the field
	entity int64
}

func (c cell) view() CellView {
	switch {
	case !c.revealed && c.marked:
		return ViewMarked
	case !c.revealed:
		return ViewHidden
	case c.contents == Mine:
		return ViewMine
	default:
		return CellView(c.contents)
	}
}
