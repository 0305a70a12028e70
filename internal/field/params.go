package field

import (
	"fmt"
	"strings"
)

// Safety constrains mine placement relative to the first-opened cell.
type Safety int8

const (
	// SafetyRandom places mines with no regard for the first-opened
	// cell: the first open may lose the game.
	SafetyRandom Safety = iota
	// SafetySafe guarantees the first-opened cell is not a mine.
	SafetySafe
	// SafetyClear guarantees the first-opened cell and all of its
	// neighbors are not mines.
	SafetyClear
)

func ParseSafety(s string) (Safety, error) {
	switch strings.ToLower(s) {
	case "random":
		return SafetyRandom, nil
	case "safe":
		return SafetySafe, nil
	case "clear":
		return SafetyClear, nil
	}
	return 0, fmt.Errorf("unknown safety policy %q", s)
}

func (s Safety) String() string {
	switch s {
	case SafetyRandom:
		return "random"
	case SafetySafe:
		return "safe"
	case SafetyClear:
		return "clear"
	}
	return "invalid"
}

// Index addresses one cell of the grid.
type Index struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (i Index) String() string {
	return fmt.Sprintf("(%d,%d,%d)", i.X, i.Y, i.Z)
}

// Params describe one field: grid dimensions, target fraction of
// mined cells and the first-open safety policy. Immutable for the
// lifetime of a session.
type Params struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Depth   int     `json:"depth"`
	Density float64 `json:"density"`
	Safety  Safety  `json:"-"`
}

func (p Params) Validate() error {
	if p.Width < 1 || p.Height < 1 || p.Depth < 1 {
		return fmt.Errorf("every axis must be at least 1, got %dx%dx%d", p.Width, p.Height, p.Depth)
	}
	// The negated form also rejects NaN, which fails every ordered
	// comparison.
	if !(p.Density >= 0 && p.Density <= 1) {
		return fmt.Errorf("density must be within [0, 1], got %v", p.Density)
	}
	if p.Safety < SafetyRandom || p.Safety > SafetyClear {
		return fmt.Errorf("unknown safety policy")
	}
	return nil
}

func (p Params) CellCount() int {
	return p.Width * p.Height * p.Depth
}

func (p Params) Contains(idx Index) bool {
	return 0 <= idx.X && idx.X < p.Width &&
		0 <= idx.Y && idx.Y < p.Height &&
		0 <= idx.Z && idx.Z < p.Depth
}

func (p Params) offset(idx Index) int {
	return (idx.Z*p.Height+idx.Y)*p.Width + idx.X
}

func (p Params) index(offset int) Index {
	return Index{
		X: offset % p.Width,
		Y: offset / p.Width % p.Height,
		Z: offset / (p.Width * p.Height),
	}
}
