package field

import (
	"math"
	"math/rand/v2"
	"strings"
)

// Field owns the 3D grid of cells and the placement, reveal and win
// logic. Mine placement is lazy: it happens on the first Open so the
// safety policy can be honored relative to the opened cell.
//
// Field does no validation and no locking. Callers keep indexes in
// bounds, refuse double-opens and opens on marked cells, and serialize
// access (one command runs to completion before the next).
type Field struct {
	params    Params
	cells     []cell
	populated bool
	rnd       *rand.Rand
}

func New(params Params, rnd *rand.Rand) *Field {
	return &Field{
		params: params,
		cells:  make([]cell, params.CellCount()),
		rnd:    rnd,
	}
}

func (f *Field) Params() Params { return f.params }

func (f *Field) Populated() bool { return f.populated }

func (f *Field) at(idx Index) *cell {
	return &f.cells[f.params.offset(idx)]
}

func (f *Field) Revealed(idx Index) bool { return f.at(idx).revealed }
func (f *Field) Marked(idx Index) bool   { return f.at(idx).marked }

// BindEntity associates a presentation-layer object id with a cell.
// The field never interprets it; it comes back in disclosures so the
// front end can find its object.
func (f *Field) BindEntity(idx Index, id int64) { f.at(idx).entity = id }
func (f *Field) Entity(idx Index) int64         { return f.at(idx).entity }

// eachNeighbor visits the up-to-26 in-bounds neighbors of idx in a
// fixed z-then-y-then-x order, so reveal order is deterministic under
// a seeded Rand.
func (f *Field) eachNeighbor(idx Index, visit func(Index, *cell)) {
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				n := Index{X: idx.X + dx, Y: idx.Y + dy, Z: idx.Z + dz}
				if !f.params.Contains(n) {
					continue
				}
				visit(n, f.at(n))
			}
		}
	}
}

// populate places mines and computes adjacency counts. Called exactly
// once, from the first Open.
//
// The candidate list (every cell outside the safe set) is shuffled,
// then walked placing a mine with independent probability Density.
// Once the cells left to visit are exactly the mines still needed,
// every remaining candidate is mined unconditionally, which guarantees
// the exact count whenever it fits. If the density asks for more mines
// than the safe set leaves room for, every candidate is mined and the
// count falls short: the safety policy wins, and the game must always
// be able to start.
func (f *Field) populate(first Index) {
	numMines := int(math.Round(float64(len(f.cells)) * f.params.Density))

	safe := make(map[int]bool)
	switch f.params.Safety {
	case SafetySafe:
		safe[f.params.offset(first)] = true
	case SafetyClear:
		safe[f.params.offset(first)] = true
		f.eachNeighbor(first, func(n Index, _ *cell) {
			safe[f.params.offset(n)] = true
		})
	}

	candidates := make([]int, 0, len(f.cells))
	for off := range f.cells {
		if !safe[off] {
			candidates = append(candidates, off)
		}
	}
	f.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	needed := numMines
	for i, off := range candidates {
		if needed == 0 {
			break
		}
		if len(candidates)-i <= needed || f.rnd.Float64() < f.params.Density {
			f.cells[off].contents = Mine
			needed--
		}
	}

	for off, c := range f.cells {
		if c.contents != Mine {
			continue
		}
		f.eachNeighbor(f.params.index(off), func(_ Index, adj *cell) {
			if adj.contents != Mine {
				adj.contents++
			}
		})
	}

	f.populated = true
}

// Reveal is one disclosed cell: its position and true contents.
type Reveal struct {
	Index    Index    `json:"index"`
	Contents Contents `json:"contents"`
}

// OpenOutcome describes everything one open command uncovered.
type OpenOutcome struct {
	// Exploded is set when the opened cell was a mine. No flood fill
	// happens in that case.
	Exploded bool
	// Won is set when, after this open, every non-mine cell is
	// revealed.
	Won bool
	// Revealed lists the opened cell first, then any flood-filled
	// region, in visit order.
	Revealed []Reveal
}

// Open reveals the cell at idx, populating the field first if this is
// the first open of the session. An empty cell with no adjacent mines
// seeds a flood fill through its connected zero-adjacency region.
func (f *Field) Open(idx Index) OpenOutcome {
	if !f.populated {
		f.populate(idx)
	}

	c := f.at(idx)
	c.revealed = true
	c.marked = false

	out := OpenOutcome{Revealed: []Reveal{{Index: idx, Contents: c.contents}}}
	if c.contents == Mine {
		out.Exploded = true
		return out
	}
	if c.contents == 0 {
		out.Revealed = append(out.Revealed, f.floodReveal(idx)...)
	}
	out.Won = f.Won()
	return out
}

// floodReveal expands from a zero-adjacency cell over the
// 26-neighborhood with an explicit stack: reveal every unrevealed
// non-mine neighbor, and push neighbors that are themselves
// zero-adjacency. Marked cells are still swept up (marks do not block
// propagation; the mark is dropped on reveal). Each cell is revealed
// at most once, so the walk terminates in at most CellCount steps.
func (f *Field) floodReveal(seed Index) []Reveal {
	var revealed []Reveal
	stack := []Index{seed}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.eachNeighbor(idx, func(n Index, adj *cell) {
			if adj.revealed || adj.contents == Mine {
				return
			}
			adj.revealed = true
			adj.marked = false
			revealed = append(revealed, Reveal{Index: n, Contents: adj.contents})
			if adj.contents == 0 {
				stack = append(stack, n)
			}
		})
	}
	return revealed
}

// Won reports whether every non-mine cell has been revealed. Mines
// need not be revealed or marked. A full scan, but it only runs once
// per open command.
func (f *Field) Won() bool {
	for _, c := range f.cells {
		if c.contents != Mine && !c.revealed {
			return false
		}
	}
	return true
}

// ToggleMark flips the mark on an unrevealed cell and reports the new
// mark state. Marking a revealed cell is a no-op.
func (f *Field) ToggleMark(idx Index) bool {
	c := f.at(idx)
	if c.revealed {
		return false
	}
	c.marked = !c.marked
	return c.marked
}

// Hidden is a cell left unrevealed at the end of a round.
type Hidden struct {
	Index     Index    `json:"index"`
	Contents  Contents `json:"contents"`
	WasMarked bool     `json:"was_marked"`
}

// HiddenCells enumerates every still-hidden cell with its true
// contents, for the end-of-round reveal-everything pass. A marked
// mine reads as correctly marked, an unmarked one as missed.
func (f *Field) HiddenCells() []Hidden {
	var hidden []Hidden
	for off, c := range f.cells {
		if c.revealed {
			continue
		}
		hidden = append(hidden, Hidden{
			Index:     f.params.index(off),
			Contents:  c.contents,
			WasMarked: c.marked,
		})
	}
	return hidden
}

// View renders the player-visible grid, one CellView per cell in
// offset order.
func (f *Field) View() []CellView {
	view := make([]CellView, len(f.cells))
	for off, c := range f.cells {
		view[off] = c.view()
	}
	return view
}

func (f *Field) String() string {
	var b strings.Builder
	view := f.View()
	for z := range f.params.Depth {
		if z > 0 {
			b.WriteString("---\n")
		}
		for y := range f.params.Height {
			for x := range f.params.Width {
				b.WriteString(view[f.params.offset(Index{X: x, Y: y, Z: z})].String())
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}
