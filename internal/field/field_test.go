package field

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func countMines(f *Field) int {
	n := 0
	for _, c := range f.cells {
		if c.contents == Mine {
			n++
		}
	}
	return n
}

func TestPopulatePlacesExactMineCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params Params
	}{
		{"5x5x5(0.1)", Params{Width: 5, Height: 5, Depth: 5, Density: 0.1, Safety: SafetySafe}},
		{"5x5x5(0.5)", Params{Width: 5, Height: 5, Depth: 5, Density: 0.5, Safety: SafetySafe}},
		{"3x3x3(0.3)clear", Params{Width: 3, Height: 3, Depth: 3, Density: 0.3, Safety: SafetyClear}},
		{"10x10x10(0.2)random", Params{Width: 10, Height: 10, Depth: 10, Density: 0.2, Safety: SafetyRandom}},
		{"20x20x20(0.15)", Params{Width: 20, Height: 20, Depth: 20, Density: 0.15, Safety: SafetySafe}},
		{"7x1x1(0.4)", Params{Width: 7, Height: 1, Depth: 1, Density: 0.4, Safety: SafetySafe}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			rnd := testRand()
			for range 25 {
				f := New(test.params, rnd)
				f.populate(Index{})
				want := int(math.Round(float64(test.params.CellCount()) * test.params.Density))
				assert.Equal(t, want, countMines(f))
			}
		})
	}
}

func TestSafetyPolicies(t *testing.T) {
	t.Parallel()

	params := Params{Width: 4, Height: 4, Depth: 4, Density: 0.4}
	first := Index{X: 1, Y: 2, Z: 3}
	rnd := testRand()

	t.Run("safe first cell is never a mine", func(t *testing.T) {
		for range 100 {
			p := params
			p.Safety = SafetySafe
			f := New(p, rnd)
			f.populate(first)
			assert.False(t, f.at(first).contents.IsMine())
		}
	})

	t.Run("clear first cell and neighbors are never mines", func(t *testing.T) {
		for range 100 {
			p := params
			p.Safety = SafetyClear
			f := New(p, rnd)
			f.populate(first)
			assert.False(t, f.at(first).contents.IsMine())
			f.eachNeighbor(first, func(n Index, c *cell) {
				assert.False(t, c.contents.IsMine(), "mine at %s adjacent to first open", n)
			})
		}
	})
}

func TestAdjacencyCounts(t *testing.T) {
	t.Parallel()

	params := Params{Width: 6, Height: 5, Depth: 4, Density: 0.25, Safety: SafetyRandom}
	f := New(params, testRand())
	f.populate(Index{})

	for off, c := range f.cells {
		if c.contents == Mine {
			continue
		}
		want := 0
		f.eachNeighbor(params.index(off), func(_ Index, adj *cell) {
			if adj.contents == Mine {
				want++
			}
		})
		assert.Equal(t, want, c.contents.AdjacentMines(), "cell %s", params.index(off))
	}
}

func TestOpenEmptyFieldRevealsEverything(t *testing.T) {
	t.Parallel()

	f := New(Params{Width: 3, Height: 3, Depth: 3, Density: 0, Safety: SafetyClear}, testRand())
	out := f.Open(Index{X: 1, Y: 1, Z: 1})

	assert.False(t, out.Exploded)
	assert.True(t, out.Won)
	assert.Len(t, out.Revealed, 27)
}

func TestFloodFillStopsAtNumberedBorder(t *testing.T) {
	t.Parallel()

	// Force a single mine into a corner of an otherwise empty 3x3x3
	// grid, then open the opposite corner.
	params := Params{Width: 3, Height: 3, Depth: 3, Density: 0, Safety: SafetyClear}
	f := New(params, testRand())
	f.populate(Index{X: 2, Y: 2, Z: 2})
	mine := Index{}
	f.at(mine).contents = Mine
	f.eachNeighbor(mine, func(_ Index, adj *cell) {
		adj.contents++
	})

	out := f.Open(Index{X: 2, Y: 2, Z: 2})

	assert.False(t, out.Exploded)
	assert.True(t, out.Won, "all 26 empty cells should be revealed")
	assert.Len(t, out.Revealed, 26)
	for _, r := range out.Revealed {
		assert.NotEqual(t, Mine, r.Contents, "flood fill revealed the mine at %s", r.Index)
	}
	assert.False(t, f.at(mine).revealed)

	// The seven cells bordering the mine carry its count.
	f.eachNeighbor(mine, func(n Index, c *cell) {
		assert.Equal(t, 1, c.contents.AdjacentMines(), "cell %s", n)
		assert.True(t, c.revealed)
	})
}

func TestFloodFillRevealsEachCellOnce(t *testing.T) {
	t.Parallel()

	params := Params{Width: 20, Height: 20, Depth: 20, Density: 0, Safety: SafetyRandom}
	f := New(params, testRand())
	out := f.Open(Index{X: 10, Y: 10, Z: 10})

	assert.Len(t, out.Revealed, params.CellCount())
	seen := make(map[Index]bool, len(out.Revealed))
	for _, r := range out.Revealed {
		if seen[r.Index] {
			t.Fatalf("cell %s revealed twice", r.Index)
		}
		seen[r.Index] = true
	}
}

func TestFloodFillSweepsMarkedCells(t *testing.T) {
	t.Parallel()

	f := New(Params{Width: 3, Height: 3, Depth: 1, Density: 0, Safety: SafetyRandom}, testRand())
	marked := Index{X: 2, Y: 2}
	assert.True(t, f.ToggleMark(marked))

	out := f.Open(Index{})

	assert.True(t, out.Won)
	assert.True(t, f.at(marked).revealed, "marks must not block flood fill")
	assert.False(t, f.at(marked).marked, "mark is dropped on reveal")
}

func TestOpenMineExplodesWithoutFloodFill(t *testing.T) {
	t.Parallel()

	params := Params{Width: 3, Height: 3, Depth: 3, Density: 0, Safety: SafetyRandom}
	f := New(params, testRand())
	f.populate(Index{})
	target := Index{X: 1, Y: 1, Z: 1}
	f.at(target).contents = Mine

	out := f.Open(target)

	assert.True(t, out.Exploded)
	assert.False(t, out.Won)
	assert.Len(t, out.Revealed, 1, "only the exploded mine is disclosed")
	assert.Equal(t, Mine, out.Revealed[0].Contents)
}

func TestDensityAboveCandidateSpaceDegrades(t *testing.T) {
	t.Parallel()

	// In a 2x2x2 grid every cell neighbors every other, so Clear
	// leaves no candidates at all: placement degrades to zero mines
	// and the first open wins outright.
	f := New(Params{Width: 2, Height: 2, Depth: 2, Density: 1, Safety: SafetyClear}, testRand())
	out := f.Open(Index{})

	assert.Equal(t, 0, countMines(f))
	assert.False(t, out.Exploded)
	assert.True(t, out.Won)

	// With Safe only the first cell is spared; every other cell
	// must be mined.
	f = New(Params{Width: 2, Height: 2, Depth: 2, Density: 1, Safety: SafetySafe}, testRand())
	out = f.Open(Index{})

	assert.Equal(t, 7, countMines(f))
	assert.False(t, out.Exploded)
	assert.True(t, out.Won, "the only empty cell is the opened one")
}

func TestToggleMark(t *testing.T) {
	t.Parallel()

	f := New(Params{Width: 3, Height: 3, Depth: 1, Density: 0, Safety: SafetyRandom}, testRand())
	idx := Index{X: 1, Y: 1}

	assert.True(t, f.ToggleMark(idx))
	assert.True(t, f.Marked(idx))
	assert.False(t, f.ToggleMark(idx))
	assert.False(t, f.Marked(idx))

	f.Open(Index{})
	assert.False(t, f.ToggleMark(idx), "marking a revealed cell is a no-op")
	assert.False(t, f.Marked(idx))
}

func TestHiddenCells(t *testing.T) {
	t.Parallel()

	params := Params{Width: 3, Height: 1, Depth: 1, Density: 0, Safety: SafetyRandom}
	f := New(params, testRand())
	f.populated = true
	f.at(Index{}).contents = Mine
	f.at(Index{X: 1}).contents = 1
	f.ToggleMark(Index{})

	f.Open(Index{X: 1})

	hidden := f.HiddenCells()
	assert.Len(t, hidden, 2)
	assert.Equal(t, Hidden{Index: Index{}, Contents: Mine, WasMarked: true}, hidden[0])
	assert.Equal(t, Hidden{Index: Index{X: 2}, Contents: 0, WasMarked: false}, hidden[1])
}

func TestDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	params := Params{Width: 6, Height: 6, Depth: 6, Density: 0.2, Safety: SafetyClear}
	first := Index{X: 3, Y: 3, Z: 3}

	a := New(params, rand.New(rand.NewPCG(7, 11)))
	b := New(params, rand.New(rand.NewPCG(7, 11)))
	outA := a.Open(first)
	outB := b.Open(first)

	assert.Equal(t, outA, outB)
	assert.Equal(t, a.View(), b.View())
}

func TestIndexOffsetRoundTrip(t *testing.T) {
	t.Parallel()

	params := Params{Width: 4, Height: 3, Depth: 2}
	for off := range params.CellCount() {
		assert.Equal(t, off, params.offset(params.index(off)))
	}
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  Params
		wantErr bool
	}{
		{"valid", Params{Width: 5, Height: 5, Depth: 5, Density: 0.1, Safety: SafetySafe}, false},
		{"flat axis ok", Params{Width: 9, Height: 9, Depth: 1, Density: 0.2}, false},
		{"zero axis", Params{Width: 0, Height: 5, Depth: 5, Density: 0.1}, true},
		{"negative density", Params{Width: 5, Height: 5, Depth: 5, Density: -0.1}, true},
		{"density above one", Params{Width: 5, Height: 5, Depth: 5, Density: 1.1}, true},
		{"density NaN", Params{Width: 5, Height: 5, Depth: 5, Density: math.NaN()}, true},
		{"density +Inf", Params{Width: 5, Height: 5, Depth: 5, Density: math.Inf(1)}, true},
		{"bad safety", Params{Width: 5, Height: 5, Depth: 5, Density: 0.1, Safety: Safety(9)}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.params.Validate()
			if test.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseSafety(t *testing.T) {
	t.Parallel()

	for _, s := range []Safety{SafetyRandom, SafetySafe, SafetyClear} {
		got, err := ParseSafety(s.String())
		assert.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseSafety("paranoid")
	assert.Error(t, err)
}
