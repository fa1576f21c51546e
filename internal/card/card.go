// Package card generates 5x5 bingo cards and tracks per-player mark grids.
package card

import rand "math/rand/v2"

const (
	// Size is the width and height of a card
	Size = 5

	// FreeCell is the sentinel content of the centre cell. It is never
	// drawn from a theme pool.
	FreeCell = "FREE"

	// freeRow and freeCol locate the free cell
	freeRow = 2
	freeCol = 2
)

// Grid is the immutable content of one player's card
type Grid [Size][Size]string

// Marks is one player's mutable mark grid. The free cell is always marked.
type Marks [Size][Size]bool

// Generate produces a card from the given item pool. The pool is shuffled
// (Fisher-Yates) and popped in row-major order; if fewer than 24 items are
// available the remainder is drawn with replacement from the original pool.
// An empty pool yields blank cells rather than an error.
func Generate(pool []string, rng *rand.Rand) Grid {
	shuffled := make([]string, len(pool))
	copy(shuffled, pool)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	var g Grid
	next := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if r == freeRow && c == freeCol {
				g[r][c] = FreeCell
				continue
			}
			switch {
			case next < len(shuffled):
				g[r][c] = shuffled[next]
				next++
			case len(pool) > 0:
				g[r][c] = pool[rng.IntN(len(pool))]
			default:
				g[r][c] = ""
			}
		}
	}
	return g
}

// NewMarks returns a fresh mark grid with the free cell pre-marked
func NewMarks() Marks {
	var m Marks
	m[freeRow][freeCol] = true
	return m
}

// Set marks or unmarks a cell. The free cell cannot be unmarked.
func (m *Marks) Set(r, c int, marked bool) {
	if r == freeRow && c == freeCol {
		return
	}
	m[r][c] = marked
}

// Complete reports whether every non-free cell is marked, which is the
// single win condition.
func (m Marks) Complete() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if r == freeRow && c == freeCol {
				continue
			}
			if !m[r][c] {
				return false
			}
		}
	}
	return true
}

// InBounds reports whether (r, c) addresses a cell on the card
func InBounds(r, c int) bool {
	return r >= 0 && r < Size && c >= 0 && c < Size
}
