package core

// GridPosition is an integer (column, row) tile coordinate. Equality is
// component-wise.
type GridPosition struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// neighborOffsets is the fixed scan order for the 8 surrounding tiles:
// north first, then clockwise. Spawn placement and adjacency walks depend
// on this order staying stable between runs.
var neighborOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Neighbors returns the 8 surrounding positions in the fixed scan order
func (p GridPosition) Neighbors() [8]GridPosition {
	var out [8]GridPosition
	for i, d := range neighborOffsets {
		out[i] = GridPosition{Col: p.Col + d[0], Row: p.Row + d[1]}
	}
	return out
}

// DistanceTo returns the Chebyshev distance to other. Tile ranges
// (adjacency, attack range, vision) all use this metric.
func (p GridPosition) DistanceTo(other GridPosition) int {
	dc := abs(other.Col - p.Col)
	dr := abs(other.Row - p.Row)
	if dc > dr {
		return dc
	}
	return dr
}

// WithinRange reports whether other is at most r tiles away
func (p GridPosition) WithinRange(other GridPosition, r int) bool {
	return p.DistanceTo(other) <= r
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
