package pathfind

import "github.com/codyborn/agent-rts/engine/maplib"

// Grid is the walkability and cost model consumed by the path search.
type Grid interface {
	// Walkable reports whether a cell can be traversed. Out-of-bounds
	// cells are not walkable.
	Walkable(col, row int) bool
	// Cost returns the movement cost multiplier at a cell (0 = impassable).
	Cost(col, row int) float64
}

// NavGrid adapts a tile map to the Grid interface. It is a live view:
// occupancy changes from building placement are visible immediately,
// no rebuild step required.
type NavGrid struct {
	tm *maplib.TileMap
}

// NewNavGrid wraps a tile map as a navigation grid
func NewNavGrid(tm *maplib.TileMap) *NavGrid {
	return &NavGrid{tm: tm}
}

// Walkable checks if a cell is traversable
func (ng *NavGrid) Walkable(col, row int) bool {
	return ng.tm.IsWalkable(col, row)
}

// Cost returns the movement cost at (col, row)
func (ng *NavGrid) Cost(col, row int) float64 {
	return ng.tm.Cost(col, row)
}
