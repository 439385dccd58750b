package core

// FogState is per-player tile knowledge. It only ever moves forward:
// unexplored tiles become explored, and visible tiles regress no further
// than explored.
type FogState uint8

const (
	FogUnexplored FogState = iota
	FogExplored
	FogVisible
)

// FogGrid tracks one player's knowledge of the map
type FogGrid struct {
	Width, Height int
	cells         []FogState
}

func NewFogGrid(width, height int) *FogGrid {
	return &FogGrid{
		Width:  width,
		Height: height,
		cells:  make([]FogState, width*height),
	}
}

// At returns the fog state at pos. Out-of-bounds reads are unexplored.
func (f *FogGrid) At(pos GridPosition) FogState {
	if pos.Col < 0 || pos.Row < 0 || pos.Col >= f.Width || pos.Row >= f.Height {
		return FogUnexplored
	}
	return f.cells[pos.Row*f.Width+pos.Col]
}

// Visible reports whether pos is currently in sight
func (f *FogGrid) Visible(pos GridPosition) bool {
	return f.At(pos) == FogVisible
}

// Seen reports whether pos has ever been sighted
func (f *FogGrid) Seen(pos GridPosition) bool {
	return f.At(pos) != FogUnexplored
}

// Reveal marks pos visible. Out-of-bounds writes are ignored.
func (f *FogGrid) Reveal(pos GridPosition) {
	if pos.Col < 0 || pos.Row < 0 || pos.Col >= f.Width || pos.Row >= f.Height {
		return
	}
	f.cells[pos.Row*f.Width+pos.Col] = FogVisible
}

// DemoteVisible downgrades every visible tile to explored. Called at the
// start of each vision pass before current sight is re-applied.
func (f *FogGrid) DemoteVisible() {
	for i, s := range f.cells {
		if s == FogVisible {
			f.cells[i] = FogExplored
		}
	}
}
