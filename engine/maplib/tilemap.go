package maplib

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// TerrainType defines the terrain of a tile
type TerrainType uint8

const (
	TerrainPlains TerrainType = iota
	TerrainRoad
	TerrainForest
	TerrainSand
	TerrainRock
	TerrainWater
	TerrainMountain
)

// ResourceType identifies a harvestable deposit on a tile ("" = none)
type ResourceType string

const (
	ResourceNone     ResourceType = ""
	ResourceMinerals ResourceType = "minerals"
	ResourceCrystals ResourceType = "crystals"
)

// Tile represents a single map tile
type Tile struct {
	Terrain        TerrainType  `json:"terrain"`
	Resource       ResourceType `json:"resource,omitempty"`
	ResourceAmount int          `json:"resource_amount,omitempty"`
	Walkable       bool         `json:"walkable"`
	MoveCost       float64      `json:"move_cost"` // cost multiplier, 1.0 = open ground
	Occupied       bool         `json:"-"`         // runtime: building placed here
}

// HasResource reports whether the tile still holds a harvestable deposit
func (t *Tile) HasResource() bool {
	return t.Resource != ResourceNone && t.ResourceAmount > 0
}

// TileMap represents the game map
type TileMap struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Tiles  []Tile `json:"tiles"`

	// Map metadata
	StartPositions []StartPos `json:"start_positions,omitempty"`
	MaxPlayers     int        `json:"max_players,omitempty"`
}

// StartPos defines a player start position
type StartPos struct {
	PlayerSlot int `json:"player_slot"`
	Col        int `json:"col"`
	Row        int `json:"row"`
}

// NewTileMap creates a new map of open, walkable plains
func NewTileMap(name string, width, height int) *TileMap {
	tm := &TileMap{
		Name:       name,
		Width:      width,
		Height:     height,
		Tiles:      make([]Tile, width*height),
		MaxPlayers: 2,
	}

	for i := range tm.Tiles {
		tm.Tiles[i] = Tile{
			Terrain:  TerrainPlains,
			Walkable: true,
			MoveCost: 1.0,
		}
	}

	return tm
}

// At returns a pointer to the tile at (col, row), or nil out of bounds
func (tm *TileMap) At(col, row int) *Tile {
	if col < 0 || row < 0 || col >= tm.Width || row >= tm.Height {
		return nil
	}
	return &tm.Tiles[row*tm.Width+col]
}

// InBounds checks if coordinates are within map bounds
func (tm *TileMap) InBounds(col, row int) bool {
	return col >= 0 && row >= 0 && col < tm.Width && row < tm.Height
}

// IsWalkable checks if a tile can be traversed. Out-of-bounds and
// building-occupied tiles are never walkable.
func (tm *TileMap) IsWalkable(col, row int) bool {
	t := tm.At(col, row)
	if t == nil {
		return false
	}
	return t.Walkable && !t.Occupied
}

// Cost returns the movement cost multiplier at (col, row), 0 if impassable
func (tm *TileMap) Cost(col, row int) float64 {
	t := tm.At(col, row)
	if t == nil || !t.Walkable || t.Occupied {
		return 0
	}
	return t.MoveCost
}

// SetTerrain sets terrain for a rectangular region and resets
// walkability and cost to the terrain defaults
func (tm *TileMap) SetTerrain(c1, r1, c2, r2 int, terrain TerrainType) {
	for row := r1; row <= r2; row++ {
		for col := c1; col <= c2; col++ {
			t := tm.At(col, row)
			if t == nil {
				continue
			}
			t.Terrain = terrain
			switch terrain {
			case TerrainRoad:
				t.Walkable, t.MoveCost = true, 0.7
			case TerrainForest:
				t.Walkable, t.MoveCost = true, 1.5
			case TerrainSand:
				t.Walkable, t.MoveCost = true, 1.3
			case TerrainRock:
				t.Walkable, t.MoveCost = true, 2.0
			case TerrainWater, TerrainMountain:
				t.Walkable, t.MoveCost = false, 0
			default:
				t.Walkable, t.MoveCost = true, 1.0
			}
		}
	}
}

// PlaceResource places a resource deposit at a position
func (tm *TileMap) PlaceResource(col, row int, res ResourceType, amount int) {
	if t := tm.At(col, row); t != nil {
		t.Resource = res
		t.ResourceAmount = amount
	}
}

// SetOccupied marks a tile as occupied/unoccupied by a building
func (tm *TileMap) SetOccupied(col, row int, occupied bool) {
	if t := tm.At(col, row); t != nil {
		t.Occupied = occupied
	}
}

// SaveJSON saves the map to a JSON file
func (tm *TileMap) SaveJSON(fs afero.Fs, path string) error {
	data, err := json.MarshalIndent(tm, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	return afero.WriteFile(fs, path, data, 0644)
}

// LoadJSON loads a map from a JSON file
func LoadJSON(fs afero.Fs, path string) (*TileMap, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}
	var tm TileMap
	if err := json.Unmarshal(data, &tm); err != nil {
		return nil, fmt.Errorf("parse map: %w", err)
	}
	if len(tm.Tiles) != tm.Width*tm.Height {
		return nil, fmt.Errorf("map %q: tile count %d does not match %dx%d", tm.Name, len(tm.Tiles), tm.Width, tm.Height)
	}
	return &tm, nil
}
