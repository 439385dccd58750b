package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/codyborn/agent-rts/engine/maplib"
)

var (
	mapgenOut    string
	mapgenName   string
	mapgenWidth  int
	mapgenHeight int
)

// mapgenCmd writes a generated skirmish map to disk
var mapgenCmd = &cobra.Command{
	Use:   "mapgen",
	Short: "Generate a skirmish map file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mapgenWidth < 24 || mapgenHeight < 24 {
			return fmt.Errorf("map must be at least 24x24, got %dx%d", mapgenWidth, mapgenHeight)
		}

		tm := generateSkirmishMap(mapgenName, mapgenWidth, mapgenHeight)
		fs := afero.NewOsFs()
		if err := tm.SaveJSON(fs, mapgenOut); err != nil {
			return fmt.Errorf("save map: %w", err)
		}

		deposits := 0
		for i := range tm.Tiles {
			if tm.Tiles[i].HasResource() {
				deposits++
			}
		}
		fmt.Printf("wrote %s: %dx%d, %d start positions, %d resource tiles\n",
			mapgenOut, tm.Width, tm.Height, len(tm.StartPositions), deposits)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mapgenCmd)
	mapgenCmd.Flags().StringVarP(&mapgenOut, "out", "o", "skirmish.json", "output path")
	mapgenCmd.Flags().StringVar(&mapgenName, "name", "Contested Crossing", "map name")
	mapgenCmd.Flags().IntVar(&mapgenWidth, "width", 64, "map width in tiles")
	mapgenCmd.Flags().IntVar(&mapgenHeight, "height", 64, "map height in tiles")
}

// generateSkirmishMap builds a symmetric two-player battlefield: a river
// with two bridges splits the bases, forests and rock break up the open
// ground, and each base gets a mineral field with contested crystals in
// the middle.
func generateSkirmishMap(name string, width, height int) *maplib.TileMap {
	tm := maplib.NewTileMap(name, width, height)

	// River through the middle with gentle bends
	for col := 0; col < width; col++ {
		row := height/2 + int(2*math.Sin(float64(col)*0.2))
		tm.SetTerrain(col, row-1, col, row+1, maplib.TerrainWater)
	}

	// Two bridges, rendered as road so they stay cheap to cross
	for _, bridgeCol := range []int{width / 4, 3 * width / 4} {
		tm.SetTerrain(bridgeCol-1, height/2-4, bridgeCol+1, height/2+4, maplib.TerrainRoad)
	}

	// Road ring connecting the bridges on both banks
	tm.SetTerrain(width/4, height/2-4, 3*width/4, height/2-4, maplib.TerrainRoad)
	tm.SetTerrain(width/4, height/2+4, 3*width/4, height/2+4, maplib.TerrainRoad)

	// Forest patches flanking each base
	tm.SetTerrain(2, height/4, 6, height/4+6, maplib.TerrainForest)
	tm.SetTerrain(width-7, 3*height/4-6, width-3, 3*height/4, maplib.TerrainForest)

	// Rock outcrops near the river narrow the approaches
	tm.SetTerrain(width/2-3, height/2-8, width/2+3, height/2-6, maplib.TerrainRock)
	tm.SetTerrain(width/2-3, height/2+6, width/2+3, height/2+8, maplib.TerrainRock)

	// Impassable mountain corners
	tm.SetTerrain(0, 0, 2, 2, maplib.TerrainMountain)
	tm.SetTerrain(width-3, height-3, width-1, height-1, maplib.TerrainMountain)

	// Sand along the south bank
	tm.SetTerrain(width/3, height-6, 2*width/3, height-4, maplib.TerrainSand)

	tm.StartPositions = []maplib.StartPos{
		{PlayerSlot: 0, Col: 8, Row: 8},
		{PlayerSlot: 1, Col: width - 11, Row: height - 11},
	}
	tm.MaxPlayers = 2

	// Mineral field beside each start
	for _, sp := range tm.StartPositions {
		placeMineralField(tm, sp.Col+5, sp.Row+1)
	}

	// Contested crystals by the western bridge
	crystalCol := width / 4
	for i := 0; i < 4; i++ {
		tm.PlaceResource(crystalCol+3+i%2, height/2-6+i/2, maplib.ResourceCrystals, 800)
	}

	return tm
}

func placeMineralField(tm *maplib.TileMap, col, row int) {
	offsets := [][2]int{{0, 0}, {1, 0}, {2, 0}, {0, 1}, {1, 1}, {2, 1}}
	for _, o := range offsets {
		tm.PlaceResource(col+o[0], row+o[1], maplib.ResourceMinerals, 1000)
	}
}
