package spatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Tile identifies a standard web-mercator slippy-map tile (z/x/y),
// the unit external collaborators (Mapillary, Osmose, ...) fetch
// markers by.
type Tile struct {
	Z, X, Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// ParseTile parses the "z/x/y" form produced by Tile.String.
func ParseTile(s string) (Tile, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Tile{}, fmt.Errorf("spatial: invalid tile %q", s)
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return Tile{}, fmt.Errorf("spatial: invalid tile %q: %w", s, err)
		}
		vals[i] = v
	}
	return Tile{Z: vals[0], X: vals[1], Y: vals[2]}, nil
}

// Bounds returns the tile's longitude/latitude extent.
func (t Tile) Bounds() (minLng, minLat, maxLng, maxLat float64) {
	n := math.Exp2(float64(t.Z))
	minLng = float64(t.X)/n*360 - 180
	maxLng = float64(t.X+1)/n*360 - 180
	maxLat = tileRowLat(t.Y, n)
	minLat = tileRowLat(t.Y+1, n)
	return
}

func tileRowLat(y int, n float64) float64 {
	yFrac := float64(y) / n
	return math.Atan(math.Sinh(math.Pi*(1-2*yFrac))) * 180 / math.Pi
}
