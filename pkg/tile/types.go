package tile

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// Size is the edge length in pixels of a raster tile
const Size = 256

// BoundingBox represents geographic bounds in degrees.
// MinLon > MaxLon means the box crosses the antimeridian.
type BoundingBox struct {
	MinLat, MinLon, MaxLat, MaxLon float64
}

// CrossesAntimeridian reports whether the western edge lies east of the eastern edge
func (b BoundingBox) CrossesAntimeridian() bool {
	return b.MinLon > b.MaxLon
}

// Normalized returns the box with MaxLon shifted by 360 degrees when it
// crosses the antimeridian, so that MaxLon - MinLon is the positive span.
func (b BoundingBox) Normalized() BoundingBox {
	if b.CrossesAntimeridian() {
		b.MaxLon += 360
	}
	return b
}

// Bound converts the normalized box to an orb.Bound (lon/lat axis order)
func (b BoundingBox) Bound() orb.Bound {
	n := b.Normalized()
	return orb.Bound{
		Min: orb.Point{n.MinLon, n.MinLat},
		Max: orb.Point{n.MaxLon, n.MaxLat},
	}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Coord is a tile index pair. Values coming out of LonLatToTile are not
// wrapped and may fall outside [0, 2^zoom).
type Coord struct {
	X, Y int
}

// MapTile returns the wrapped coordinate as an orb maptile
func (c Coord) MapTile(zoom int) maptile.Tile {
	w := WrapTile(c.X, c.Y, zoom)
	return maptile.New(uint32(w.X), uint32(w.Y), maptile.Zoom(zoom))
}
