package export

import (
	"math"

	"github.com/kiesman99/mapexport/pkg/tile"
)

// Layout is the tile range and crop needed to cover a bounding box at one zoom.
// Min and Max are unwrapped tile indices; the offsets are the pixels trimmed
// from each side of the assembled tile grid.
type Layout struct {
	Zoom                     int
	Min, Max                 tile.Coord
	Top, Left, Bottom, Right int
}

// Plan computes the Layout for b at zoom. Latitudes beyond the Web Mercator
// limit are clamped to the edge of the tile grid.
func Plan(b tile.BoundingBox, zoom int) Layout {
	n := b.Normalized()
	n.MinLat = tile.ClampLatitude(n.MinLat)
	n.MaxLat = tile.ClampLatitude(n.MaxLat)

	minTile := tile.LonLatToTile(n.MinLon, n.MaxLat, zoom)
	maxTile := tile.LonLatToTile(n.MaxLon, n.MinLat, zoom)

	// Corners of the first and last tile. Unwrapped indices keep the
	// longitudes monotonic across the antimeridian.
	minTopLeft := tile.TileToLonLat(minTile.X, minTile.Y, zoom)
	minBottomRight := tile.TileToLonLat(minTile.X+1, minTile.Y+1, zoom)
	maxTopLeft := tile.TileToLonLat(maxTile.X, maxTile.Y, zoom)
	maxBottomRight := tile.TileToLonLat(maxTile.X+1, maxTile.Y+1, zoom)

	l := Layout{
		Zoom:   zoom,
		Min:    minTile,
		Max:    maxTile,
		Top:    pixelOffset(n.MaxLat-minTopLeft.Lat(), minBottomRight.Lat()-minTopLeft.Lat()),
		Left:   pixelOffset(n.MinLon-minTopLeft.Lon(), minBottomRight.Lon()-minTopLeft.Lon()),
		Bottom: pixelOffset(maxBottomRight.Lat()-n.MinLat, maxBottomRight.Lat()-maxTopLeft.Lat()),
		Right:  pixelOffset(maxBottomRight.Lon()-n.MaxLon, maxBottomRight.Lon()-maxTopLeft.Lon()),
	}
	l.dropCroppedEdges()
	return l
}

// dropCroppedEdges removes edge rows and columns that the crop would trim
// completely, e.g. the column past a box ending exactly on 180 degrees.
// The output size does not change.
func (l *Layout) dropCroppedEdges() {
	for l.Right >= tile.Size && l.Max.X > l.Min.X {
		l.Max.X--
		l.Right -= tile.Size
	}
	for l.Left >= tile.Size && l.Max.X > l.Min.X {
		l.Min.X++
		l.Left -= tile.Size
	}
	for l.Bottom >= tile.Size && l.Max.Y > l.Min.Y {
		l.Max.Y--
		l.Bottom -= tile.Size
	}
	for l.Top >= tile.Size && l.Max.Y > l.Min.Y {
		l.Min.Y++
		l.Top -= tile.Size
	}
}

// pixelOffset interpolates part/whole over one tile and rounds half up
func pixelOffset(part, whole float64) int {
	return int(math.Floor(part/whole*tile.Size + 0.5))
}

// Columns is the number of tiles spanned horizontally
func (l Layout) Columns() int {
	return l.Max.X - l.Min.X + 1
}

// Rows is the number of tiles spanned vertically
func (l Layout) Rows() int {
	return l.Max.Y - l.Min.Y + 1
}

// TileCount is the number of tiles the export fetches
func (l Layout) TileCount() int {
	return l.Columns() * l.Rows()
}

// Width of the cropped output in pixels
func (l Layout) Width() int {
	return l.Columns()*tile.Size - l.Left - l.Right
}

// Height of the cropped output in pixels
func (l Layout) Height() int {
	return l.Rows()*tile.Size - l.Top - l.Bottom
}

// Fits reports whether the layout yields a non-empty image of at most
// maxPixels pixels. Every step stays in int64 so huge spans cannot wrap.
func (l Layout) Fits(maxPixels int64) bool {
	cols, rows := int64(l.Columns()), int64(l.Rows())
	if cols <= 0 || rows <= 0 || maxPixels <= 0 {
		return false
	}
	w := cols*tile.Size - int64(l.Left) - int64(l.Right)
	h := rows*tile.Size - int64(l.Top) - int64(l.Bottom)
	if w <= 0 || h <= 0 {
		return false
	}
	return w <= maxPixels/h
}

// Origin is where the tile at unwrapped index c lands on the output canvas
func (l Layout) Origin(c tile.Coord) (int, int) {
	return (c.X-l.Min.X)*tile.Size - l.Left, (c.Y-l.Min.Y)*tile.Size - l.Top
}

// Tiles lists every unwrapped tile index in the layout, row by row
func (l Layout) Tiles() []tile.Coord {
	if l.Columns() <= 0 || l.Rows() <= 0 {
		return nil
	}
	coords := make([]tile.Coord, 0, l.TileCount())
	for y := l.Min.Y; y <= l.Max.Y; y++ {
		for x := l.Min.X; x <= l.Max.X; x++ {
			coords = append(coords, tile.Coord{X: x, Y: y})
		}
	}
	return coords
}
