package tile

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestLonLatToTile(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		zoom     int
		want     Coord
	}{
		{"origin z0", 0, 0, 0, Coord{0, 0}},
		{"origin z1", 0, 0, 1, Coord{1, 1}},
		{"berlin z10", 13.4050, 52.5200, 10, Coord{550, 335}},
		{"san francisco z8", -122.4194, 37.7749, 8, Coord{40, 98}},
		{"past antimeridian", 190, 0, 2, Coord{4, 2}},
		{"west of -180", -190, 0, 2, Coord{-1, 2}},
		{"north pole", 0, 90, 2, Coord{2, 0}},
		{"south pole", 0, -90, 2, Coord{2, 3}},
		{"grid edge north", -180, MaxLatitude, 3, Coord{0, 0}},
		{"grid edge south", 179.9, -MaxLatitude, 3, Coord{7, 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LonLatToTile(tt.lon, tt.lat, tt.zoom))
		})
	}
}

func TestTileToLonLat(t *testing.T) {
	p := TileToLonLat(0, 0, 0)
	assert.InDelta(t, -180, p.Lon(), 1e-12)
	assert.InDelta(t, 85.0511287798, p.Lat(), 1e-9)

	p = TileToLonLat(1, 1, 1)
	assert.InDelta(t, 0, p.Lon(), 1e-12)
	assert.InDelta(t, 0, p.Lat(), 1e-12)

	// unwrapped x keeps extending east
	p = TileToLonLat(5, 2, 2)
	assert.InDelta(t, 270, p.Lon(), 1e-12)
}

func TestWrapTile(t *testing.T) {
	assert.Equal(t, Coord{3, 0}, WrapTile(-1, 4, 2))
	assert.Equal(t, Coord{0, 3}, WrapTile(4, -1, 2))
	assert.Equal(t, Coord{1, 2}, WrapTile(9, 10, 2))
	assert.Equal(t, Coord{0, 0}, WrapTile(-7, 5, 0))
}

func TestCoordMapTile(t *testing.T) {
	mt := Coord{X: -1, Y: 1}.MapTile(3)
	assert.EqualValues(t, 7, mt.X)
	assert.EqualValues(t, 1, mt.Y)
	assert.EqualValues(t, 3, mt.Z)
}

func TestCoordinateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("wrap is idempotent", prop.ForAll(
		func(x, y, z int) bool {
			w := WrapTile(x, y, z)
			return WrapTile(w.X, w.Y, z) == w
		},
		gen.IntRange(-1<<20, 1<<20),
		gen.IntRange(-1<<20, 1<<20),
		gen.IntRange(0, 20),
	))

	properties.Property("wrap is periodic in 2^z", prop.ForAll(
		func(x, y, z, k int) bool {
			n := 1 << uint(z)
			return WrapTile(x+k*n, y, z) == WrapTile(x, y, z) &&
				WrapTile(x, y+k*n, z) == WrapTile(x, y, z)
		},
		gen.IntRange(-1<<16, 1<<16),
		gen.IntRange(-1<<16, 1<<16),
		gen.IntRange(0, 16),
		gen.IntRange(-8, 8),
	))

	properties.Property("wrapped coordinates stay on the grid", prop.ForAll(
		func(x, y, z int) bool {
			w := WrapTile(x, y, z)
			n := 1 << uint(z)
			return w.X >= 0 && w.X < n && w.Y >= 0 && w.Y < n
		},
		gen.IntRange(-1<<20, 1<<20),
		gen.IntRange(-1<<20, 1<<20),
		gen.IntRange(0, 20),
	))

	properties.Property("tile round trip stays within one tile", prop.ForAll(
		func(lon, lat float64, z int) bool {
			c := LonLatToTile(lon, lat, z)
			nw := TileToLonLat(c.X, c.Y, z)
			se := TileToLonLat(c.X+1, c.Y+1, z)
			width := 360 / math.Exp2(float64(z))
			const eps = 1e-9
			return nw.Lon() <= lon+eps && lon-nw.Lon() <= width+eps &&
				nw.Lat() >= lat-eps && se.Lat() <= lat+eps
		},
		gen.Float64Range(-180, 179.999),
		gen.Float64Range(-85, 85),
		gen.IntRange(0, 22),
	))

	properties.TestingRun(t)
}

func TestProjectLonLat(t *testing.T) {
	x, y := ProjectLonLat(0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)

	x, _ = ProjectLonLat(180, 0)
	assert.InDelta(t, 20037508.342789244, x, 1e-6)
}
