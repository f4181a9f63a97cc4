package tile

import (
	"math"

	"github.com/paulmach/orb"
)

// MaxLatitude is the northern edge of the Web Mercator tile grid
const MaxLatitude = 85.0511287798066

// ClampLatitude limits lat to the rows the tile grid can address
func ClampLatitude(lat float64) float64 {
	return math.Max(-MaxLatitude, math.Min(MaxLatitude, lat))
}

// LonLatToTile converts lon/lat to the tile containing it at the given zoom level.
// http://wiki.openstreetmap.org/wiki/Slippy_map_tilenames
//
// The result is not wrapped: longitudes past 180 (a normalized antimeridian
// box) yield X >= 2^zoom. Y is clamped to the grid, so the poles map to the
// first and last rows.
func LonLatToTile(lon, lat float64, zoom int) Coord {
	n := math.Exp2(float64(zoom))
	latRad := ClampLatitude(lat) * math.Pi / 180

	x := math.Floor((lon + 180) / 360 * n)
	y := math.Floor((1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n)
	y = math.Max(0, math.Min(n-1, y))

	return Coord{X: int(x), Y: int(y)}
}

// TileToLonLat returns the north-west corner of tile x/y. Unwrapped indices
// are projected linearly past the grid edge.
func TileToLonLat(x, y, zoom int) orb.Point {
	n := math.Exp2(float64(zoom))
	lon := float64(x)/n*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*float64(y)/n))) * 180 / math.Pi

	return orb.Point{lon, lat}
}

// WrapTile maps x/y onto the cyclic tile grid using floor modulo
func WrapTile(x, y, zoom int) Coord {
	n := 1 << uint(zoom)
	return Coord{
		X: ((x % n) + n) % n,
		Y: ((y % n) + n) % n,
	}
}

// ProjectLonLat converts lon/lat in WGS84 to XY in Spherical Mercator (EPSG:3857)
func ProjectLonLat(lon, lat float64) (float64, float64) {
	const originShift = 20037508.342789244 // 2 * pi * 6378137 / 2
	x := lon * originShift / 180.0
	y := math.Log(math.Tan((90+lat)*math.Pi/360.0)) / (math.Pi / 180.0)
	y = y * originShift / 180.0

	return x, y
}
