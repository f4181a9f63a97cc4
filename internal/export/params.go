// Package export turns a geographic bounding box into a cropped raster image
// assembled from slippy-map tiles.
package export

import (
	"math"

	"github.com/kiesman99/mapexport/pkg/tile"
)

const (
	// MaxZoom is the highest zoom OptimalParams will ever return
	MaxZoom = 25

	// OptimalResolution is the target image height in pixels
	OptimalResolution = 1024

	earthRadius        = 6371000
	earthCircumference = 40030173 // 2 * pi * earthRadius
)

// Params is the zoom chosen for a bounding box together with the
// approximate output size at that zoom.
type Params struct {
	Zoom        int     `json:"zoom"`
	XResolution float64 `json:"x_resolution"`
	YResolution float64 `json:"y_resolution"`
}

// OptimalParams picks the zoom level whose output height best matches
// OptimalResolution: the largest zoom whose height stays under two thirds
// of the target, or MaxZoom when none does.
//
// Sizes use an equirectangular approximation. Longitude spans are not
// scaled by latitude.
func OptimalParams(b tile.BoundingBox) Params {
	xProportion, yProportion := proportions(b)

	// The whole range is scanned; the last zoom under the threshold wins.
	zoom := MaxZoom
	for z := 0; z < MaxZoom; z++ {
		if resolutionAt(z, yProportion) >= OptimalResolution*2.0/3.0 {
			continue
		}
		zoom = z
	}

	return Params{
		Zoom:        zoom,
		XResolution: resolutionAt(zoom, xProportion),
		YResolution: resolutionAt(zoom, yProportion),
	}
}

// proportions returns the box's extent on each axis as a fraction of the
// Earth's circumference.
func proportions(b tile.BoundingBox) (float64, float64) {
	n := b.Normalized()

	xMeters := (n.MaxLon - n.MinLon) * math.Pi / 180 * earthRadius
	yMeters := (n.MaxLat - n.MinLat) * math.Pi / 180 * earthRadius

	return xMeters / earthCircumference, yMeters / earthCircumference
}

func resolutionAt(zoom int, proportion float64) float64 {
	return tile.Size * math.Exp2(float64(zoom)) * proportion
}
