package export

import (
	"fmt"
	"math"
)

// DetailOffsets are the zoom offsets offered relative to the optimal zoom
var DetailOffsets = []int{-2, -1, 0, 1, 2}

// Detail describes one selectable level of detail
type Detail struct {
	Offset      int     `json:"offset"`
	Zoom        int     `json:"zoom"`
	Available   bool    `json:"available"`
	XResolution int     `json:"x_resolution"`
	YResolution int     `json:"y_resolution"`
	Scale       float64 `json:"scale"`
}

// DetailLevels lists DetailOffsets applied to p. A level is available when
// its zoom lies within the tile source's native [minZoom, maxZoom].
func DetailLevels(p Params, minZoom, maxZoom int) []Detail {
	levels := make([]Detail, 0, len(DetailOffsets))
	for _, offset := range DetailOffsets {
		zoom := p.Zoom + offset
		scale := math.Exp2(float64(offset))
		levels = append(levels, Detail{
			Offset:      offset,
			Zoom:        zoom,
			Available:   minZoom <= zoom && zoom <= maxZoom,
			XResolution: int(math.Round(p.XResolution * scale)),
			YResolution: int(math.Round(p.YResolution * scale)),
			Scale:       scale,
		})
	}
	return levels
}

// ResolveZoom applies a detail offset to p and checks it against the
// source's zoom range.
func ResolveZoom(p Params, offset, minZoom, maxZoom int) (int, error) {
	zoom := p.Zoom + offset
	if zoom < minZoom || zoom > maxZoom {
		return 0, fmt.Errorf("detail offset %+d gives zoom %d outside the source range [%d, %d]",
			offset, zoom, minZoom, maxZoom)
	}
	return zoom, nil
}
