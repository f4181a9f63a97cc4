package tile

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// WorldFile holds the affine georeferencing of a raster in EPSG:3857
type WorldFile struct {
	PixelSizeX float64
	PixelSizeY float64
	MinX       float64
	MaxY       float64
}

// NewWorldFile derives the pixel size and origin of a width x height raster
// covering the (normalized) bounding box.
func NewWorldFile(b BoundingBox, width, height int) WorldFile {
	n := b.Normalized()
	minX, minY := ProjectLonLat(n.MinLon, ClampLatitude(n.MinLat))
	maxX, maxY := ProjectLonLat(n.MaxLon, ClampLatitude(n.MaxLat))

	return WorldFile{
		PixelSizeX: (maxX - minX) / float64(width),
		PixelSizeY: math.Abs(maxY-minY) / float64(height),
		MinX:       minX,
		MaxY:       maxY,
	}
}

// Bytes renders the six-line world file
func (w WorldFile) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%24.10f\n", w.PixelSizeX)
	fmt.Fprintf(&buf, "%24.10f\n", 0.0)
	fmt.Fprintf(&buf, "%24.10f\n", 0.0)
	fmt.Fprintf(&buf, "%24.10f\n", -w.PixelSizeY)
	fmt.Fprintf(&buf, "%24.10f\n", w.MinX)
	fmt.Fprintf(&buf, "%24.10f\n", w.MaxY)
	return buf.Bytes()
}

// WorldFileName swaps the image extension for the matching world file
// extension (.pgw, .jgw, .wbw).
func WorldFileName(imageName string) string {
	base, ext := imageName, ""
	if idx := strings.LastIndex(imageName, "."); idx != -1 {
		base, ext = imageName[:idx], strings.ToLower(imageName[idx+1:])
	}
	switch ext {
	case "png":
		return base + ".pgw"
	case "jpg", "jpeg":
		return base + ".jgw"
	case "webp":
		return base + ".wbw"
	default:
		return base + ".wld"
	}
}
