package export

import (
	"errors"
	"fmt"
)

// ErrZoomRange is returned for zoom levels outside 0..MaxZoom
var ErrZoomRange = errors.New("zoom level out of range")

// TileFetchError reports the tile that aborted an export
type TileFetchError struct {
	X, Y, Zoom int
	URL        string
	// Tiles is the number of tiles the aborted export needed
	Tiles int
	Err   error
}

func (e *TileFetchError) Error() string {
	return fmt.Sprintf("failed to load tile at x=%d, y=%d, z=%d: %v", e.X, e.Y, e.Zoom, e.Err)
}

func (e *TileFetchError) Unwrap() error {
	return e.Err
}

// EncodingError reports that the composed image could not be serialized
type EncodingError struct {
	MIMEType string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("failed to export the map image as %s: %v", e.MIMEType, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// SizeError is returned when the requested raster exceeds the configured
// pixel budget or collapses to nothing.
type SizeError struct {
	Width, Height int
	MaxPixels     int64
}

func (e *SizeError) Error() string {
	if e.Width <= 0 || e.Height <= 0 {
		return fmt.Sprintf("requested image is empty: %dx%d", e.Width, e.Height)
	}
	return fmt.Sprintf("requested image size too large: %dx%d (limit %d pixels)", e.Width, e.Height, e.MaxPixels)
}
