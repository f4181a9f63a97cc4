package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/kiesman99/mapexport/pkg/tile"
)

type memorySource struct{}

func (memorySource) TileURL(x, y, zoom int) string {
	return fmt.Sprintf("mem://%d/%d/%d", zoom, x, y)
}

// colorFetcher paints each tile with a color derived from its wrapped x
// and fails on the tile named by failURL.
type colorFetcher struct {
	failURL string
	calls   atomic.Int32
}

func tileColor(x int) color.RGBA {
	return color.RGBA{R: uint8(10 * (x + 1)), G: 100, B: 50, A: 255}
}

func (f *colorFetcher) FetchTile(ctx context.Context, url string) (image.Image, error) {
	f.calls.Add(1)
	if url == f.failURL {
		return nil, errors.New("connection reset")
	}
	var z, x, y int
	if _, err := fmt.Sscanf(url, "mem://%d/%d/%d", &z, &x, &y); err != nil {
		return nil, err
	}
	return image.NewUniform(tileColor(x)), nil
}

func TestExport_SingleTile(t *testing.T) {
	defer goleak.VerifyNone(t)

	const zoom = 10
	b := insideTile(550, 335, zoom)
	fetcher := &colorFetcher{}
	e := New(fetcher, zaptest.NewLogger(t), Options{})

	res, err := e.Export(context.Background(), MIMEPNG, b, zoom, memorySource{})
	require.NoError(t, err)

	assert.EqualValues(t, 1, fetcher.calls.Load())
	assert.Equal(t, tile.Size-res.Layout.Left-res.Layout.Right, res.Width)
	assert.Equal(t, tile.Size-res.Layout.Top-res.Layout.Bottom, res.Height)

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, res.Width, res.Height), img.Bounds())
	assert.Equal(t, tileColor(550), color.RGBAModel.Convert(img.At(res.Width/2, res.Height/2)))
	assert.Nil(t, res.WorldFile)
}

func TestExport_AntimeridianUsesWrappedTiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	const zoom = 4
	b := tile.BoundingBox{MinLat: -1, MinLon: 179, MaxLat: 1, MaxLon: -179}
	fetcher := &colorFetcher{}
	e := New(fetcher, nil, Options{Concurrency: 2, WorldFile: true})

	res, err := e.Export(context.Background(), MIMEPNG, b, zoom, memorySource{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, fetcher.calls.Load())
	require.NotNil(t, res.WorldFile)

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)

	// left column comes from tile 15, right column from wrapped tile 0
	assert.Equal(t, tileColor(15), color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, tileColor(0), color.RGBAModel.Convert(img.At(res.Width-1, res.Height-1)))
}

func TestExport_TileFailureAbortsExport(t *testing.T) {
	defer goleak.VerifyNone(t)

	const zoom = 10
	b := tile.BoundingBox{MinLat: 37.37, MinLon: -122.92, MaxLat: 38.23, MaxLon: -121.56}
	layout := Plan(b, zoom)
	bad := layout.Tiles()[len(layout.Tiles())/2]

	fetcher := &colorFetcher{failURL: memorySource{}.TileURL(bad.X, bad.Y, zoom)}
	e := New(fetcher, zaptest.NewLogger(t), Options{Concurrency: 4})

	res, err := e.Export(context.Background(), MIMEPNG, b, zoom, memorySource{})
	require.Error(t, err)
	assert.Nil(t, res)

	var tileErr *TileFetchError
	require.True(t, errors.As(err, &tileErr))
	assert.Equal(t, bad.X, tileErr.X)
	assert.Equal(t, bad.Y, tileErr.Y)
	assert.Equal(t, zoom, tileErr.Zoom)
	assert.Contains(t, err.Error(), fmt.Sprintf("x=%d, y=%d, z=%d", bad.X, bad.Y, zoom))
	assert.Equal(t, layout.TileCount(), tileErr.Tiles)
}

func TestExport_EncodingFailure(t *testing.T) {
	const zoom = 10
	e := New(&colorFetcher{}, nil, Options{})

	_, err := e.Export(context.Background(), "image/gif", insideTile(550, 335, zoom), zoom, memorySource{})
	require.Error(t, err)

	var encErr *EncodingError
	require.True(t, errors.As(err, &encErr))
	assert.Equal(t, "image/gif", encErr.MIMEType)
}

func TestExport_JPEG(t *testing.T) {
	const zoom = 10
	e := New(&colorFetcher{}, nil, Options{})

	res, err := e.Export(context.Background(), MIMEJPEG, insideTile(550, 335, zoom), zoom, memorySource{})
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, res.Width, img.Bounds().Dx())
}

func TestExport_SizeLimit(t *testing.T) {
	e := New(&colorFetcher{}, nil, Options{MaxPixels: 1000})

	_, err := e.Export(context.Background(), MIMEPNG,
		tile.BoundingBox{MinLat: 37.37, MinLon: -122.92, MaxLat: 38.23, MaxLon: -121.56}, 10, memorySource{})

	var sizeErr *SizeError
	require.True(t, errors.As(err, &sizeErr))
	assert.EqualValues(t, 1000, sizeErr.MaxPixels)
}

func TestExport_HugeSpanRejectedBeforeFetching(t *testing.T) {
	defer goleak.VerifyNone(t)

	fetcher := &colorFetcher{}
	e := New(fetcher, nil, Options{})

	for _, b := range []tile.BoundingBox{
		{MinLat: -60, MinLon: -180, MaxLat: 60, MaxLon: 180},
		{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180},
	} {
		res, err := e.Export(context.Background(), MIMEPNG, b, MaxZoom, memorySource{})
		assert.Nil(t, res)

		var sizeErr *SizeError
		require.True(t, errors.As(err, &sizeErr), "%v: %v", b, err)
		assert.Greater(t, sizeErr.Width, 0)
		assert.Greater(t, sizeErr.Height, 0)
	}
	assert.EqualValues(t, 0, fetcher.calls.Load())
}

func TestExport_ZoomOutOfRange(t *testing.T) {
	fetcher := &colorFetcher{}
	e := New(fetcher, nil, Options{})

	for _, zoom := range []int{-1, MaxZoom + 1, 64} {
		_, err := e.Export(context.Background(), MIMEPNG, insideTile(0, 0, 0), zoom, memorySource{})
		assert.ErrorIs(t, err, ErrZoomRange)
	}
	assert.EqualValues(t, 0, fetcher.calls.Load())
}

func TestExport_PolarBoxFetchesWholeGrid(t *testing.T) {
	defer goleak.VerifyNone(t)

	const zoom = 2
	fetcher := &colorFetcher{}
	e := New(fetcher, nil, Options{Concurrency: 4, WorldFile: true})

	res, err := e.Export(context.Background(), MIMEPNG,
		tile.BoundingBox{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}, zoom, memorySource{})
	require.NoError(t, err)

	assert.EqualValues(t, 16, fetcher.calls.Load())
	assert.Equal(t, 4*tile.Size, res.Width)
	assert.Equal(t, 4*tile.Size, res.Height)
	require.NotNil(t, res.WorldFile)
	assert.False(t, math.IsInf(res.WorldFile.MaxY, 0) || math.IsNaN(res.WorldFile.MaxY))

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	// no black rows: every corner is covered by a tile
	assert.Equal(t, tileColor(0), color.RGBAModel.Convert(img.At(0, 0)))
	assert.Equal(t, tileColor(3), color.RGBAModel.Convert(img.At(res.Width-1, res.Height-1)))
}
