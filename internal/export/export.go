package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/kiesman99/mapexport/pkg/tile"
)

// DefaultMaxPixels bounds the output raster size
const DefaultMaxPixels = 10000 * 10000

// Options configures an Exporter
type Options struct {
	// Concurrency caps simultaneous tile fetches. Zero means unbounded.
	Concurrency int
	// MaxPixels rejects exports whose width*height exceeds it. Zero uses DefaultMaxPixels.
	MaxPixels int64
	// WorldFile also produces georeferencing for the result
	WorldFile bool
}

// Result is an encoded export
type Result struct {
	Data      []byte
	MIMEType  string
	Width     int
	Height    int
	Layout    Layout
	WorldFile *tile.WorldFile
}

// Exporter composes tile images into a single cropped raster
type Exporter struct {
	fetcher tile.Fetcher
	logger  *zap.Logger
	tracer  trace.Tracer
	opts    Options
}

// New creates an Exporter fetching tiles through fetcher
func New(fetcher tile.Fetcher, logger *zap.Logger, opts Options) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = DefaultMaxPixels
	}
	return &Exporter{
		fetcher: fetcher,
		logger:  logger,
		tracer:  otel.Tracer("github.com/kiesman99/mapexport/internal/export"),
		opts:    opts,
	}
}

// Export renders bounds at zoom from src and encodes it as mimeType.
// Any tile failure aborts the whole export with a *TileFetchError; an
// encoder failure returns an *EncodingError.
func (e *Exporter) Export(ctx context.Context, mimeType string, bounds tile.BoundingBox, zoom int, src tile.Source) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "export.Export", trace.WithAttributes(
		attribute.String("export.mime_type", mimeType),
		attribute.String("export.bounds", bounds.String()),
		attribute.Int("export.zoom", zoom),
	))
	defer span.End()

	if zoom < 0 || zoom > MaxZoom {
		err := fmt.Errorf("%w: %d not in 0..%d", ErrZoomRange, zoom, MaxZoom)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	layout := Plan(bounds, zoom)
	width, height := layout.Width(), layout.Height()

	e.logger.Debug("Planned export",
		zap.Stringer("bounds", bounds),
		zap.Int("zoom", zoom),
		zap.Int("min_x", layout.Min.X), zap.Int("min_y", layout.Min.Y),
		zap.Int("max_x", layout.Max.X), zap.Int("max_y", layout.Max.Y),
		zap.Int("width", width), zap.Int("height", height))

	if !layout.Fits(e.opts.MaxPixels) {
		err := &SizeError{Width: width, Height: height, MaxPixels: e.opts.MaxPixels}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	canvas, err := e.compose(ctx, layout, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	data, err := Encode(canvas, mimeType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result := &Result{
		Data:     data,
		MIMEType: mimeType,
		Width:    width,
		Height:   height,
		Layout:   layout,
	}
	if e.opts.WorldFile {
		wf := tile.NewWorldFile(bounds, width, height)
		result.WorldFile = &wf
	}

	e.logger.Info("Exported map image",
		zap.String("mime_type", mimeType),
		zap.Int("zoom", zoom),
		zap.Int("tiles", layout.TileCount()),
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// compose fetches every tile of layout concurrently and draws it onto a
// fresh canvas. Each tile owns a disjoint rectangle of the canvas, so the
// draws need no locking.
func (e *Exporter) compose(ctx context.Context, layout Layout, src tile.Source) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, layout.Width(), layout.Height()))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	group, ctx := errgroup.WithContext(ctx)
	if e.opts.Concurrency > 0 {
		group.SetLimit(e.opts.Concurrency)
	}

	for _, c := range layout.Tiles() {
		group.Go(func() error {
			img, err := e.fetchTile(ctx, layout.Zoom, c, src)
			if err != nil {
				var tileErr *TileFetchError
				if errors.As(err, &tileErr) {
					tileErr.Tiles = layout.TileCount()
				}
				return err
			}
			dx, dy := layout.Origin(c)
			dst := image.Rect(dx, dy, dx+tile.Size, dy+tile.Size)
			draw.Draw(canvas, dst, img, img.Bounds().Min, draw.Over)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return canvas, nil
}

func (e *Exporter) fetchTile(ctx context.Context, zoom int, c tile.Coord, src tile.Source) (image.Image, error) {
	wrapped := tile.WrapTile(c.X, c.Y, zoom)
	url := src.TileURL(wrapped.X, wrapped.Y, zoom)

	ctx, span := e.tracer.Start(ctx, "export.fetchTile", trace.WithAttributes(
		attribute.Int("tile.x", wrapped.X),
		attribute.Int("tile.y", wrapped.Y),
		attribute.Int("tile.z", zoom),
	))
	defer span.End()

	img, err := e.fetcher.FetchTile(ctx, url)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() == nil {
			e.logger.Warn("Tile fetch failed",
				zap.String("url", url),
				zap.Int("x", wrapped.X), zap.Int("y", wrapped.Y), zap.Int("z", zoom),
				zap.Error(err))
		}
		return nil, &TileFetchError{X: wrapped.X, Y: wrapped.Y, Zoom: zoom, URL: url, Err: err}
	}
	return img, nil
}
