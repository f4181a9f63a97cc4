package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Style is a set of Leaflet-style path options passed through to the client
type Style map[string]interface{}

// Styles selects the style of each overlay kind
type Styles struct {
	Changeset Style `json:"changeset,omitempty"`
	Element   Style `json:"element,omitempty"`
	NoteHalo  Style `json:"note_halo,omitempty"`
	Note      Style `json:"note,omitempty"`
}

// Layers holds the rendered overlays. Markers are meant to be drawn above Features.
type Layers struct {
	Features    *geojson.FeatureCollection `json:"features"`
	Markers     *geojson.FeatureCollection `json:"markers"`
	Unsupported int                        `json:"unsupported"`
}

// Renderer converts objects into overlay features
type Renderer struct {
	logger *zap.Logger

	// RenderAreas draws closed area ways as polygons instead of polylines
	RenderAreas bool
}

// NewRenderer creates a renderer that draws areas
func NewRenderer(logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{logger: logger, RenderAreas: true}
}

// Render converts objects into layers. Unsupported objects are reported and skipped.
func (r *Renderer) Render(objects []Object, styles Styles) *Layers {
	layers := &Layers{
		Features: geojson.NewFeatureCollection(),
		Markers:  geojson.NewFeatureCollection(),
	}

	for _, object := range objects {
		switch o := object.(type) {
		case Changeset:
			r.renderChangeset(layers, o, styles)
		case Note:
			r.renderNote(layers, o, styles)
		case Node:
			r.renderNode(layers, o, styles)
		case Way:
			r.renderWay(layers, o, styles)
		default:
			layers.Unsupported++
			r.logger.Error("Unsupported feature type", zap.String("type", string(object.ObjectType())))
		}
	}

	if n := len(layers.Features.Features); n > 0 {
		r.logger.Debug("Render objects", zap.Int("layers", n))
	}
	if n := len(layers.Markers.Features); n > 0 {
		r.logger.Debug("Render markers", zap.Int("markers", n))
	}
	return layers
}

func (r *Renderer) renderChangeset(layers *Layers, c Changeset, styles Styles) {
	for _, b := range c.Bounds {
		bound := orb.Bound{
			Min: orb.Point{b[0], b[1]},
			Max: orb.Point{b[2], b[3]},
		}
		f := newFeature(bound.ToPolygon(), fmt.Sprintf("changeset/%d", c.ID), "rectangle", styles.Changeset)
		layers.Features.Append(f)
	}
}

func (r *Renderer) renderNote(layers *Layers, n Note, styles Styles) {
	point := orb.Point{n.Lon, n.Lat}
	id := fmt.Sprintf("note/%d", n.ID)

	layers.Features.Append(newFeature(point, id, "circleMarker", styles.NoteHalo))

	marker := newFeature(point, id, "marker", styles.Note)
	marker.Properties["icon"] = n.Icon
	marker.Properties["interactive"] = n.IsInteractive()
	marker.Properties["keyboard"] = n.IsInteractive()
	marker.Properties["draggable"] = n.IsDraggable()
	marker.Properties["autoPan"] = n.IsDraggable()
	layers.Markers.Append(marker)
}

func (r *Renderer) renderNode(layers *Layers, n Node, styles Styles) {
	point := orb.Point{n.Geom[1], n.Geom[0]}
	layers.Features.Append(newFeature(point, n.ID.FeatureID().String(), "circleMarker", styles.Element))
}

func (r *Renderer) renderWay(layers *Layers, w Way, styles Styles) {
	id := w.ID.FeatureID().String()
	if len(w.Geom) == 0 {
		r.logger.Warn("Skipping way without geometry", zap.String("id", id))
		return
	}

	if r.RenderAreas && w.Area {
		// the last vertex repeats the first; rebuild the ring from the rest
		vertices := w.Geom[:max(len(w.Geom)-1, 1)]
		ring := make(orb.Ring, 0, len(vertices)+1)
		for _, ll := range vertices {
			ring = append(ring, orb.Point{ll[1], ll[0]})
		}
		ring = append(ring, ring[0])
		layers.Features.Append(newFeature(orb.Polygon{ring}, id, "polygon", styles.Element))
		return
	}

	line := make(orb.LineString, 0, len(w.Geom))
	for _, ll := range w.Geom {
		line = append(line, orb.Point{ll[1], ll[0]})
	}
	layers.Features.Append(newFeature(line, id, "polyline", styles.Element))
}

func newFeature(g orb.Geometry, id, layer string, style Style) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.ID = id
	f.Properties["layer"] = layer
	if len(style) > 0 {
		f.Properties["style"] = style
	}
	return f
}
