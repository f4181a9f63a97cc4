package render

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const objectsJSON = `[
	{"type": "changeset", "id": 42, "bounds": [[10, 50, 11, 51], [12, 52, 13, 53]]},
	{"type": "note", "id": 7, "lat": 51.5, "lon": -0.1, "icon": "open", "draggable": true},
	{"type": "node", "id": 1, "geom": [51.5, -0.12]},
	{"type": "way", "id": 2, "geom": [[0, 0], [0, 1], [1, 1], [0, 0]], "area": true},
	{"type": "way", "id": 3, "geom": [[0, 0], [0, 1]], "area": false},
	{"type": "relation", "id": 9}
]`

func TestDecodeObjects(t *testing.T) {
	objects, err := DecodeObjects([]byte(objectsJSON))
	require.NoError(t, err)
	require.Len(t, objects, 6)

	assert.IsType(t, Changeset{}, objects[0])
	assert.IsType(t, Note{}, objects[1])
	assert.IsType(t, Node{}, objects[2])
	assert.IsType(t, Way{}, objects[3])
	assert.IsType(t, Unsupported{}, objects[5])
	assert.EqualValues(t, "relation", objects[5].ObjectType())

	note := objects[1].(Note)
	assert.True(t, note.IsInteractive())
	assert.True(t, note.IsDraggable())

	_, err = DecodeObjects([]byte(`{"type": "node"}`))
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	objects, err := DecodeObjects([]byte(objectsJSON))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	r := NewRenderer(zap.New(core))

	layers := r.Render(objects, Styles{Element: Style{"color": "#f60"}})

	// 2 changeset rectangles, note halo, node, area, line
	require.Len(t, layers.Features.Features, 6)
	require.Len(t, layers.Markers.Features, 1)
	assert.Equal(t, 1, layers.Unsupported)
	assert.Equal(t, 1, logs.FilterMessage("Unsupported feature type").Len())

	rect := layers.Features.Features[0]
	assert.Equal(t, "changeset/42", rect.ID)
	assert.Equal(t, orb.Bound{Min: orb.Point{10, 50}, Max: orb.Point{11, 51}}, rect.Geometry.Bound())

	marker := layers.Markers.Features[0]
	assert.Equal(t, "note/7", marker.ID)
	assert.Equal(t, orb.Point{-0.1, 51.5}, marker.Geometry)
	assert.Equal(t, true, marker.Properties["autoPan"])

	node := layers.Features.Features[3]
	assert.Equal(t, "node/1", node.ID)
	assert.Equal(t, orb.Point{-0.12, 51.5}, node.Geometry)
	assert.Equal(t, Style{"color": "#f60"}, node.Properties["style"])

	area := layers.Features.Features[4]
	poly, ok := area.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 4)
	assert.Equal(t, poly[0][0], poly[0][3])

	line := layers.Features.Features[5]
	assert.Equal(t, "polyline", line.Properties["layer"])

	_, err = json.Marshal(layers)
	assert.NoError(t, err)
}

func TestRender_AreasDisabled(t *testing.T) {
	r := NewRenderer(nil)
	r.RenderAreas = false

	layers := r.Render([]Object{Way{ID: 5, Geom: [][2]float64{{0, 0}, {0, 1}, {1, 1}, {0, 0}}, Area: true}}, Styles{})
	require.Len(t, layers.Features.Features, 1)

	_, ok := layers.Features.Features[0].Geometry.(orb.LineString)
	assert.True(t, ok)
	assert.NotContains(t, layers.Features.Features[0].Properties, "style")
}

func TestRender_ShortWays(t *testing.T) {
	r := NewRenderer(nil)

	layers := r.Render([]Object{
		Way{ID: 6, Geom: [][2]float64{{0, 0}, {0, 1}, {0, 0}}, Area: true},
		Way{ID: 7, Geom: [][2]float64{{1, 2}}, Area: true},
		Way{ID: 8, Geom: [][2]float64{{1, 2}}},
		Way{ID: 9},
	}, Styles{})
	require.Len(t, layers.Features.Features, 3)

	// short areas stay polygons with a closed ring
	poly, ok := layers.Features.Features[0].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Ring{{0, 0}, {1, 0}, {0, 0}}, poly[0])

	poly, ok = layers.Features.Features[1].Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Ring{{2, 1}, {2, 1}}, poly[0])

	line, ok := layers.Features.Features[2].Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.LineString{{2, 1}}, line)
}
