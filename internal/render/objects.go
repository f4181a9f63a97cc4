// Package render turns OSM objects (changesets, notes, nodes and ways) into
// GeoJSON overlay layers.
package render

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/osm"
)

// Object is one of Changeset, Note, Node, Way or Unsupported
type Object interface {
	ObjectType() osm.Type
}

// Changeset is drawn as one rectangle per bounding box
type Changeset struct {
	ID     osm.ChangesetID `json:"id"`
	Bounds [][4]float64    `json:"bounds"` // [minLon, minLat, maxLon, maxLat]
}

// Note is drawn as a halo with an icon marker on top
type Note struct {
	ID          osm.NoteID `json:"id"`
	Lat         float64    `json:"lat"`
	Lon         float64    `json:"lon"`
	Icon        string     `json:"icon"`
	Interactive *bool      `json:"interactive,omitempty"`
	Draggable   *bool      `json:"draggable,omitempty"`
}

// Node is drawn as a circle marker
type Node struct {
	ID   osm.NodeID `json:"id"`
	Geom [2]float64 `json:"geom"` // [lat, lon]
}

// Way is drawn as a polyline, or a polygon when Area is set
type Way struct {
	ID   osm.WayID    `json:"id"`
	Geom [][2]float64 `json:"geom"` // [[lat, lon], ...]
	Area bool         `json:"area"`
}

// Unsupported carries an object whose type has no renderer
type Unsupported struct {
	Type string
	Raw  json.RawMessage
}

func (Changeset) ObjectType() osm.Type { return osm.TypeChangeset }

func (Note) ObjectType() osm.Type { return osm.TypeNote }

func (Node) ObjectType() osm.Type { return osm.TypeNode }

func (Way) ObjectType() osm.Type { return osm.TypeWay }

func (u Unsupported) ObjectType() osm.Type { return osm.Type(u.Type) }

// IsInteractive defaults to true when unset
func (n Note) IsInteractive() bool {
	return n.Interactive == nil || *n.Interactive
}

// IsDraggable defaults to false when unset
func (n Note) IsDraggable() bool {
	return n.Draggable != nil && *n.Draggable
}

// DecodeObjects parses a JSON array of objects tagged by their "type" field
func DecodeObjects(data []byte) ([]Object, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode objects: %w", err)
	}

	objects := make([]Object, 0, len(raws))
	for i, raw := range raws {
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decode object %d: %w", i, err)
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func decodeObject(raw json.RawMessage) (Object, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, err
	}

	var obj Object
	var err error
	switch osm.Type(head.Type) {
	case osm.TypeChangeset:
		var c Changeset
		err = json.Unmarshal(raw, &c)
		obj = c
	case osm.TypeNote:
		var n Note
		err = json.Unmarshal(raw, &n)
		obj = n
	case osm.TypeNode:
		var n Node
		err = json.Unmarshal(raw, &n)
		obj = n
	case osm.TypeWay:
		var w Way
		err = json.Unmarshal(raw, &w)
		obj = w
	default:
		obj = Unsupported{Type: head.Type, Raw: raw}
	}
	if err != nil {
		return nil, err
	}
	return obj, nil
}
