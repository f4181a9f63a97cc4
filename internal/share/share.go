// Package share builds the links offered by the map's share panel: a
// permalink, a short link, an embeddable iframe and a geo: URI.
package share

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/kiesman99/mapexport/pkg/tile"
)

// MapState is the visible map position
type MapState struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Zoom   int     `json:"zoom"`
	Layers string  `json:"layers,omitempty"`
}

// Precision is the number of decimals needed to address one pixel at zoom
func Precision(zoom int) int {
	pixels := math.Exp2(float64(8 + zoom))
	p := int(math.Ceil(math.Log10(pixels / 180)))
	if p < 0 {
		return 0
	}
	return p
}

func formatCoord(v float64, zoom int) string {
	return strconv.FormatFloat(v, 'f', Precision(zoom), 64)
}

// Hash is the "#map=zoom/lat/lon" fragment
func (s MapState) Hash() string {
	hash := fmt.Sprintf("#map=%d/%s/%s", s.Zoom, formatCoord(s.Lat, s.Zoom), formatCoord(s.Lon, s.Zoom))
	if s.Layers != "" && s.Layers != "M" {
		hash += "&layers=" + s.Layers
	}
	return hash
}

func markerQuery(s MapState) string {
	return fmt.Sprintf("?mlat=%s&mlon=%s", formatCoord(s.Lat, s.Zoom), formatCoord(s.Lon, s.Zoom))
}

// MapURL is the permalink of state, optionally with a marker at its center
func MapURL(base string, s MapState, marker bool) string {
	u := strings.TrimRight(base, "/") + "/"
	if marker {
		u += markerQuery(s)
	}
	return u + s.Hash()
}

// ShortURL is the /go/ short link of state
func ShortURL(base string, s MapState, marker bool) string {
	u := strings.TrimRight(base, "/") + "/go/" + ShortCode(s.Lon, s.Lat, s.Zoom)
	var params []string
	if s.Layers != "" && s.Layers != "M" {
		params = append(params, "layers="+s.Layers)
	}
	if marker {
		params = append(params, "m")
	}
	if len(params) > 0 {
		u += "?" + strings.Join(params, "&")
	}
	return u
}

// GeoURI is the RFC 5870 URI of state
func GeoURI(s MapState) string {
	return fmt.Sprintf("geo:%s,%s?z=%d", formatCoord(s.Lat, s.Zoom), formatCoord(s.Lon, s.Zoom), s.Zoom)
}

var layerNames = map[string]string{
	"M": "mapnik",
	"C": "cyclemap",
	"T": "transportmap",
	"H": "hot",
}

// EmbedHTML is an iframe showing bounds, followed by a link to the full map
func EmbedHTML(base string, s MapState, bounds tile.BoundingBox, marker *orb.Point) string {
	base = strings.TrimRight(base, "/")

	layer := "mapnik"
	if s.Layers != "" {
		if name, ok := layerNames[s.Layers[:1]]; ok {
			layer = name
		}
	}

	src := fmt.Sprintf("%s/export/embed.html?bbox=%s,%s,%s,%s&layer=%s",
		base,
		formatCoord(bounds.MinLon, s.Zoom), formatCoord(bounds.MinLat, s.Zoom),
		formatCoord(bounds.MaxLon, s.Zoom), formatCoord(bounds.MaxLat, s.Zoom),
		layer)

	larger := base + "/"
	if marker != nil {
		src += fmt.Sprintf("&marker=%s,%s", formatCoord(marker.Lat(), s.Zoom), formatCoord(marker.Lon(), s.Zoom))
		larger += fmt.Sprintf("?mlat=%s&mlon=%s", formatCoord(marker.Lat(), s.Zoom), formatCoord(marker.Lon(), s.Zoom))
	}
	larger += s.Hash()

	return fmt.Sprintf(`<iframe width="425" height="350" src="%s" style="border: 1px solid black"></iframe>`+
		`<br/><small><a href="%s">View Larger Map</a></small>`,
		html.EscapeString(src), html.EscapeString(larger))
}
