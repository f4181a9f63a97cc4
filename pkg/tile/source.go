package tile

import (
	"fmt"
	"strconv"
	"strings"
)

// Source maps a wrapped tile address to a fetchable URL
type Source interface {
	TileURL(x, y, zoom int) string
}

// Template is a Source backed by a URL template with {z}, {x}, {y}
// placeholders. {s} is replaced with one of Subdomains and {-y} with the
// TMS row.
type Template struct {
	URL        string
	Subdomains string
	MinZoom    int
	MaxZoom    int
}

// NewTemplate validates the placeholders of url
func NewTemplate(url string) (*Template, error) {
	if url == "" {
		return nil, fmt.Errorf("tile url template is empty")
	}
	if !strings.Contains(url, "{z}") || !strings.Contains(url, "{x}") ||
		(!strings.Contains(url, "{y}") && !strings.Contains(url, "{-y}")) {
		return nil, fmt.Errorf("tile url template %q must contain {z}, {x} and {y} placeholders", url)
	}
	return &Template{
		URL:        url,
		Subdomains: "abc",
		MinZoom:    0,
		MaxZoom:    19,
	}, nil
}

// TileURL replaces the template tokens
func (t *Template) TileURL(x, y, zoom int) string {
	url := t.URL
	url = strings.ReplaceAll(url, "{z}", strconv.Itoa(zoom))
	url = strings.ReplaceAll(url, "{x}", strconv.Itoa(x))
	url = strings.ReplaceAll(url, "{y}", strconv.Itoa(y))
	if strings.Contains(url, "{-y}") {
		url = strings.ReplaceAll(url, "{-y}", strconv.Itoa((1<<uint(zoom))-1-y))
	}
	if strings.Contains(url, "{s}") && t.Subdomains != "" {
		sub := t.Subdomains[(x+y)%len(t.Subdomains)]
		url = strings.ReplaceAll(url, "{s}", string(sub))
	}
	return url
}

// ZoomRange returns the zoom levels the source serves natively
func (t *Template) ZoomRange() (int, int) {
	return t.MinZoom, t.MaxZoom
}
