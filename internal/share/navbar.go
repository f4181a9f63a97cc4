package share

import (
	"fmt"
	"net/url"

	"github.com/paulmach/osm"
)

// MinEditZoom is the lowest zoom at which editing is offered
const MinEditZoom = 13

// ObjectRef names the selected object, if any
type ObjectRef struct {
	Type osm.Type `json:"type"`
	ID   int64    `json:"id"`
}

// Link is a navbar link kept in sync with the map state
type Link struct {
	Href     string `json:"href"`
	Disabled bool   `json:"disabled"`
}

// NavLinks are the state-dependent links of the navigation bar
type NavLinks struct {
	Edit    Link `json:"edit"`
	History Link `json:"history"`
	Export  Link `json:"export"`
	Login   Link `json:"login"`
}

// Navbar derives the navbar links for state. Edit links carry the selected
// object and are disabled below MinEditZoom. referer is the current page path.
func Navbar(s MapState, object *ObjectRef, referer string) NavLinks {
	hash := s.Hash()

	edit := "/edit"
	if object != nil {
		edit += fmt.Sprintf("?%s=%d", object.Type, object.ID)
	}

	login := "/login?" + url.Values{"referer": {referer}}.Encode()

	return NavLinks{
		Edit:    Link{Href: edit + hash, Disabled: s.Zoom < MinEditZoom},
		History: Link{Href: "/history" + hash},
		Export:  Link{Href: "/export" + hash},
		Login:   Link{Href: login + hash},
	}
}
