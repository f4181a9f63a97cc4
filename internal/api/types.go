// Package api defines the request and response types of the mapexport
// REST API and binds them to a chi router.
package api

import (
	"encoding/json"
	"time"
)

// Defines values for HealthResponseStatus.
const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// Defines values for ExportFormat.
const (
	Jpeg ExportFormat = "jpeg"
	Png  ExportFormat = "png"
	Webp ExportFormat = "webp"
)

// Defines values for ValidationErrorResponseError.
const (
	VALIDATIONERROR ValidationErrorResponseError = "VALIDATION_ERROR"
)

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`

	// CachedTiles is the number of decoded tiles held in memory
	CachedTiles *int `json:"cached_tiles,omitempty"`
}

// HealthResponseStatus defines model for HealthResponse.Status.
type HealthResponseStatus string

// BoundingBox in degrees. MinLon > MaxLon crosses the antimeridian.
type BoundingBox struct {
	MinLat float64 `json:"min_lat" validate:"gte=-90,lte=90"`
	MinLon float64 `json:"min_lon" validate:"gte=-180,lte=180"`
	MaxLat float64 `json:"max_lat" validate:"gte=-90,lte=90,gtefield=MinLat"`
	MaxLon float64 `json:"max_lon" validate:"gte=-180,lte=180"`
}

// ExportFormat defines model for ExportRequest.Format.
type ExportFormat string

// TileSource overrides the server's default tile server
type TileSource struct {
	Url     string             `json:"url" validate:"required"`
	Headers *map[string]string `json:"headers,omitempty"`
	MinZoom *int               `json:"min_zoom,omitempty" validate:"omitempty,min=0,max=25"`
	MaxZoom *int               `json:"max_zoom,omitempty" validate:"omitempty,min=0,max=25"`
}

// ExportRequest defines model for ExportRequest.
type ExportRequest struct {
	Bbox BoundingBox `json:"bbox"`

	// Zoom pins the zoom level. Otherwise the optimal zoom plus Detail is used.
	Zoom   *int          `json:"zoom,omitempty" validate:"omitempty,min=0,max=25"`
	Detail *int          `json:"detail,omitempty" validate:"omitempty,min=-2,max=2"`
	Format *ExportFormat `json:"format,omitempty" validate:"omitempty,oneof=png jpeg webp"`

	TileSource *TileSource `json:"tile_source,omitempty"`
	Worldfile  *bool       `json:"worldfile,omitempty"`
}

// DetailLevel defines model for DetailLevel.
type DetailLevel struct {
	Offset      int     `json:"offset"`
	Zoom        int     `json:"zoom"`
	Available   bool    `json:"available"`
	XResolution int     `json:"x_resolution"`
	YResolution int     `json:"y_resolution"`
	Scale       float64 `json:"scale"`
}

// ExportParamsResponse defines model for ExportParamsResponse.
type ExportParamsResponse struct {
	Zoom        int           `json:"zoom"`
	XResolution float64       `json:"x_resolution"`
	YResolution float64       `json:"y_resolution"`
	Details     []DetailLevel `json:"details"`
}

// RenderRequest carries the objects to draw as raw JSON so that unknown
// kinds survive decoding.
type RenderRequest struct {
	Objects json.RawMessage `json:"objects"`
	Styles  *RenderStyles   `json:"styles,omitempty"`
}

// RenderStyles defines model for RenderStyles.
type RenderStyles struct {
	Changeset map[string]interface{} `json:"changeset,omitempty"`
	Element   map[string]interface{} `json:"element,omitempty"`
	NoteHalo  map[string]interface{} `json:"note_halo,omitempty"`
	Note      map[string]interface{} `json:"note,omitempty"`
}

// ShareResponse defines model for ShareResponse.
type ShareResponse struct {
	Url      string   `json:"url"`
	ShortUrl string   `json:"short_url"`
	GeoUri   string   `json:"geo_uri"`
	Html     string   `json:"html"`
	Navbar   NavLinks `json:"navbar"`
}

// NavLink defines model for NavLink.
type NavLink struct {
	Href     string `json:"href"`
	Disabled bool   `json:"disabled"`
}

// NavLinks defines model for NavLinks.
type NavLinks struct {
	Edit    NavLink `json:"edit"`
	History NavLink `json:"history"`
	Export  NavLink `json:"export"`
	Login   NavLink `json:"login"`
}

// SignupRequest defines model for SignupRequest.
type SignupRequest struct {
	DisplayName     string `json:"display_name"`
	Email           string `json:"email"`
	EmailConfirm    string `json:"email_confirm"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// SignupIssue defines model for SignupIssue.
type SignupIssue struct {
	Type string   `json:"type"`
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
}

// SignupResponse defines model for SignupResponse.
type SignupResponse struct {
	Valid  bool          `json:"valid"`
	Issues []SignupIssue `json:"issues"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Details   *map[string]interface{} `json:"details,omitempty"`
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
}

// FailedTile names the tile that aborted an export
type FailedTile struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Z          int    `json:"z"`
	Url        string `json:"url"`
	Error      string `json:"error"`
	StatusCode *int   `json:"status_code,omitempty"`
}

// TileErrorResponse defines model for TileErrorResponse.
type TileErrorResponse struct {
	Error      string     `json:"error"`
	Message    string     `json:"message"`
	FailedTile FailedTile `json:"failed_tile"`
	TotalTiles int        `json:"total_tiles"`
	RequestId  *string    `json:"request_id,omitempty"`
}

// ValidationErrorResponse defines model for ValidationErrorResponse.
type ValidationErrorResponse struct {
	Error            ValidationErrorResponseError `json:"error"`
	Message          string                       `json:"message"`
	RequestId        *string                      `json:"request_id,omitempty"`
	ValidationErrors []ValidationError            `json:"validation_errors"`
}

// ValidationError is one rejected field
type ValidationError struct {
	Code    *string `json:"code,omitempty"`
	Field   string  `json:"field"`
	Message string  `json:"message"`
}

// ValidationErrorResponseError defines model for ValidationErrorResponse.Error.
type ValidationErrorResponseError string

// GetExportParamsParams defines parameters for GetExportParams.
type GetExportParamsParams struct {
	// Bbox is minLon,minLat,maxLon,maxLat
	Bbox    []float64 `form:"bbox" json:"bbox"`
	MinZoom *int      `form:"min_zoom,omitempty" json:"min_zoom,omitempty"`
	MaxZoom *int      `form:"max_zoom,omitempty" json:"max_zoom,omitempty"`
}

// GetShareLinksParams defines parameters for GetShareLinks.
type GetShareLinksParams struct {
	Lat    float64 `form:"lat" json:"lat"`
	Lon    float64 `form:"lon" json:"lon"`
	Zoom   int     `form:"zoom" json:"zoom"`
	Layers *string `form:"layers,omitempty" json:"layers,omitempty"`
	Marker *bool   `form:"marker,omitempty" json:"marker,omitempty"`
}
