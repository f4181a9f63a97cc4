package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"

	"github.com/kiesman99/mapexport/internal/api"
	"github.com/kiesman99/mapexport/internal/config"
	"github.com/kiesman99/mapexport/internal/export"
	"github.com/kiesman99/mapexport/internal/render"
	"github.com/kiesman99/mapexport/internal/share"
	"github.com/kiesman99/mapexport/internal/signup"
	"github.com/kiesman99/mapexport/pkg/tile"
)

// Server implements the ServerInterface of the API
type Server struct {
	startTime time.Time
	version   string
	cfg       *config.Config
	logger    *zap.Logger
	fetcher   tile.Fetcher
	renderer  *render.Renderer
	validate  *validator.Validate

	now func() time.Time
}

// NewServer creates a new server instance. fetcher serves tiles for requests
// that do not bring their own headers.
func NewServer(version string, cfg *config.Config, fetcher tile.Fetcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		startTime: time.Now(),
		version:   version,
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		renderer:  render.NewRenderer(logger),
		validate:  validate,
		now:       time.Now,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}
	if cache, ok := s.fetcher.(interface{ Len() int }); ok {
		n := cache.Len()
		response.CachedTiles = &n
	}

	s.writeJSON(w, http.StatusOK, response)
}

// GetExportParams reports the optimal zoom for a bounding box together with
// the selectable detail levels.
func (s *Server) GetExportParams(w http.ResponseWriter, r *http.Request, params api.GetExportParamsParams) {
	requestID := requestIDFrom(r)

	if len(params.Bbox) != 4 {
		s.writeValidationErrorResponse(w, "bbox must be minLon,minLat,maxLon,maxLat",
			[]api.ValidationError{{Field: "bbox", Message: "expected 4 comma separated numbers"}}, &requestID)
		return
	}
	bbox := api.BoundingBox{
		MinLon: params.Bbox[0],
		MinLat: params.Bbox[1],
		MaxLon: params.Bbox[2],
		MaxLat: params.Bbox[3],
	}
	if err := s.validate.Struct(&bbox); err != nil {
		s.writeStructErrors(w, err, &requestID)
		return
	}

	minZoom, maxZoom := s.cfg.Tiles.MinZoom, s.cfg.Tiles.MaxZoom
	if params.MinZoom != nil {
		minZoom = *params.MinZoom
	}
	if params.MaxZoom != nil {
		maxZoom = *params.MaxZoom
	}
	var zoomErrs []api.ValidationError
	if minZoom < 0 || minZoom > export.MaxZoom {
		zoomErrs = append(zoomErrs, api.ValidationError{Field: "min_zoom",
			Message: fmt.Sprintf("must be between 0 and %d", export.MaxZoom)})
	}
	if maxZoom < 0 || maxZoom > export.MaxZoom {
		zoomErrs = append(zoomErrs, api.ValidationError{Field: "max_zoom",
			Message: fmt.Sprintf("must be between 0 and %d", export.MaxZoom)})
	}
	if len(zoomErrs) == 0 && minZoom > maxZoom {
		zoomErrs = append(zoomErrs, api.ValidationError{Field: "min_zoom",
			Message: "must not exceed max_zoom"})
	}
	if len(zoomErrs) > 0 {
		s.writeValidationErrorResponse(w, "Invalid zoom range", zoomErrs, &requestID)
		return
	}

	p := export.OptimalParams(toBoundingBox(bbox))
	response := api.ExportParamsResponse{
		Zoom:        p.Zoom,
		XResolution: p.XResolution,
		YResolution: p.YResolution,
	}
	for _, d := range export.DetailLevels(p, minZoom, maxZoom) {
		response.Details = append(response.Details, api.DetailLevel{
			Offset:      d.Offset,
			Zoom:        d.Zoom,
			Available:   d.Available,
			XResolution: d.XResolution,
			YResolution: d.YResolution,
			Scale:       d.Scale,
		})
	}

	s.writeJSON(w, http.StatusOK, response)
}

// CreateExport implements the main export endpoint
func (s *Server) CreateExport(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	if err := s.validate.Struct(&req); err != nil {
		s.writeStructErrors(w, err, &requestID)
		return
	}

	format := api.Png
	if req.Format != nil {
		format = *req.Format
	}
	mimeType, err := export.MIMEType(string(format))
	if err != nil || !export.Supported(mimeType) {
		s.writeErrorResponse(w, http.StatusUnsupportedMediaType, "ENCODING_ERROR",
			fmt.Sprintf("unsupported format %q", format), &requestID, nil)
		return
	}

	src, err := s.tileSource(req.TileSource)
	if err != nil {
		s.writeValidationErrorResponse(w, err.Error(),
			[]api.ValidationError{{Field: "tile_source.url", Message: err.Error()}}, &requestID)
		return
	}

	bounds := toBoundingBox(req.Bbox)
	zoom, err := s.resolveZoom(&req, bounds, src)
	if err != nil {
		s.writeValidationErrorResponse(w, err.Error(),
			[]api.ValidationError{{Field: "detail", Message: err.Error()}}, &requestID)
		return
	}

	worldFile := req.Worldfile != nil && *req.Worldfile
	exporter := export.New(s.fetcherFor(req.TileSource), s.logger.With(zap.String("request_id", requestID)), export.Options{
		Concurrency: s.cfg.Tiles.Concurrency,
		MaxPixels:   s.cfg.Export.MaxPixels,
		WorldFile:   worldFile,
	})

	result, err := exporter.Export(r.Context(), mimeType, bounds, zoom, src)
	if err != nil {
		s.handleExportError(w, err, zoom, &requestID)
		return
	}

	ext, _ := export.Extension(result.MIMEType)
	name := export.DownloadName(s.now(), ext)

	w.Header().Set("Content-Type", result.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Export-Zoom", strconv.Itoa(zoom))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Data)))
	if result.WorldFile != nil {
		w.Header().Set("X-World-File", strings.Join(strings.Fields(string(result.WorldFile.Bytes())), " "))
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		s.logger.Error("Error writing response", zap.String("request_id", requestID), zap.Error(err))
	}
}

// tileSource builds the URL template of a request, falling back to the
// configured tile server.
func (s *Server) tileSource(ts *api.TileSource) (*tile.Template, error) {
	url := s.cfg.Tiles.URL
	if ts != nil {
		url = ts.Url
	}

	src, err := tile.NewTemplate(url)
	if err != nil {
		return nil, err
	}

	src.MinZoom, src.MaxZoom = s.cfg.Tiles.MinZoom, s.cfg.Tiles.MaxZoom
	if ts != nil {
		if ts.MinZoom != nil {
			src.MinZoom = *ts.MinZoom
		}
		if ts.MaxZoom != nil {
			src.MaxZoom = *ts.MaxZoom
		}
	}
	return src, nil
}

// resolveZoom honours an explicit zoom, otherwise applies the detail offset
// to the optimal zoom of bounds.
func (s *Server) resolveZoom(req *api.ExportRequest, bounds tile.BoundingBox, src *tile.Template) (int, error) {
	if req.Zoom != nil {
		return *req.Zoom, nil
	}

	offset := 0
	if req.Detail != nil {
		offset = *req.Detail
	}
	minZoom, maxZoom := src.ZoomRange()
	return export.ResolveZoom(export.OptimalParams(bounds), offset, minZoom, maxZoom)
}

// fetcherFor returns the shared fetcher unless the request sends its own
// headers, which must not leak into the shared cache.
func (s *Server) fetcherFor(ts *api.TileSource) tile.Fetcher {
	if ts == nil || ts.Headers == nil || len(*ts.Headers) == 0 {
		return s.fetcher
	}
	return tile.NewHTTPFetcher(s.cfg.Tiles.UserAgent, s.cfg.Tiles.Timeout,
		tile.WithHeaders(*ts.Headers),
		tile.WithRateLimit(s.cfg.Tiles.RateLimit, s.cfg.Tiles.Burst))
}

// RenderObjects converts map objects into GeoJSON overlay layers
func (s *Server) RenderObjects(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	objects, err := render.DecodeObjects(req.Objects)
	if err != nil {
		s.writeValidationErrorResponse(w, err.Error(),
			[]api.ValidationError{{Field: "objects", Message: err.Error()}}, &requestID)
		return
	}

	var styles render.Styles
	if req.Styles != nil {
		styles = render.Styles{
			Changeset: req.Styles.Changeset,
			Element:   req.Styles.Element,
			NoteHalo:  req.Styles.NoteHalo,
			Note:      req.Styles.Note,
		}
	}

	s.writeJSON(w, http.StatusOK, s.renderer.Render(objects, styles))
}

// GetShareLinks builds the share panel links for a map view
func (s *Server) GetShareLinks(w http.ResponseWriter, r *http.Request, params api.GetShareLinksParams) {
	requestID := requestIDFrom(r)

	var issues []api.ValidationError
	if params.Lat < -90 || params.Lat > 90 {
		issues = append(issues, api.ValidationError{Field: "lat", Message: "must be between -90 and 90"})
	}
	if params.Lon < -180 || params.Lon > 180 {
		issues = append(issues, api.ValidationError{Field: "lon", Message: "must be between -180 and 180"})
	}
	if params.Zoom < 0 || params.Zoom > export.MaxZoom {
		issues = append(issues, api.ValidationError{Field: "zoom", Message: fmt.Sprintf("must be between 0 and %d", export.MaxZoom)})
	}
	if len(issues) > 0 {
		s.writeValidationErrorResponse(w, "invalid map view", issues, &requestID)
		return
	}

	state := share.MapState{Lon: params.Lon, Lat: params.Lat, Zoom: params.Zoom}
	if params.Layers != nil {
		state.Layers = *params.Layers
	}
	marker := params.Marker != nil && *params.Marker

	center := orb.Point{params.Lon, params.Lat}
	view := maptile.At(center, maptile.Zoom(params.Zoom)).Bound()
	bounds := tile.BoundingBox{
		MinLat: view.Min.Lat(),
		MinLon: view.Min.Lon(),
		MaxLat: view.Max.Lat(),
		MaxLon: view.Max.Lon(),
	}
	var markerAt *orb.Point
	if marker {
		markerAt = &center
	}

	base := s.cfg.Share.BaseURL
	nav := share.Navbar(state, nil, "/")
	s.writeJSON(w, http.StatusOK, api.ShareResponse{
		Url:      share.MapURL(base, state, marker),
		ShortUrl: share.ShortURL(base, state, marker),
		GeoUri:   share.GeoURI(state),
		Html:     share.EmbedHTML(base, state, bounds, markerAt),
		Navbar: api.NavLinks{
			Edit:    api.NavLink(nav.Edit),
			History: api.NavLink(nav.History),
			Export:  api.NavLink(nav.Export),
			Login:   api.NavLink(nav.Login),
		},
	})
}

// ValidateSignup checks a signup form and lists every problem found
func (s *Server) ValidateSignup(w http.ResponseWriter, r *http.Request) {
	requestID := requestIDFrom(r)

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return
	}

	issues := signup.Validate(signup.Form(req), s.cfg.Signup.Blacklist)

	response := api.SignupResponse{
		Valid:  len(issues) == 0,
		Issues: make([]api.SignupIssue, 0, len(issues)),
	}
	for _, issue := range issues {
		response.Issues = append(response.Issues, api.SignupIssue(issue))
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleExportError maps export failures onto API error responses
func (s *Server) handleExportError(w http.ResponseWriter, err error, zoom int, requestID *string) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "TILE_SERVER_TIMEOUT",
			"Tile server requests timed out", requestID, map[string]interface{}{
				"timeout_seconds": int(s.cfg.Server.Timeout.Seconds()),
			})
		return
	}

	var tileErr *export.TileFetchError
	if errors.As(err, &tileErr) {
		failed := api.FailedTile{
			X:     tileErr.X,
			Y:     tileErr.Y,
			Z:     tileErr.Zoom,
			Url:   tileErr.URL,
			Error: tileErr.Err.Error(),
		}
		var statusErr *tile.StatusError
		if errors.As(err, &statusErr) {
			failed.StatusCode = &statusErr.StatusCode
		}

		resp := api.TileErrorResponse{
			Error:      "TILE_FETCH_ERROR",
			Message:    tileErr.Error(),
			FailedTile: failed,
			TotalTiles: tileErr.Tiles,
			RequestId:  requestID,
		}
		s.writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	if errors.Is(err, export.ErrZoomRange) {
		s.writeErrorResponse(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), requestID,
			map[string]interface{}{"zoom": zoom})
		return
	}

	var sizeErr *export.SizeError
	if errors.As(err, &sizeErr) {
		s.writeErrorResponse(w, http.StatusBadRequest, "IMAGE_SIZE_ERROR", sizeErr.Error(), requestID,
			map[string]interface{}{
				"width":      sizeErr.Width,
				"height":     sizeErr.Height,
				"max_pixels": sizeErr.MaxPixels,
				"zoom":       zoom,
			})
		return
	}

	var encErr *export.EncodingError
	if errors.As(err, &encErr) {
		s.writeErrorResponse(w, http.StatusInternalServerError, "ENCODING_ERROR",
			encErr.Error(), requestID, nil)
		return
	}

	s.logger.Error("Export failed", zap.Stringp("request_id", requestID), zap.Error(err))
	s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"Internal server error", requestID, nil)
}

// writeStructErrors converts validator failures into a validation response
func (s *Server) writeStructErrors(w http.ResponseWriter, err error, requestID *string) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		s.writeValidationErrorResponse(w, err.Error(), nil, requestID)
		return
	}

	issues := make([]api.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		code := fe.Tag()
		issues = append(issues, api.ValidationError{
			Code:    &code,
			Field:   field,
			Message: fe.Error(),
		})
	}
	s.writeValidationErrorResponse(w, "request validation failed", issues, requestID)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	s.writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes a validation error response
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, message string, issues []api.ValidationError, requestID *string) {
	if len(issues) == 0 {
		issues = []api.ValidationError{{Field: "request", Message: message}}
	}

	s.writeJSON(w, http.StatusBadRequest, api.ValidationErrorResponse{
		Error:            api.VALIDATIONERROR,
		Message:          message,
		RequestId:        requestID,
		ValidationErrors: issues,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Error encoding response", zap.Error(err))
	}
}

// requestIDFrom reuses the id assigned by the RequestID middleware
func requestIDFrom(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

func toBoundingBox(b api.BoundingBox) tile.BoundingBox {
	return tile.BoundingBox{
		MinLat: b.MinLat,
		MinLon: b.MinLon,
		MaxLat: b.MaxLat,
		MaxLon: b.MaxLon,
	}
}
