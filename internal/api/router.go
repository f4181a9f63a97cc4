package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Health check
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// Optimal export parameters and detail levels for a bounding box
	// (GET /export/params)
	GetExportParams(w http.ResponseWriter, r *http.Request, params GetExportParamsParams)
	// Export a bounding box as an image
	// (POST /export)
	CreateExport(w http.ResponseWriter, r *http.Request)
	// Render map objects as GeoJSON overlays
	// (POST /render)
	RenderObjects(w http.ResponseWriter, r *http.Request)
	// Share links for a map view
	// (GET /share)
	GetShareLinks(w http.ResponseWriter, r *http.Request, params GetShareLinksParams)
	// Validate a signup form
	// (POST /signup/validate)
	ValidateSignup(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn http.HandlerFunc) {
	handler := http.Handler(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.GetHealth)
}

// GetExportParams operation middleware
func (siw *ServerInterfaceWrapper) GetExportParams(w http.ResponseWriter, r *http.Request) {
	var err error

	// Parameter object where we will unmarshal all parameters from the context
	var params GetExportParamsParams

	// ------------- Required query parameter "bbox" -------------

	if paramValue := r.URL.Query().Get("bbox"); paramValue == "" {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: "bbox"})
		return
	}

	err = runtime.BindQueryParameter("form", false, true, "bbox", r.URL.Query(), &params.Bbox)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "bbox", Err: err})
		return
	}

	// ------------- Optional query parameter "min_zoom" -------------

	err = runtime.BindQueryParameter("form", true, false, "min_zoom", r.URL.Query(), &params.MinZoom)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "min_zoom", Err: err})
		return
	}

	// ------------- Optional query parameter "max_zoom" -------------

	err = runtime.BindQueryParameter("form", true, false, "max_zoom", r.URL.Query(), &params.MaxZoom)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "max_zoom", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetExportParams(w, r, params)
	})
}

// CreateExport operation middleware
func (siw *ServerInterfaceWrapper) CreateExport(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateExport)
}

// RenderObjects operation middleware
func (siw *ServerInterfaceWrapper) RenderObjects(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.RenderObjects)
}

// GetShareLinks operation middleware
func (siw *ServerInterfaceWrapper) GetShareLinks(w http.ResponseWriter, r *http.Request) {
	var err error

	var params GetShareLinksParams

	for _, name := range []string{"lat", "lon", "zoom"} {
		if r.URL.Query().Get(name) == "" {
			siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: name})
			return
		}
	}

	err = runtime.BindQueryParameter("form", true, true, "lat", r.URL.Query(), &params.Lat)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "lat", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, true, "lon", r.URL.Query(), &params.Lon)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "lon", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, true, "zoom", r.URL.Query(), &params.Zoom)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "zoom", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "layers", r.URL.Query(), &params.Layers)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "layers", Err: err})
		return
	}

	err = runtime.BindQueryParameter("form", true, false, "marker", r.URL.Query(), &params.Marker)
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "marker", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetShareLinks(w, r, params)
	})
}

// ValidateSignup operation middleware
func (siw *ServerInterfaceWrapper) ValidateSignup(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ValidateSignup)
}

type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("Query argument %s is required, but not found", e.ParamName)
}

type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions creates http.Handler with additional options
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/health", wrapper.GetHealth)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/export/params", wrapper.GetExportParams)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/export", wrapper.CreateExport)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/render", wrapper.RenderObjects)
	})
	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/share", wrapper.GetShareLinks)
	})
	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/signup/validate", wrapper.ValidateSignup)
	})

	return r
}
