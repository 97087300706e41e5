// Package router is a thin wrapper over net/http.ServeMux that adds
// middleware chaining, Setup-based mounting for subsystems, and a
// typed handler signature that returns an error instead of writing one
// by hand in every handler.
package router

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Middleware function type
type Middleware func(http.Handler) http.Handler

type Router struct {
	id          string
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewRouter() *Router {
	return &Router{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		id:          "unknown",
	}
}

func (r *Router) ID(id string) {
	r.id = id
}

func (r *Router) Use(middlewares ...Middleware) {
	r.middlewares = append(r.middlewares, middlewares...)
}

// RouterHandler is the typed handler signature: it writes its response
// through w and returns an error for the router to translate into an
// HTTP status via ResponseWriter.Error.
type RouterHandler func(w *ResponseWriter, r *http.Request) error

type Setup func(r *Router)

func (r *Router) GET(routePath string, handler RouterHandler, middlewares ...Middleware) {
	r.addRoute(http.MethodGet, routePath, handler, middlewares...)
}

func (r *Router) PATCH(routePath string, handler RouterHandler, middlewares ...Middleware) {
	r.addRoute(http.MethodPatch, routePath, handler, middlewares...)
}

func (r *Router) POST(routePath string, handler RouterHandler, middlewares ...Middleware) {
	r.addRoute(http.MethodPost, routePath, handler, middlewares...)
}

func (r *Router) PUT(routePath string, handler RouterHandler, middlewares ...Middleware) {
	r.addRoute(http.MethodPut, routePath, handler, middlewares...)
}

func (r *Router) DELETE(routePath string, handler RouterHandler, middlewares ...Middleware) {
	r.addRoute(http.MethodDelete, routePath, handler, middlewares...)
}

// Raw mounts a plain http.Handler, bypassing the typed RouterHandler
// wrapping. Used by endpoints that emit a non-JSON body (the
// multipart/mixed manifest response) rather than a single
// JSON-encodable value.
func (r *Router) Raw(method, routePath string, handler http.Handler, middlewares ...Middleware) {
	wrapped := chain(handler, middlewares...)
	r.mux.Handle(method+" "+normalizeRoot(routePath), wrapped)
}

func (r *Router) Mount(prefix string, register func(*Router), middlewares ...Middleware) {
	prefix = strings.TrimSuffix(prefix, "/")
	child := NewRouter()

	register(child)

	r.mux.Handle(prefix+"/", chain(http.StripPrefix(prefix, child), middlewares...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	modReq := *req
	modReq.URL = new(url.URL)
	*modReq.URL = *req.URL

	if !strings.HasSuffix(modReq.URL.Path, "/") {
		modReq.URL.Path += "/"
	}

	handler := chain(r.mux, r.middlewares...)

	handler.ServeHTTP(w, &modReq)
}

func (r *Router) addRoute(method, routePath string, handler RouterHandler, middlewares ...Middleware) {
	wrappedHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &ResponseWriter{ResponseWriter: w}

		if err := handler(rw, r); err != nil {
			rw.Error(err)
		}
	})

	r.Raw(method, routePath, wrappedHandler, middlewares...)
}

func chain(handler http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func normalizeRoot(routePath string) string {
	if routePath == "/" {
		return path.Join(routePath, "{$}")
	}
	return routePath
}
