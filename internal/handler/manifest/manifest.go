// Package manifest wires the device-facing endpoints: the manifest poll
// (both the header/query form and the /manifest/<app>/<channel> path
// form) and the asset stream.
package manifest

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/manifest"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/pkg/router"
	"github.com/tinkerborg/otaupdate/pkg/router/middleware"
)

func Setup(svc *manifest.Service, objects objectstore.Store) router.Setup {
	return func(r *router.Router) {
		deviceContext := middleware.NewPathParser(manifest.ParseDeviceContext)

		r.Raw(http.MethodGet, "/manifest", http.HandlerFunc(pollHandler(svc, deviceContext)), deviceContext.Middleware)
		r.Raw(http.MethodGet, "/manifest/{app}/{channel}", http.HandlerFunc(pollHandler(svc, deviceContext)), deviceContext.Middleware)
		r.GET("/assets", assetsHandler(objects))
	}
}

// pollHandler composes and streams the multipart/mixed manifest body
// directly, bypassing the typed JSON RouterHandler (the response isn't a
// single JSON value). The device context was already parsed and
// validated by deviceContext's middleware, so a bad request never
// reaches here.
func pollHandler(svc *manifest.Service, deviceContext *middleware.PathParser[manifest.DeviceContext]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rw := &router.ResponseWriter{ResponseWriter: w}

		dc := deviceContext.Value(r)

		resp, err := svc.Compose(dc)
		if err != nil {
			rw.Error(err)
			return
		}

		if err := manifest.WriteResponse(rw, resp); err != nil {
			log.Printf("writing manifest response: %v", err)
		}
	}
}

// assetsHandler implements the asset endpoint of spec.md §4.9: enforce
// the two path predicates, then stream the object-store bytes.
func assetsHandler(objects objectstore.Store) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		key := r.URL.Query().Get("asset")

		if !strings.HasPrefix(key, "updates/") {
			return apperr.ErrForbidden
		}
		if strings.HasSuffix(key, "app.json") || strings.HasSuffix(key, "package.json") {
			return apperr.ErrForbidden
		}

		obj, err := objects.Get(r.Context(), key)
		if err != nil {
			if errors.Is(err, objectstore.ErrNotFound) {
				return apperr.ErrNotFound
			}
			return err
		}
		defer obj.Body.Close()

		if contentType := r.URL.Query().Get("contentType"); contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		if obj.ContentLength > 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
		}
		w.WriteHeader(http.StatusOK)

		_, err = io.Copy(w, obj.Body)
		return err
	}
}
