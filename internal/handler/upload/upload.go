// Package upload wires the publish endpoint (C5) into the router.
package upload

import (
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/service/ingest"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

func Setup(svc *ingest.Service) router.Setup {
	return func(r *router.Router) {
		r.POST("/", func(w *router.ResponseWriter, req *http.Request) error {
			result, err := svc.Ingest(req.Context(), req)
			if err != nil {
				return err
			}

			return w.WithStatus(http.StatusCreated).JSON(result)
		})
	}
}
