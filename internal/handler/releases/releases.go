// Package releases wires the release/rollback actions (spec.md §4.6)
// into the dashboard HTTP surface.
package releases

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/release"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

func Setup(svc *release.Service) router.Setup {
	return func(r *router.Router) {
		r.POST("/release", releaseHandler(svc))
		r.POST("/rollback", rollbackHandler(svc))
	}
}

type uploadRef struct {
	UploadID string `json:"uploadId"`
}

func decodeUploadRef(r *http.Request) (string, error) {
	var body uploadRef
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
	}
	if body.UploadID == "" {
		return "", apperr.InvalidField("uploadId")
	}
	return body.UploadID, nil
}

func releaseHandler(svc *release.Service) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		uploadID, err := decodeUploadRef(r)
		if err != nil {
			return err
		}

		upload, err := svc.Release(uploadID)
		if err != nil {
			return err
		}

		return w.JSON(upload)
	}
}

func rollbackHandler(svc *release.Service) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		uploadID, err := decodeUploadRef(r)
		if err != nil {
			return err
		}

		upload, err := svc.Rollback(uploadID)
		if err != nil {
			return err
		}

		return w.JSON(upload)
	}
}
