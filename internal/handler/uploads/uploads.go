// Package uploads wires the dashboard upload listing/inspection/delete
// endpoints (spec.md §6).
package uploads

import (
	"fmt"
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"github.com/tinkerborg/otaupdate/internal/util"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

func Setup(s *store.Postgres, objects objectstore.Store) router.Setup {
	return func(r *router.Router) {
		r.GET("/", listHandler(s))
		r.GET("/{id}", getHandler(s))
		r.DELETE("/{id}", deleteHandler(s, objects))
	}
}

func listHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		q := r.URL.Query()

		limit, err := util.IntegerParam(r, "limit", 0)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
		}
		offset, err := util.IntegerParam(r, "offset", 0)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
		}

		filter := store.ListUploadsFilter{
			Status:   q.Get("status"),
			Platform: q.Get("platform"),
			Limit:    limit,
			Offset:   offset,
		}

		uploads, err := s.ListUploads(q.Get("applicationId"), filter)
		if err != nil {
			return err
		}

		return w.JSON(uploads)
	}
}

func getHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		upload, err := s.GetUpload(r.PathValue("id"))
		if err != nil {
			return err
		}
		return w.JSON(upload)
	}
}

// deleteHandler removes every object-store blob under the upload's
// blob_prefix before removing the row itself, so the dashboard delete
// action doesn't leave orphaned S3 objects behind.
func deleteHandler(s *store.Postgres, objects objectstore.Store) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		upload, err := s.GetUpload(r.PathValue("id"))
		if err != nil {
			return err
		}

		if err := objectstore.DeleteAll(r.Context(), objects, upload.BlobPrefix+"/"); err != nil {
			return err
		}
		if err := s.Delete(&schema.UploadRecord{ID: upload.ID}); err != nil {
			return err
		}
		return w.JSON(map[string]bool{"deleted": true})
	}
}
