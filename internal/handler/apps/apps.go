// Package apps wires the dashboard application CRUD endpoints and the
// "generate key pair" action (spec.md §1/§6, [ADDED] by SPEC_FULL.md).
package apps

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

// Setup registers the dashboard application routes. The caller is
// responsible for gating access with the auth middleware via Mount,
// matching how uploads.Setup and releases.Setup are wired.
func Setup(s *store.Postgres, objects objectstore.Store) router.Setup {
	return func(r *router.Router) {
		r.GET("/", listHandler(s))
		r.POST("/", createHandler(s))
		r.GET("/{id}", getHandler(s))
		r.PATCH("/{id}", updateHandler(s))
		r.DELETE("/{id}", deleteHandler(s, objects))
		r.POST("/{id}/keypair", keypairHandler(s))
	}
}

func listHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		apps := []schema.ApplicationRecord{}
		if err := s.List(&apps); err != nil {
			return err
		}
		return w.JSON(apps)
	}
}

func createHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		var body struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
		}
		if body.ID == "" {
			return apperr.InvalidField("id")
		}

		app := &schema.ApplicationRecord{ID: body.ID, DisplayName: body.DisplayName}
		if err := s.InsertApplication(app); err != nil {
			return err
		}

		return w.WithStatus(http.StatusCreated).JSON(app)
	}
}

func getHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		app, err := s.GetApplication(r.PathValue("id"))
		if err != nil {
			return err
		}
		return w.JSON(app)
	}
}

func updateHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		app, err := s.GetApplication(r.PathValue("id"))
		if err != nil {
			return err
		}

		var body struct {
			DisplayName *string `json:"displayName"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrInputInvalid, err)
		}
		if body.DisplayName != nil {
			app.DisplayName = *body.DisplayName
		}

		if err := s.UpdateApplication(app); err != nil {
			return err
		}

		return w.JSON(app)
	}
}

// deleteHandler removes every object-store blob under the application's
// "updates/<id>/" prefix before removing the row itself, so the dashboard
// delete action doesn't leave orphaned S3 objects behind.
func deleteHandler(s *store.Postgres, objects objectstore.Store) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		app, err := s.GetApplication(r.PathValue("id"))
		if err != nil {
			return err
		}

		if err := objectstore.DeleteAll(r.Context(), objects, "updates/"+app.ID+"/"); err != nil {
			return err
		}
		if err := s.DeleteApplicationCascade(app.ID); err != nil {
			return err
		}
		return w.JSON(map[string]bool{"deleted": true})
	}
}

// keypairHandler generates a fresh RSA-2048 application signing keypair
// and persists both halves PEM-encoded, returning only the public half.
// Refuses to overwrite an existing keypair unless ?force=true, mirroring
// how Release refuses to re-release an already-released row.
func keypairHandler(s *store.Postgres) router.RouterHandler {
	return func(w *router.ResponseWriter, r *http.Request) error {
		app, err := s.GetApplication(r.PathValue("id"))
		if err != nil {
			return err
		}

		force := r.URL.Query().Get("force") == "true"
		if len(app.PrivateKeyPEM) > 0 && !force {
			return apperr.ErrConflict
		}

		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return fmt.Errorf("%w: %v", apperr.ErrSigningFailed, err)
		}

		app.PrivateKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		app.PublicKeyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&key.PublicKey)})

		if err := s.UpdateApplication(app); err != nil {
			return err
		}

		return w.JSON(map[string]string{"publicKey": string(app.PublicKeyPEM)})
	}
}
