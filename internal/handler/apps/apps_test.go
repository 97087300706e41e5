package apps

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"github.com/tinkerborg/otaupdate/internal/testsupport"
	"github.com/tinkerborg/otaupdate/pkg/router"
)

func newStore(t *testing.T) *store.Postgres {
	t.Helper()

	ctx := context.Background()
	pg, err := testsupport.NewEphemeralPostgres(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	db, err := store.NewPostgres(pg.ConnectionString)
	require.NoError(t, err)
	require.NoError(t, db.RegisterSchemas())

	return db
}

func jsonRequest(body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	return httptest.NewRequest(http.MethodPost, "/", &buf)
}

func TestCreateGetUpdateDeleteApplication(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	require.NoError(t, objects.Put(context.Background(), "updates/myapp/1.0.0/bundle.js", strings.NewReader("bundle"), 6))

	rec := httptest.NewRecorder()
	require.NoError(t, createHandler(db)(&router.ResponseWriter{ResponseWriter: rec}, jsonRequest(map[string]string{"id": "myapp", "displayName": "My App"})))
	require.Equal(t, http.StatusCreated, rec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/", nil)
	getReq.SetPathValue("id", "myapp")
	getRec := httptest.NewRecorder()
	require.NoError(t, getHandler(db)(&router.ResponseWriter{ResponseWriter: getRec}, getReq))

	var app schema.ApplicationRecord
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &app))
	require.Equal(t, "My App", app.DisplayName)

	patchReq := jsonRequest(map[string]string{"displayName": "Renamed"})
	patchReq.SetPathValue("id", "myapp")
	patchRec := httptest.NewRecorder()
	require.NoError(t, updateHandler(db)(&router.ResponseWriter{ResponseWriter: patchRec}, patchReq))

	got, err := db.GetApplication("myapp")
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.DisplayName)

	deleteReq := httptest.NewRequest(http.MethodDelete, "/", nil)
	deleteReq.SetPathValue("id", "myapp")
	deleteRec := httptest.NewRecorder()
	require.NoError(t, deleteHandler(db, objects)(&router.ResponseWriter{ResponseWriter: deleteRec}, deleteReq))

	_, err = db.GetApplication("myapp")
	require.ErrorIs(t, err, store.ErrNotFound)

	remaining, err := objects.List(context.Background(), "updates/myapp/")
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestKeypairGenerationRefusesOverwriteWithoutForce(t *testing.T) {
	db := newStore(t)
	require.NoError(t, db.InsertApplication(&schema.ApplicationRecord{ID: "myapp"}))

	firstReq := httptest.NewRequest(http.MethodPost, "/", nil)
	firstReq.SetPathValue("id", "myapp")
	firstRec := httptest.NewRecorder()
	require.NoError(t, keypairHandler(db)(&router.ResponseWriter{ResponseWriter: firstRec}, firstReq))

	var body map[string]string
	require.NoError(t, json.Unmarshal(firstRec.Body.Bytes(), &body))
	require.Contains(t, body["publicKey"], "BEGIN RSA PUBLIC KEY")

	secondReq := httptest.NewRequest(http.MethodPost, "/", nil)
	secondReq.SetPathValue("id", "myapp")
	err := keypairHandler(db)(&router.ResponseWriter{ResponseWriter: httptest.NewRecorder()}, secondReq)
	require.ErrorIs(t, err, apperr.ErrConflict)

	forcedReq := httptest.NewRequest(http.MethodPost, "/?force=true", nil)
	forcedReq.SetPathValue("id", "myapp")
	forcedReq.URL.RawQuery = "force=true"
	require.NoError(t, keypairHandler(db)(&router.ResponseWriter{ResponseWriter: httptest.NewRecorder()}, forcedReq))
}
