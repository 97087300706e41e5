package ingest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/ingest"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"github.com/tinkerborg/otaupdate/internal/testsupport"
)

const sharedSecret = "publish-secret"

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

func newConfig() ingest.Config {
	return ingest.Config{
		SharedSecret:  sharedSecret,
		MaxAssetBytes: 1 << 20,
		MaxTotalBytes: 10 << 20,
	}
}

type multipartField struct {
	name string
	body []byte
}

func newPublishRequest(t *testing.T, headers map[string]string, fields []multipartField) (body *bytes.Buffer, contentType string) {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for _, f := range fields {
		part, err := w.CreateFormField(f.name)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf, w.FormDataContentType()
}

func TestIngestHappyPathComputesAssetsManifestAndStoresBytes(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	svc := ingest.New(db, objects, newConfig())

	require.NoError(t, db.InsertApplication(&schema.ApplicationRecord{ID: "myapp", DisplayName: "My App"}))

	bundleBytes := []byte("console.log('hello')")
	assetBytes := []byte("binary-asset-bytes")
	metadata := map[string]any{
		"fileMetadata": map[string]any{
			"ios": map[string]any{
				"bundle": "bundles/ios-index.js",
				"assets": []map[string]any{
					{"path": "assets/icon", "ext": ".png"},
				},
			},
		},
	}
	metadataJSON, err := json.Marshal(metadata)
	require.NoError(t, err)

	body, contentType := newPublishRequest(t, nil, []multipartField{
		{name: "metadata.json", body: metadataJSON},
		{name: "app.json", body: []byte(`{"name":"myapp"}`)},
		{name: "bundles/ios-index.js", body: bundleBytes},
		{name: "assets/icon", body: assetBytes},
	})

	r := httptest.NewRequest("POST", "/upload", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("x-publish-secret", sharedSecret)
	r.Header.Set("project", "myapp")
	r.Header.Set("version", "1.0.0")
	r.Header.Set("release-channel", "production")

	result, err := svc.Ingest(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "ready", result.Status)
	require.Equal(t, "all", result.Platform)
	require.NotEmpty(t, result.ID)

	upload, err := db.GetUpload(result.ID)
	require.NoError(t, err)
	require.Equal(t, "myapp", upload.ApplicationID)
	require.Contains(t, upload.BlobPrefix, "updates/myapp/1.0.0/")

	stored, err := objects.Get(context.Background(), upload.BlobPrefix+"/bundles/ios-index.js")
	require.NoError(t, err)
	storedBytes, err := jsonReadAll(stored)
	require.NoError(t, err)
	require.Equal(t, bundleBytes, storedBytes)

	var assetsManifest map[string]ingest.PlatformAssets
	require.NoError(t, json.Unmarshal(upload.AssetsManifestJSON, &assetsManifest))
	ios, ok := assetsManifest["ios"]
	require.True(t, ok)
	require.Equal(t, "bundles/ios-index.js", ios.LaunchAsset.Path)
	require.Len(t, ios.Assets, 1)
	require.Equal(t, "image/png", ios.Assets[0].ContentType)
}

func jsonReadAll(obj *objectstore.Object) ([]byte, error) {
	defer obj.Body.Close()
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(obj.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestIngestWrongSharedSecretIsUnauthorized(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	svc := ingest.New(db, objects, newConfig())

	body, contentType := newPublishRequest(t, nil, []multipartField{
		{name: "metadata.json", body: []byte(`{"fileMetadata":{}}`)},
	})

	r := httptest.NewRequest("POST", "/upload", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("x-publish-secret", "wrong")
	r.Header.Set("project", "myapp")
	r.Header.Set("version", "1.0.0")
	r.Header.Set("release-channel", "production")

	_, err := svc.Ingest(context.Background(), r)
	require.ErrorIs(t, err, apperr.ErrAuthFailed)
}

func TestIngestUnknownApplicationIsNotFound(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	svc := ingest.New(db, objects, newConfig())

	body, contentType := newPublishRequest(t, nil, []multipartField{
		{name: "metadata.json", body: []byte(`{"fileMetadata":{}}`)},
	})

	r := httptest.NewRequest("POST", "/upload", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("x-publish-secret", sharedSecret)
	r.Header.Set("project", "doesnotexist")
	r.Header.Set("version", "1.0.0")
	r.Header.Set("release-channel", "production")

	_, err := svc.Ingest(context.Background(), r)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIngestSignedManifestPassthroughUsesGivenID(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	svc := ingest.New(db, objects, newConfig())

	require.NoError(t, db.InsertApplication(&schema.ApplicationRecord{ID: "myapp"}))

	signedManifest := map[string]string{
		"ios": `{"id":"11111111-2222-3333-4444-555555555555","createdAt":"2024-01-01T00:00:00Z"}`,
	}
	signedManifestJSON, err := json.Marshal(signedManifest)
	require.NoError(t, err)

	body, contentType := newPublishRequest(t, nil, []multipartField{
		{name: "metadata.json", body: []byte(`{"fileMetadata":{}}`)},
	})

	r := httptest.NewRequest("POST", "/upload", body)
	r.Header.Set("Content-Type", contentType)
	r.Header.Set("x-publish-secret", sharedSecret)
	r.Header.Set("project", "myapp")
	r.Header.Set("version", "1.0.0")
	r.Header.Set("release-channel", "production")
	r.Header.Set("platform", "ios")
	r.Header.Set("signed-manifest", base64.StdEncoding.EncodeToString(signedManifestJSON))

	result, err := svc.Ingest(context.Background(), r)
	require.NoError(t, err)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", result.ID)

	upload, err := db.GetUpload(result.ID)
	require.NoError(t, err)
	require.Contains(t, upload.BlobPrefix, "/11111111-2222-3333-4444-555555555555")
}

// TestIngestSignedManifestPassthroughPicksDeterministicPlatform exercises
// a signed manifest carrying ids for more than one platform: the derived
// updateId must be picked the same way every time (alphabetically first
// platform key), not whichever Go's randomized map iteration visits
// first.
func TestIngestSignedManifestPassthroughPicksDeterministicPlatform(t *testing.T) {
	db := newStore(t)
	objects := objectstore.NewMemoryStore()
	svc := ingest.New(db, objects, newConfig())

	require.NoError(t, db.InsertApplication(&schema.ApplicationRecord{ID: "myapp"}))

	for i := 0; i < 5; i++ {
		androidID := fmt.Sprintf("11111111-1111-1111-1111-11111111111%d", i)
		iosID := fmt.Sprintf("22222222-2222-2222-2222-22222222222%d", i)

		signedManifest := map[string]string{
			"ios":     fmt.Sprintf(`{"id":"%s","createdAt":"2024-01-01T00:00:00Z"}`, iosID),
			"android": fmt.Sprintf(`{"id":"%s","createdAt":"2024-01-01T00:00:00Z"}`, androidID),
		}
		signedManifestJSON, err := json.Marshal(signedManifest)
		require.NoError(t, err)

		body, contentType := newPublishRequest(t, nil, []multipartField{
			{name: "metadata.json", body: []byte(`{"fileMetadata":{}}`)},
		})

		r := httptest.NewRequest("POST", "/upload", body)
		r.Header.Set("Content-Type", contentType)
		r.Header.Set("x-publish-secret", sharedSecret)
		r.Header.Set("project", "myapp")
		r.Header.Set("version", "1.0.0")
		r.Header.Set("release-channel", "production")
		r.Header.Set("platform", "ios")
		r.Header.Set("signed-manifest", base64.StdEncoding.EncodeToString(signedManifestJSON))

		result, err := svc.Ingest(context.Background(), r)
		require.NoError(t, err)
		require.Equal(t, androidID, result.ID, "android sorts before ios, so its id must always win")
	}
}
