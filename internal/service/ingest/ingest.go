// Package ingest implements the upload ingestion pipeline (C5): multipart
// reception of a publisher's exported bundle, derivation of a stable
// update identifier, placement of every file under a content-addressed
// object-store prefix, and pre-computation of the assets manifest cache
// so the hot serving path never re-touches the object store.
package ingest

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/model"
	"github.com/tinkerborg/otaupdate/internal/service/content"
	"github.com/tinkerborg/otaupdate/internal/service/objectstore"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
)

const defaultPlatform = string(model.PlatformAll)

// Config bounds the resources a single ingestion request may consume
// (spec.md §5 backpressure).
type Config struct {
	SharedSecret  string
	MaxAssetBytes int64
	MaxTotalBytes int64
}

type Service struct {
	store   *store.Postgres
	objects objectstore.Store
	config  Config
}

func New(s *store.Postgres, objects objectstore.Store, config Config) *Service {
	return &Service{store: s, objects: objects, config: config}
}

// Result is the shape spec.md §4.5 requires back on success:
// { id, platform, status } with HTTP 201.
type Result struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
}

// Ingest runs the full procedure of spec.md §4.5 steps 1-8 over an
// incoming publish request.
func (s *Service) Ingest(ctx context.Context, r *http.Request) (*Result, error) {
	if err := s.authenticate(r); err != nil {
		return nil, err
	}

	applicationID := r.Header.Get("project")
	runtimeVersion := r.Header.Get("version")
	releaseChannel := r.Header.Get("release-channel")
	if applicationID == "" {
		return nil, apperr.InvalidField("project")
	}
	if runtimeVersion == "" {
		return nil, apperr.InvalidField("version")
	}
	if releaseChannel == "" {
		return nil, apperr.InvalidField("release-channel")
	}

	platform := r.Header.Get("platform")
	if platform == "" {
		platform = defaultPlatform
	}

	app, err := s.store.GetApplication(applicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	files, totalSize, err := s.receiveFiles(r)
	if err != nil {
		return nil, err
	}

	metadataJSON := files["metadata.json"]
	appConfigJSON := files["app.json"]

	signedManifestJSON, manifestSignature, err := decodeSignedManifestHeaders(r)
	if err != nil {
		return nil, err
	}

	updateID, err := deriveUpdateID(signedManifestJSON, metadataJSON, platform)
	if err != nil {
		return nil, err
	}

	blobPrefix := fmt.Sprintf("updates/%s/%s/%s", app.ID, runtimeVersion, updateID)

	for relativePath, body := range files {
		key := blobPrefix + "/" + relativePath
		if err := s.objects.Put(ctx, key, bytes.NewReader(body), int64(len(body))); err != nil {
			return nil, fmt.Errorf("%w: storing %s: %v", apperr.ErrStoreUnavailable, key, err)
		}
	}

	var assetsManifestJSON []byte
	if metadataJSON != nil {
		assetsManifest, err := computeAssetsManifest(metadataJSON, files)
		if err != nil {
			return nil, err
		}
		assetsManifestJSON, err = json.Marshal(assetsManifest)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding assets manifest: %v", apperr.ErrInputInvalid, err)
		}
	}

	upload := &schema.UploadRecord{
		ID:                 updateID,
		ApplicationID:      app.ID,
		RuntimeVersion:     runtimeVersion,
		ReleaseChannel:     releaseChannel,
		Platform:           platform,
		Status:             string(model.UploadStatusReady),
		BlobPrefix:         blobPrefix,
		MetadataJSON:       metadataJSON,
		AppConfigJSON:      appConfigJSON,
		AssetsManifestJSON: assetsManifestJSON,
		SignedManifestJSON: signedManifestJSON,
		ManifestSignature:  manifestSignature,
		GitBranch:          r.Header.Get("git-branch"),
		GitCommit:          r.Header.Get("git-commit"),
		SizeBytes:          totalSize,
	}

	if err := s.store.InsertUpload(upload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
	}

	return &Result{ID: upload.ID, Platform: upload.Platform, Status: upload.Status}, nil
}

// authenticate compares the shared secret in constant time, per spec.md
// §4.5 step 1 / §8 scenario S6.
func (s *Service) authenticate(r *http.Request) error {
	presented := r.Header.Get("x-publish-secret")
	if presented == "" {
		return apperr.ErrAuthMissing
	}

	want := []byte(s.config.SharedSecret)
	got := []byte(presented)
	if len(want) != len(got) || subtle.ConstantTimeCompare(want, got) != 1 {
		return apperr.ErrAuthFailed
	}

	return nil
}

// receiveFiles streams every multipart part into memory, keyed by its
// field name (the publisher-declared relative path), bounding each part
// and the request total per spec.md §5.
func (s *Service) receiveFiles(r *http.Request) (map[string][]byte, int64, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: not a multipart request: %v", apperr.ErrInputInvalid, err)
	}

	files := map[string][]byte{}
	var total int64

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: reading multipart body: %v", apperr.ErrInputInvalid, err)
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		limit := s.config.MaxAssetBytes
		body, err := io.ReadAll(io.LimitReader(part, limit+1))
		part.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("%w: reading part %s: %v", apperr.ErrInputInvalid, name, err)
		}
		if int64(len(body)) > limit {
			return nil, 0, fmt.Errorf("%w: part %s exceeds the per-file limit", apperr.ErrPayloadTooLarge, name)
		}

		total += int64(len(body))
		if total > s.config.MaxTotalBytes {
			return nil, 0, fmt.Errorf("%w: upload exceeds the total size limit", apperr.ErrPayloadTooLarge)
		}

		files[name] = body
	}

	return files, total, nil
}

// decodeSignedManifestHeaders base64-decodes the optional signed-manifest
// and manifest-signature headers, returning their exact decoded bytes
// unchanged so the stored columns stay byte-identical to what the
// publisher committed to with its signature (spec.md invariant P4).
func decodeSignedManifestHeaders(r *http.Request) (signedManifestJSON, manifestSignature []byte, err error) {
	if raw := r.Header.Get("signed-manifest"); raw != "" {
		signedManifestJSON, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: signed-manifest header is not valid base64: %v", apperr.ErrInputInvalid, err)
		}
	}

	if raw := r.Header.Get("manifest-signature"); raw != "" {
		manifestSignature, err = base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: manifest-signature header is not valid base64: %v", apperr.ErrInputInvalid, err)
		}
	}

	return signedManifestJSON, manifestSignature, nil
}

// signedManifestEntry is the shape of one platform's value inside the
// signed-manifest map: a JSON string (not an object) whose own decode
// carries at least an "id" field (spec.md §4.5 step 4a).
type signedManifestEntry struct {
	ID string `json:"id"`
}

// deriveUpdateID implements spec.md §4.5 step 4's three-way derivation,
// in order: signed-manifest passthrough, metadata.json-derived hash, or a
// fresh random UUID.
func deriveUpdateID(signedManifestJSON, metadataJSON []byte, platform string) (string, error) {
	if len(signedManifestJSON) > 0 {
		var byPlatform map[string]string
		if err := json.Unmarshal(signedManifestJSON, &byPlatform); err == nil {
			platforms := make([]string, 0, len(byPlatform))
			for p := range byPlatform {
				platforms = append(platforms, p)
			}
			sort.Strings(platforms)

			for _, p := range platforms {
				var entry signedManifestEntry
				if err := json.Unmarshal([]byte(byPlatform[p]), &entry); err != nil {
					continue
				}
				if entry.ID != "" {
					return entry.ID, nil
				}
			}
		}
	}

	if len(metadataJSON) > 0 {
		salted := append(append([]byte{}, metadataJSON...), []byte(":"+platform)...)
		return content.HashToUUID(content.SHA256Base64URL(salted)), nil
	}

	return uuid.New().String(), nil
}
