// Package manifest implements the device-facing half of the server: the
// request parser (C4), the manifest composer (C7), its RSA-SHA256
// signing step, and the hand-written multipart/mixed encoder (C8) that
// emits the Expo Updates wire format.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/devices"
	"github.com/tinkerborg/otaupdate/internal/service/ingest"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
)

type Service struct {
	store   *store.Postgres
	devices *devices.Recorder
	baseURL string
}

func New(s *store.Postgres, d *devices.Recorder, baseURL string) *Service {
	return &Service{store: s, devices: d, baseURL: baseURL}
}

// Response is what C8 needs to emit the wire body: the exact manifest
// bytes (passed through verbatim or freshly composed, never
// re-serialized once produced) and the Structured-Headers signature
// string, if any.
type Response struct {
	ManifestJSON    []byte
	Signature       string
	ProtocolVersion string
}

// Compose implements spec.md §4.7 steps 1-5: resolve the servable
// upload, fire the non-blocking device upsert, and either pass through a
// pre-signed manifest verbatim or build and (optionally) sign one fresh.
func (s *Service) Compose(dc DeviceContext) (*Response, error) {
	app, err := s.store.GetApplication(dc.ApplicationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	upload, err := s.store.FindServableUpload(app.ID, dc.RuntimeVersion, dc.ReleaseChannel, dc.Platform)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	s.devices.EnqueueUpsert(dc.ClientID, upload.ApplicationID, dc.Platform, dc.RuntimeVersion, dc.ReleaseChannel, dc.EmbeddedUpdateID, dc.CurrentUpdateID)

	if passthrough, ok, err := s.passthroughSignedManifest(upload, dc); err != nil {
		return nil, err
	} else if ok {
		return passthrough, nil
	}

	return s.composeFresh(upload, dc)
}

// passthroughSignedManifest returns the publisher's pre-signed manifest
// bytes verbatim when one exists for dc.Platform (spec.md §4.7 step 3):
// stringifying a parsed manifest here would change whitespace and
// invalidate the signature the publisher already committed to.
func (s *Service) passthroughSignedManifest(upload *schema.UploadRecord, dc DeviceContext) (*Response, bool, error) {
	if len(upload.SignedManifestJSON) == 0 {
		return nil, false, nil
	}

	var manifestByPlatform map[string]string
	if err := json.Unmarshal(upload.SignedManifestJSON, &manifestByPlatform); err != nil {
		return nil, false, nil
	}

	manifestJSON, ok := manifestByPlatform[dc.Platform]
	if !ok {
		return nil, false, nil
	}

	signature := ""
	if len(upload.ManifestSignature) > 0 {
		var signatureByPlatform map[string]string
		if err := json.Unmarshal(upload.ManifestSignature, &signatureByPlatform); err == nil {
			signature = signatureByPlatform[dc.Platform]
		}
	}

	return &Response{
		ManifestJSON:    []byte(manifestJSON),
		Signature:       signature,
		ProtocolVersion: dc.ProtocolVersion,
	}, true, nil
}

func (s *Service) composeFresh(upload *schema.UploadRecord, dc DeviceContext) (*Response, error) {
	doc, err := s.buildManifestDoc(upload, dc)
	if err != nil {
		return nil, err
	}

	manifestJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding manifest: %v", apperr.ErrInputInvalid, err)
	}

	signature := ""
	if dc.ExpectSignature {
		app, err := s.store.GetApplication(upload.ApplicationID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrSigningFailed, err)
		}
		if len(app.PrivateKeyPEM) == 0 {
			return nil, apperr.ErrSigningFailed
		}

		signature, err = sign(manifestJSON, app.PrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperr.ErrSigningFailed, err)
		}
	}

	return &Response{
		ManifestJSON:    manifestJSON,
		Signature:       signature,
		ProtocolVersion: dc.ProtocolVersion,
	}, nil
}

type manifestDoc struct {
	ID             string          `json:"id"`
	CreatedAt      string          `json:"createdAt"`
	RuntimeVersion string          `json:"runtimeVersion"`
	LaunchAsset    manifestAsset   `json:"launchAsset"`
	Assets         []manifestAsset `json:"assets"`
	Metadata       struct{}        `json:"metadata"`
	Extra          manifestExtra   `json:"extra"`
}

type manifestAsset struct {
	Hash          string `json:"hash"`
	Key           string `json:"key"`
	ContentType   string `json:"contentType"`
	FileExtension string `json:"fileExtension"`
	URL           string `json:"url"`
}

type manifestExtra struct {
	ExpoClient json.RawMessage `json:"expoClient,omitempty"`
}

// buildManifestDoc implements spec.md §4.7 step 4: assemble id,
// createdAt, runtimeVersion, launchAsset/assets (each carrying an asset
// endpoint URL derived from blob_prefix), and extra.expoClient from the
// upload's pre-computed assets manifest cache.
func (s *Service) buildManifestDoc(upload *schema.UploadRecord, dc DeviceContext) (*manifestDoc, error) {
	var assetsByPlatform map[string]ingest.PlatformAssets
	if err := json.Unmarshal(upload.AssetsManifestJSON, &assetsByPlatform); err != nil {
		return nil, fmt.Errorf("%w: stored assets manifest is corrupt: %v", apperr.ErrInputInvalid, err)
	}

	platformAssets, ok := assetsByPlatform[dc.Platform]
	if !ok {
		return nil, apperr.ErrNotFound
	}

	doc := &manifestDoc{
		ID:             upload.ID,
		CreatedAt:      upload.CreatedAt.UTC().Format(time.RFC3339),
		RuntimeVersion: dc.RuntimeVersion,
		LaunchAsset:    s.assetURL(upload, platformAssets.LaunchAsset, dc.Platform),
	}

	for _, a := range platformAssets.Assets {
		doc.Assets = append(doc.Assets, s.assetURL(upload, a, dc.Platform))
	}

	if len(upload.AppConfigJSON) > 0 {
		doc.Extra.ExpoClient = json.RawMessage(upload.AppConfigJSON)
	}

	return doc, nil
}

func (s *Service) assetURL(upload *schema.UploadRecord, a ingest.AssetEntry, platform string) manifestAsset {
	assetKey := upload.BlobPrefix + "/" + a.Path

	q := url.Values{}
	q.Set("asset", assetKey)
	q.Set("contentType", a.ContentType)
	q.Set("platform", platform)

	return manifestAsset{
		Hash:          a.Hash,
		Key:           a.Key,
		ContentType:   a.ContentType,
		FileExtension: a.FileExtension,
		URL:           s.baseURL + "/api/assets?" + q.Encode(),
	}
}
