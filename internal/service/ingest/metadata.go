package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/content"
)

// publisherMetadata mirrors the publisher's metadata.json shape: one
// fileMetadata entry per platform present in the upload.
type publisherMetadata struct {
	FileMetadata map[string]platformFileMetadata `json:"fileMetadata"`
}

type platformFileMetadata struct {
	Bundle string            `json:"bundle"`
	Assets []publisherAsset `json:"assets"`
}

type publisherAsset struct {
	Path string `json:"path"`
	Ext  string `json:"ext"`
}

// computeAssetsManifest walks metadata.json.fileMetadata.{ios,android}
// and returns the per-platform content-addressed asset cache, looking up
// each file's bytes in files (keyed by the publisher's relative path)
// (spec.md §4.5 step 7).
func computeAssetsManifest(metadataJSON []byte, files map[string][]byte) (map[string]PlatformAssets, error) {
	var meta publisherMetadata
	if err := json.Unmarshal(metadataJSON, &meta); err != nil {
		return nil, fmt.Errorf("%w: metadata.json is not valid JSON: %v", apperr.ErrInputInvalid, err)
	}

	result := make(map[string]PlatformAssets, len(meta.FileMetadata))

	for platform, pfm := range meta.FileMetadata {
		bundleBytes, ok := files[pfm.Bundle]
		if !ok {
			return nil, fmt.Errorf("%w: declared bundle %q for platform %q was not uploaded", apperr.ErrInputInvalid, pfm.Bundle, platform)
		}

		launchAsset := AssetEntry{
			Hash:          content.SHA256Base64URL(bundleBytes),
			Key:           content.MD5Hex(bundleBytes),
			FileExtension: ".bundle",
			ContentType:   "application/javascript",
			Path:          pfm.Bundle,
		}

		assets := make([]AssetEntry, 0, len(pfm.Assets))
		for _, a := range pfm.Assets {
			assetBytes, ok := files[a.Path]
			if !ok {
				return nil, fmt.Errorf("%w: declared asset %q for platform %q was not uploaded", apperr.ErrInputInvalid, a.Path, platform)
			}

			assets = append(assets, AssetEntry{
				Hash:          content.SHA256Base64URL(assetBytes),
				Key:           content.MD5Hex(assetBytes),
				FileExtension: a.Ext,
				ContentType:   contentTypeForExtension(a.Ext),
				Path:          a.Path,
			})
		}

		result[platform] = PlatformAssets{
			LaunchAsset: launchAsset,
			Assets:      assets,
		}
	}

	return result, nil
}
