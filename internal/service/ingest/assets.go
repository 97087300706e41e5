package ingest

// PlatformAssets is the per-platform entry of the pre-computed
// assets_manifest_json cache: the launch bundle plus every other asset,
// each carrying its content address and the relative path under
// blob_prefix the manifest composer needs to build the asset URL
// (spec.md §4.5 step 7 / §4.7 step 4).
type PlatformAssets struct {
	LaunchAsset AssetEntry   `json:"launchAsset"`
	Assets      []AssetEntry `json:"assets"`
}

// AssetEntry is one content-addressed file: its SHA-256/MD5 digests, its
// declared extension and content type, and the relative path (under
// blob_prefix) the bytes were stored at.
type AssetEntry struct {
	Hash          string `json:"hash"`
	Key           string `json:"key"`
	FileExtension string `json:"fileExtension"`
	ContentType   string `json:"contentType"`
	Path          string `json:"path"`
}

// contentTypeByExtension is the fixed extension → MIME type table spec.md
// §4.5 step 7 requires; anything absent falls back to
// application/octet-stream.
var contentTypeByExtension = map[string]string{
	".js":    "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".mp3":   "audio/mpeg",
	".mp4":   "video/mp4",
	".webm":  "video/webm",
}

func contentTypeForExtension(ext string) string {
	if ct, ok := contentTypeByExtension[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}
