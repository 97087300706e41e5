package schema

import "time"

// UploadRecord is one published artifact bundle, the unit of release.
// The composite index on (application_id, runtime_version,
// release_channel, platform, status) is the sole index supporting the
// hot manifest lookup (FindServableUpload) and the state machine's
// single-live invariant check; the (application_id, created_at) index
// supports the dashboard listing query.
type UploadRecord struct {
	ID             string `gorm:"primaryKey;type:text"`
	ApplicationID  string `gorm:"index:idx_upload_coordinate,priority:1;index:idx_upload_created,priority:1"`
	RuntimeVersion string `gorm:"index:idx_upload_coordinate,priority:2"`
	ReleaseChannel string `gorm:"index:idx_upload_coordinate,priority:3"`
	Platform       string `gorm:"index:idx_upload_coordinate,priority:4"`
	Status         string `gorm:"index:idx_upload_coordinate,priority:5"`

	BlobPrefix string

	// Verbatim publisher/server-computed JSON payloads. These are raw
	// bytea columns, NOT gorm:"serializer:json" — re-serializing would
	// change whitespace and break signature byte-identity (spec
	// invariant P4), so the exact bytes received or computed are stored
	// and returned unchanged.
	MetadataJSON       []byte `gorm:"type:bytea"`
	AppConfigJSON      []byte `gorm:"type:bytea"`
	AssetsManifestJSON []byte `gorm:"type:bytea"`
	SignedManifestJSON []byte `gorm:"type:bytea"`
	ManifestSignature  []byte `gorm:"type:bytea"`

	GitBranch string
	GitCommit string
	SizeBytes int64

	CreatedAt  time.Time `gorm:"ORDERBY;index:idx_upload_created,priority:2"`
	ReleasedAt *time.Time
	UpdatedAt  time.Time
}
