package schema

import "time"

// DeviceRecord is one row per client device seen by the manifest
// endpoint. Purely observational: no invariant of the release state
// machine depends on it. UpdateCount is best-effort (spec.md §9 open
// question) — incremented without a transactional guarantee against
// concurrent upserts of the same device.
type DeviceRecord struct {
	ID              string `gorm:"primaryKey;type:text"`
	ApplicationID   string `gorm:"index:idx_device_app_platform,priority:1"`
	RuntimeVersion  string
	Platform        string `gorm:"index:idx_device_app_platform,priority:2"`
	ReleaseChannel  string
	EmbeddedUpdateID string
	CurrentUpdateID  string
	FirstSeen       time.Time
	LastSeen        time.Time `gorm:"index:idx_device_last_seen"`
	UpdateCount     int
}
