package store

import (
	"time"

	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"gorm.io/gorm"
)

// RegisterSchemas migrates and indexes every table the core depends on.
// Called once at boot, mirroring the teacher's service.New pattern of
// registering its own models before use.
func (p *Postgres) RegisterSchemas() error {
	return p.RegisterModels(
		schema.ApplicationRecord{},
		schema.UploadRecord{},
		schema.DeviceRecord{},
	)
}

// GetApplication resolves id case-insensitively, returning the row with
// its originally-stored casing intact (spec.md §3: "stored with
// original case").
func (p *Postgres) GetApplication(id string) (*schema.ApplicationRecord, error) {
	app := &schema.ApplicationRecord{}

	err := p.db.Where("LOWER(id) = LOWER(?)", id).First(app).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return app, nil
}

func (p *Postgres) InsertApplication(app *schema.ApplicationRecord) error {
	return p.Create(app)
}

func (p *Postgres) UpdateApplication(app *schema.ApplicationRecord) error {
	return p.Update(app)
}

// DeleteApplicationCascade removes the application row; ON DELETE
// CASCADE foreign keys on uploads/devices remove their rows too. The
// caller is responsible for deleting the corresponding object-store
// prefix (internal/store is never responsible for external side
// effects per spec.md's component split).
func (p *Postgres) DeleteApplicationCascade(id string) error {
	return p.Delete(&schema.ApplicationRecord{ID: id})
}

type ListUploadsFilter struct {
	Status   string
	Platform string
	Limit    int
	Offset   int
}

func (p *Postgres) ListUploads(applicationID string, filter ListUploadsFilter) ([]schema.UploadRecord, error) {
	uploads := []schema.UploadRecord{}

	db := p.db.Where("application_id = ?", applicationID)
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Platform != "" {
		db = db.Where("platform = ?", filter.Platform)
	}

	db = db.Order("created_at DESC")

	if filter.Limit > 0 {
		db = db.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		db = db.Offset(filter.Offset)
	}

	if err := db.Find(&uploads).Error; err != nil {
		return nil, err
	}

	return uploads, nil
}

func (p *Postgres) GetUpload(id string) (*schema.UploadRecord, error) {
	upload := &schema.UploadRecord{}

	err := p.db.Where("id = ?", id).First(upload).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return upload, nil
}

func (p *Postgres) InsertUpload(upload *schema.UploadRecord) error {
	return p.Create(upload)
}

// UpdateUploadStatus is the single-row atomic transition: it sets one
// row's status, and released_at when given. Release and Rollback call
// it inside their transaction to promote the target row.
func (p *Postgres) UpdateUploadStatus(id string, status string, releasedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if releasedAt != nil {
		updates["released_at"] = *releasedAt
	}

	return p.db.Model(&schema.UploadRecord{}).Where("id = ?", id).Updates(updates).Error
}

// FindServableUpload returns the unique released row for the exact
// coordinate, preferring an exact-platform match over platform="all",
// tie-broken by the most recent released_at. This is the hot path; it
// must use the composite index on uploads declared in schema.UploadRecord.
func (p *Postgres) FindServableUpload(applicationID, runtimeVersion, releaseChannel, platform string) (*schema.UploadRecord, error) {
	upload := &schema.UploadRecord{}

	err := p.db.
		Where("application_id = ? AND runtime_version = ? AND release_channel = ? AND status = ?",
			applicationID, runtimeVersion, releaseChannel, "released").
		Where("platform = ? OR platform = ?", platform, "all").
		Order(gorm.Expr("(platform = ?) DESC", platform)).
		Order("released_at DESC").
		First(upload).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return upload, nil
}

// BulkMarkObsolete sets every released row at the given coordinate
// (excluding exceptID) to obsolete. Deliberately not conditioned on
// platform (spec.md §4.6/§9): electing a narrower release supersedes a
// broader platform="all" release for the same coordinate.
func (p *Postgres) BulkMarkObsolete(applicationID, runtimeVersion, releaseChannel, exceptID string) error {
	return p.db.Model(&schema.UploadRecord{}).
		Where("application_id = ? AND runtime_version = ? AND release_channel = ? AND status = ? AND id <> ?",
			applicationID, runtimeVersion, releaseChannel, "released", exceptID).
		Update("status", "obsolete").Error
}

// UpsertDevice inserts or updates the per-device last-seen record.
// UpdateCount is incremented best-effort, not guarded against a race
// with a concurrent upsert of the same device (spec.md §9).
func (p *Postgres) UpsertDevice(device *schema.DeviceRecord) error {
	now := device.LastSeen

	result := p.db.Model(&schema.DeviceRecord{}).
		Where("id = ?", device.ID).
		Updates(map[string]interface{}{
			"runtime_version":    device.RuntimeVersion,
			"platform":           device.Platform,
			"release_channel":    device.ReleaseChannel,
			"embedded_update_id": device.EmbeddedUpdateID,
			"current_update_id":  device.CurrentUpdateID,
			"last_seen":          now,
			"update_count":       gorm.Expr("update_count + 1"),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		return nil
	}

	device.FirstSeen = now
	device.UpdateCount = 1

	return p.db.Create(device).Error
}
