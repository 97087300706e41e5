// Package release implements the upload lifecycle state machine: the
// transactional Release and Rollback operations that move an upload
// between ready, released, and obsolete while preserving the invariant
// that at most one upload is released per coordinate (spec.md §4.6).
package release

import (
	"errors"
	"time"

	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/model"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
)

const (
	statusReady    = string(model.UploadStatusReady)
	statusReleased = string(model.UploadStatusReleased)
	statusObsolete = string(model.UploadStatusObsolete)
)

type Service struct {
	store *store.Postgres
}

func New(s *store.Postgres) *Service {
	return &Service{store: s}
}

// Release promotes target to released, demoting any currently released
// sibling at the same (application, runtime_version, release_channel)
// coordinate to obsolete, inside one transaction so readers never
// observe two released rows (spec.md §4.6/I1).
func (s *Service) Release(uploadID string) (*schema.UploadRecord, error) {
	target, err := s.store.GetUpload(uploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if target.Status == statusReleased {
		return nil, apperr.ErrConflict
	}

	now := time.Now().UTC()

	err = s.store.Transaction(func(tx *store.Postgres) error {
		if err := tx.BulkMarkObsolete(target.ApplicationID, target.RuntimeVersion, target.ReleaseChannel, target.ID); err != nil {
			return err
		}

		return tx.UpdateUploadStatus(target.ID, statusReleased, &now)
	})
	if err != nil {
		return nil, err
	}

	target.Status = statusReleased
	target.ReleasedAt = &now

	return target, nil
}

// Rollback re-promotes a ready or obsolete row the same way Release
// does, which is how a previously superseded upload is restored to
// serving. Unlike Release, it keeps the target's existing released_at
// and only stamps the current time on a row that was never released.
func (s *Service) Rollback(uploadID string) (*schema.UploadRecord, error) {
	target, err := s.store.GetUpload(uploadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}

	if target.Status == statusReleased {
		return nil, apperr.ErrConflict
	}

	var releasedAt time.Time
	if target.ReleasedAt != nil {
		releasedAt = *target.ReleasedAt
	} else {
		releasedAt = time.Now().UTC()
	}

	err = s.store.Transaction(func(tx *store.Postgres) error {
		if err := tx.BulkMarkObsolete(target.ApplicationID, target.RuntimeVersion, target.ReleaseChannel, target.ID); err != nil {
			return err
		}

		return tx.UpdateUploadStatus(target.ID, statusReleased, &releasedAt)
	})
	if err != nil {
		return nil, err
	}

	target.Status = statusReleased
	target.ReleasedAt = &releasedAt

	return target, nil
}
