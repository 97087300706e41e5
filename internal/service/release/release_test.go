package release_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/apperr"
	"github.com/tinkerborg/otaupdate/internal/service/release"
	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
	"github.com/tinkerborg/otaupdate/internal/testsupport"
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

func seedUpload(t *testing.T, db *store.Postgres, coordinate schema.UploadRecord) *schema.UploadRecord {
	t.Helper()

	coordinate.ID = uuid.New().String()
	require.NoError(t, db.InsertUpload(&coordinate))

	return &coordinate
}

func baseCoordinate() schema.UploadRecord {
	return schema.UploadRecord{
		ApplicationID:  "myapp",
		RuntimeVersion: "1.0.0",
		ReleaseChannel: "production",
		Platform:       "all",
		Status:         "ready",
	}
}

func TestReleaseThenReleaseAgainConflicts(t *testing.T) {
	db := newStore(t)
	svc := release.New(db)

	u := seedUpload(t, db, baseCoordinate())

	_, err := svc.Release(u.ID)
	require.NoError(t, err)

	_, err = svc.Release(u.ID)
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestSupersedeThenRollbackRestoresPriorState(t *testing.T) {
	db := newStore(t)
	svc := release.New(db)

	u1 := seedUpload(t, db, baseCoordinate())
	u2 := seedUpload(t, db, baseCoordinate())

	_, err := svc.Release(u1.ID)
	require.NoError(t, err)

	_, err = svc.Release(u2.ID)
	require.NoError(t, err)

	got, err := db.GetUpload(u1.ID)
	require.NoError(t, err)
	require.Equal(t, "obsolete", got.Status)

	_, err = svc.Rollback(u1.ID)
	require.NoError(t, err)

	got2, err := db.GetUpload(u2.ID)
	require.NoError(t, err)
	require.Equal(t, "obsolete", got2.Status)

	got1, err := db.GetUpload(u1.ID)
	require.NoError(t, err)
	require.Equal(t, "released", got1.Status)
}

func TestNarrowPlatformReleaseSupersedesBroaderAllRelease(t *testing.T) {
	db := newStore(t)
	svc := release.New(db)

	all := baseCoordinate()
	all.Platform = "all"
	uAll := seedUpload(t, db, all)

	ios := baseCoordinate()
	ios.Platform = "ios"
	uIOS := seedUpload(t, db, ios)

	_, err := svc.Release(uAll.ID)
	require.NoError(t, err)

	_, err = svc.Release(uIOS.ID)
	require.NoError(t, err)

	got, err := db.GetUpload(uAll.ID)
	require.NoError(t, err)
	require.Equal(t, "obsolete", got.Status)
}

func TestFindServableUploadAfterNarrowReleaseServesOnlyThatPlatform(t *testing.T) {
	db := newStore(t)
	svc := release.New(db)

	all := baseCoordinate()
	all.RuntimeVersion = "2.0.0"
	all.Platform = "all"
	uAll := seedUpload(t, db, all)

	ios := baseCoordinate()
	ios.RuntimeVersion = "2.0.0"
	ios.Platform = "ios"
	uIOS := seedUpload(t, db, ios)

	_, err := svc.Release(uAll.ID)
	require.NoError(t, err)
	_, err = svc.Release(uIOS.ID)
	require.NoError(t, err)

	// uAll is now obsolete (ios release superseded it), so only uIOS is
	// servable for ios and nothing is servable for android.
	got, err := db.FindServableUpload("myapp", "2.0.0", "production", "ios")
	require.NoError(t, err)
	require.Equal(t, uIOS.ID, got.ID)

	_, err = db.FindServableUpload("myapp", "2.0.0", "production", "android")
	require.ErrorIs(t, err, store.ErrNotFound)
}
