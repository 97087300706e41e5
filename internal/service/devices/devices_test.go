package devices_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tinkerborg/otaupdate/internal/service/devices"
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

func TestEnqueueUpsertCreatesThenUpdatesDeviceRecord(t *testing.T) {
	db := newStore(t)
	recorder := devices.New(db)

	recorder.EnqueueUpsert("device-1", "myapp", "ios", "1.0.0", "production", "embedded-id", "current-id")

	require.Eventually(t, func() bool {
		d := &schema.DeviceRecord{ID: "device-1"}
		return db.Read(d) == nil && d.UpdateCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	recorder.EnqueueUpsert("device-1", "myapp", "ios", "1.1.0", "production", "embedded-id", "current-id-2")

	require.Eventually(t, func() bool {
		d := &schema.DeviceRecord{ID: "device-1"}
		return db.Read(d) == nil && d.UpdateCount == 2 && d.RuntimeVersion == "1.1.0"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEnqueueUpsertSkipsEmptyClientID(t *testing.T) {
	db := newStore(t)
	recorder := devices.New(db)

	recorder.EnqueueUpsert("", "myapp", "ios", "1.0.0", "production", "", "")

	time.Sleep(50 * time.Millisecond)

	err := db.Read(&schema.DeviceRecord{ID: ""})
	require.Error(t, err)

	all := []schema.DeviceRecord{}
	require.NoError(t, db.List(&all))
	require.Empty(t, all)
}
