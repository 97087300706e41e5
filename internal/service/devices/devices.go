// Package devices implements the per-device last-seen recorder (C9): a
// fire-and-forget upsert dispatched from the manifest handler so it can
// never delay or fail the response it rides along with (spec.md §5).
package devices

import (
	"log"
	"time"

	"github.com/tinkerborg/otaupdate/internal/store"
	"github.com/tinkerborg/otaupdate/internal/store/schema"
)

type Recorder struct {
	store *store.Postgres
}

func New(s *store.Postgres) *Recorder {
	return &Recorder{store: s}
}

// EnqueueUpsert records the request on a detached goroutine, never
// blocking or failing the manifest response it accompanies. clientID
// empty means the device didn't identify itself; spec.md §4.4 marks the
// client id optional, so there is nothing to upsert.
func (r *Recorder) EnqueueUpsert(clientID, applicationID, platform, runtimeVersion, releaseChannel, embeddedUpdateID, currentUpdateID string) {
	if clientID == "" {
		return
	}

	go func() {
		now := time.Now().UTC()
		record := &schema.DeviceRecord{
			ID:               clientID,
			ApplicationID:    applicationID,
			Platform:         platform,
			RuntimeVersion:   runtimeVersion,
			ReleaseChannel:   releaseChannel,
			EmbeddedUpdateID: embeddedUpdateID,
			CurrentUpdateID:  currentUpdateID,
			FirstSeen:        now,
			LastSeen:         now,
		}

		if err := r.store.UpsertDevice(record); err != nil {
			log.Printf("device upsert failed for client=%s application=%s: %v", clientID, applicationID, err)
		}
	}()
}
