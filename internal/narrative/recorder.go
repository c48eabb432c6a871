package narrative

import (
	"context"
	"sync/atomic"
	"time"

	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/repository"
)

// Recorder appends entries to a device owner's narrative timeline
type Recorder interface {
	// Record appends one entry timestamped now
	Record(ctx context.Context, user *models.User, device *models.Device, action models.ActionKind) error
	// RecordAt appends one entry with an explicit timestamp, used when an
	// event (carrier delivery) happened earlier than it was observed
	RecordAt(ctx context.Context, user *models.User, device *models.Device, action models.ActionKind, at time.Time) error
}

// recorder persists user stories through the repository. Entries carry a
// strictly monotonic sequence number so a feed sorted by (occurred_at, seq)
// keeps same-instant entries in write order. The counter is seeded from the
// wall clock so it also stays increasing across process restarts.
type recorder struct {
	repo repository.Repository
	seq  atomic.Int64
}

// NewRecorder creates a narrative recorder
func NewRecorder(repo repository.Repository) Recorder {
	r := &recorder{repo: repo}
	r.seq.Store(time.Now().UnixNano())
	return r
}

func (r *recorder) Record(ctx context.Context, user *models.User, device *models.Device, action models.ActionKind) error {
	return r.RecordAt(ctx, user, device, action, time.Now().UTC())
}

func (r *recorder) RecordAt(ctx context.Context, user *models.User, device *models.Device, action models.ActionKind, at time.Time) error {
	story := &models.UserStory{
		UserID:     user.ID,
		DeviceID:   device.ID,
		Action:     action,
		Seq:        r.seq.Add(1),
		OccurredAt: at,
	}

	return r.repo.SaveUserStory(ctx, story)
}
