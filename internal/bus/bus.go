package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/identity"
	"github.com/interestIngc/cyphershare/internal/logging"
	"github.com/interestIngc/cyphershare/internal/relay"
)

// Bus publishes announcements for a room and runs the single consumer loop
// over the inbound stream. Accepted announcements are materialized as
// received FileRecords and delivered on Events.
type Bus struct {
	relay   relay.Relay
	topic   string
	session identity.Session
	tracker *Tracker
	log     logging.Logger
	events  chan models.FileRecord
}

func New(r relay.Relay, roomID string, session identity.Session, tracker *Tracker, log logging.Logger) *Bus {
	return &Bus{
		relay:   r,
		topic:   TopicForRoom(roomID),
		session: session,
		tracker: tracker,
		log:     log,
		events:  make(chan models.FileRecord, 16),
	}
}

// Events yields the materialized records for accepted announcements. The
// channel is closed when Run returns.
func (b *Bus) Events() <-chan models.FileRecord {
	return b.events
}

// Publish announces an uploaded record to the room. The sender ID and
// timestamp are attached here; the tracker is marked before the relay sees
// the payload so our own echo can never be accepted.
func (b *Bus) Publish(ctx context.Context, rec *models.FileRecord) error {
	if !rec.Uploaded() {
		return fmt.Errorf("%w: record %s has no content id", common.ErrValidation, rec.ID)
	}
	a := PeerAnnouncement{
		FileName:        rec.Name,
		FileSize:        rec.SizeMB(),
		FileType:        rec.MimeType,
		FileID:          rec.ContentID,
		Sender:          b.session.SenderID,
		Timestamp:       time.Now().UnixMilli(),
		IsEncrypted:     rec.Encrypted,
		AccessCondition: rec.AccessConditionDescription,
	}
	payload, err := a.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	b.tracker.MarkSent(rec.ContentID)
	if err := b.relay.Publish(ctx, b.topic, payload); err != nil {
		return fmt.Errorf("%w: publish announcement: %v", common.ErrTransport, err)
	}
	b.log.Debug(ctx, "announcement published", "topic", b.topic, "fileId", rec.ContentID)
	return nil
}

// Run subscribes to the room topic and consumes it until ctx is cancelled.
// It is the sole consumer of the subscription; all dedup state changes
// happen on this goroutine via the tracker.
func (b *Bus) Run(ctx context.Context) error {
	defer close(b.events)

	msgs, err := b.relay.Subscribe(ctx, b.topic)
	if err != nil {
		return fmt.Errorf("%w: subscribe %s: %v", common.ErrTransport, b.topic, err)
	}
	b.log.Info(ctx, "listening for announcements", "topic", b.topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}
			a, err := DecodeAnnouncement(payload)
			if err != nil {
				b.log.Warn(ctx, "dropping announcement", "error", err)
				continue
			}
			if verdict := b.tracker.Classify(a); verdict != Accepted {
				b.log.Debug(ctx, "announcement suppressed", "fileId", a.FileID, "verdict", verdict.String())
				continue
			}
			rec := materialize(a)
			select {
			case b.events <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// materialize turns an accepted announcement into the local record of a
// received file.
func materialize(a PeerAnnouncement) models.FileRecord {
	return models.FileRecord{
		ID:                         uuid.NewString(),
		Name:                       a.FileName,
		Size:                       int64(a.FileSize * 1024 * 1024),
		MimeType:                   a.FileType,
		CreatedAt:                  time.UnixMilli(a.Timestamp),
		Direction:                  models.DirectionReceived,
		ContentID:                  a.FileID,
		Encrypted:                  a.IsEncrypted,
		AccessConditionDescription: a.AccessCondition,
	}
}
