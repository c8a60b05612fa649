package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/kontaktio/kontakt/internal/database"
	"github.com/kontaktio/kontakt/internal/logging"
)

const ChannelName = "kontakt_contact_events"

// EventPayload is the message broadcast to websocket clients when the
// contact table changes.
type EventPayload struct {
	Type      string    `json:"type"`
	ContactID string    `json:"contact_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotifyContact publishes a contact-change event through pg_notify. Failures
// are logged and swallowed; a missed event only delays a dashboard refresh.
func NotifyContact(ctx context.Context, eventType string, contactID uuid.UUID) {
	payload := EventPayload{
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
	}
	if contactID != uuid.Nil {
		payload.ContactID = contactID.String()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logging.L().Warn("failed to marshal contact event payload", zap.Error(err))
		return
	}

	if _, err := database.DB.ExecContext(ctx, "SELECT pg_notify($1, $2)", ChannelName, string(data)); err != nil {
		logging.L().Warn("failed to send contact event notification", zap.Error(err))
	}
}

// subscription is the slice of pq.Listener that subscribe needs.
type subscription interface {
	Listen(channel string) error
	Close() error
}

// subscribe attaches to the contact event channel. On failure the underlying
// connection is closed so it does not leak.
func subscribe(l subscription) error {
	if err := l.Listen(ChannelName); err != nil {
		_ = l.Close()
		return err
	}
	return nil
}

// StartListener subscribes to the contact event channel and forwards payloads
// to the hub until the context is cancelled.
func StartListener(ctx context.Context, databaseURL string, hub *Hub) error {
	listener := pq.NewListener(databaseURL, 5*time.Second, time.Minute, func(event pq.ListenerEventType, err error) {
		if err != nil {
			logging.L().Warn("contact event listener state change",
				zap.Int("event", int(event)),
				zap.Error(err))
		}
	})

	if err := subscribe(listener); err != nil {
		return err
	}

	go func() {
		defer func() {
			_ = listener.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case n := <-listener.Notify:
				if n == nil {
					continue
				}
				hub.Broadcast([]byte(n.Extra))
			case <-time.After(time.Minute):
				if err := listener.Ping(); err != nil {
					logging.L().Warn("contact event listener ping failed", zap.Error(err))
				}
			}
		}
	}()

	return nil
}
