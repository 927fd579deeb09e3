// Package notifications publishes account notifications (password reset
// links, email verification codes) for delivery by a mail worker.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"wanderlust/internal/middleware"
	"wanderlust/internal/models"

	"github.com/redis/go-redis/v9"
)

// OutboxChannel carries every event awaiting delivery.
const OutboxChannel = "notifications:outbox"

const (
	EventPasswordReset     = "password_reset"
	EventEmailVerification = "email_verification"
)

// Event is one notification addressed to a user.
type Event struct {
	Type      string    `json:"type"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Token     string    `json:"token,omitempty"`
	Code      string    `json:"code,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Notifier publishes events into Redis. Without a client, events are only logged.
type Notifier struct {
	rdb *redis.Client
	now func() time.Time
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, now: time.Now}
}

func (n *Notifier) SendPasswordReset(ctx context.Context, user *models.User, token string, ttl time.Duration) error {
	return n.Publish(ctx, Event{
		Type:      EventPasswordReset,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Token:     token,
		ExpiresAt: n.now().Add(ttl),
	})
}

func (n *Notifier) SendVerificationCode(ctx context.Context, user *models.User, code string, ttl time.Duration) error {
	return n.Publish(ctx, Event{
		Type:      EventEmailVerification,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Code:      code,
		ExpiresAt: n.now().Add(ttl),
	})
}

// Publish sends ev to the outbox. Events carry secrets, so the outbox is
// their only channel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n.rdb == nil {
		middleware.Logger.InfoContext(ctx, "notification not delivered: redis unavailable",
			slog.String("type", ev.Type),
			slog.Uint64("user_id", uint64(ev.UserID)),
		)
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return n.rdb.Publish(ctx, OutboxChannel, payload).Err()
}

// StartOutboxSubscriber calls onEvent for each event published to the outbox
// until ctx is done.
func (n *Notifier) StartOutboxSubscriber(ctx context.Context, onEvent func(Event)) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, OutboxChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping malformed notification", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in outbox subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

// LogDelivery is the default outbox consumer; it records that an event was
// handed off without writing secrets to the log.
func LogDelivery(ev Event) {
	middleware.Logger.Info("notification delivered",
		slog.String("type", ev.Type),
		slog.Uint64("user_id", uint64(ev.UserID)),
		slog.Time("expires_at", ev.ExpiresAt),
	)
}
