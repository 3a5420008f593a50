package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event types pushed to dashboard listeners.
const (
	TypeCheckin  = "bag_checked_in"
	TypeCheckout = "bag_checked_out"
)

// Event is the change notification fanned out to passive dashboards.
type Event struct {
	Type      string    `json:"type"`
	CheckinID string    `json:"checkin_id"`
	TagCode   string    `json:"tag_code"`
	At        time.Time `json:"at"`
}

// Publisher fans lifecycle change events out over a Redis channel. Listeners
// are read-only; a lost event only delays a dashboard refresh.
type Publisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewPublisher constructs a Publisher on the given channel.
func NewPublisher(client *redis.Client, channel string, logger *zap.Logger) *Publisher {
	if channel == "" {
		channel = "bagdesk:events"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{client: client, channel: channel, logger: logger}
}

// Publish emits one event. Failures are logged, never propagated; the state
// transition that triggered the event has already committed.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.client == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	raw, err := json.Marshal(event)
	if err != nil {
		p.logger.Sugar().Errorw("marshal event", "type", event.Type, "error", err)
		return
	}
	if err := p.client.Publish(ctx, p.channel, raw).Err(); err != nil {
		p.logger.Sugar().Warnw("publish event", "type", event.Type, "error", err)
	}
}

// Subscribe opens a subscription for dashboard streaming endpoints. The
// caller owns the returned PubSub and must close it.
func (p *Publisher) Subscribe(ctx context.Context) *redis.PubSub {
	return p.client.Subscribe(ctx, p.channel)
}
