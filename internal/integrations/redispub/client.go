package redispub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"chat-relay/internal/domain"
)

// publishAPI is the subset of *redis.Client used by Client.
type publishAPI interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// envelope is the JSON written to the redis channel. Subscribers dispatch on
// Event the same way Pusher clients bind to an event name.
type envelope struct {
	Event string       `json:"event"`
	Data  domain.Event `json:"data"`
}

// Client publishes relay events over redis PUBLISH.
type Client struct {
	api publishAPI
}

func New(api publishAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("redispub: api must not be nil")
	}
	return &Client{api: api}, nil
}

// NewFromURL connects to the redis server at redisURL and verifies it with PING.
func NewFromURL(ctx context.Context, redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, fmt.Errorf("redispub: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redispub: ping: %w", err)
	}
	return New(rdb)
}

// Publish writes the event envelope to channel. Zero subscribers is not an
// error; PUBLISH has no delivery acknowledgement.
func (c *Client) Publish(ctx context.Context, channel, event string, payload domain.Event) error {
	if c.api == nil {
		return errors.New("redispub: client not initialized")
	}
	if strings.TrimSpace(channel) == "" {
		return errors.New("redispub: channel is required")
	}
	if strings.TrimSpace(event) == "" {
		return errors.New("redispub: event is required")
	}

	data, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("redispub: marshal event: %w", err)
	}
	if err := c.api.Publish(ctx, channel, string(data)).Err(); err != nil {
		return fmt.Errorf("redispub: publish %s/%s: %w", channel, event, err)
	}
	return nil
}
