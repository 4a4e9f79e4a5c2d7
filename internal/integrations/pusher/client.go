package pusher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	pushersdk "github.com/pusher/pusher-http-go/v5"

	"chat-relay/internal/domain"
)

// triggerAPI is the subset of *pushersdk.Client used by Client.
type triggerAPI interface {
	Trigger(channel string, eventName string, data interface{}) error
}

// Config holds the Pusher Channels application credentials.
type Config struct {
	AppID   string
	Key     string
	Secret  string
	Cluster string
	UseTLS  bool
	// Host overrides the cluster-derived API host, e.g. for a local mock.
	Host string
}

func (c Config) validate() error {
	var missing []string
	if strings.TrimSpace(c.AppID) == "" {
		missing = append(missing, "app id")
	}
	if strings.TrimSpace(c.Key) == "" {
		missing = append(missing, "key")
	}
	if strings.TrimSpace(c.Secret) == "" {
		missing = append(missing, "secret")
	}
	if strings.TrimSpace(c.Cluster) == "" && strings.TrimSpace(c.Host) == "" {
		missing = append(missing, "cluster")
	}
	if len(missing) > 0 {
		return fmt.Errorf("pusher: missing config: %s", strings.Join(missing, ", "))
	}
	return nil
}

// NewSDKClient builds the Pusher SDK client from cfg. A nil httpClient gets a
// 10s timeout.
func NewSDKClient(cfg Config, httpClient *http.Client) (*pushersdk.Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &pushersdk.Client{
		AppID:      strings.TrimSpace(cfg.AppID),
		Key:        strings.TrimSpace(cfg.Key),
		Secret:     strings.TrimSpace(cfg.Secret),
		Cluster:    strings.TrimSpace(cfg.Cluster),
		Host:       strings.TrimSpace(cfg.Host),
		Secure:     cfg.UseTLS,
		HTTPClient: httpClient,
	}, nil
}

// Client publishes relay events to Pusher Channels.
type Client struct {
	api triggerAPI
}

// New creates a Client around a Pusher trigger implementation.
func New(api triggerAPI) (*Client, error) {
	if api == nil {
		return nil, errors.New("pusher: api must not be nil")
	}
	return &Client{api: api}, nil
}

// Publish triggers event on channel and waits for Pusher to accept it.
func (c *Client) Publish(ctx context.Context, channel, event string, payload domain.Event) error {
	if c.api == nil {
		return errors.New("pusher: client not initialized")
	}
	if strings.TrimSpace(channel) == "" {
		return errors.New("pusher: channel is required")
	}
	if strings.TrimSpace(event) == "" {
		return errors.New("pusher: event is required")
	}
	// The SDK call takes no context, so a cancelled request stops here.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pusher: trigger %s/%s: %w", channel, event, err)
	}
	if err := c.api.Trigger(channel, event, payload); err != nil {
		return fmt.Errorf("pusher: trigger %s/%s: %w", channel, event, err)
	}
	return nil
}
