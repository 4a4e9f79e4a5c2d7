package pusher

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
)

type triggerCall struct {
	channel string
	event   string
	data    interface{}
}

type fakeTrigger struct {
	calls []triggerCall
	err   error
}

func (f *fakeTrigger) Trigger(channel string, eventName string, data interface{}) error {
	f.calls = append(f.calls, triggerCall{channel: channel, event: eventName, data: data})
	return f.err
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestPublish_HappyPath(t *testing.T) {
	api := &fakeTrigger{}
	c, err := New(api)
	require.NoError(t, err)

	ev := domain.Event{Sender: "Soporte", Message: "hola", ClientID: "c1"}
	require.NoError(t, c.Publish(context.Background(), "chataurelio", "chatbidireccion", ev))
	require.Equal(t, []triggerCall{{channel: "chataurelio", event: "chatbidireccion", data: ev}}, api.calls)
}

func TestPublish_Validation(t *testing.T) {
	api := &fakeTrigger{}
	c, err := New(api)
	require.NoError(t, err)

	err = c.Publish(context.Background(), " ", "chatbidireccion", domain.Event{})
	require.ErrorContains(t, err, "channel is required")

	err = c.Publish(context.Background(), "chataurelio", "", domain.Event{})
	require.ErrorContains(t, err, "event is required")

	require.ErrorContains(t, (&Client{}).Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{}), "not initialized")

	require.Empty(t, api.calls)
}

func TestPublish_CancelledContext(t *testing.T) {
	api := &fakeTrigger{}
	c, err := New(api)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = c.Publish(ctx, "chataurelio", "chatbidireccion", domain.Event{})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, api.calls)
}

func TestPublish_TriggerError(t *testing.T) {
	c, err := New(&fakeTrigger{err: errors.New("Status Code: 401 - invalid signature")})
	require.NoError(t, err)

	err = c.Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{})
	require.ErrorContains(t, err, "chataurelio/chatbidireccion")
	require.ErrorContains(t, err, "invalid signature")
}

func TestNewSDKClient_ValidatesConfig(t *testing.T) {
	_, err := NewSDKClient(Config{}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "app id")
	require.Contains(t, err.Error(), "secret")
	require.Contains(t, err.Error(), "cluster")

	sdk, err := NewSDKClient(Config{AppID: "123", Key: "key", Secret: "secret", Cluster: "us2", UseTLS: true}, nil)
	require.NoError(t, err)
	require.Equal(t, "us2", sdk.Cluster)
	require.True(t, sdk.Secure)
	require.NotNil(t, sdk.HTTPClient)
}

func TestPublish_SDKAgainstMockServer(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	sdk, err := NewSDKClient(Config{
		AppID:  "123",
		Key:    "key",
		Secret: "secret",
		Host:   strings.TrimPrefix(srv.URL, "http://"),
	}, &http.Client{Timeout: 2 * time.Second})
	require.NoError(t, err)
	c, err := New(sdk)
	require.NoError(t, err)

	err = c.Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{Sender: "Ana", Message: "hi", ClientID: "c2"})
	require.NoError(t, err)
	require.Equal(t, "/apps/123/events", path)
	require.Contains(t, body, `"name":"chatbidireccion"`)
	require.Contains(t, body, `chataurelio`)
	require.Contains(t, body, `clientId`)
}
