package redispub

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
)

type fakeRedis struct {
	channel string
	message interface{}
	calls   int
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.calls++
	f.channel = channel
	f.message = message
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal(1)
	return cmd
}

func TestNew_NilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must not be nil")
}

func TestPublish_WritesEnvelope(t *testing.T) {
	api := &fakeRedis{}
	c, err := New(api)
	require.NoError(t, err)

	err = c.Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{Sender: "Ana", Message: "hi", ClientID: "c2"})
	require.NoError(t, err)
	require.Equal(t, "chataurelio", api.channel)
	require.JSONEq(t, `{"event":"chatbidireccion","data":{"sender":"Ana","message":"hi","clientId":"c2"}}`, api.message.(string))
}

func TestPublish_Validation(t *testing.T) {
	api := &fakeRedis{}
	c, err := New(api)
	require.NoError(t, err)

	require.ErrorContains(t, c.Publish(context.Background(), "", "chatbidireccion", domain.Event{}), "channel is required")
	require.ErrorContains(t, c.Publish(context.Background(), "chataurelio", " ", domain.Event{}), "event is required")
	require.ErrorContains(t, (&Client{}).Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{}), "not initialized")
	require.Zero(t, api.calls)
}

func TestPublish_RedisError(t *testing.T) {
	c, err := New(&fakeRedis{err: errors.New("connection refused")})
	require.NoError(t, err)

	err = c.Publish(context.Background(), "chataurelio", "chatbidireccion", domain.Event{})
	require.ErrorContains(t, err, "chataurelio/chatbidireccion")
	require.ErrorContains(t, err, "connection refused")
}

func TestNewFromURL_InvalidURL(t *testing.T) {
	_, err := NewFromURL(context.Background(), "not a url")
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse url")
}
