package realtime

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func decodeFrame(t *testing.T, raw []byte) (string, map[string]any) {
	t.Helper()
	var frame struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &frame))
	return frame.Event, frame.Data
}

func TestHubPublishReachesOnlyRoomMembers(t *testing.T) {
	hub := NewHub(testLogger())
	alice := NewClient("alice", nil, 4)
	aliceTab := NewClient("alice", nil, 4)
	bob := NewClient("bob", nil, 4)
	for _, c := range []*Client{alice, aliceTab, bob} {
		hub.Register(c)
	}
	hub.Join(alice, UserRoom("user_", "alice"))
	hub.Join(aliceTab, UserRoom("user_", "alice"))
	hub.Join(bob, UserRoom("user_", "bob"))

	require.NoError(t, hub.Publish(context.Background(), "user_alice", EventNewMessage, map[string]string{"content": "hi"}))

	for _, c := range []*Client{alice, aliceTab} {
		select {
		case raw := <-c.Outbound():
			event, data := decodeFrame(t, raw)
			assert.Equal(t, EventNewMessage, event)
			assert.Equal(t, "hi", data["content"])
		default:
			t.Fatal("expected frame for alice connection")
		}
	}
	assert.Empty(t, bob.Outbound())
	assert.Equal(t, 2, hub.RoomSize("user_alice"))
	assert.Equal(t, 2, hub.UserConnections("alice"))
}

func TestHubPublishToEmptyRoomIsNotAnError(t *testing.T) {
	hub := NewHub(testLogger())
	assert.NoError(t, hub.Publish(context.Background(), "user_nobody", EventNewMessage, nil))
}

func TestHubBroadcastExcept(t *testing.T) {
	hub := NewHub(testLogger())
	sender := NewClient("a", nil, 2)
	other := NewClient("b", nil, 2)
	hub.Register(sender)
	hub.Register(other)

	require.NoError(t, hub.BroadcastExcept(context.Background(), sender, EventUserStatusChange, StatusChange{UserID: "a", IsOnline: true}))

	assert.Empty(t, sender.Outbound())
	require.Len(t, other.Outbound(), 1)
	event, data := decodeFrame(t, <-other.Outbound())
	assert.Equal(t, EventUserStatusChange, event)
	assert.Equal(t, "a", data["userId"])
	assert.Equal(t, true, data["isOnline"])
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(testLogger())
	slow := NewClient("slow", nil, 1)
	hub.Register(slow)
	hub.Join(slow, "user_slow")

	require.NoError(t, hub.Publish(context.Background(), "user_slow", EventNewMessage, nil))
	require.NoError(t, hub.Publish(context.Background(), "user_slow", EventNewMessage, nil))

	assert.Equal(t, 0, hub.RoomSize("user_slow"))
	assert.Equal(t, 0, hub.UserConnections("slow"))

	// The queued frame is still readable, then the channel is closed.
	_, ok := <-slow.Outbound()
	assert.True(t, ok)
	_, ok = <-slow.Outbound()
	assert.False(t, ok)
}

func TestHubUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	c := NewClient("u", nil, 1)
	hub.Register(c)
	hub.Join(c, "user_u")

	hub.Unregister(c)
	hub.Unregister(c)
	hub.Join(c, "user_u")

	assert.Equal(t, 0, hub.RoomSize("user_u"))
}

func TestHubLeave(t *testing.T) {
	hub := NewHub(testLogger())
	c := NewClient("u", nil, 1)
	hub.Register(c)
	hub.Join(c, "user_u")
	hub.Leave(c, "user_u")

	require.NoError(t, hub.Publish(context.Background(), "user_u", EventNewMessage, nil))
	assert.Empty(t, c.Outbound())
}
