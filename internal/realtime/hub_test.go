package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/Aazib-Ai/UOLink-App-sub006/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// newTestClient builds a client without a real connection; only the
// hub-facing side (send channel, identity) is exercised.
func newTestClient(hub *Hub, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:         hub,
		UserID:      userID,
		Username:    "user-" + userID,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		rateLimiter: newTokenBucket(10, 20),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func waitForDelivery(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message delivery")
		return nil
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()
	assert.NotNil(t, hub.clients)
	assert.NotNil(t, hub.allClients)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.unicast)
	assert.NotNil(t, hub.stats)
}

func TestTokenBucket(t *testing.T) {
	rl := newTokenBucket(5, 10)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, rl.allow(), "request 11 should be denied")

	time.Sleep(300 * time.Millisecond)
	assert.True(t, rl.allow(), "request after refill should be allowed")
}

func TestSendToUserDeliversToAllConnections(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(context.Background())

	// Two connections for the same user, one for another
	alice1 := newTestClient(hub, "alice")
	alice2 := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.Register(alice1)
	hub.Register(alice2)
	hub.Register(bob)

	// Wait for registration to land
	require.Eventually(t, func() bool {
		return hub.IsUserOnline("alice") && hub.IsUserOnline("bob")
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser("alice", NewMessage(MessageTypeNotification, NotificationPayload{
		ID:    "n1",
		Type:  "note_voted",
		Title: "Your note got an upvote",
	}))

	for _, c := range []*Client{alice1, alice2} {
		data := waitForDelivery(t, c.send)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeNotification, msg.Type)
	}

	// Bob gets nothing
	select {
	case <-bob.send:
		t.Fatal("message leaked to another user")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(context.Background())

	clients := []*Client{
		newTestClient(hub, "u1"),
		newTestClient(hub, "u2"),
		newTestClient(hub, "u3"),
	}
	for _, c := range clients {
		hub.Register(c)
	}
	require.Eventually(t, func() bool {
		return hub.OnlineUserCount() == 3
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast(NewMessage(MessageTypeNoteStatsUpdate, NoteStatsPayload{
		NoteID:    "note-1",
		VoteScore: 7,
	}))

	for _, c := range clients {
		data := waitForDelivery(t, c.send)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageTypeNoteStatsUpdate, msg.Type)
	}
}

func TestUnregisterRemovesUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(context.Background())

	client := newTestClient(hub, "carol")
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.IsUserOnline("carol")
	}, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return !hub.IsUserOnline("carol")
	}, time.Second, 10*time.Millisecond)

	// Send channel is closed after unregistration
	_, open := <-client.send
	assert.False(t, open)
}

func TestSnapshotCountsMessages(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown(context.Background())

	client := newTestClient(hub, "dave")
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.IsUserOnline("dave")
	}, time.Second, 10*time.Millisecond)

	hub.SendToUser("dave", NewMessage(MessageTypeAuraUpdate, AuraUpdatePayload{
		UserID:   "dave",
		Delta:    5,
		NewTotal: 42,
		Reason:   "note_upvoted",
	}))
	waitForDelivery(t, client.send)

	snap := hub.Snapshot()
	assert.Equal(t, int64(1), snap.TotalConnections)
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.GreaterOrEqual(t, snap.MessagesSent, int64(1))
}

func TestFlexibleTimeAcceptsBothFormats(t *testing.T) {
	var ft FlexibleTime
	require.NoError(t, json.Unmarshal([]byte(`1700000000000`), &ft))
	assert.Equal(t, int64(1700000000000), ft.UnixMilli())

	require.NoError(t, json.Unmarshal([]byte(`"2026-01-02T15:04:05Z"`), &ft))
	assert.Equal(t, 2026, ft.Year())

	assert.Error(t, json.Unmarshal([]byte(`true`), &ft))
}

func TestParsePayloadRoundTrip(t *testing.T) {
	msg := NewMessage(MessageTypeNoteModerated, NoteModeratedPayload{
		NoteID:  "note-9",
		Title:   "Linear Algebra Week 3",
		Outcome: "removed",
		Reason:  "reported content confirmed",
	})

	var payload NoteModeratedPayload
	require.NoError(t, msg.ParsePayload(&payload))
	assert.Equal(t, "note-9", payload.NoteID)
	assert.Equal(t, "removed", payload.Outcome)
}

func TestNewErrorMessage(t *testing.T) {
	msg := NewErrorMessage("rate_limited", "slow down")

	assert.Equal(t, MessageTypeError, msg.Type)
	payload, ok := msg.Payload.(ErrorPayload)
	require.True(t, ok)
	assert.Equal(t, "rate_limited", payload.Code)
}
