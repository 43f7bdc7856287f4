package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	a1, err := hub.Register("a", nil)
	require.NoError(t, err)
	a2, err := hub.Register("a", nil)
	require.NoError(t, err)
	b, err := hub.Register("b", nil)
	require.NoError(t, err)

	assert.Equal(t, 2, hub.Broadcast("a", []byte("hello")))
	assert.Equal(t, "hello", string(<-a1.Send))
	assert.Equal(t, "hello", string(<-a2.Send))
	assert.Empty(t, b.Send)

	assert.Zero(t, hub.Broadcast("nobody", []byte("x")))
}

func TestHub_UnregisterClosesSendOnce(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("a", nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c)

	_, open := <-c.Send
	assert.False(t, open)
	assert.Zero(t, hub.ConnectionCount("a"))
	assert.False(t, c.TrySend([]byte("late")), "sending to a closed client is dropped")
}

func TestHub_PerUserLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register("a", nil)
		require.NoError(t, err)
	}

	_, err := hub.Register("a", nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register("b", nil)
	assert.NoError(t, err, "other users are unaffected")
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("a", nil)
	require.NoError(t, err)

	require.NoError(t, hub.Shutdown(context.Background()))
	require.NoError(t, hub.Shutdown(context.Background()))

	_, open := <-c.Send
	assert.False(t, open)

	_, err = hub.Register("a", nil)
	assert.ErrorIs(t, err, ErrHubClosed)

	hub.UnregisterClient(c)
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register("a", nil)
	require.NoError(t, err)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, c.TrySend([]byte("x")))
	}
	assert.False(t, c.TrySend([]byte("overflow")))
	assert.Len(t, c.Send, sendBufferSize)
}

func TestHub_StartWiringForwardsUserEvents(t *testing.T) {
	rdb := newTestRedis(t)
	n := NewNotifier(rdb)
	hub := NewHub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, n))

	c, err := hub.Register("u7", nil)
	require.NoError(t, err)
	other, err := hub.Register("u8", nil)
	require.NoError(t, err)

	require.NoError(t, n.PublishUserEvent(ctx, "u7", "friend.added", map[string]string{"friendId": "u8"}))

	select {
	case msg := <-c.Send:
		assert.Contains(t, string(msg), `"type":"friend.added"`)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("event was not forwarded")
	}
	assert.Empty(t, other.Send)
}
