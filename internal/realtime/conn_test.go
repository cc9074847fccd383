package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func TestTopicBuilders(t *testing.T) {
	assert.Equal(t, "/topic/announcement.42.likes", AnnouncementLikesTopic(42))
	assert.Equal(t, "/topic/announcement.42.comments", AnnouncementCommentsTopic(42))
	assert.Equal(t, "/topic/user.alice@corp.example.meetings", UserMeetingsTopic("alice@corp.example"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "disconnected", StateDisconnected.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "connected", StateConnected.String())
	assert.Equal(t, "deactivated", StateDeactivated.String())
	assert.Equal(t, "unknown", State(99).String())
}

func TestDecodeRoutesValidPayloads(t *testing.T) {
	var got LikeEvent
	h := Decode(testLog(), "t", func(e LikeEvent) { got = e })

	h([]byte(`{"announcementId": 7, "userName": "Bob", "liked": true, "likeCount": 3}`))
	assert.Equal(t, int64(7), got.AnnouncementID)
	assert.Equal(t, "Bob", got.UserName)
	assert.True(t, got.Liked)
	assert.Equal(t, 3, got.LikeCount)
}

func TestDecodeDropsMalformedPayloads(t *testing.T) {
	called := false
	h := Decode(testLog(), "t", func(e LikeEvent) { called = true })

	assert.NotPanics(t, func() { h([]byte("{broken")) })
	assert.False(t, called)
}

func TestWaitReadyHonorsContext(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Hour, nil, testLog())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.WaitReady(ctx), context.DeadlineExceeded)
}

func TestWaitReadyAfterDeactivate(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Millisecond, nil, testLog())
	c.Start()
	c.Deactivate()

	assert.Equal(t, StateDeactivated, c.State())
	assert.ErrorIs(t, c.WaitReady(context.Background()), ErrDeactivated)
}

func TestDeactivateIsTerminalAndIdempotent(t *testing.T) {
	// Nothing listens on this port, so the loop keeps retrying until told
	// to stop.
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Millisecond, nil, testLog())
	c.Start()

	time.Sleep(20 * time.Millisecond)
	require.NotEqual(t, StateDeactivated, c.State())

	c.Deactivate()
	assert.Equal(t, StateDeactivated, c.State())
	assert.NotPanics(t, c.Deactivate)
	assert.Equal(t, StateDeactivated, c.State())
}

func TestSubscribeBeforeConnectRegistersAndCancels(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Hour, nil, testLog())

	cancel := c.Subscribe("/topic/announcements.new", func([]byte) {})

	c.mu.Lock()
	_, registered := c.handlers["/topic/announcements.new"]
	c.mu.Unlock()
	assert.True(t, registered)

	cancel()
	assert.NotPanics(t, cancel)

	c.mu.Lock()
	_, registered = c.handlers["/topic/announcements.new"]
	c.mu.Unlock()
	assert.False(t, registered)
}

func TestAddPumpRefusesAfterDeactivate(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Millisecond, nil, testLog())

	require.True(t, c.addPump())
	c.wg.Done()

	c.Deactivate()
	assert.False(t, c.addPump(), "no pump may start once Deactivate began waiting")
}

func TestSubscribeAfterDeactivateOnlyRegisters(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Millisecond, nil, testLog())
	c.Start()
	c.Deactivate()

	cancel := c.Subscribe("/topic/announcements.new", func([]byte) {})
	assert.NotPanics(t, cancel)
}

func TestHandlerPanicIsContained(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Hour, nil, testLog())
	assert.NotPanics(t, func() {
		c.handle("t", func([]byte) { panic("boom") }, nil)
	})
}

func TestDialFailsWhenTokenUnavailable(t *testing.T) {
	c := NewConn("test", "ws://127.0.0.1:1/ws", time.Hour, func() (string, error) {
		return "", context.Canceled
	}, testLog())

	_, err := c.dial()
	assert.ErrorIs(t, err, context.Canceled)
}
