package feed

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"workhub-agent/internal/models"
	"workhub-agent/internal/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTopicConn records subscriptions and lets tests push payloads into them.
type fakeTopicConn struct {
	mu       sync.Mutex
	handlers map[string]realtime.Handler
	canceled []string
}

func newFakeTopicConn() *fakeTopicConn {
	return &fakeTopicConn{handlers: make(map[string]realtime.Handler)}
}

func (f *fakeTopicConn) Subscribe(topic string, h realtime.Handler) func() {
	f.mu.Lock()
	f.handlers[topic] = h
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		delete(f.handlers, topic)
		f.canceled = append(f.canceled, topic)
		f.mu.Unlock()
	}
}

func (f *fakeTopicConn) WaitReady(ctx context.Context) error { return ctx.Err() }

func (f *fakeTopicConn) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

func (f *fakeTopicConn) push(t *testing.T, topic string, payload any) {
	t.Helper()
	f.mu.Lock()
	h, ok := f.handlers[topic]
	f.mu.Unlock()
	require.True(t, ok, "no handler for %s", topic)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	h(raw)
}

func newBoundFeed(t *testing.T, backend *feedBackend) (*Service, *Binder, *fakeTopicConn) {
	t.Helper()
	svc, _ := newTestFeed(t, backend, hrIdentity())
	require.NoError(t, svc.Refresh(context.Background()))

	conn := newFakeTopicConn()
	binder := NewBinder(svc, conn, svc.log)
	require.NoError(t, binder.Bind(context.Background()))
	return svc, binder, conn
}

func TestBindSubscribesFixedTopics(t *testing.T) {
	_, _, conn := newBoundFeed(t, &feedBackend{})

	for _, topic := range []string{
		realtime.TopicAnnouncementsNew,
		realtime.TopicPollsNew,
		realtime.TopicAnnouncementsDeleted,
		realtime.TopicPollsDeleted,
		realtime.TopicPollVotes,
		realtime.TopicAnnouncementReactions,
	} {
		assert.True(t, conn.subscribed(topic), "missing subscription for %s", topic)
	}
}

func TestBindTracksPerAnnouncementTopics(t *testing.T) {
	backend := &feedBackend{
		announcements: []models.Announcement{
			{ID: 1, CreatedByName: "Bob", TargetAudience: models.AudienceAll},
		},
	}
	svc, _, conn := newBoundFeed(t, backend)

	assert.True(t, conn.subscribed(realtime.AnnouncementLikesTopic(1)))
	assert.True(t, conn.subscribed(realtime.AnnouncementCommentsTopic(1)))

	// A new announcement arriving over the wire gains its own topics.
	conn.push(t, realtime.TopicAnnouncementsNew, models.Announcement{
		ID: 2, CreatedByName: "Bob", TargetAudience: models.AudienceAll,
	})
	assert.True(t, conn.subscribed(realtime.AnnouncementLikesTopic(2)))
	assert.True(t, conn.subscribed(realtime.AnnouncementCommentsTopic(2)))

	// A deleted one loses them.
	conn.push(t, realtime.TopicAnnouncementsDeleted, realtime.DeletionEvent{ID: 1})
	assert.False(t, conn.subscribed(realtime.AnnouncementLikesTopic(1)))
	assert.False(t, conn.subscribed(realtime.AnnouncementCommentsTopic(1)))

	_, found := svc.Announcement(1)
	assert.False(t, found)
}

func TestPushedEventsReachTheCache(t *testing.T) {
	backend := &feedBackend{
		announcements: []models.Announcement{
			{ID: 1, CreatedByName: "Bob", TargetAudience: models.AudienceAll},
		},
	}
	svc, _, conn := newBoundFeed(t, backend)

	conn.push(t, realtime.AnnouncementLikesTopic(1), realtime.LikeEvent{
		AnnouncementID: 1, UserName: "Carol", Liked: true, LikeCount: 3,
	})
	assert.Equal(t, 3, svc.Cache().LikeCount(1))

	conn.push(t, realtime.TopicPollVotes, realtime.VoteEvent{
		PollID:  9,
		Results: &models.PollResults{TotalVotes: 2, OptionCounts: map[string]int{"yes": 2}},
	})
	assert.Equal(t, 2, svc.Cache().Results(9).TotalVotes)
}

func TestMalformedPayloadIsDropped(t *testing.T) {
	svc, _, conn := newBoundFeed(t, &feedBackend{})

	conn.mu.Lock()
	h := conn.handlers[realtime.TopicAnnouncementsNew]
	conn.mu.Unlock()

	assert.NotPanics(t, func() { h([]byte("{not json")) })
	assert.Empty(t, svc.Announcements(TabReceived))
}

func TestUnbindCancelsPerEntityTopics(t *testing.T) {
	backend := &feedBackend{
		announcements: []models.Announcement{
			{ID: 1, CreatedByName: "Bob", TargetAudience: models.AudienceAll},
		},
	}
	_, binder, conn := newBoundFeed(t, backend)

	binder.Unbind()
	assert.False(t, conn.subscribed(realtime.AnnouncementLikesTopic(1)))
	assert.False(t, conn.subscribed(realtime.AnnouncementCommentsTopic(1)))
	assert.True(t, conn.subscribed(realtime.TopicAnnouncementsNew), "fixed topics outlive Unbind")
}
