package feed

import (
	"context"
	"sync"

	"workhub-agent/internal/realtime"

	"github.com/sirupsen/logrus"
)

// TopicConn is the slice of realtime.Conn the feed needs; tests substitute a
// fake.
type TopicConn interface {
	Subscribe(topic string, h realtime.Handler) func()
	WaitReady(ctx context.Context) error
}

// Binder wires the feed and cache to the admin-domain socket: fixed topics
// once, per-entity like/comment topics resynced on every list change.
type Binder struct {
	svc  *Service
	conn TopicConn
	log  *logrus.Entry

	mu      sync.Mutex
	cancels map[int64][]func()
}

func NewBinder(svc *Service, conn TopicConn, log *logrus.Entry) *Binder {
	return &Binder{
		svc:     svc,
		conn:    conn,
		log:     log,
		cancels: make(map[int64][]func()),
	}
}

// Bind waits for the first connect, subscribes the fixed topics and installs
// the change hook that keeps per-entity subscriptions in step with the lists.
func (b *Binder) Bind(ctx context.Context) error {
	if err := b.conn.WaitReady(ctx); err != nil {
		return err
	}

	b.conn.Subscribe(realtime.TopicAnnouncementsNew,
		realtime.Decode(b.log, realtime.TopicAnnouncementsNew, b.svc.ApplyAnnouncementCreated))
	b.conn.Subscribe(realtime.TopicPollsNew,
		realtime.Decode(b.log, realtime.TopicPollsNew, b.svc.ApplyPollCreated))
	b.conn.Subscribe(realtime.TopicAnnouncementsDeleted,
		realtime.Decode(b.log, realtime.TopicAnnouncementsDeleted, func(e realtime.DeletionEvent) {
			b.svc.ApplyAnnouncementDeleted(e.ID)
		}))
	b.conn.Subscribe(realtime.TopicPollsDeleted,
		realtime.Decode(b.log, realtime.TopicPollsDeleted, func(e realtime.DeletionEvent) {
			b.svc.ApplyPollDeleted(e.ID)
		}))
	b.conn.Subscribe(realtime.TopicPollVotes,
		realtime.Decode(b.log, realtime.TopicPollVotes, b.svc.cache.ApplyVoteEvent))
	b.conn.Subscribe(realtime.TopicAnnouncementReactions,
		realtime.Decode(b.log, realtime.TopicAnnouncementReactions, func(e realtime.ReactionEvent) {
			b.svc.ApplyReaction(e.AnnouncementID, e.UserName, e.Reaction)
		}))

	b.svc.SetOnChange(b.syncEntityTopics)
	b.syncEntityTopics()
	return nil
}

// syncEntityTopics subscribes like/comment topics for announcements that
// entered the list and cancels those that left it.
func (b *Binder) syncEntityTopics() {
	current := make(map[int64]bool)
	for _, id := range b.svc.AnnouncementIDs() {
		current[id] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for id, cancels := range b.cancels {
		if !current[id] {
			for _, cancel := range cancels {
				cancel()
			}
			delete(b.cancels, id)
		}
	}

	for id := range current {
		if _, ok := b.cancels[id]; ok {
			continue
		}
		likeTopic := realtime.AnnouncementLikesTopic(id)
		commentTopic := realtime.AnnouncementCommentsTopic(id)
		b.cancels[id] = []func(){
			b.conn.Subscribe(likeTopic,
				realtime.Decode(b.log, likeTopic, b.svc.cache.ApplyLikeEvent)),
			b.conn.Subscribe(commentTopic,
				realtime.Decode(b.log, commentTopic, b.svc.cache.ApplyCommentEvent)),
		}
	}
}

// Unbind cancels every per-entity subscription; fixed topics die with the
// connection itself.
func (b *Binder) Unbind() {
	b.svc.SetOnChange(nil)

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, cancels := range b.cancels {
		for _, cancel := range cancels {
			cancel()
		}
		delete(b.cancels, id)
	}
}
