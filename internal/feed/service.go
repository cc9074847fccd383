// Package feed holds the announcement and poll lists the dashboard renders:
// newest-first, split into sent and received views, kept current by REST
// refreshes and realtime broadcasts.
package feed

import (
	"context"
	"fmt"
	"sync"

	"workhub-agent/internal/interactions"
	"workhub-agent/internal/models"
	"workhub-agent/internal/notify"
	"workhub-agent/internal/rest"

	"github.com/sirupsen/logrus"
)

type Tab string

const (
	TabSent     Tab = "sent"
	TabReceived Tab = "received"
)

type Service struct {
	identity      models.Identity
	announcements *rest.AnnouncementsClient
	polls         *rest.PollsClient
	cache         *interactions.Cache
	notifier      *notify.Service
	log           *logrus.Entry

	mu       sync.RWMutex
	annList  []models.Announcement
	pollList []models.Poll
	onChange func()
}

func NewService(
	identity models.Identity,
	announcements *rest.AnnouncementsClient,
	polls *rest.PollsClient,
	cache *interactions.Cache,
	notifier *notify.Service,
	log *logrus.Entry,
) *Service {
	return &Service{
		identity:      identity,
		announcements: announcements,
		polls:         polls,
		cache:         cache,
		notifier:      notifier,
		log:           log,
	}
}

// Cache exposes the interaction cache backing this feed.
func (s *Service) Cache() *interactions.Cache {
	return s.cache
}

// SetOnChange registers the hook fired after every list change; the realtime
// wiring uses it to resync per-entity subscriptions.
func (s *Service) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Refresh replaces both lists from REST and reloads the interaction caches for
// the new visible set.
func (s *Service) Refresh(ctx context.Context) error {
	anns, err := s.announcements.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh announcements: %w", err)
	}
	polls, err := s.polls.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh polls: %w", err)
	}

	visible := anns[:0:0]
	for _, a := range anns {
		if a.VisibleTo(s.identity.Role) || s.identity.Owns(a.CreatedByName) {
			visible = append(visible, a)
		}
	}
	visiblePolls := polls[:0:0]
	for _, p := range polls {
		if p.VisibleTo(s.identity.Role) || s.identity.Owns(p.CreatedByName) {
			visiblePolls = append(visiblePolls, p)
		}
	}

	s.mu.Lock()
	s.annList = visible
	s.pollList = visiblePolls
	s.mu.Unlock()

	s.cache.LoadUserLikes(ctx, visible)
	s.cache.LoadLikeCounts(ctx, visible)
	s.cache.LoadComments(ctx, visible)
	s.cache.LoadVotes(ctx, visiblePolls)
	s.cache.LoadResults(ctx, visiblePolls)

	s.changed()
	return nil
}

func (s *Service) Announcements(tab Tab) []models.Announcement {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Announcement
	for _, a := range s.annList {
		mine := s.identity.Owns(a.CreatedByName)
		if (tab == TabSent && mine) || (tab == TabReceived && !mine) {
			out = append(out, a)
		}
	}
	return out
}

func (s *Service) Polls(tab Tab) []models.Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Poll
	for _, p := range s.pollList {
		mine := s.identity.Owns(p.CreatedByName)
		if (tab == TabSent && mine) || (tab == TabReceived && !mine) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) Announcement(id int64) (models.Announcement, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.annList {
		if a.ID == id {
			return a, true
		}
	}
	return models.Announcement{}, false
}

func (s *Service) Poll(id int64) (models.Poll, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.pollList {
		if p.ID == id {
			return p, true
		}
	}
	return models.Poll{}, false
}

func (s *Service) AnnouncementIDs() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]int64, 0, len(s.annList))
	for _, a := range s.annList {
		ids = append(ids, a.ID)
	}
	return ids
}

// CreateAnnouncement posts the new announcement and then re-fetches the full
// list to reconcile.
func (s *Service) CreateAnnouncement(ctx context.Context, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	created, err := s.announcements.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("post-create refresh failed")
	}
	return created, nil
}

func (s *Service) CreatePoll(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error) {
	created, err := s.polls.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("post-create refresh failed")
	}
	return created, nil
}

// DeleteAnnouncement runs the confirmed REST delete and purges locally. The
// deletion broadcast performs the same purge; both paths are idempotent.
func (s *Service) DeleteAnnouncement(ctx context.Context, id int64) error {
	if err := s.cache.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	s.ApplyAnnouncementDeleted(id)
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("post-delete refresh failed")
	}
	return nil
}

func (s *Service) DeletePoll(ctx context.Context, id int64) error {
	if err := s.cache.DeletePoll(ctx, id); err != nil {
		return err
	}
	s.ApplyPollDeleted(id)
	if err := s.Refresh(ctx); err != nil {
		s.log.WithError(err).Warn("post-delete refresh failed")
	}
	return nil
}

// ApplyAnnouncementCreated prepends a broadcast announcement if it is
// addressed to this user's role. Items we already know are ignored.
func (s *Service) ApplyAnnouncementCreated(a models.Announcement) {
	mine := s.identity.Owns(a.CreatedByName)
	if !a.VisibleTo(s.identity.Role) && !mine {
		return
	}

	s.mu.Lock()
	for _, known := range s.annList {
		if known.ID == a.ID {
			s.mu.Unlock()
			return
		}
	}
	s.annList = append([]models.Announcement{a}, s.annList...)
	s.mu.Unlock()

	if !mine {
		s.notifier.SendAnnouncementCreated(s.identity.Key(), a)
	}
	s.changed()
}

func (s *Service) ApplyPollCreated(p models.Poll) {
	mine := s.identity.Owns(p.CreatedByName)
	if !p.VisibleTo(s.identity.Role) && !mine {
		return
	}

	s.mu.Lock()
	for _, known := range s.pollList {
		if known.ID == p.ID {
			s.mu.Unlock()
			return
		}
	}
	s.pollList = append([]models.Poll{p}, s.pollList...)
	s.mu.Unlock()

	if !mine {
		s.notifier.SendPollCreated(s.identity.Key(), p)
	}
	s.changed()
}

// ApplyAnnouncementDeleted purges the id from every list and cache, whether or
// not this user caused the deletion.
func (s *Service) ApplyAnnouncementDeleted(id int64) {
	removed, wasMine := s.removeAnnouncement(id)
	s.cache.Forget(id)
	if !removed {
		return
	}
	if !wasMine {
		s.notifier.SendAnnouncementDeleted(s.identity.Key(), id)
	}
	s.changed()
}

func (s *Service) ApplyPollDeleted(id int64) {
	removed, wasMine := s.removePoll(id)
	s.cache.ForgetPoll(id)
	if !removed {
		return
	}
	if !wasMine {
		s.notifier.SendPollDeleted(s.identity.Key(), id)
	}
	s.changed()
}

// ApplyReaction records a reaction delta; reactions to this user's own
// announcements raise a notification.
func (s *Service) ApplyReaction(announcementID int64, userName, reaction string) {
	if s.identity.Owns(userName) {
		return
	}

	s.mu.RLock()
	ownsTarget := false
	for _, a := range s.annList {
		if a.ID == announcementID && s.identity.Owns(a.CreatedByName) {
			ownsTarget = true
			break
		}
	}
	s.mu.RUnlock()

	if ownsTarget {
		s.notifier.SendReaction(s.identity.Key(), models.ReactionData{
			AnnouncementID: announcementID,
			UserName:       userName,
			Reaction:       reaction,
		})
	}
}

func (s *Service) removeAnnouncement(id int64) (removed, wasMine bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.annList {
		if a.ID == id {
			wasMine = s.identity.Owns(a.CreatedByName)
			s.annList = append(s.annList[:i], s.annList[i+1:]...)
			return true, wasMine
		}
	}
	return false, false
}

func (s *Service) removePoll(id int64) (removed, wasMine bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pollList {
		if p.ID == id {
			wasMine = s.identity.Owns(p.CreatedByName)
			s.pollList = append(s.pollList[:i], s.pollList[i+1:]...)
			return true, wasMine
		}
	}
	return false, false
}

func (s *Service) changed() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
