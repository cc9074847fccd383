// Package notify decouples "an event happened" from "who must react": it keeps
// one persisted inbox per recipient and multicasts changes to registered
// callbacks and to the signal bus.
package notify

import (
	"fmt"
	"sync"
	"time"

	"workhub-agent/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Callback receives the notification that changed (nil when the inbox was
// cleared) and the full list after the change. Callbacks run synchronously on
// the mutating goroutine and must be cheap.
type Callback func(n *models.Notification, all []models.Notification)

// Service is an explicitly constructed instance; there is no package-level
// registry, so tests can run several independent services.
type Service struct {
	store Store
	bus   *Bus
	log   *logrus.Entry

	mu      sync.RWMutex
	nextTok int
	subs    map[string]map[int]Callback
}

func NewService(store Store, bus *Bus, log *logrus.Entry) *Service {
	return &Service{
		store: store,
		bus:   bus,
		log:   log,
		subs:  make(map[string]map[int]Callback),
	}
}

// Subscribe registers a callback for a recipient. Multiple callbacks per
// recipient are allowed. The returned function deregisters exactly this
// callback and is a no-op after the first call.
func (s *Service) Subscribe(userID string, cb Callback) func() {
	s.mu.Lock()
	tok := s.nextTok
	s.nextTok++
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[int]Callback)
	}
	s.subs[userID][tok] = cb
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if cbs, ok := s.subs[userID]; ok {
			delete(cbs, tok)
			if len(cbs) == 0 {
				delete(s.subs, userID)
			}
		}
		s.mu.Unlock()
	}
}

// Send normalizes the notification, prepends it to the recipient's persisted
// inbox and notifies every interested party. Returns false with state
// unchanged when persistence fails; it never panics outward.
func (s *Service) Send(userID string, n models.Notification) bool {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	list, err := s.store.Load(userID)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Error("cannot load inbox, dropping notification")
		return false
	}

	updated := make([]models.Notification, 0, len(list)+1)
	updated = append(updated, n)
	updated = append(updated, list...)

	if err := s.store.Save(userID, updated); err != nil {
		s.log.WithError(err).WithField("user", userID).Error("cannot persist inbox, dropping notification")
		return false
	}

	s.deliver(userID, &n, updated)
	return true
}

// Notifications returns the persisted inbox, most-recent-first. Never mutates
// stored state; read failures degrade to an empty list.
func (s *Service) Notifications(userID string) []models.Notification {
	list, err := s.store.Load(userID)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Error("cannot load inbox")
		return []models.Notification{}
	}
	if list == nil {
		return []models.Notification{}
	}
	return list
}

// MarkRead flips the read flag on one notification. Returns false when the id
// is not found or the updated inbox cannot be persisted.
func (s *Service) MarkRead(userID, notificationID string) bool {
	list, err := s.store.Load(userID)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Error("cannot load inbox")
		return false
	}

	idx := -1
	for i := range list {
		if list[i].ID == notificationID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	list[idx].Read = true
	if err := s.store.Save(userID, list); err != nil {
		s.log.WithError(err).WithField("user", userID).Error("cannot persist inbox")
		return false
	}

	s.deliver(userID, &list[idx], list)
	return true
}

// Clear removes the recipient's entire inbox and notifies subscribers with
// (nil, empty).
func (s *Service) Clear(userID string) error {
	if err := s.store.Delete(userID); err != nil {
		return fmt.Errorf("clear inbox for %s: %w", userID, err)
	}
	s.deliver(userID, nil, []models.Notification{})
	return nil
}

func (s *Service) UnreadCount(userID string) int {
	count := 0
	for _, n := range s.Notifications(userID) {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *Service) deliver(userID string, n *models.Notification, all []models.Notification) {
	s.mu.RLock()
	callbacks := make([]Callback, 0, len(s.subs[userID]))
	for _, cb := range s.subs[userID] {
		callbacks = append(callbacks, cb)
	}
	s.mu.RUnlock()

	for _, cb := range callbacks {
		s.safeInvoke(cb, n, all)
	}

	s.bus.Publish(Signal{UserID: userID, Notification: n, All: all})
}

// safeInvoke keeps one misbehaving subscriber from taking down delivery.
func (s *Service) safeInvoke(cb Callback, n *models.Notification, all []models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("notification subscriber panicked: %v", r)
		}
	}()
	cb(n, all)
}
