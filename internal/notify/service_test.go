package notify

import (
	"errors"
	"testing"
	"time"

	"workhub-agent/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *Bus) {
	t.Helper()
	store, err := OpenInMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	bus := NewBus()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewService(store, bus, logrus.NewEntry(log)), bus
}

func TestSendNormalizesAndPrepends(t *testing.T) {
	svc, _ := newTestService(t)

	ok := svc.Send("2", models.Notification{
		Type:    models.NotificationTypeMeetingInvitation,
		Title:   "Meeting Invitation: Standup",
		Message: "Bob invited you to a meeting",
		Data:    models.MustData(models.MeetingInvitationData{MeetingID: 5, OrganizerName: "Bob"}),
	})
	require.True(t, ok)

	list := svc.Notifications("2")
	require.Len(t, list, 1)
	assert.Equal(t, "Meeting Invitation: Standup", list[0].Title)
	assert.NotEmpty(t, list[0].ID)
	assert.False(t, list[0].Timestamp.IsZero())
	assert.Equal(t, 1, svc.UnreadCount("2"))

	payload, err := list[0].MeetingInvitation()
	require.NoError(t, err)
	assert.Equal(t, int64(5), payload.MeetingID)
}

func TestSendInsertsAtHead(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Send("u", models.Notification{Title: "first"})
	svc.Send("u", models.Notification{Title: "second"})
	svc.Send("u", models.Notification{Title: "third"})

	list := svc.Notifications("u")
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Title)
	assert.Equal(t, "second", list[1].Title)
	assert.Equal(t, "first", list[2].Title)
}

func TestMulticastInvokesEverySubscriberOnce(t *testing.T) {
	svc, _ := newTestService(t)

	first, second := 0, 0
	svc.Subscribe("2", func(n *models.Notification, all []models.Notification) { first++ })
	svc.Subscribe("2", func(n *models.Notification, all []models.Notification) { second++ })
	svc.Subscribe("other", func(n *models.Notification, all []models.Notification) {
		t.Error("subscriber for another user must not fire")
	})

	svc.Send("2", models.Notification{Title: "hello"})

	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)

	kept := 0
	cancelled := 0
	svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { kept++ })
	cancel := svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { cancelled++ })

	cancel()
	assert.NotPanics(t, cancel)
	cancel()

	svc.Send("u", models.Notification{Title: "x"})
	assert.Equal(t, 1, kept, "remaining subscriber still fires")
	assert.Equal(t, 0, cancelled)
}

func TestNotificationPartitionPerUser(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Send("alice", models.Notification{Title: "for alice"})
	svc.Send("bob", models.Notification{Title: "for bob"})

	aliceList := svc.Notifications("alice")
	require.Len(t, aliceList, 1)
	assert.Equal(t, "for alice", aliceList[0].Title)

	bobList := svc.Notifications("bob")
	require.Len(t, bobList, 1)
	assert.Equal(t, "for bob", bobList[0].Title)

	assert.Empty(t, svc.Notifications("carol"))
}

func TestMarkRead(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Send("u", models.Notification{ID: "n1", Title: "x"})
	svc.Send("u", models.Notification{ID: "n2", Title: "y"})
	require.Equal(t, 2, svc.UnreadCount("u"))

	var delivered *models.Notification
	svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { delivered = n })

	assert.True(t, svc.MarkRead("u", "n1"))
	assert.Equal(t, 1, svc.UnreadCount("u"))
	require.NotNil(t, delivered)
	assert.Equal(t, "n1", delivered.ID)
	assert.True(t, delivered.Read)

	assert.False(t, svc.MarkRead("u", "missing"))
	assert.False(t, svc.MarkRead("nobody", "n1"))
}

func TestClearNotifiesWithNilAndEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	svc.Send("2", models.Notification{Title: "x"})

	called := false
	svc.Subscribe("2", func(n *models.Notification, all []models.Notification) {
		called = true
		assert.Nil(t, n)
		assert.Empty(t, all)
	})

	require.NoError(t, svc.Clear("2"))
	assert.True(t, called)
	assert.Empty(t, svc.Notifications("2"))
	assert.Equal(t, 0, svc.UnreadCount("2"))
}

func TestBusReceivesSignals(t *testing.T) {
	svc, bus := newTestService(t)

	var got []Signal
	cancel := bus.Subscribe(func(sig Signal) { got = append(got, sig) })
	defer cancel()

	svc.Send("u", models.Notification{Title: "x"})
	require.Len(t, got, 1)
	assert.Equal(t, "u", got[0].UserID)
	require.NotNil(t, got[0].Notification)
	assert.Equal(t, "x", got[0].Notification.Title)

	require.NoError(t, svc.Clear("u"))
	require.Len(t, got, 2)
	assert.Nil(t, got[1].Notification)
	assert.Empty(t, got[1].All)
}

// failingStore rejects writes to exercise the persistence-failure contract.
type failingStore struct {
	loads map[string][]models.Notification
}

func (f *failingStore) Load(userID string) ([]models.Notification, error) {
	return f.loads[userID], nil
}

func (f *failingStore) Save(string, []models.Notification) error {
	return errors.New("disk full")
}

func (f *failingStore) Delete(string) error { return errors.New("disk full") }
func (f *failingStore) Close() error        { return nil }

func TestSendReturnsFalseOnPersistenceFailure(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewService(&failingStore{}, NewBus(), logrus.NewEntry(log))

	notified := false
	svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { notified = true })

	ok := svc.Send("u", models.Notification{Title: "x"})
	assert.False(t, ok)
	assert.False(t, notified, "subscribers must not fire when persistence failed")
	assert.Empty(t, svc.Notifications("u"))
}

func TestPanickingSubscriberDoesNotBreakDelivery(t *testing.T) {
	svc, _ := newTestService(t)

	delivered := 0
	svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { panic("boom") })
	svc.Subscribe("u", func(n *models.Notification, all []models.Notification) { delivered++ })

	assert.NotPanics(t, func() {
		assert.True(t, svc.Send("u", models.Notification{Title: "x"}))
	})
	assert.Equal(t, 1, delivered)
}

func TestTypedSenders(t *testing.T) {
	svc, _ := newTestService(t)

	svc.SendAnnouncementCreated("u", models.Announcement{
		ID:             10,
		Title:          "Office move",
		TargetAudience: models.AudienceHR,
		CreatedByName:  "Bob",
		CreatedAt:      time.Now(),
	})

	list := svc.Notifications("u")
	require.Len(t, list, 1)
	assert.Equal(t, models.NotificationTypeAnnouncementCreated, list[0].Type)

	payload, err := list[0].AnnouncementPayload()
	require.NoError(t, err)
	assert.Equal(t, int64(10), payload.AnnouncementID)
	assert.Equal(t, models.AudienceHR, payload.TargetAudience)
}
