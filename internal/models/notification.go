// internal/models/notification.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notification types
const (
	NotificationTypeMeetingInvitation   = "MEETING_INVITATION"
	NotificationTypeAnnouncementCreated = "announcement-new"
	NotificationTypePollCreated         = "poll-new"
	NotificationTypeReaction            = "announcement-reaction"
	NotificationTypeAnnouncementDeleted = "announcement-deleted"
	NotificationTypePollDeleted         = "poll-deleted"
	NotificationTypeSystem              = "system"
)

// Notification is the envelope persisted in a recipient's inbox. Data holds the
// per-type payload and is decoded through the typed accessors below.
type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Read      bool            `json:"read"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type MeetingInvitationData struct {
	MeetingID     int64     `json:"meetingId"`
	OrganizerName string    `json:"organizerName"`
	StartsAt      time.Time `json:"startsAt"`
	JoinURL       string    `json:"joinUrl,omitempty"`
}

type AnnouncementData struct {
	AnnouncementID int64  `json:"announcementId"`
	TargetAudience string `json:"targetAudience,omitempty"`
	CreatedByName  string `json:"createdByName,omitempty"`
}

type PollData struct {
	PollID         int64  `json:"pollId"`
	TargetAudience string `json:"targetAudience,omitempty"`
	CreatedByName  string `json:"createdByName,omitempty"`
}

type ReactionData struct {
	AnnouncementID int64  `json:"announcementId"`
	UserName       string `json:"userName"`
	Reaction       string `json:"reaction"`
}

func (n *Notification) decodeData(expected string, out any) error {
	if n.Type != expected {
		return fmt.Errorf("notification type is %q, not %q", n.Type, expected)
	}
	if len(n.Data) == 0 {
		return fmt.Errorf("notification %s has no payload", n.ID)
	}
	return json.Unmarshal(n.Data, out)
}

func (n *Notification) MeetingInvitation() (*MeetingInvitationData, error) {
	var data MeetingInvitationData
	if err := n.decodeData(NotificationTypeMeetingInvitation, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (n *Notification) AnnouncementPayload() (*AnnouncementData, error) {
	var data AnnouncementData
	expected := NotificationTypeAnnouncementCreated
	if n.Type == NotificationTypeAnnouncementDeleted {
		expected = NotificationTypeAnnouncementDeleted
	}
	if err := n.decodeData(expected, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (n *Notification) PollPayload() (*PollData, error) {
	var data PollData
	expected := NotificationTypePollCreated
	if n.Type == NotificationTypePollDeleted {
		expected = NotificationTypePollDeleted
	}
	if err := n.decodeData(expected, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (n *Notification) ReactionPayload() (*ReactionData, error) {
	var data ReactionData
	if err := n.decodeData(NotificationTypeReaction, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MustData marshals a payload struct into the envelope's raw form. It panics
// only on unmarshalable values, which the typed payload structs above are not.
func MustData(payload any) json.RawMessage {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	return raw
}
