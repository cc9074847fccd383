package realtime

import (
	"encoding/json"
	"time"

	"workhub-agent/internal/models"

	"github.com/sirupsen/logrus"
)

// Wire payloads delivered on the STOMP topics. All fields are optional on the
// wire; handlers treat missing values as "refresh that entity instead".

type DeletionEvent struct {
	ID int64 `json:"id"`
}

type LikeEvent struct {
	AnnouncementID int64  `json:"announcementId"`
	UserName       string `json:"userName"`
	Liked          bool   `json:"liked"`
	LikeCount      int    `json:"likeCount"`
}

type CommentEvent struct {
	AnnouncementID int64     `json:"announcementId"`
	UserName       string    `json:"userName"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type VoteEvent struct {
	PollID         int64               `json:"pollId"`
	VoterName      string              `json:"voterName"`
	SelectedOption string              `json:"selectedOption"`
	Results        *models.PollResults `json:"results,omitempty"`
}

type ReactionEvent struct {
	AnnouncementID int64  `json:"announcementId"`
	UserName       string `json:"userName"`
	Reaction       string `json:"reaction"`
}

type MeetingInviteEvent struct {
	MeetingID     int64     `json:"meetingId"`
	Title         string    `json:"title"`
	OrganizerName string    `json:"organizerName"`
	StartsAt      time.Time `json:"startsAt"`
	JoinURL       string    `json:"joinUrl,omitempty"`
}

// Decode wraps a typed handler with defensive JSON parsing: a malformed
// payload is logged and dropped, the subscription stays live.
func Decode[T any](log *logrus.Entry, topic string, fn func(T)) Handler {
	return func(body []byte) {
		var event T
		if err := json.Unmarshal(body, &event); err != nil {
			log.WithError(err).WithField("topic", topic).Warn("dropping malformed payload")
			return
		}
		fn(event)
	}
}
