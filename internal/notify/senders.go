package notify

import (
	"fmt"

	"workhub-agent/internal/models"
)

// Typed senders build the per-type envelope so callers never assemble raw
// payloads by hand.

func (s *Service) SendMeetingInvitation(userID string, data models.MeetingInvitationData, meetingTitle string) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypeMeetingInvitation,
		Title:   fmt.Sprintf("Meeting Invitation: %s", meetingTitle),
		Message: fmt.Sprintf("%s invited you to a meeting", data.OrganizerName),
		Data:    models.MustData(data),
	})
}

func (s *Service) SendAnnouncementCreated(userID string, a models.Announcement) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypeAnnouncementCreated,
		Title:   "New Announcement",
		Message: fmt.Sprintf("%s: %s", a.CreatedByName, a.Title),
		Data: models.MustData(models.AnnouncementData{
			AnnouncementID: a.ID,
			TargetAudience: a.TargetAudience,
			CreatedByName:  a.CreatedByName,
		}),
	})
}

func (s *Service) SendPollCreated(userID string, p models.Poll) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypePollCreated,
		Title:   "New Poll",
		Message: fmt.Sprintf("%s asks: %s", p.CreatedByName, p.Question),
		Data: models.MustData(models.PollData{
			PollID:         p.ID,
			TargetAudience: p.TargetAudience,
			CreatedByName:  p.CreatedByName,
		}),
	})
}

func (s *Service) SendReaction(userID string, data models.ReactionData) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypeReaction,
		Title:   "New Reaction",
		Message: fmt.Sprintf("%s reacted to your announcement", data.UserName),
		Data:    models.MustData(data),
	})
}

func (s *Service) SendAnnouncementDeleted(userID string, announcementID int64) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypeAnnouncementDeleted,
		Title:   "Announcement Removed",
		Message: "An announcement you follow was removed",
		Data:    models.MustData(models.AnnouncementData{AnnouncementID: announcementID}),
	})
}

func (s *Service) SendPollDeleted(userID string, pollID int64) bool {
	return s.Send(userID, models.Notification{
		Type:    models.NotificationTypePollDeleted,
		Title:   "Poll Removed",
		Message: "A poll you follow was removed",
		Data:    models.MustData(models.PollData{PollID: pollID}),
	})
}
