package realtime

import "fmt"

// Fixed topics on the admin domain socket.
const (
	TopicAnnouncementsNew      = "/topic/announcements.new"
	TopicPollsNew              = "/topic/polls.new"
	TopicPollVotes             = "/topic/polls.votes"
	TopicAnnouncementReactions = "/topic/announcements.reactions"
	TopicAnnouncementsDeleted  = "/topic/announcements.deleted"
	TopicPollsDeleted          = "/topic/polls.deleted"
)

// Per-entity topics, (re)subscribed as the known entity set changes.

func AnnouncementLikesTopic(announcementID int64) string {
	return fmt.Sprintf("/topic/announcement.%d.likes", announcementID)
}

func AnnouncementCommentsTopic(announcementID int64) string {
	return fmt.Sprintf("/topic/announcement.%d.comments", announcementID)
}

// UserMeetingsTopic is the chat-domain topic carrying meeting invitations for
// one recipient.
func UserMeetingsTopic(userKey string) string {
	return fmt.Sprintf("/topic/user.%s.meetings", userKey)
}
