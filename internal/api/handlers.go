package api

import (
	"errors"
	"net/http"
	"strconv"

	"workhub-agent/internal/feed"
	"workhub-agent/internal/interactions"
	"workhub-agent/internal/models"

	"github.com/gin-gonic/gin"
)

func (s *Server) listNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"notifications": s.notifier.Notifications(s.identity.Key()),
	})
}

func (s *Server) unreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count": s.notifier.UnreadCount(s.identity.Key()),
	})
}

func (s *Server) markRead(c *gin.Context) {
	if !s.notifier.MarkRead(s.identity.Key(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) clearNotifications(c *gin.Context) {
	if err := s.notifier.Clear(s.identity.Key()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// announcementView bundles an announcement with its cached social state.
type announcementView struct {
	models.Announcement
	Liked     bool             `json:"liked"`
	LikeCount int              `json:"likeCount"`
	Comments  []models.Comment `json:"comments"`
}

func (s *Server) listAnnouncements(c *gin.Context) {
	tab, ok := parseTab(c.DefaultQuery("tab", string(feed.TabReceived)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tab must be sent or received"})
		return
	}

	cache := s.feed.Cache()
	announcements := s.feed.Announcements(tab)
	views := make([]announcementView, 0, len(announcements))
	for _, a := range announcements {
		views = append(views, announcementView{
			Announcement: a,
			Liked:        cache.Liked(a.ID),
			LikeCount:    cache.LikeCount(a.ID),
			Comments:     cache.Comments(a.ID),
		})
	}
	c.JSON(http.StatusOK, gin.H{"announcements": views})
}

func (s *Server) createAnnouncement(c *gin.Context) {
	var req models.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.feed.CreateAnnouncement(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deleteAnnouncement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.feed.DeleteAnnouncement(c.Request.Context(), id); err != nil {
		if errors.Is(err, interactions.ErrNotConfirmed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Deletion was not confirmed"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) likeAnnouncement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, found := s.feed.Announcement(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}
	liked, err := s.feed.Cache().ToggleLike(c.Request.Context(), a)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"liked":     liked,
		"likeCount": s.feed.Cache().LikeCount(id),
	})
}

func (s *Server) commentAnnouncement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	a, found := s.feed.Announcement(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Announcement not found"})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.feed.Cache().Comment(c.Request.Context(), a, req.Content); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": s.feed.Cache().Comments(id)})
}

// pollView bundles a poll with the user's vote state and the aggregate.
type pollView struct {
	models.Poll
	HasVoted     bool               `json:"hasVoted"`
	ChosenOption string             `json:"chosenOption,omitempty"`
	Results      models.PollResults `json:"results"`
}

func (s *Server) listPolls(c *gin.Context) {
	tab, ok := parseTab(c.DefaultQuery("tab", string(feed.TabReceived)))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tab must be sent or received"})
		return
	}

	cache := s.feed.Cache()
	polls := s.feed.Polls(tab)
	views := make([]pollView, 0, len(polls))
	for _, p := range polls {
		option, voted := cache.ChosenOption(p.ID)
		views = append(views, pollView{
			Poll:         p,
			HasVoted:     voted,
			ChosenOption: option,
			Results:      cache.Results(p.ID),
		})
	}
	c.JSON(http.StatusOK, gin.H{"polls": views})
}

func (s *Server) createPoll(c *gin.Context) {
	var req models.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	created, err := s.feed.CreatePoll(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) deletePoll(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.feed.DeletePoll(c.Request.Context(), id); err != nil {
		if errors.Is(err, interactions.ErrNotConfirmed) {
			c.JSON(http.StatusConflict, gin.H{"error": "Deletion was not confirmed"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) votePoll(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, found := s.feed.Poll(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}

	var req struct {
		Option string `json:"option" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !p.HasOption(req.Option) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown poll option"})
		return
	}
	if err := s.feed.Cache().Vote(c.Request.Context(), p, req.Option); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": s.feed.Cache().Results(id)})
}

func parseTab(raw string) (feed.Tab, bool) {
	switch feed.Tab(raw) {
	case feed.TabSent:
		return feed.TabSent, true
	case feed.TabReceived:
		return feed.TabReceived, true
	}
	return "", false
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}
