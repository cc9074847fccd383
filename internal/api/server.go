// Package api exposes the agent's state on a loopback HTTP listener so other
// local tooling can observe the inbox and drive dashboard actions.
package api

import (
	"context"
	"net/http"
	"time"

	"workhub-agent/internal/feed"
	"workhub-agent/internal/models"
	"workhub-agent/internal/notify"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SocketStates reports the current state of every realtime connection, keyed
// by domain name.
type SocketStates func() map[string]string

type Server struct {
	identity models.Identity
	notifier *notify.Service
	feed     *feed.Service
	sockets  SocketStates
	log      *logrus.Entry

	startedAt time.Time
	srv       *http.Server
}

func NewServer(
	listenAddr, env string,
	identity models.Identity,
	notifier *notify.Service,
	feedSvc *feed.Service,
	sockets SocketStates,
	log *logrus.Entry,
) *Server {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		identity:  identity,
		notifier:  notifier,
		feed:      feedSvc,
		sockets:   sockets,
		log:       log,
		startedAt: time.Now(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/notifications", s.listNotifications)
		v1.GET("/notifications/unread-count", s.unreadCount)
		v1.PUT("/notifications/:id/read", s.markRead)
		v1.DELETE("/notifications", s.clearNotifications)

		v1.GET("/feed/announcements", s.listAnnouncements)
		v1.POST("/feed/announcements", s.createAnnouncement)
		v1.DELETE("/feed/announcements/:id", s.deleteAnnouncement)
		v1.POST("/feed/announcements/:id/like", s.likeAnnouncement)
		v1.POST("/feed/announcements/:id/comments", s.commentAnnouncement)

		v1.GET("/feed/polls", s.listPolls)
		v1.POST("/feed/polls", s.createPoll)
		v1.DELETE("/feed/polls/:id", s.deletePoll)
		v1.POST("/feed/polls/:id/vote", s.votePoll)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	s.srv = &http.Server{
		Addr:           listenAddr,
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return s
}

// Run blocks serving the loopback API until Shutdown.
func (s *Server) Run() error {
	s.log.Infof("local API listening on http://%s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	states := map[string]string{}
	if s.sockets != nil {
		states = s.sockets()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
		"user":      s.identity.DisplayName,
		"sockets":   states,
	})
}
