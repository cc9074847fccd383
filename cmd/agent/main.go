// cmd/agent/main.go - WorkHub desk agent
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"workhub-agent/internal/api"
	"workhub-agent/internal/config"
	"workhub-agent/internal/feed"
	"workhub-agent/internal/interactions"
	"workhub-agent/internal/models"
	"workhub-agent/internal/notify"
	"workhub-agent/internal/realtime"
	"workhub-agent/internal/rest"
	"workhub-agent/pkg/auth"

	"github.com/sirupsen/logrus"
)

var (
	appVersion = "1.0.0"
	buildTime  = "unknown"
	gitCommit  = "unknown"
)

func main() {
	cfg := config.Load()
	log := setupLogging(cfg)

	printStartupInfo(log, cfg)

	// Session credentials: without them the agent cannot sign a single request.
	creds := auth.NewCredentialStore(cfg.CredentialsFile)
	if err := creds.Load(); err != nil {
		if errors.Is(err, auth.ErrNoSession) {
			log.Fatalf("no session found at %s, sign in from the dashboard first", cfg.CredentialsFile)
		}
		log.Fatalf("failed to load credentials: %v", err)
	}
	identity, err := creds.Identity()
	if err != nil {
		log.Fatalf("failed to read identity: %v", err)
	}
	log.Infof("signed in as %s (%s)", identity.DisplayName, identity.Key())

	if expiresAt, err := creds.TokenExpiresAt(); err == nil {
		if time.Now().After(expiresAt) {
			log.Warn("session token is already expired, expect a forced sign-out")
		} else {
			log.Debugf("session token valid until %s", expiresAt.Format(time.RFC3339))
		}
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		log.Fatalf("failed to create data dir: %v", err)
	}

	store, err := notify.OpenBadgerStore(cfg.DataDir + "/notifications")
	if err != nil {
		log.Fatalf("failed to open notification store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warnf("error closing notification store: %v", err)
		}
	}()

	bus := notify.NewBus()
	notifier := notify.NewService(store, bus, log.WithField("component", "notify"))

	// Session expiry is global: any 401 wipes credentials and stops the agent.
	sessionExpired := make(chan struct{})
	restClient := rest.NewClient(cfg.RequestTimeout, creds, log.WithField("component", "rest"), func() {
		close(sessionExpired)
	})

	announcementsClient := rest.NewAnnouncementsClient(restClient, cfg.CommunityServiceURL)
	pollsClient := rest.NewPollsClient(restClient, cfg.CommunityServiceURL)
	interactionsClient := rest.NewInteractionsClient(restClient, cfg.CommunityServiceURL)

	cache := interactions.NewCache(
		announcementsClient,
		pollsClient,
		interactionsClient,
		identity,
		confirmFromStdin,
		cfg.BatchSize,
		cfg.BatchDelay,
		log.WithField("component", "interactions"),
	)

	feedSvc := feed.NewService(
		identity,
		announcementsClient,
		pollsClient,
		cache,
		notifier,
		log.WithField("component", "feed"),
	)

	// One socket per backend domain, reconnecting forever on a fixed delay.
	adminConn, chatConn := newDomainConns(cfg, creds.Token, log)
	adminConn.Start()
	chatConn.Start()

	meetingsTopic := realtime.UserMeetingsTopic(identity.Key())
	chatConn.Subscribe(meetingsTopic, realtime.Decode(log.WithField("socket", "chat"), meetingsTopic,
		func(e realtime.MeetingInviteEvent) {
			notifier.SendMeetingInvitation(identity.Key(), models.MeetingInvitationData{
				MeetingID:     e.MeetingID,
				OrganizerName: e.OrganizerName,
				StartsAt:      e.StartsAt,
				JoinURL:       e.JoinURL,
			}, e.Title)
		}))

	cancelBusLog := bus.Subscribe(func(sig notify.Signal) {
		if sig.Notification != nil {
			log.Debugf("inbox changed for %s: %s", sig.UserID, sig.Notification.Title)
		}
	})
	defer cancelBusLog()

	binder := feed.NewBinder(feedSvc, adminConn, log.WithField("component", "binder"))
	go func() {
		// Subscribe before the first fetch so no broadcast lands in the gap.
		if err := binder.Bind(context.Background()); err != nil {
			log.Warnf("realtime bind aborted: %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout)
		defer cancel()
		if err := feedSvc.Refresh(ctx); err != nil {
			log.Warnf("initial feed refresh failed: %v", err)
		}
	}()

	apiServer := api.NewServer(cfg.ListenAddr, cfg.Env, identity, notifier, feedSvc,
		func() map[string]string {
			return map[string]string{
				"admin": adminConn.State().String(),
				"chat":  chatConn.State().String(),
			}
		},
		log.WithField("component", "api"),
	)
	go func() {
		if err := apiServer.Run(); err != nil {
			log.Errorf("local API stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down")
	case <-sessionExpired:
		log.Warn("session expired, shutting down; sign in again from the dashboard")
	}

	binder.Unbind()
	adminConn.Deactivate()
	chatConn.Deactivate()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Warnf("local API forced shutdown: %v", err)
	}

	log.Info("agent stopped")
}

func setupLogging(cfg *config.Config) *logrus.Logger {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// newDomainConns builds one managed realtime connection per backend domain.
func newDomainConns(cfg *config.Config, token realtime.TokenFunc, log *logrus.Logger) (admin, chat *realtime.Conn) {
	entry := log.WithField("component", "realtime")
	admin = realtime.NewConn("admin", cfg.AdminSocketURL, cfg.ReconnectDelay, token, entry)
	chat = realtime.NewConn("chat", cfg.ChatSocketURL, cfg.ReconnectDelay, token, entry)
	return admin, chat
}

func printStartupInfo(log *logrus.Logger, cfg *config.Config) {
	log.Infof("WorkHub desk agent v%s (build %s, commit %s)", appVersion, buildTime, gitCommit)
	log.Infof("environment: %s", cfg.Env)
	log.Infof("community service: %s", cfg.CommunityServiceURL)
	log.Infof("admin socket: %s | chat socket: %s", cfg.AdminSocketURL, cfg.ChatSocketURL)
	log.Infof("local API: http://%s", cfg.ListenAddr)
}

// confirmFromStdin is the agent's blocking yes/no prompt for deletes issued
// through the local API.
func confirmFromStdin(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
