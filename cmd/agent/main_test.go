package main

import (
	"testing"
	"time"

	"workhub-agent/internal/config"
	"workhub-agent/internal/realtime"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLogging(t *testing.T) {
	log := setupLogging(&config.Config{LogLevel: "debug", LogFormat: "json"})
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)

	log = setupLogging(&config.Config{LogLevel: "nonsense", LogFormat: "text"})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel(), "unknown level falls back to info")
	_, ok = log.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestNewDomainConns(t *testing.T) {
	cfg := &config.Config{
		AdminSocketURL: "ws://localhost:8085/ws",
		ChatSocketURL:  "ws://localhost:8084/ws",
		ReconnectDelay: time.Second,
	}
	log := setupLogging(&config.Config{LogLevel: "panic", LogFormat: "text"})

	admin, chat := newDomainConns(cfg, nil, log)
	require.NotNil(t, admin)
	require.NotNil(t, chat)
	assert.Equal(t, realtime.StateDisconnected, admin.State())
	assert.Equal(t, realtime.StateDisconnected, chat.State())

	admin.Deactivate()
	chat.Deactivate()
}
