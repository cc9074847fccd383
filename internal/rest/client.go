// Package rest wraps the backend microservice APIs behind typed clients. Every
// request carries the bearer token and identity headers; a 401 anywhere is a
// global session failure that wipes credentials.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"workhub-agent/pkg/auth"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthorized = errors.New("session expired")
	ErrNotFound     = errors.New("not found")
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Client struct {
	http  *resty.Client
	creds *auth.CredentialStore
	log   *logrus.Entry

	expireOnce       sync.Once
	onSessionExpired func()
}

// NewClient builds the shared HTTP client. onSessionExpired is invoked at most
// once, after credentials have been wiped.
func NewClient(timeout time.Duration, creds *auth.CredentialStore, log *logrus.Entry, onSessionExpired func()) *Client {
	c := &Client{
		creds:            creds,
		log:              log,
		onSessionExpired: onSessionExpired,
	}

	h := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")

	h.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		token, err := creds.Token()
		if err != nil {
			return err
		}
		identity, err := creds.Identity()
		if err != nil {
			return err
		}
		r.SetHeader("Authorization", "Bearer "+token)
		r.SetHeader("X-User-Name", identity.DisplayName)
		if identity.Email != "" {
			r.SetHeader("X-User-Email", identity.Email)
		}
		return nil
	})

	h.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		if resp.StatusCode() == http.StatusUnauthorized {
			c.handleUnauthorized()
			return ErrUnauthorized
		}
		return nil
	})

	c.http = h
	return c
}

func (c *Client) handleUnauthorized() {
	c.expireOnce.Do(func() {
		c.log.Warn("received 401, wiping session credentials")
		if err := c.creds.Wipe(); err != nil {
			c.log.WithError(err).Error("failed to wipe credentials")
		}
		if c.onSessionExpired != nil {
			c.onSessionExpired()
		}
	})
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return err
	}
	if resp.IsSuccess() {
		return nil
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	return serverError(resp)
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	return c.do(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) post(ctx context.Context, url string, body, out any) error {
	return c.do(ctx, http.MethodPost, url, body, out)
}

func (c *Client) delete(ctx context.Context, url string) error {
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}

// serverError surfaces the server's error field when present, falling back to
// a generic status message.
func serverError(resp *resty.Response) error {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil {
		if apiErr.Error != "" {
			return errors.New(apiErr.Error)
		}
		if apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode())
}
