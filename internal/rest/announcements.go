package rest

import (
	"context"
	"fmt"

	"workhub-agent/internal/models"
)

type AnnouncementsClient struct {
	client *Client
	base   string
}

func NewAnnouncementsClient(client *Client, baseURL string) *AnnouncementsClient {
	return &AnnouncementsClient{client: client, base: baseURL}
}

func (a *AnnouncementsClient) List(ctx context.Context) ([]models.Announcement, error) {
	var announcements []models.Announcement
	if err := a.client.get(ctx, a.base+"/api/announcements", &announcements); err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return announcements, nil
}

func (a *AnnouncementsClient) ListByAudience(ctx context.Context, audience string) ([]models.Announcement, error) {
	var announcements []models.Announcement
	url := fmt.Sprintf("%s/api/announcements/target/%s", a.base, audience)
	if err := a.client.get(ctx, url, &announcements); err != nil {
		return nil, fmt.Errorf("list announcements for %s: %w", audience, err)
	}
	return announcements, nil
}

func (a *AnnouncementsClient) Create(ctx context.Context, req models.CreateAnnouncementRequest) (*models.Announcement, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	var created models.Announcement
	if err := a.client.post(ctx, a.base+"/api/announcements", req, &created); err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return &created, nil
}

func (a *AnnouncementsClient) Delete(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/api/announcements/%d", a.base, id)
	if err := a.client.delete(ctx, url); err != nil {
		return fmt.Errorf("delete announcement %d: %w", id, err)
	}
	return nil
}
