package rest

import (
	"context"
	"errors"
	"fmt"

	"workhub-agent/internal/models"
)

type InteractionsClient struct {
	client *Client
	base   string
}

func NewInteractionsClient(client *Client, baseURL string) *InteractionsClient {
	return &InteractionsClient{client: client, base: baseURL}
}

// Interactions returns all likes and comments recorded for an announcement.
func (i *InteractionsClient) Interactions(ctx context.Context, announcementID int64) ([]models.Interaction, error) {
	var interactions []models.Interaction
	url := fmt.Sprintf("%s/api/interactions/announcement/%d/interactions", i.base, announcementID)
	if err := i.client.get(ctx, url, &interactions); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("announcement %d interactions: %w", announcementID, err)
	}
	return interactions, nil
}

func (i *InteractionsClient) Comments(ctx context.Context, announcementID int64) ([]models.Comment, error) {
	interactions, err := i.Interactions(ctx, announcementID)
	if err != nil {
		return nil, err
	}
	var comments []models.Comment
	for _, in := range interactions {
		if in.Type != models.InteractionTypeComment {
			continue
		}
		comments = append(comments, models.Comment{
			AnnouncementID: in.AnnouncementID,
			UserName:       in.UserName,
			Content:        in.Content,
			CreatedAt:      in.CreatedAt,
		})
	}
	models.SortCommentsNewestFirst(comments)
	return comments, nil
}

func (i *InteractionsClient) LikeCount(ctx context.Context, announcementID int64) (int, error) {
	var count models.LikeCount
	url := fmt.Sprintf("%s/api/interactions/announcement/%d/likes/count", i.base, announcementID)
	if err := i.client.get(ctx, url, &count); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("announcement %d like count: %w", announcementID, err)
	}
	return count.Count, nil
}

func (i *InteractionsClient) LikeUsers(ctx context.Context, announcementID int64) ([]string, error) {
	var users []string
	url := fmt.Sprintf("%s/api/interactions/announcement/%d/likes/users", i.base, announcementID)
	if err := i.client.get(ctx, url, &users); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("announcement %d like users: %w", announcementID, err)
	}
	return users, nil
}

// ToggleLike flips the like state server-side; the response is ground truth.
func (i *InteractionsClient) ToggleLike(ctx context.Context, req models.LikeRequest) (*models.LikeResponse, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	var result models.LikeResponse
	if err := i.client.post(ctx, i.base+"/api/interactions/announcement/like", req, &result); err != nil {
		return nil, fmt.Errorf("toggle like on announcement %d: %w", req.AnnouncementID, err)
	}
	return &result, nil
}

func (i *InteractionsClient) Comment(ctx context.Context, req models.CommentRequest) error {
	if err := models.Validate(req); err != nil {
		return err
	}
	if err := i.client.post(ctx, i.base+"/api/interactions/announcement/comment", req, nil); err != nil {
		return fmt.Errorf("comment on announcement %d: %w", req.AnnouncementID, err)
	}
	return nil
}
