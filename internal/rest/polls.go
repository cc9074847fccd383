package rest

import (
	"context"
	"fmt"

	"workhub-agent/internal/models"
)

type PollsClient struct {
	client *Client
	base   string
}

func NewPollsClient(client *Client, baseURL string) *PollsClient {
	return &PollsClient{client: client, base: baseURL}
}

func (p *PollsClient) List(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	if err := p.client.get(ctx, p.base+"/api/polls", &polls); err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	return polls, nil
}

func (p *PollsClient) ListByAudience(ctx context.Context, audience string) ([]models.Poll, error) {
	var polls []models.Poll
	url := fmt.Sprintf("%s/api/polls/target/%s", p.base, audience)
	if err := p.client.get(ctx, url, &polls); err != nil {
		return nil, fmt.Errorf("list polls for %s: %w", audience, err)
	}
	return polls, nil
}

func (p *PollsClient) Create(ctx context.Context, req models.CreatePollRequest) (*models.Poll, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	var created models.Poll
	if err := p.client.post(ctx, p.base+"/api/polls", req, &created); err != nil {
		return nil, fmt.Errorf("create poll: %w", err)
	}
	return &created, nil
}

func (p *PollsClient) Delete(ctx context.Context, id int64) error {
	url := fmt.Sprintf("%s/api/polls/%d", p.base, id)
	if err := p.client.delete(ctx, url); err != nil {
		return fmt.Errorf("delete poll %d: %w", id, err)
	}
	return nil
}

// Results fetches the server-computed aggregate; vote counts are never derived
// locally from raw votes.
func (p *PollsClient) Results(ctx context.Context, id int64) (*models.PollResults, error) {
	var results models.PollResults
	url := fmt.Sprintf("%s/api/interactions/poll/%d/results", p.base, id)
	if err := p.client.get(ctx, url, &results); err != nil {
		return nil, fmt.Errorf("poll %d results: %w", id, err)
	}
	return &results, nil
}

func (p *PollsClient) Votes(ctx context.Context, id int64) ([]models.Vote, error) {
	var votes []models.Vote
	url := fmt.Sprintf("%s/api/interactions/poll/%d/votes", p.base, id)
	if err := p.client.get(ctx, url, &votes); err != nil {
		return nil, fmt.Errorf("poll %d votes: %w", id, err)
	}
	return votes, nil
}

func (p *PollsClient) Vote(ctx context.Context, req models.VoteRequest) error {
	if err := models.Validate(req); err != nil {
		return err
	}
	if err := p.client.post(ctx, p.base+"/api/interactions/poll/vote", req, nil); err != nil {
		return fmt.Errorf("vote on poll %d: %w", req.PollID, err)
	}
	return nil
}
