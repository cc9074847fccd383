// Package interactions maintains derived social state (like flags, like
// counts, comment lists, votes) for the visible set of announcements and
// polls, refreshed by batched REST loads and by realtime deltas.
package interactions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"workhub-agent/internal/models"
	"workhub-agent/internal/realtime"
	"workhub-agent/internal/rest"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfirmed is returned when the user declines a delete prompt.
var ErrNotConfirmed = errors.New("not confirmed")

// Confirmer asks the user a yes/no question before destructive actions.
type Confirmer func(prompt string) bool

type Cache struct {
	announcements *rest.AnnouncementsClient
	polls         *rest.PollsClient
	interactions  *rest.InteractionsClient
	identity      models.Identity
	confirm       Confirmer
	log           *logrus.Entry

	batchSize  int
	batchDelay time.Duration

	mu         sync.RWMutex
	liked      map[int64]bool
	likeCounts map[int64]int
	comments   map[int64][]models.Comment
	drafts     map[int64]string
	chosen     map[int64]string
	results    map[int64]models.PollResults
}

func NewCache(
	announcements *rest.AnnouncementsClient,
	polls *rest.PollsClient,
	interactionsClient *rest.InteractionsClient,
	identity models.Identity,
	confirm Confirmer,
	batchSize int,
	batchDelay time.Duration,
	log *logrus.Entry,
) *Cache {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Cache{
		announcements: announcements,
		polls:         polls,
		interactions:  interactionsClient,
		identity:      identity,
		confirm:       confirm,
		log:           log,
		batchSize:     batchSize,
		batchDelay:    batchDelay,
		liked:         make(map[int64]bool),
		likeCounts:    make(map[int64]int),
		comments:      make(map[int64][]models.Comment),
		drafts:        make(map[int64]string),
		chosen:        make(map[int64]string),
		results:       make(map[int64]models.PollResults),
	}
}

// inBatches runs fn for every index in bounded concurrent batches with a small
// inter-batch pause. fn must degrade its own item on failure; one bad item
// never aborts the batch.
func (c *Cache) inBatches(ctx context.Context, n int, fn func(ctx context.Context, i int)) {
	for start := 0; start < n; start += c.batchSize {
		end := start + c.batchSize
		if end > n {
			end = n
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				fn(gctx, i)
				return nil
			})
		}
		_ = g.Wait()

		if end < n {
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.batchDelay):
			}
		}
	}
}

// LoadUserLikes determines for each announcement whether the current user has
// a LIKE recorded. A failed item degrades to "not liked".
func (c *Cache) LoadUserLikes(ctx context.Context, announcements []models.Announcement) {
	c.inBatches(ctx, len(announcements), func(ctx context.Context, i int) {
		id := announcements[i].ID
		users, err := c.interactions.LikeUsers(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("announcement", id).Debug("like-users load failed")
			c.setLiked(id, false)
			return
		}
		liked := false
		for _, u := range users {
			if strings.EqualFold(u, c.identity.DisplayName) {
				liked = true
				break
			}
		}
		c.setLiked(id, liked)
	})
}

// LoadLikeCounts fetches per-announcement like totals; failures degrade to 0.
func (c *Cache) LoadLikeCounts(ctx context.Context, announcements []models.Announcement) {
	c.inBatches(ctx, len(announcements), func(ctx context.Context, i int) {
		id := announcements[i].ID
		count, err := c.interactions.LikeCount(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("announcement", id).Debug("like-count load failed")
			count = 0
		}
		c.setLikeCount(id, count)
	})
}

// LoadComments fetches per-announcement comment lists; failures degrade to an
// empty list.
func (c *Cache) LoadComments(ctx context.Context, announcements []models.Announcement) {
	c.inBatches(ctx, len(announcements), func(ctx context.Context, i int) {
		id := announcements[i].ID
		comments, err := c.interactions.Comments(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("announcement", id).Debug("comments load failed")
			comments = nil
		}
		c.setComments(id, comments)
	})
}

// LoadVotes records which polls the current user has already voted on, so the
// vote action can be hidden. Failures leave the poll unset.
func (c *Cache) LoadVotes(ctx context.Context, polls []models.Poll) {
	c.inBatches(ctx, len(polls), func(ctx context.Context, i int) {
		id := polls[i].ID
		votes, err := c.polls.Votes(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("poll", id).Debug("votes load failed")
			return
		}
		for _, v := range votes {
			if strings.EqualFold(v.VoterName, c.identity.DisplayName) {
				c.setChosen(id, v.SelectedOption)
				return
			}
		}
	})
}

// LoadResults fetches server-computed aggregates; failures degrade to zero.
func (c *Cache) LoadResults(ctx context.Context, polls []models.Poll) {
	c.inBatches(ctx, len(polls), func(ctx context.Context, i int) {
		id := polls[i].ID
		results, err := c.polls.Results(ctx, id)
		if err != nil {
			c.log.WithError(err).WithField("poll", id).Debug("results load failed")
			c.setResults(id, models.PollResults{})
			return
		}
		c.setResults(id, *results)
	})
}

// ToggleLike flips the like and adopts the server-reported state, then
// reconciles that announcement's count and flag with a targeted re-fetch.
func (c *Cache) ToggleLike(ctx context.Context, a models.Announcement) (bool, error) {
	resp, err := c.interactions.ToggleLike(ctx, models.LikeRequest{
		AnnouncementID: a.ID,
		UserName:       c.identity.DisplayName,
		Type:           models.InteractionTypeLike,
	})
	if err != nil {
		return false, err
	}

	c.setLiked(a.ID, resp.Liked)
	c.setLikeCount(a.ID, resp.LikeCount)

	// Server state wins over local optimism.
	if count, err := c.interactions.LikeCount(ctx, a.ID); err == nil {
		c.setLikeCount(a.ID, count)
	}
	return resp.Liked, nil
}

// Comment posts the text; blank or whitespace-only text is a silent no-op. On
// success the per-announcement draft is cleared and the comment list refreshed.
func (c *Cache) Comment(ctx context.Context, a models.Announcement, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	err := c.interactions.Comment(ctx, models.CommentRequest{
		AnnouncementID: a.ID,
		UserName:       c.identity.DisplayName,
		Content:        text,
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.drafts, a.ID)
	c.mu.Unlock()

	comments, err := c.interactions.Comments(ctx, a.ID)
	if err != nil {
		c.log.WithError(err).WithField("announcement", a.ID).Debug("comment refresh failed")
		return nil
	}
	c.setComments(a.ID, comments)
	return nil
}

// Vote casts the user's single vote; an empty option is a silent no-op. On
// success the choice is recorded locally (hiding the vote action) and the
// aggregate results are refreshed.
func (c *Cache) Vote(ctx context.Context, p models.Poll, option string) error {
	if option == "" {
		return nil
	}

	err := c.polls.Vote(ctx, models.VoteRequest{
		PollID:         p.ID,
		VoterName:      c.identity.DisplayName,
		SelectedOption: option,
	})
	if err != nil {
		return err
	}

	c.setChosen(p.ID, option)

	results, err := c.polls.Results(ctx, p.ID)
	if err != nil {
		c.log.WithError(err).WithField("poll", p.ID).Debug("results refresh failed")
		return nil
	}
	c.setResults(p.ID, *results)
	return nil
}

// DeleteAnnouncement asks for confirmation, issues the delete and purges local
// state. The realtime deletion broadcast converges to the same end state.
func (c *Cache) DeleteAnnouncement(ctx context.Context, id int64) error {
	if c.confirm != nil && !c.confirm("Delete this announcement?") {
		return ErrNotConfirmed
	}
	if err := c.announcements.Delete(ctx, id); err != nil {
		return err
	}
	c.Forget(id)
	return nil
}

func (c *Cache) DeletePoll(ctx context.Context, id int64) error {
	if c.confirm != nil && !c.confirm("Delete this poll?") {
		return ErrNotConfirmed
	}
	if err := c.polls.Delete(ctx, id); err != nil {
		return err
	}
	c.ForgetPoll(id)
	return nil
}

// Realtime delta entry points.

func (c *Cache) ApplyLikeEvent(e realtime.LikeEvent) {
	c.setLikeCount(e.AnnouncementID, e.LikeCount)
	if strings.EqualFold(e.UserName, c.identity.DisplayName) {
		c.setLiked(e.AnnouncementID, e.Liked)
	}
}

func (c *Cache) ApplyCommentEvent(e realtime.CommentEvent) {
	comment := models.Comment{
		AnnouncementID: e.AnnouncementID,
		UserName:       e.UserName,
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
	c.mu.Lock()
	list := append(c.comments[e.AnnouncementID], comment)
	models.SortCommentsNewestFirst(list)
	c.comments[e.AnnouncementID] = list
	c.mu.Unlock()
}

func (c *Cache) ApplyVoteEvent(e realtime.VoteEvent) {
	if e.Results != nil {
		c.setResults(e.PollID, *e.Results)
	}
	if strings.EqualFold(e.VoterName, c.identity.DisplayName) && e.SelectedOption != "" {
		c.setChosen(e.PollID, e.SelectedOption)
	}
}

// Forget purges every cached value keyed by the announcement id. Idempotent.
func (c *Cache) Forget(announcementID int64) {
	c.mu.Lock()
	delete(c.liked, announcementID)
	delete(c.likeCounts, announcementID)
	delete(c.comments, announcementID)
	delete(c.drafts, announcementID)
	c.mu.Unlock()
}

func (c *Cache) ForgetPoll(pollID int64) {
	c.mu.Lock()
	delete(c.chosen, pollID)
	delete(c.results, pollID)
	c.mu.Unlock()
}

// Accessors.

func (c *Cache) Liked(announcementID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.liked[announcementID]
}

func (c *Cache) LikeCount(announcementID int64) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.likeCounts[announcementID]
}

func (c *Cache) Comments(announcementID int64) []models.Comment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	list := c.comments[announcementID]
	out := make([]models.Comment, len(list))
	copy(out, list)
	return out
}

func (c *Cache) Draft(announcementID int64) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.drafts[announcementID]
}

func (c *Cache) SetDraft(announcementID int64, text string) {
	c.mu.Lock()
	c.drafts[announcementID] = text
	c.mu.Unlock()
}

// ChosenOption reports the user's recorded vote, if any.
func (c *Cache) ChosenOption(pollID int64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	option, ok := c.chosen[pollID]
	return option, ok
}

func (c *Cache) Results(pollID int64) models.PollResults {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.results[pollID]
}

func (c *Cache) setLiked(id int64, liked bool) {
	c.mu.Lock()
	c.liked[id] = liked
	c.mu.Unlock()
}

func (c *Cache) setLikeCount(id int64, count int) {
	c.mu.Lock()
	c.likeCounts[id] = count
	c.mu.Unlock()
}

func (c *Cache) setComments(id int64, comments []models.Comment) {
	c.mu.Lock()
	c.comments[id] = comments
	c.mu.Unlock()
}

func (c *Cache) setChosen(id int64, option string) {
	c.mu.Lock()
	c.chosen[id] = option
	c.mu.Unlock()
}

func (c *Cache) setResults(id int64, results models.PollResults) {
	c.mu.Lock()
	c.results[id] = results
	c.mu.Unlock()
}
