// internal/models/interaction.go
package models

import (
	"sort"
	"strings"
	"time"
)

// Interaction types
const (
	InteractionTypeLike    = "LIKE"
	InteractionTypeComment = "COMMENT"
)

type Interaction struct {
	ID             int64     `json:"id"`
	AnnouncementID int64     `json:"announcementId"`
	UserName       string    `json:"userName"`
	Type           string    `json:"type"`
	Content        string    `json:"content,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

type Comment struct {
	AnnouncementID int64     `json:"announcementId"`
	UserName       string    `json:"userName"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

type LikeRequest struct {
	AnnouncementID int64  `json:"announcementId" validate:"required"`
	UserName       string `json:"userName" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=LIKE"`
}

type CommentRequest struct {
	AnnouncementID int64  `json:"announcementId" validate:"required"`
	UserName       string `json:"userName" validate:"required"`
	Content        string `json:"content" validate:"required,max=2000"`
}

// LikeResponse carries the server-reported toggle outcome, which is ground truth.
type LikeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}

type LikeCount struct {
	AnnouncementID int64 `json:"announcementId"`
	Count          int   `json:"count"`
}

func (c *Comment) IsBlank() bool {
	return strings.TrimSpace(c.Content) == ""
}

// SortCommentsNewestFirst orders comments by recency for rendering.
func SortCommentsNewestFirst(comments []Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
}
