package models

import "time"

const MaxCommentLength = 1000

type Comment struct {
	ID           string       `json:"id"`
	ProductID    string       `json:"productId"`
	AuthorID     string       `json:"authorId"`
	Author       *UserSummary `json:"author,omitempty"`
	ParentID     *string      `json:"parentComment"`
	Content      string       `json:"content"`
	LikeCount    int          `json:"likeCount"`
	IsEdited     bool         `json:"isEdited"`
	IsHidden     bool         `json:"isHidden"`
	LastEditedAt *time.Time   `json:"lastEditedAt,omitempty"`
	Replies      []Comment    `json:"replies,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IsReply reports whether the comment answers another comment.
func (c Comment) IsReply() bool {
	return c.ParentID != nil
}
