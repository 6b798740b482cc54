package models

import "time"

// Post is a piece of user content. ContentURL points at the uploaded media
// blob; LikeCount and CommentCount are denormalized counters kept in step
// with the likes and comments tables.
type Post struct {
	ID           int64     `json:"id"`
	AuthorID     int64     `json:"authorId"`
	ContentURL   string    `json:"content"`
	Description  string    `json:"desc"`
	LikeCount    int64     `json:"likeCounter"`
	CommentCount int64     `json:"commentCounter"`
	CreatedAt    time.Time `json:"createdAt"`
}
