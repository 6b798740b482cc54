package models

import "time"

// Comment belongs to a post and an author.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	AuthorID  int64     `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile is a user record together with everything they have authored or
// marked, as returned by the profile and user-listing calls. Slices are
// always non-nil so a fresh account serializes as empty arrays.
type Profile struct {
	User      *User      `json:"user"`
	Posts     []*Post    `json:"posts"`
	Comments  []*Comment `json:"comments"`
	Likes     []*Post    `json:"likes"`
	Favorites []*Post    `json:"favorite"`
}
