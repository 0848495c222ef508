package api

import "time"

// SortOrder selects the ordering of a post's top-level comment listing.
type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortHot    SortOrder = "hot"
)

// User is the author reference embedded in posts and comments.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Comment is the wire shape of both top-level comments and replies.
//
// The backend omits parent_id on every nested object, so it is only
// trustworthy on directly listed entities; consumers re-attach it. Replies
// may themselves carry nested replies to arbitrary depth.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id,omitempty"`
	ParentID   string    `json:"parent_id,omitempty"`
	Author     User      `json:"author"`
	Content    string    `json:"content"`
	LikeCount  int       `json:"like_count"`
	IsLiked    bool      `json:"is_liked"`
	ReplyCount int       `json:"reply_count"`
	Replies    []Comment `json:"replies,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Pagination is returned by every listing endpoint.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// CommentList is the response of the list-comments endpoint. Each comment
// carries an optional short preview of its most recent replies.
type CommentList struct {
	Comments   []Comment  `json:"comments"`
	Pagination Pagination `json:"pagination"`
}

// ReplyList is the response of the list-replies endpoint.
type ReplyList struct {
	Replies    []Comment  `json:"replies"`
	Pagination Pagination `json:"pagination"`
}

// CreateCommentRequest creates a top-level comment (empty ParentID) or a
// reply. ParentID must always be a top-level comment id; the backend rejects
// reply ids. ReplyToUserID attributes the reply to the user being answered
// when the target was itself a reply.
type CreateCommentRequest struct {
	PostID         string `json:"post_id"`
	Content        string `json:"content"`
	ParentID       string `json:"parent_id,omitempty"`
	ReplyToUserID  string `json:"reply_to_user_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// LikeResult is the authoritative state after a like toggle.
type LikeResult struct {
	IsLiked   bool `json:"is_liked"`
	LikeCount int  `json:"like_count"`
}

// Post is the post-detail payload; only the aggregates the client maintains
// are modeled here.
type Post struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       User      `json:"author"`
	LikeCount    int       `json:"like_count"`
	IsLiked      bool      `json:"is_liked"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}
