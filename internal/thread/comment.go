// Package thread owns the comment state of one post-detail session: the
// top-level comment list with inline reply previews, the per-parent reply
// cache, optimistic like/submit mutations, and the pure projection that
// decides what a reply section renders.
package thread

import "time"

// User identifies a comment author.
type User struct {
	ID     string
	Name   string
	Avatar string
}

// Comment is a top-level comment or a reply.
//
// ParentID is empty for top-level comments and always names a top-level
// comment for replies, regardless of how deeply the backend nested them.
// Replies holds the flattened inline preview and is only populated on
// top-level comments.
type Comment struct {
	ID         string
	ParentID   string
	Author     User
	Content    string
	LikeCount  int
	IsLiked    bool
	ReplyCount int
	Replies    []*Comment
	CreatedAt  time.Time
}

// IsReply reports whether the comment is attached to another comment.
func (c *Comment) IsReply() bool {
	return c.ParentID != ""
}

// Pagination mirrors the backend's listing metadata.
type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// PostState holds the post-level aggregates the session keeps in sync:
// the overall comment count and the post's own like state.
type PostState struct {
	ID           string
	CommentCount int
	LikeCount    int
	IsLiked      bool
}

// Patch is a shallow field update applied to an entity by id. Nil fields
// are left untouched.
type Patch struct {
	Content    *string
	LikeCount  *int
	IsLiked    *bool
	ReplyCount *int
}

func (p Patch) apply(c *Comment) {
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.LikeCount != nil {
		c.LikeCount = *p.LikeCount
	}
	if p.IsLiked != nil {
		c.IsLiked = *p.IsLiked
	}
	if p.ReplyCount != nil {
		c.ReplyCount = *p.ReplyCount
	}
}
