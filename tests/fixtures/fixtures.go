// Package fixtures provides canned wire payloads for end-to-end tests.
package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/danshi-org/client/internal/api"
)

// TestPostID is the post every fixture hangs off.
const TestPostID = "11111111-1111-1111-1111-111111111111"

// GetTestUser returns a standard user for use in tests.
func GetTestUser() api.User {
	return api.User{
		ID:     "c1f8e4d9-8b9a-4b7c-8c6f-4e2b0e1d7a3e",
		Name:   "canteen-regular",
		Avatar: "https://cdn.danshi.app/avatars/default.png",
	}
}

// GetTestPost returns the post detail payload for TestPostID.
func GetTestPost() api.Post {
	return api.Post{
		ID:           TestPostID,
		Title:        "Second-floor mala tang, worth the queue?",
		Content:      "The new window opened this week.",
		Author:       GetTestUser(),
		LikeCount:    12,
		IsLiked:      false,
		CommentCount: 6,
		CreatedAt:    time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC),
	}
}

// Reply builds a flat reply with no nesting.
func Reply(id string) api.Comment {
	return api.Comment{
		ID:      id,
		Author:  GetTestUser(),
		Content: "reply " + id,
	}
}

// CommentWithPreview builds a top-level comment with the given total reply
// count and an inline preview holding the given replies. The server shape
// deliberately omits parent_id on the preview items.
func CommentWithPreview(id string, replyCount int, preview ...api.Comment) api.Comment {
	return api.Comment{
		ID:         id,
		Author:     GetTestUser(),
		Content:    "comment " + id,
		LikeCount:  5,
		ReplyCount: replyCount,
		Replies:    preview,
	}
}

// NestedReplyTree builds a reply tree three levels deep, the worst case the
// flattener has to handle: a > b > c.
func NestedReplyTree() []api.Comment {
	c := Reply("c")
	b := Reply("b")
	b.Replies = []api.Comment{c}
	a := Reply("a")
	a.Replies = []api.Comment{b}
	return []api.Comment{a}
}

// NewCommentID returns a unique id for a created comment.
func NewCommentID() string {
	return fmt.Sprintf("created-%s", uuid.NewString())
}
