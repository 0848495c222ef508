package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/danshi-org/client/internal/lib"
)

// DefaultPageLimit matches the backend's default listing page size.
const DefaultPageLimit = 20

// ListComments fetches one page of a post's top-level comments in the given
// sort order. Each comment may embed a short preview of its replies.
func (c *Client) ListComments(ctx context.Context, postID string, sort SortOrder, page int) (*CommentList, error) {
	query := url.Values{}
	query.Set("sort", string(sort))
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(DefaultPageLimit))

	var list CommentList
	path := fmt.Sprintf("/api/v1/posts/%s/comments", url.PathEscape(postID))
	if err := c.do(ctx, "list_comments", http.MethodGet, path, query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// ListReplies fetches one page of the replies under a top-level comment.
// Returned replies may be nested to arbitrary depth; flattening is the
// caller's responsibility.
func (c *Client) ListReplies(ctx context.Context, commentID string, page int) (*ReplyList, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(DefaultPageLimit))

	var list ReplyList
	path := fmt.Sprintf("/api/v1/comments/%s/replies", url.PathEscape(commentID))
	if err := c.do(ctx, "list_replies", http.MethodGet, path, query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// CreateComment creates a top-level comment or a reply and returns the
// created entity. The payload is validated against the backend's schema
// before it leaves the client, and an idempotency key is attached so a
// user-retried submission cannot double-post.
func (c *Client) CreateComment(ctx context.Context, request CreateCommentRequest) (*Comment, error) {
	if request.IdempotencyKey == "" {
		request.IdempotencyKey = uuid.NewString()
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	keyErrors, err := lib.ValidateJSON(encoded, lib.CreateCommentSchema())
	if err != nil {
		return nil, err
	}
	if len(keyErrors) > 0 {
		return nil, fmt.Errorf("%w: %s", lib.ErrInvalidInput, keyErrors[0].Message)
	}

	var created struct {
		Comment Comment `json:"comment"`
	}
	if err := c.do(ctx, "create_comment", http.MethodPost, "/api/v1/comments", nil, request, &created); err != nil {
		return nil, err
	}
	return &created.Comment, nil
}

// ToggleCommentLike flips the viewer's like on a comment or reply and
// returns the authoritative post-toggle state.
func (c *Client) ToggleCommentLike(ctx context.Context, commentID string) (*LikeResult, error) {
	var result LikeResult
	path := fmt.Sprintf("/api/v1/comments/%s/like", url.PathEscape(commentID))
	if err := c.do(ctx, "toggle_comment_like", http.MethodPost, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
