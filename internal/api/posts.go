package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetPost fetches a post's detail payload, including the comment-count and
// like aggregates the client keeps in sync.
func (c *Client) GetPost(ctx context.Context, postID string) (*Post, error) {
	var payload struct {
		Post Post `json:"post"`
	}
	path := fmt.Sprintf("/api/v1/posts/%s", url.PathEscape(postID))
	if err := c.do(ctx, "get_post", http.MethodGet, path, nil, nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Post, nil
}

// TogglePostLike flips the viewer's like on the post itself.
func (c *Client) TogglePostLike(ctx context.Context, postID string) (*LikeResult, error) {
	var result LikeResult
	path := fmt.Sprintf("/api/v1/posts/%s/like", url.PathEscape(postID))
	if err := c.do(ctx, "toggle_post_like", http.MethodPost, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
