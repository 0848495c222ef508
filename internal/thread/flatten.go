package thread

import "github.com/danshi-org/client/internal/api"

// replyFromAPI converts one wire reply, forcing its parent to rootID. The
// backend omits parent_id on nested objects, so the value on the wire is
// never trusted. Nested replies are dropped here; flattenReplies lifts them
// into the output list instead.
func replyFromAPI(w api.Comment, rootID string) *Comment {
	return &Comment{
		ID:         w.ID,
		ParentID:   rootID,
		Author:     User(w.Author),
		Content:    w.Content,
		LikeCount:  w.LikeCount,
		IsLiked:    w.IsLiked,
		ReplyCount: w.ReplyCount,
		CreatedAt:  w.CreatedAt,
	}
}

// flattenReplies lifts a reply tree of arbitrary depth into a single-level
// list under rootID, in pre-order: each reply first, then its children, left
// to right. Every node in the tree appears exactly once.
func flattenReplies(nodes []api.Comment, rootID string) []*Comment {
	out := make([]*Comment, 0, len(nodes))
	var walk func(items []api.Comment)
	walk = func(items []api.Comment) {
		for _, item := range items {
			out = append(out, replyFromAPI(item, rootID))
			if len(item.Replies) > 0 {
				walk(item.Replies)
			}
		}
	}
	walk(nodes)
	return out
}

// commentFromAPI converts a wire top-level comment, flattening its embedded
// reply preview under its own id.
func commentFromAPI(w api.Comment) *Comment {
	return &Comment{
		ID:         w.ID,
		Author:     User(w.Author),
		Content:    w.Content,
		LikeCount:  w.LikeCount,
		IsLiked:    w.IsLiked,
		ReplyCount: w.ReplyCount,
		Replies:    flattenReplies(w.Replies, w.ID),
		CreatedAt:  w.CreatedAt,
	}
}

func paginationFromAPI(w api.Pagination) Pagination {
	return Pagination(w)
}
