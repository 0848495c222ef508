package thread

import "github.com/danshi-org/client/internal/lib"

// Layout selects which presentation rules apply to a reply section.
type Layout int

const (
	// LayoutCompact is the phone layout: long threads open a dedicated
	// full-thread view instead of expanding inline.
	LayoutCompact Layout = iota
	// LayoutWide is the tablet/desktop layout: long threads expand and
	// collapse in place.
	LayoutWide
)

// ReplyMode is the presentation decision for one comment's reply section.
type ReplyMode int

const (
	// ReplyModeNone hides the reply section entirely.
	ReplyModeNone ReplyMode = iota
	// ReplyModeInline shows every reply with no further affordance.
	ReplyModeInline
	// ReplyModeSummary shows the preview plus a "show N replies" affordance
	// that opens the full-thread view (compact layout only).
	ReplyModeSummary
	// ReplyModeExpandable shows the preview plus an inline expand/collapse
	// control (wide layout only).
	ReplyModeExpandable
)

// ThreadProjection is what a comment's reply section renders. It is derived
// purely from store state; producing it performs no I/O.
type ThreadProjection struct {
	Replies    []*Comment
	TotalCount int
	Mode       ReplyMode
	Expanded   bool
}

// ProjectThread derives the reply section for one top-level comment. cache
// is nil when no reply-cache entry exists yet.
//
// The cached items win over the inline preview once present. The total is
// the max of every counter that can name it, because an optimistic insert
// can bump one source before the others catch up and the count shown must
// never undercut the items visible.
func ProjectThread(c *Comment, cache *ReplyCacheView, layout Layout) ThreadProjection {
	preview := c.Replies

	available := preview
	cacheTotal := 0
	expanded := false
	if cache != nil {
		if len(cache.Items) > 0 {
			available = cache.Items
		}
		cacheTotal = cache.Pagination.Total
		expanded = cache.Expanded
	}

	total := maxInt(cacheTotal, c.ReplyCount, len(available), len(preview))

	projection := ThreadProjection{TotalCount: total, Expanded: expanded}
	switch {
	case total == 0:
		projection.Mode = ReplyModeNone
	case total <= PreviewSize:
		projection.Mode = ReplyModeInline
		projection.Replies = available
	case layout == LayoutCompact:
		projection.Mode = ReplyModeSummary
		projection.Replies = capReplies(available, PreviewSize)
	default:
		projection.Mode = ReplyModeExpandable
		if expanded {
			projection.Replies = available
		} else {
			projection.Replies = capReplies(available, PreviewSize)
		}
	}
	return projection
}

// NextReplyPage returns the page the full-thread view should request next,
// or 0 when every page is already cached.
func NextReplyPage(cache ReplyCacheView) int {
	return lib.NextPage(cache.Pagination.Page, cache.Pagination.TotalPages)
}

// Project is the store-bound convenience over ProjectThread. The second
// return value is false when the comment id is not a visible top-level
// comment.
func (s *Store) Project(commentID string, layout Layout) (ThreadProjection, bool) {
	s.mu.Lock()
	var target *Comment
	for _, c := range s.comments {
		if c.ID == commentID {
			target = c
			break
		}
	}
	if target == nil {
		s.mu.Unlock()
		return ThreadProjection{}, false
	}
	view, hasCache := s.cacheViewLocked(commentID)
	s.mu.Unlock()

	if !hasCache {
		return ProjectThread(target, nil, layout), true
	}
	return ProjectThread(target, &view, layout), true
}

func capReplies(replies []*Comment, n int) []*Comment {
	if len(replies) <= n {
		return replies
	}
	return replies[:n]
}

func maxInt(values ...int) int {
	out := 0
	for _, v := range values {
		if v > out {
			out = v
		}
	}
	return out
}
