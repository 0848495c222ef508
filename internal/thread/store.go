package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danshi-org/client/internal/api"
)

// PreviewSize is the number of replies shown inline under a top-level
// comment before the thread has to be opened or expanded.
const PreviewSize = 3

// ErrFetchInFlight is returned when a reply fetch is requested for a parent
// that already has one pending. Callers are expected to gate on the loading
// flag; overlapping fetches for the same parent are a caller bug, not a
// condition the store coalesces.
var ErrFetchInFlight = errors.New("reply fetch already in flight for this parent")

// ListAPI is the read side of the backend consumed by the store.
type ListAPI interface {
	ListComments(ctx context.Context, postID string, sort api.SortOrder, page int) (*api.CommentList, error)
	ListReplies(ctx context.Context, commentID string, page int) (*api.ReplyList, error)
}

type replyCacheEntry struct {
	items      []*Comment
	pagination Pagination
	loading    bool
	expanded   bool
}

// ReplyCacheView is a read-only snapshot of one parent's reply cache entry.
type ReplyCacheView struct {
	Items      []*Comment
	Pagination Pagination
	Loading    bool
	Expanded   bool
}

// Store holds all comment state for one post-detail session: the current
// top-level comment list (with inline reply previews), the per-parent reply
// cache, and the post-level aggregates.
//
// One Store belongs to one displayed post. Methods are safe for use from
// the UI goroutine and request-completion goroutines; every mutation is
// applied atomically, so no partial update is observable.
type Store struct {
	log *zap.Logger

	mu         sync.Mutex
	backend    ListAPI
	postID     string
	sort       api.SortOrder
	post       PostState
	comments   []*Comment
	pagination Pagination
	replyCache map[string]*replyCacheEntry
}

// NewStore creates an empty store for the given post, sorted by latest.
func NewStore(backend ListAPI, log *zap.Logger, postID string) *Store {
	return &Store{
		log:        log,
		backend:    backend,
		postID:     postID,
		sort:       api.SortLatest,
		post:       PostState{ID: postID},
		replyCache: make(map[string]*replyCacheEntry),
	}
}

// PostID returns the id of the post this store belongs to.
func (s *Store) PostID() string {
	return s.postID
}

// SetSort changes the sort order for subsequent loads. The caller reloads
// afterwards; the current list stays visible until the reload lands.
func (s *Store) SetSort(order api.SortOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = order
}

// Sort returns the current sort order.
func (s *Store) Sort() api.SortOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sort
}

// Load fetches page 1 of the post's comments and replaces the store
// wholesale. Reply cache entries whose parent vanished from the new list are
// pruned; entries still present keep their cached pages. On failure the
// previous state is left untouched and the error is returned for the caller
// to surface; the store never retries on its own.
//
// Overlapping loads are resolved last-writer-wins: no generation token is
// kept, so a stale response can overwrite a newer one if it resolves later.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	postID, sort := s.postID, s.sort
	s.mu.Unlock()

	list, err := s.backend.ListComments(ctx, postID, sort, 1)
	if err != nil {
		s.log.Warn("comment list load failed", zap.String("post_id", postID), zap.Error(err))
		return fmt.Errorf("load comments for post %s: %w", postID, err)
	}

	comments := make([]*Comment, 0, len(list.Comments))
	for _, w := range list.Comments {
		comments = append(comments, commentFromAPI(w))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.comments = comments
	s.pagination = paginationFromAPI(list.Pagination)

	present := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		present[c.ID] = struct{}{}
	}
	for parentID := range s.replyCache {
		if _, ok := present[parentID]; !ok {
			delete(s.replyCache, parentID)
		}
	}

	s.log.Debug("comment list loaded",
		zap.String("post_id", postID),
		zap.String("sort", string(sort)),
		zap.Int("count", len(comments)),
		zap.Int("total", list.Pagination.Total),
	)
	return nil
}

// Comments returns the current top-level comments in display order.
func (s *Store) Comments() []*Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Comment, len(s.comments))
	copy(out, s.comments)
	return out
}

// Pagination returns the top-level listing's pagination metadata.
func (s *Store) Pagination() Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagination
}

// Comment finds any visible entity by id: a top-level comment, an inline
// preview reply, or a cached reply.
func (s *Store) Comment(id string) (*Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(id)
	return c, c != nil
}

func (s *Store) findLocked(id string) *Comment {
	for _, c := range s.comments {
		if c.ID == id {
			return c
		}
		for _, r := range c.Replies {
			if r.ID == id {
				return r
			}
		}
	}
	for _, entry := range s.replyCache {
		for _, r := range entry.items {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

// LikeState reads an entity's current like pair under the store lock. The
// mutator reads through this instead of a held pointer so an unconfirmed
// earlier update is always visible to the next toggle.
func (s *Store) LikeState(id string) (isLiked bool, likeCount int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(id)
	if c == nil {
		return false, 0, false
	}
	return c.IsLiked, c.LikeCount, true
}

// Patch applies a shallow field update to every visible occurrence of the
// entity with the given id, across the top-level list, inline previews, and
// the reply cache at once. It reports whether anything matched.
func (s *Store) Patch(id string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := false
	for _, c := range s.comments {
		if c.ID == id {
			patch.apply(c)
			matched = true
		}
		for _, r := range c.Replies {
			if r.ID == id {
				patch.apply(r)
				matched = true
			}
		}
	}
	for _, entry := range s.replyCache {
		for _, r := range entry.items {
			if r.ID == id {
				patch.apply(r)
				matched = true
			}
		}
	}
	return matched
}

// InsertTopLevel prepends a newly created comment and bumps the listing
// total.
func (s *Store) InsertTopLevel(c *Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append([]*Comment{c}, s.comments...)
	s.pagination.Total++
}

// InsertReply prepends a newly created reply to its parent's inline preview
// (capped at PreviewSize) and to the parent's cache entry when one exists,
// and bumps the parent's reply count.
func (s *Store) InsertReply(parentID string, r *Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		if c.ID != parentID {
			continue
		}
		c.Replies = append([]*Comment{r}, c.Replies...)
		if len(c.Replies) > PreviewSize {
			c.Replies = c.Replies[:PreviewSize]
		}
		c.ReplyCount++
		break
	}

	if entry, ok := s.replyCache[parentID]; ok {
		entry.items = append([]*Comment{r}, entry.items...)
		entry.pagination.Total++
	}
}

// RootFor finds the top-level comment whose reply set (inline preview or
// cached pages) contains the given reply id. It returns "" when no root is
// visible, which callers treat as a resolution failure.
func (s *Store) RootFor(replyID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.comments {
		for _, r := range c.Replies {
			if r.ID == replyID {
				return c.ID
			}
		}
	}
	for parentID, entry := range s.replyCache {
		for _, r := range entry.items {
			if r.ID == replyID {
				return parentID
			}
		}
	}
	return ""
}

// ReplyCacheView snapshots the cache entry for a parent, if one exists.
func (s *Store) ReplyCacheView(parentID string) (ReplyCacheView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cacheViewLocked(parentID)
}

func (s *Store) cacheViewLocked(parentID string) (ReplyCacheView, bool) {
	entry, ok := s.replyCache[parentID]
	if !ok {
		return ReplyCacheView{}, false
	}
	items := make([]*Comment, len(entry.items))
	copy(items, entry.items)
	return ReplyCacheView{
		Items:      items,
		Pagination: entry.pagination,
		Loading:    entry.loading,
		Expanded:   entry.expanded,
	}, true
}

// FetchReplies fetches one page of a parent's full reply list into the
// cache, flattening whatever nesting the backend returned. With appendPage
// the flattened batch is concatenated after the cached items, otherwise it
// replaces them. A second fetch for the same parent while one is pending
// returns ErrFetchInFlight.
func (s *Store) FetchReplies(ctx context.Context, parentID string, page int, appendPage bool) error {
	s.mu.Lock()
	entry, ok := s.replyCache[parentID]
	if !ok {
		entry = &replyCacheEntry{}
		s.replyCache[parentID] = entry
	}
	if entry.loading {
		s.mu.Unlock()
		return ErrFetchInFlight
	}
	entry.loading = true
	s.mu.Unlock()

	list, err := s.backend.ListReplies(ctx, parentID, page)

	s.mu.Lock()
	defer s.mu.Unlock()

	// The entry may have been pruned by a wholesale reload while the
	// request was in flight; its result is stale then and gets dropped.
	entry, ok = s.replyCache[parentID]
	if !ok {
		return err
	}
	entry.loading = false

	if err != nil {
		s.log.Warn("reply list load failed", zap.String("parent_id", parentID), zap.Error(err))
		return fmt.Errorf("load replies for comment %s: %w", parentID, err)
	}

	flattened := flattenReplies(list.Replies, parentID)
	if appendPage {
		entry.items = append(entry.items, flattened...)
	} else {
		entry.items = flattened
	}
	entry.pagination = paginationFromAPI(list.Pagination)

	s.log.Debug("reply page loaded",
		zap.String("parent_id", parentID),
		zap.Int("page", page),
		zap.Int("count", len(flattened)),
		zap.Bool("append", appendPage),
	)
	return nil
}

// ToggleExpand flips a parent's expanded flag. Expanding a thread that has
// replies but nothing cached yet triggers the first page fetch.
func (s *Store) ToggleExpand(ctx context.Context, parentID string) error {
	s.mu.Lock()
	entry, ok := s.replyCache[parentID]
	if !ok {
		entry = &replyCacheEntry{}
		s.replyCache[parentID] = entry
	}
	entry.expanded = !entry.expanded
	needsFetch := entry.expanded && len(entry.items) == 0
	if needsFetch {
		if c := s.findLocked(parentID); c == nil || c.ReplyCount == 0 {
			needsFetch = false
		}
	}
	s.mu.Unlock()

	if !needsFetch {
		return nil
	}
	return s.FetchReplies(ctx, parentID, 1, false)
}

// Post returns the post-level aggregates.
func (s *Store) Post() PostState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.post
}

// SetPost seeds the post aggregates from a fetched post detail.
func (s *Store) SetPost(p api.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post = PostState{
		ID:           p.ID,
		CommentCount: p.CommentCount,
		LikeCount:    p.LikeCount,
		IsLiked:      p.IsLiked,
	}
}

// SetPostLike overwrites the post's like state.
func (s *Store) SetPostLike(isLiked bool, likeCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post.IsLiked = isLiked
	s.post.LikeCount = likeCount
}

// BumpCommentCount adjusts the post's comment-count aggregate.
func (s *Store) BumpCommentCount(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.post.CommentCount += delta
}
