package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/danshi-org/client/internal/api"
	metricspkg "github.com/danshi-org/client/internal/metrics"
)

var (
	// ErrTogglePending is returned when a like toggle is requested for an
	// entity that already has one in flight. The second tap is dropped so a
	// rapid double-tap cannot issue two requests.
	ErrTogglePending = errors.New("like toggle already pending for this entity")

	// ErrEmptyContent is returned when a submission trims down to nothing.
	ErrEmptyContent = errors.New("comment content is empty")

	// ErrUnknownEntity is returned when a toggle targets an id that is not
	// visible in the store.
	ErrUnknownEntity = errors.New("entity not present in comment store")
)

// MutationAPI is the write side of the backend consumed by the mutator.
type MutationAPI interface {
	ToggleCommentLike(ctx context.Context, commentID string) (*api.LikeResult, error)
	TogglePostLike(ctx context.Context, postID string) (*api.LikeResult, error)
	CreateComment(ctx context.Context, request api.CreateCommentRequest) (*api.Comment, error)
}

// SubmitInput is one comment/reply submission. ReplyTo is nil for a
// top-level comment; otherwise it is the entity being answered, which may
// itself be a reply.
type SubmitInput struct {
	Content string
	ReplyTo *Comment
}

// Mutator applies like toggles and comment submissions optimistically:
// the store is updated before the request is issued, then reconciled with
// the server's authoritative values on success or rolled back exactly on
// failure. A per-entity pending guard keeps overlapping toggles out.
type Mutator struct {
	store   *Store
	backend MutationAPI
	log     *zap.Logger
	metrics *metricspkg.ClientMetrics

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewMutator creates a mutator bound to one store. metrics may be nil.
func NewMutator(store *Store, backend MutationAPI, log *zap.Logger, metrics *metricspkg.ClientMetrics) *Mutator {
	return &Mutator{
		store:   store,
		backend: backend,
		log:     log,
		metrics: metrics,
		pending: make(map[string]struct{}),
	}
}

func (m *Mutator) acquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.pending[key]; exists {
		return false
	}
	m.pending[key] = struct{}{}
	return true
}

func (m *Mutator) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
}

func (m *Mutator) countRollback() {
	if m.metrics != nil {
		m.metrics.RollbacksTotal.Inc()
	}
}

// ToggleLike flips the viewer's like on a comment or reply. The flip is
// applied immediately; the server's values win on success and the exact
// pre-toggle pair is restored on failure. A toggle for an entity that is
// already pending returns ErrTogglePending and issues no request.
//
// The current values are read from the store at call time, never from a
// caller-held snapshot: an earlier optimistic update may still be
// unconfirmed when the next toggle starts.
func (m *Mutator) ToggleLike(ctx context.Context, entityID string) error {
	if !m.acquire(entityID) {
		m.log.Debug("like toggle dropped, already pending", zap.String("entity_id", entityID))
		return ErrTogglePending
	}
	defer m.release(entityID)

	prevLiked, prevCount, ok := m.store.LikeState(entityID)
	if !ok {
		return fmt.Errorf("toggle like %s: %w", entityID, ErrUnknownEntity)
	}

	nextLiked := !prevLiked
	nextCount := prevCount + 1
	if !nextLiked {
		nextCount = prevCount - 1
	}
	m.store.Patch(entityID, Patch{IsLiked: &nextLiked, LikeCount: &nextCount})

	result, err := m.backend.ToggleCommentLike(ctx, entityID)
	if err != nil {
		m.store.Patch(entityID, Patch{IsLiked: &prevLiked, LikeCount: &prevCount})
		m.countRollback()
		m.log.Warn("like toggle rolled back", zap.String("entity_id", entityID), zap.Error(err))
		return err
	}

	m.store.Patch(entityID, Patch{IsLiked: &result.IsLiked, LikeCount: &result.LikeCount})
	return nil
}

// TogglePostLike flips the viewer's like on the post itself, with the same
// optimistic semantics and pending guard as comment toggles.
func (m *Mutator) TogglePostLike(ctx context.Context) error {
	postID := m.store.PostID()
	key := "post:" + postID
	if !m.acquire(key) {
		m.log.Debug("post like toggle dropped, already pending", zap.String("post_id", postID))
		return ErrTogglePending
	}
	defer m.release(key)

	post := m.store.Post()
	prevLiked, prevCount := post.IsLiked, post.LikeCount
	if prevLiked {
		m.store.SetPostLike(false, prevCount-1)
	} else {
		m.store.SetPostLike(true, prevCount+1)
	}

	result, err := m.backend.TogglePostLike(ctx, postID)
	if err != nil {
		m.store.SetPostLike(prevLiked, prevCount)
		m.countRollback()
		m.log.Warn("post like toggle rolled back", zap.String("post_id", postID), zap.Error(err))
		return err
	}

	m.store.SetPostLike(result.IsLiked, result.LikeCount)
	return nil
}

// resolveParent maps a submission target to the parent id the backend
// accepts, which is always a top-level comment id. Replying to a reply
// resolves to that reply's root ancestor by searching the store; when no
// root is visible the target's own ParentID is used as a best-effort
// fallback, which is known to be lossy.
func (m *Mutator) resolveParent(target *Comment) string {
	if target == nil {
		return ""
	}
	if !target.IsReply() {
		return target.ID
	}
	if root := m.store.RootFor(target.ID); root != "" {
		return root
	}
	m.log.Warn("reply root not found, falling back to target parent",
		zap.String("target_id", target.ID),
		zap.String("fallback_parent_id", target.ParentID),
	)
	return target.ParentID
}

// Submit creates a top-level comment or a reply. On success the created
// entity is inserted into the store, the post's comment count is bumped,
// and the parent's reply cache is refreshed from page 1 so server-side
// dedup or moderation is eventually reflected. On failure nothing in the
// store changes, so the caller can keep the draft text and retry.
func (m *Mutator) Submit(ctx context.Context, input SubmitInput) (*Comment, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	parentID := m.resolveParent(input.ReplyTo)
	request := api.CreateCommentRequest{
		PostID:   m.store.PostID(),
		Content:  content,
		ParentID: parentID,
	}
	if input.ReplyTo != nil && input.ReplyTo.IsReply() {
		request.ReplyToUserID = input.ReplyTo.Author.ID
	}

	created, err := m.backend.CreateComment(ctx, request)
	if err != nil {
		m.log.Warn("comment submission failed",
			zap.String("post_id", request.PostID),
			zap.String("parent_id", parentID),
			zap.Error(err),
		)
		return nil, err
	}

	var entity *Comment
	if parentID == "" {
		entity = commentFromAPI(*created)
		m.store.InsertTopLevel(entity)
	} else {
		entity = replyFromAPI(*created, parentID)
		m.store.InsertReply(parentID, entity)
	}
	m.store.BumpCommentCount(1)

	if parentID != "" {
		// Best effort: a failed refresh leaves the optimistic insert
		// visible, which is still consistent for the viewer.
		if err := m.store.FetchReplies(ctx, parentID, 1, false); err != nil {
			m.log.Warn("post-submit reply refresh failed",
				zap.String("parent_id", parentID),
				zap.Error(err),
			)
		}
	}

	m.log.Debug("comment submitted",
		zap.String("comment_id", entity.ID),
		zap.String("parent_id", parentID),
	)
	return entity, nil
}
