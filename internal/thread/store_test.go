package thread

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/danshi-org/client/internal/api"
)

func newTestStore(t *testing.T, backend ListAPI) *Store {
	t.Helper()
	return NewStore(backend, zap.NewNop(), "p1")
}

func loadedStore(t *testing.T, backend *fakeBackend) *Store {
	t.Helper()
	store := newTestStore(t, backend)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func TestLoadReplacesWholesale(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments: []api.Comment{
			{ID: "c1", ReplyCount: 5, Replies: []api.Comment{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}},
			{ID: "c2"},
		},
		Pagination: api.Pagination{Page: 1, Limit: 20, Total: 2, TotalPages: 1},
	}

	store := loadedStore(t, backend)

	comments := store.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, "c1", comments[0].ID)
	require.Len(t, comments[0].Replies, 3)
	assert.Equal(t, "c1", comments[0].Replies[0].ParentID, "preview replies get parent_id re-attached")
	assert.Equal(t, 2, store.Pagination().Total)
}

func TestLoadFailureLeavesStateIntact(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments:   []api.Comment{{ID: "c1"}},
		Pagination: api.Pagination{Total: 1},
	}
	store := loadedStore(t, backend)

	backend.listErr = errors.New("backend down")
	err := store.Load(context.Background())

	require.Error(t, err)
	require.Len(t, store.Comments(), 1, "stale-but-consistent over blank-but-broken")
	assert.Equal(t, 1, store.Pagination().Total)
}

func TestLoadPrunesOrphanedReplyCacheEntries(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments: []api.Comment{{ID: "c1", ReplyCount: 1}, {ID: "c2", ReplyCount: 1}},
	}
	backend.setReplyPage("c1", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r1"}},
		Pagination: api.Pagination{Page: 1, Total: 1, TotalPages: 1},
	})
	backend.setReplyPage("c2", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r2"}},
		Pagination: api.Pagination{Page: 1, Total: 1, TotalPages: 1},
	})

	store := loadedStore(t, backend)
	ctx := context.Background()
	require.NoError(t, store.FetchReplies(ctx, "c1", 1, false))
	require.NoError(t, store.FetchReplies(ctx, "c2", 1, false))

	// c2 disappears from the next page-1 response.
	backend.mu.Lock()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1", ReplyCount: 1}}}
	backend.mu.Unlock()
	require.NoError(t, store.Load(ctx))

	_, ok := store.ReplyCacheView("c1")
	assert.True(t, ok, "entry for a surviving comment is retained")
	_, ok = store.ReplyCacheView("c2")
	assert.False(t, ok, "entry for a vanished comment is pruned")
}

func TestPatchReachesEveryOccurrence(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments: []api.Comment{
			{ID: "c1", ReplyCount: 1, Replies: []api.Comment{{ID: "r1", LikeCount: 1}}},
		},
	}
	backend.setReplyPage("c1", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r1", LikeCount: 1}},
		Pagination: api.Pagination{Page: 1, Total: 1, TotalPages: 1},
	})

	store := loadedStore(t, backend)
	require.NoError(t, store.FetchReplies(context.Background(), "c1", 1, false))

	liked := true
	count := 2
	assert.True(t, store.Patch("r1", Patch{IsLiked: &liked, LikeCount: &count}))

	preview := store.Comments()[0].Replies[0]
	assert.Equal(t, 2, preview.LikeCount)
	assert.True(t, preview.IsLiked)

	view, _ := store.ReplyCacheView("c1")
	assert.Equal(t, 2, view.Items[0].LikeCount)
	assert.True(t, view.Items[0].IsLiked)
}

func TestPatchUnknownIDIsNoOp(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1"}}}
	store := loadedStore(t, backend)

	count := 9
	assert.False(t, store.Patch("missing", Patch{LikeCount: &count}))
	assert.Equal(t, 0, store.Comments()[0].LikeCount)
}

func TestInsertTopLevelPrependsAndBumpsTotal(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments:   []api.Comment{{ID: "c1"}},
		Pagination: api.Pagination{Total: 1},
	}
	store := loadedStore(t, backend)

	store.InsertTopLevel(&Comment{ID: "c2"})

	comments := store.Comments()
	require.Len(t, comments, 2)
	assert.Equal(t, "c2", comments[0].ID)
	assert.Equal(t, 2, store.Pagination().Total)
}

func TestInsertReplyCapsPreviewAndBumpsCounts(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments: []api.Comment{
			{ID: "c1", ReplyCount: 3, Replies: []api.Comment{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}},
		},
	}
	backend.setReplyPage("c1", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}},
		Pagination: api.Pagination{Page: 1, Total: 3, TotalPages: 1},
	})
	store := loadedStore(t, backend)
	require.NoError(t, store.FetchReplies(context.Background(), "c1", 1, false))

	store.InsertReply("c1", &Comment{ID: "r4", ParentID: "c1"})

	c := store.Comments()[0]
	assert.Equal(t, 4, c.ReplyCount)
	require.Len(t, c.Replies, PreviewSize, "preview stays capped")
	assert.Equal(t, "r4", c.Replies[0].ID, "new reply is prepended")

	view, _ := store.ReplyCacheView("c1")
	require.Len(t, view.Items, 4)
	assert.Equal(t, "r4", view.Items[0].ID)
	assert.Equal(t, 4, view.Pagination.Total)
}

func TestFetchRepliesFlattensAndPages(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1", ReplyCount: 3}}}
	backend.setReplyPage("c1", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r1", Replies: []api.Comment{{ID: "r2"}}}},
		Pagination: api.Pagination{Page: 1, Limit: 2, Total: 3, TotalPages: 2},
	})
	backend.setReplyPage("c1", 2, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r3"}},
		Pagination: api.Pagination{Page: 2, Limit: 2, Total: 3, TotalPages: 2},
	})

	store := loadedStore(t, backend)
	ctx := context.Background()

	require.NoError(t, store.FetchReplies(ctx, "c1", 1, false))
	view, _ := store.ReplyCacheView("c1")
	assert.Equal(t, []string{"r1", "r2"}, ids(view.Items))

	require.NoError(t, store.FetchReplies(ctx, "c1", 2, true))
	view, _ = store.ReplyCacheView("c1")
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids(view.Items))
	assert.Equal(t, 2, view.Pagination.Page)
}

func TestFetchRepliesInFlightGuard(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1", ReplyCount: 1}}}
	backend.replyEntered = make(chan struct{})
	backend.replyRelease = make(chan struct{})

	store := loadedStore(t, backend)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- store.FetchReplies(ctx, "c1", 1, false)
	}()
	<-backend.replyEntered

	err := store.FetchReplies(ctx, "c1", 1, false)
	assert.ErrorIs(t, err, ErrFetchInFlight)

	close(backend.replyRelease)
	require.NoError(t, <-done)

	view, ok := store.ReplyCacheView("c1")
	require.True(t, ok)
	assert.False(t, view.Loading)
}

func TestToggleExpandFetchesFirstPageOnce(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1", ReplyCount: 2}}}
	backend.setReplyPage("c1", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r1"}, {ID: "r2"}},
		Pagination: api.Pagination{Page: 1, Total: 2, TotalPages: 1},
	})

	store := loadedStore(t, backend)
	ctx := context.Background()

	require.NoError(t, store.ToggleExpand(ctx, "c1"))
	view, _ := store.ReplyCacheView("c1")
	assert.True(t, view.Expanded)
	assert.Len(t, view.Items, 2)

	// Collapsing and re-expanding does not refetch.
	require.NoError(t, store.ToggleExpand(ctx, "c1"))
	require.NoError(t, store.ToggleExpand(ctx, "c1"))
	_, replyCalls, _, _ := backend.calls()
	assert.Equal(t, 1, replyCalls)
}

func TestToggleExpandSkipsFetchForEmptyThread(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{Comments: []api.Comment{{ID: "c1", ReplyCount: 0}}}

	store := loadedStore(t, backend)
	require.NoError(t, store.ToggleExpand(context.Background(), "c1"))

	_, replyCalls, _, _ := backend.calls()
	assert.Equal(t, 0, replyCalls)
}

func TestRootFor(t *testing.T) {
	backend := newFakeBackend()
	backend.comments = &api.CommentList{
		Comments: []api.Comment{
			{ID: "c1", ReplyCount: 1, Replies: []api.Comment{{ID: "r1"}}},
			{ID: "c2", ReplyCount: 1},
		},
	}
	backend.setReplyPage("c2", 1, &api.ReplyList{
		Replies:    []api.Comment{{ID: "r2"}},
		Pagination: api.Pagination{Page: 1, Total: 1, TotalPages: 1},
	})

	store := loadedStore(t, backend)
	require.NoError(t, store.FetchReplies(context.Background(), "c2", 1, false))

	assert.Equal(t, "c1", store.RootFor("r1"), "found via inline preview")
	assert.Equal(t, "c2", store.RootFor("r2"), "found via reply cache")
	assert.Empty(t, store.RootFor("missing"))
}
