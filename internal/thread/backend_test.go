package thread

import (
	"context"
	"fmt"
	"sync"

	"github.com/danshi-org/client/internal/api"
)

// fakeBackend implements ListAPI and MutationAPI in memory. Gates let tests
// hold a request open to exercise the in-flight guards.
type fakeBackend struct {
	mu sync.Mutex

	comments   *api.CommentList
	replyPages map[string]map[int]*api.ReplyList

	listErr   error
	replyErr  error
	likeErr   error
	createErr error

	likeResult *api.LikeResult
	created    *api.Comment

	listCalls   int
	replyCalls  int
	likeCalls   int
	createCalls int

	likeEntered  chan struct{}
	likeRelease  chan struct{}
	replyEntered chan struct{}
	replyRelease chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		replyPages: make(map[string]map[int]*api.ReplyList),
	}
}

func (f *fakeBackend) setReplyPage(parentID string, page int, list *api.ReplyList) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyPages[parentID] == nil {
		f.replyPages[parentID] = make(map[int]*api.ReplyList)
	}
	f.replyPages[parentID][page] = list
}

func (f *fakeBackend) ListComments(ctx context.Context, postID string, sort api.SortOrder, page int) (*api.CommentList, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.comments == nil {
		return &api.CommentList{}, nil
	}
	return f.comments, nil
}

func (f *fakeBackend) ListReplies(ctx context.Context, commentID string, page int) (*api.ReplyList, error) {
	f.mu.Lock()
	entered, release := f.replyEntered, f.replyRelease
	f.replyCalls++
	err := f.replyErr
	var list *api.ReplyList
	if pages := f.replyPages[commentID]; pages != nil {
		list = pages[page]
	}
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	if list == nil {
		return &api.ReplyList{Pagination: api.Pagination{Page: page, Limit: api.DefaultPageLimit}}, nil
	}
	return list, nil
}

func (f *fakeBackend) ToggleCommentLike(ctx context.Context, commentID string) (*api.LikeResult, error) {
	f.mu.Lock()
	entered, release := f.likeEntered, f.likeRelease
	f.likeCalls++
	err := f.likeErr
	result := f.likeResult
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		return &api.LikeResult{}, nil
	}
	return result, nil
}

func (f *fakeBackend) TogglePostLike(ctx context.Context, postID string) (*api.LikeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	if f.likeErr != nil {
		return nil, f.likeErr
	}
	if f.likeResult == nil {
		return &api.LikeResult{}, nil
	}
	return f.likeResult, nil
}

func (f *fakeBackend) CreateComment(ctx context.Context, request api.CreateCommentRequest) (*api.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.created != nil {
		return f.created, nil
	}
	return &api.Comment{
		ID:      fmt.Sprintf("created-%d", f.createCalls),
		Content: request.Content,
	}, nil
}

func (f *fakeBackend) calls() (list, reply, like, create int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.replyCalls, f.likeCalls, f.createCalls
}
