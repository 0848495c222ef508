package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/danshi-org/client/internal/api"
	"github.com/danshi-org/client/tests/fixtures"
)

// danshiServer is an in-process stand-in for the danshi backend, serving
// the REST surface the client consumes from mutable in-memory data.
type danshiServer struct {
	mu sync.Mutex

	post       api.Post
	comments   []api.Comment
	replyPages map[string]map[int]api.ReplyList

	createStatus int
	likeStatus   int

	createCalls int
	likeCalls   int
}

func newDanshiServer() *danshiServer {
	return &danshiServer{
		post:       fixtures.GetTestPost(),
		replyPages: make(map[string]map[int]api.ReplyList),
	}
}

func (s *danshiServer) setReplyPage(parentID string, page int, list api.ReplyList) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replyPages[parentID] == nil {
		s.replyPages[parentID] = make(map[int]api.ReplyList)
	}
	s.replyPages[parentID][page] = list
}

func (s *danshiServer) start(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]api.Post{"post": s.post})
	})
	mux.HandleFunc("GET /api/v1/posts/{id}/comments", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		json.NewEncoder(w).Encode(api.CommentList{
			Comments: s.comments,
			Pagination: api.Pagination{
				Page:       1,
				Limit:      api.DefaultPageLimit,
				Total:      len(s.comments),
				TotalPages: 1,
			},
		})
	})
	mux.HandleFunc("GET /api/v1/comments/{id}/replies", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page == 0 {
			page = 1
		}
		list := s.replyPages[r.PathValue("id")][page]
		json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("POST /api/v1/comments", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.createCalls++
		if s.createStatus != 0 {
			w.WriteHeader(s.createStatus)
			json.NewEncoder(w).Encode(map[string]string{"error": "rejected"})
			return
		}
		var request api.CreateCommentRequest
		json.NewDecoder(r.Body).Decode(&request)
		created := api.Comment{
			ID:       fixtures.NewCommentID(),
			PostID:   request.PostID,
			ParentID: request.ParentID,
			Author:   fixtures.GetTestUser(),
			Content:  request.Content,
		}
		json.NewEncoder(w).Encode(map[string]api.Comment{"comment": created})
	})
	mux.HandleFunc("POST /api/v1/comments/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		s.like(w, r.PathValue("id"))
	})
	mux.HandleFunc("POST /api/v1/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		s.like(w, "post:"+r.PathValue("id"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func (s *danshiServer) like(w http.ResponseWriter, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likeCalls++
	if s.likeStatus != 0 {
		w.WriteHeader(s.likeStatus)
		json.NewEncoder(w).Encode(map[string]string{"error": "like failed"})
		return
	}
	// Toggle against the stored state for comments; posts just flip.
	if strings.HasPrefix(key, "post:") {
		s.post.IsLiked = !s.post.IsLiked
		if s.post.IsLiked {
			s.post.LikeCount++
		} else {
			s.post.LikeCount--
		}
		json.NewEncoder(w).Encode(api.LikeResult{IsLiked: s.post.IsLiked, LikeCount: s.post.LikeCount})
		return
	}
	for i := range s.comments {
		if s.comments[i].ID == key {
			s.comments[i].IsLiked = !s.comments[i].IsLiked
			if s.comments[i].IsLiked {
				s.comments[i].LikeCount++
			} else {
				s.comments[i].LikeCount--
			}
			json.NewEncoder(w).Encode(api.LikeResult{
				IsLiked:   s.comments[i].IsLiked,
				LikeCount: s.comments[i].LikeCount,
			})
			return
		}
	}
	json.NewEncoder(w).Encode(api.LikeResult{IsLiked: true, LikeCount: 1})
}
