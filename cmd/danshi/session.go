package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	apipkg "github.com/danshi-org/client/internal/api"
	threadpkg "github.com/danshi-org/client/internal/thread"
)

// session is the interactive loop behind `danshi thread`. It keeps the
// draft text and reply target across failed submissions so the user can
// retry without retyping.
type session struct {
	log     *zap.Logger
	client  *apipkg.Client
	store   *threadpkg.Store
	mutator *threadpkg.Mutator

	draft   string
	replyTo *threadpkg.Comment
}

func newSession(log *zap.Logger, client *apipkg.Client, store *threadpkg.Store, mutator *threadpkg.Mutator) *session {
	return &session{
		log:     log,
		client:  client,
		store:   store,
		mutator: mutator,
	}
}

func (s *session) run() {
	ctx := context.Background()

	if post, err := s.client.GetPost(ctx, s.store.PostID()); err != nil {
		fmt.Printf("could not load post: %v\n", err)
	} else {
		s.store.SetPost(*post)
		fmt.Printf("%s — %s (%d comments)\n", post.Title, post.Author.Name, post.CommentCount)
	}

	if err := s.store.Load(ctx); err != nil {
		fmt.Printf("could not load comments: %v (retry with `refresh`)\n", err)
	}
	s.printList()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if !s.handle(ctx, scanner.Text()) {
			return
		}
		fmt.Print("> ")
	}
}

// handle runs one command line and reports whether the session continues.
func (s *session) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "quit", "exit":
		return false
	case "help":
		s.printHelp()
	case "list":
		s.printList()
	case "refresh":
		if err := s.store.Load(ctx); err != nil {
			fmt.Printf("refresh failed: %v\n", err)
			return true
		}
		s.printList()
	case "sort":
		if len(args) != 1 || (args[0] != string(apipkg.SortLatest) && args[0] != string(apipkg.SortHot)) {
			fmt.Println("usage: sort latest|hot")
			return true
		}
		s.store.SetSort(apipkg.SortOrder(args[0]))
		if err := s.store.Load(ctx); err != nil {
			fmt.Printf("reload failed: %v\n", err)
			return true
		}
		s.printList()
	case "open":
		if len(args) != 1 {
			fmt.Println("usage: open <comment-id>")
			return true
		}
		s.openThread(ctx, args[0])
	case "more":
		if len(args) != 1 {
			fmt.Println("usage: more <comment-id>")
			return true
		}
		s.loadMore(ctx, args[0])
	case "expand":
		if len(args) != 1 {
			fmt.Println("usage: expand <comment-id>")
			return true
		}
		if err := s.store.ToggleExpand(ctx, args[0]); err != nil {
			fmt.Printf("expand failed: %v\n", err)
			return true
		}
		s.printWide(args[0])
	case "like":
		if len(args) != 1 {
			fmt.Println("usage: like <comment-id>")
			return true
		}
		s.toggleLike(ctx, args[0])
	case "likepost":
		if err := s.mutator.TogglePostLike(ctx); err != nil && !errors.Is(err, threadpkg.ErrTogglePending) {
			fmt.Printf("post like failed: %v\n", err)
			return true
		}
		post := s.store.Post()
		fmt.Printf("post: %d likes, liked=%v\n", post.LikeCount, post.IsLiked)
	case "comment":
		if len(args) == 0 {
			fmt.Println("usage: comment <text>")
			return true
		}
		s.submit(ctx, strings.Join(args, " "), nil)
	case "reply":
		if len(args) < 2 {
			fmt.Println("usage: reply <comment-id> <text>")
			return true
		}
		target, ok := s.store.Comment(args[0])
		if !ok {
			fmt.Printf("no such comment: %s\n", args[0])
			return true
		}
		s.submit(ctx, strings.Join(args[1:], " "), target)
	case "retry":
		if s.draft == "" {
			fmt.Println("nothing to retry")
			return true
		}
		s.submit(ctx, s.draft, s.replyTo)
	default:
		fmt.Printf("unknown command %q (try `help`)\n", command)
	}
	return true
}

func (s *session) toggleLike(ctx context.Context, id string) {
	err := s.mutator.ToggleLike(ctx, id)
	if errors.Is(err, threadpkg.ErrTogglePending) {
		return
	}
	if err != nil {
		fmt.Printf("like failed: %v\n", err)
		return
	}
	if c, ok := s.store.Comment(id); ok {
		fmt.Printf("[%s] %d likes, liked=%v\n", c.ID, c.LikeCount, c.IsLiked)
	}
}

func (s *session) submit(ctx context.Context, text string, replyTo *threadpkg.Comment) {
	created, err := s.mutator.Submit(ctx, threadpkg.SubmitInput{Content: text, ReplyTo: replyTo})
	if err != nil {
		// Keep the draft so `retry` can resend it unchanged.
		s.draft = text
		s.replyTo = replyTo
		fmt.Printf("submission failed: %v (draft kept, use `retry`)\n", err)
		return
	}
	s.draft = ""
	s.replyTo = nil
	fmt.Printf("posted [%s]\n", created.ID)
}

func (s *session) openThread(ctx context.Context, parentID string) {
	view, ok := s.store.ReplyCacheView(parentID)
	if !ok || len(view.Items) == 0 {
		if err := s.store.FetchReplies(ctx, parentID, 1, false); err != nil {
			fmt.Printf("could not load thread: %v\n", err)
			return
		}
	}
	s.printFullThread(parentID)
}

func (s *session) loadMore(ctx context.Context, parentID string) {
	view, ok := s.store.ReplyCacheView(parentID)
	if !ok {
		fmt.Println("open the thread first")
		return
	}
	next := threadpkg.NextReplyPage(view)
	if next == 0 {
		fmt.Println("no more replies")
		return
	}
	if err := s.store.FetchReplies(ctx, parentID, next, true); err != nil {
		fmt.Printf("could not load more: %v\n", err)
		return
	}
	s.printFullThread(parentID)
}

func (s *session) printList() {
	comments := s.store.Comments()
	fmt.Printf("--- %d comments (%s) ---\n", s.store.Pagination().Total, s.store.Sort())
	for _, c := range comments {
		projection, _ := s.store.Project(c.ID, threadpkg.LayoutCompact)
		s.printComment(c, "")
		for _, r := range projection.Replies {
			s.printComment(r, "    ")
		}
		if projection.Mode == threadpkg.ReplyModeSummary {
			fmt.Printf("    ... show %d replies: open %s\n", projection.TotalCount, c.ID)
		}
	}
}

func (s *session) printWide(parentID string) {
	projection, ok := s.store.Project(parentID, threadpkg.LayoutWide)
	if !ok {
		fmt.Printf("no such comment: %s\n", parentID)
		return
	}
	for _, r := range projection.Replies {
		s.printComment(r, "    ")
	}
	if projection.Mode == threadpkg.ReplyModeExpandable && !projection.Expanded {
		fmt.Printf("    ... %d replies collapsed: expand %s\n", projection.TotalCount, parentID)
	}
}

func (s *session) printFullThread(parentID string) {
	root, ok := s.store.Comment(parentID)
	if !ok {
		fmt.Printf("no such comment: %s\n", parentID)
		return
	}
	s.printComment(root, "")

	view, _ := s.store.ReplyCacheView(parentID)
	for _, r := range view.Items {
		s.printComment(r, "    ")
	}
	if next := threadpkg.NextReplyPage(view); next != 0 {
		fmt.Printf("    ... more replies: more %s\n", parentID)
	}
}

func (s *session) printComment(c *threadpkg.Comment, indent string) {
	liked := ""
	if c.IsLiked {
		liked = " ♥"
	}
	fmt.Printf("%s[%s] %s: %s (%d likes%s)\n", indent, c.ID, c.Author.Name, c.Content, c.LikeCount, liked)
}

func (s *session) printHelp() {
	fmt.Println(`commands:
  list                    show the comment list
  open <id>               open a comment's full thread
  more <id>               load the next reply page
  expand <id>             expand/collapse a thread inline
  like <id>               toggle like on a comment or reply
  likepost                toggle like on the post
  comment <text>          post a top-level comment
  reply <id> <text>       reply to a comment or reply
  retry                   resend the kept draft
  sort latest|hot         change sort order and reload
  refresh                 reload the comment list
  quit                    exit`)
}
