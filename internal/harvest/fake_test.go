package harvest

import (
	"context"
	"fmt"
	"sync"
)

// fakeSource serves pre-built pages keyed by continuation token.
type fakeSource struct {
	mu          sync.Mutex
	threadPages map[string]ThreadPage
	replyPages  map[string]map[string]ReplyPage
	threadErr   error
	replyErr    error

	threadCalls []ThreadsRequest
	replyCalls  []RepliesRequest
}

func (f *fakeSource) ListThreads(_ context.Context, req ThreadsRequest) (ThreadPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.threadCalls = append(f.threadCalls, req)
	if f.threadErr != nil {
		return ThreadPage{}, f.threadErr
	}
	page, ok := f.threadPages[req.PageToken]
	if !ok {
		return ThreadPage{}, fmt.Errorf("unexpected thread token %q", req.PageToken)
	}
	return page, nil
}

func (f *fakeSource) ListReplies(_ context.Context, req RepliesRequest) (ReplyPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.replyCalls = append(f.replyCalls, req)
	if f.replyErr != nil {
		return ReplyPage{}, f.replyErr
	}
	page, ok := f.replyPages[req.ParentID][req.PageToken]
	if !ok {
		return ReplyPage{}, fmt.Errorf("unexpected reply token %q for %s", req.PageToken, req.ParentID)
	}
	return page, nil
}

func item(id string) Item {
	return Item{
		ID:          id,
		Author:      "author-" + id,
		PublishedAt: "2024-01-02T03:04:05Z",
		UpdatedAt:   "2024-01-02T03:04:05Z",
		LikeCount:   1,
		Text:        "text of " + id,
	}
}

func replies(parent string, n int) []Item {
	out := make([]Item, 0, n)
	for i := 1; i <= n; i++ {
		r := item(fmt.Sprintf("%s.r%d", parent, i))
		r.ParentID = parent
		out = append(out, r)
	}
	return out
}

// threeThreadSource is a video with threads A, B and C. A has seven replies
// of which the thread listing embeds five; the reply listing returns all of
// them again.
func threeThreadSource() *fakeSource {
	all := replies("A", 7)
	return &fakeSource{
		threadPages: map[string]ThreadPage{
			"": {
				Threads: []Thread{
					{ID: "A", TopLevel: item("A"), Replies: all[:5], TotalReplyCount: 7},
					{ID: "B", TopLevel: item("B")},
				},
				NextPageToken: "p2",
			},
			"p2": {
				Threads: []Thread{
					{ID: "C", TopLevel: item("C")},
				},
			},
		},
		replyPages: map[string]map[string]ReplyPage{
			"A": {
				"":   {Replies: all[:4], NextPageToken: "r2"},
				"r2": {Replies: all[4:]},
			},
		},
	}
}
