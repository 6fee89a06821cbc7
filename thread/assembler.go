// Package thread materializes the live comment tree of a post from the flat
// comments and replies collections. One level of nesting only: replies to
// replies stay in the same list and carry a mention back-reference.
package thread

import (
	"context"
	"sync"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// UnknownAuthor is the mention label shown when the referenced reply has
// already been deleted.
const UnknownAuthor = "unknown"

// ReplyView is a reply annotated with its resolved mention target.
type ReplyView struct {
	models.Reply
	// MentionName is the display name the mention token renders. Empty when
	// the reply is not a reply-to-reply.
	MentionName string `json:"mentionName,omitempty"`
}

// CommentNode is one comment with its ordered live reply list.
type CommentNode struct {
	Comment models.Comment `json:"comment"`
	Replies []ReplyView    `json:"replies"`
}

// TreeFunc receives the full reassembled tree after every change.
type TreeFunc func(tree []CommentNode)

// Assembler keeps a post's comment tree synchronized. It subscribes to the
// comments collection and maintains one reply subscription per live comment,
// adding and cancelling them as comments appear and disappear.
//
// Snapshots from independent subscriptions arrive in no particular order: a
// reply set may update before its comment is known. Such replies are held
// and attached once the comment snapshot catches up.
type Assembler struct {
	st      store.Store
	postID  string
	onTree  TreeFunc
	onError store.ErrorFunc

	mu       sync.Mutex
	comments []models.Comment
	replies  map[string][]models.Reply
	subs     map[string]store.Subscription
	topSub   store.Subscription
	closed   bool
}

// NewAssembler builds an assembler for one post. Call Start to begin.
func NewAssembler(st store.Store, postID string, onTree TreeFunc, onError store.ErrorFunc) *Assembler {
	return &Assembler{
		st:      st,
		postID:  postID,
		onTree:  onTree,
		onError: onError,
		replies: make(map[string][]models.Reply),
		subs:    make(map[string]store.Subscription),
	}
}

// Start subscribes to the post's comments. The first tree is delivered with
// the initial snapshot.
func (a *Assembler) Start(ctx context.Context) error {
	q := store.Query{OrderBy: []store.Order{{Field: "createdAt"}}}
	sub, err := a.st.Subscribe(ctx, a.commentsPath(), q, a.onComments, a.forwardError)
	if err != nil {
		return err
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	a.topSub = sub
	a.mu.Unlock()
	return nil
}

// Close cancels every subscription. Callbacks arriving afterwards are
// dropped.
func (a *Assembler) Close() {
	a.mu.Lock()
	a.closed = true
	topSub := a.topSub
	subs := a.subs
	a.subs = make(map[string]store.Subscription)
	a.mu.Unlock()

	if topSub != nil {
		topSub.Unsubscribe()
	}
	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Tree returns the current tree.
func (a *Assembler) Tree() []CommentNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.buildTree()
}

func (a *Assembler) commentsPath() string {
	return store.Join("posts", a.postID, "comments")
}

func (a *Assembler) repliesPath(commentID string) string {
	return store.Join("posts", a.postID, "comments", commentID, "replies")
}

// onComments is the comments snapshot handler: refresh the ordered comment
// list, then reconcile reply subscriptions against it.
func (a *Assembler) onComments(docs []store.Document) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}

	a.comments = a.comments[:0]
	current := make(map[string]bool, len(docs))
	for _, d := range docs {
		a.comments = append(a.comments, models.CommentFromDoc(d))
		current[d.ID] = true
	}

	var added []string
	for id := range current {
		if _, ok := a.subs[id]; !ok {
			added = append(added, id)
			a.subs[id] = nil // placeholder until the subscription exists
		}
	}
	var removed []store.Subscription
	for id, sub := range a.subs {
		if !current[id] {
			if sub != nil {
				removed = append(removed, sub)
			}
			delete(a.subs, id)
			delete(a.replies, id)
		}
	}
	a.mu.Unlock()

	for _, sub := range removed {
		sub.Unsubscribe()
	}
	for _, id := range added {
		a.subscribeReplies(id)
	}
	a.emit()
}

func (a *Assembler) subscribeReplies(commentID string) {
	q := store.Query{OrderBy: []store.Order{{Field: "createdAt"}}}
	onSnap := func(docs []store.Document) { a.onReplies(commentID, docs) }

	sub, err := a.st.Subscribe(context.Background(), a.repliesPath(commentID), q, onSnap, a.forwardError)
	if err != nil {
		a.forwardError(err)
		return
	}

	a.mu.Lock()
	_, wanted := a.subs[commentID]
	if a.closed || !wanted {
		a.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	a.subs[commentID] = sub
	a.mu.Unlock()
}

func (a *Assembler) onReplies(commentID string, docs []store.Document) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	list := make([]models.Reply, 0, len(docs))
	for _, d := range docs {
		list = append(list, models.ReplyFromDoc(d))
	}
	// Kept even when the comment is not (yet) in the comment snapshot; the
	// tree attaches it once the comment arrives.
	a.replies[commentID] = list
	a.mu.Unlock()

	a.emit()
}

func (a *Assembler) emit() {
	a.mu.Lock()
	if a.closed || a.onTree == nil {
		a.mu.Unlock()
		return
	}
	tree := a.buildTree()
	a.mu.Unlock()

	a.onTree(tree)
}

// buildTree merges comments and replies in createdAt order. Caller holds mu.
func (a *Assembler) buildTree() []CommentNode {
	tree := make([]CommentNode, 0, len(a.comments))
	for _, c := range a.comments {
		replies := a.replies[c.ID]

		byID := make(map[string]models.Reply, len(replies))
		for _, r := range replies {
			byID[r.ID] = r
		}

		views := make([]ReplyView, 0, len(replies))
		for _, r := range replies {
			views = append(views, ReplyView{Reply: r, MentionName: mentionName(r, byID)})
		}
		tree = append(tree, CommentNode{Comment: c, Replies: views})
	}
	return tree
}

// mentionName resolves a reply-to-reply mention against the current reply
// set, falling back to a generic label when the target is already gone.
func mentionName(r models.Reply, byID map[string]models.Reply) string {
	if r.InReplyToReplyID == "" {
		return ""
	}
	if target, ok := byID[r.InReplyToReplyID]; ok && target.AuthorName != "" {
		return target.AuthorName
	}
	if r.InReplyToName != "" {
		return r.InReplyToName
	}
	return UnknownAuthor
}

func (a *Assembler) forwardError(err error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed || a.onError == nil {
		return
	}
	a.onError(err)
}
