package thread

import (
	"context"

	"github.com/chorock-rock/proto-bizblah/models"
	"github.com/chorock-rock/proto-bizblah/store"
)

// Load materializes a post's comment tree once, without subscriptions.
// The REST read path uses this; live consumers use Assembler.
func Load(ctx context.Context, st store.Store, postID string) ([]CommentNode, error) {
	order := store.Query{OrderBy: []store.Order{{Field: "createdAt"}}}

	commentDocs, err := st.GetOnce(ctx, store.Join("posts", postID, "comments"), order)
	if err != nil {
		return nil, err
	}

	tree := make([]CommentNode, 0, len(commentDocs))
	for _, cd := range commentDocs {
		replyDocs, err := st.GetOnce(ctx, store.Join("posts", postID, "comments", cd.ID, "replies"), order)
		if err != nil {
			return nil, err
		}

		replies := make([]models.Reply, 0, len(replyDocs))
		byID := make(map[string]models.Reply, len(replyDocs))
		for _, rd := range replyDocs {
			r := models.ReplyFromDoc(rd)
			replies = append(replies, r)
			byID[r.ID] = r
		}

		views := make([]ReplyView, 0, len(replies))
		for _, r := range replies {
			views = append(views, ReplyView{Reply: r, MentionName: mentionName(r, byID)})
		}
		tree = append(tree, CommentNode{Comment: models.CommentFromDoc(cd), Replies: views})
	}
	return tree, nil
}
