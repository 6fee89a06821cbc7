// Package mongostore implements store.Store on MongoDB. Hierarchical
// collection paths are flattened into top-level collections carrying parent
// reference fields: posts/{p}/comments maps to the post_comments collection
// with a postId field, posts/{p}/comments/{c}/replies to post_comment_replies
// with postId and commentId, and so on.
package mongostore

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chorock-rock/proto-bizblah/store"
)

// pollInterval is the subscription fallback cadence when change streams are
// unavailable (standalone mongod without a replica set).
const pollInterval = 2 * time.Second

// Store implements store.Store over a mongo database.
type Store struct {
	db *mongo.Database
}

// New wraps a mongo database as a store.Store.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

var _ store.Store = (*Store)(nil)

// target resolves a collection path into the flattened mongo collection and
// the parent reference filter shared by every document under that path.
type target struct {
	coll    *mongo.Collection
	parents bson.M
}

func (s *Store) resolve(collectionPath string) target {
	segs := store.Split(collectionPath)
	parents := bson.M{}
	nameParts := make([]string, 0, (len(segs)+1)/2)
	for i := 0; i < len(segs); i += 2 {
		if i+1 < len(segs) {
			// Ancestor collection segment with its document id.
			nameParts = append(nameParts, singular(segs[i]))
			parents[refField(segs[i])] = segs[i+1]
		} else {
			nameParts = append(nameParts, segs[i])
		}
	}
	return target{
		coll:    s.db.Collection(strings.Join(nameParts, "_")),
		parents: parents,
	}
}

func singular(seg string) string {
	return strings.TrimSuffix(seg, "s")
}

func refField(seg string) string {
	return singular(seg) + "Id"
}

func (s *Store) Get(ctx context.Context, docPath string) (store.Document, error) {
	t := s.resolve(store.Parent(docPath))
	id := store.DocID(docPath)

	var raw bson.M
	err := t.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Document{}, store.NewError(store.NotFound, docPath)
	}
	if err != nil {
		return store.Document{}, wrapErr(err)
	}
	return toDocument(raw, t.parents), nil
}

func (s *Store) GetOnce(ctx context.Context, collectionPath string, q store.Query) ([]store.Document, error) {
	t := s.resolve(collectionPath)

	filter := buildFilter(t, q)
	opts := options.Find().SetSort(buildSort(q))
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := t.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, queryErr(err, t.coll.Name(), q)
	}
	defer cursor.Close(ctx)

	var out []store.Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, wrapErr(err)
		}
		out = append(out, toDocument(raw, t.parents))
	}
	if err := cursor.Err(); err != nil {
		return nil, queryErr(err, t.coll.Name(), q)
	}
	return out, nil
}

func (s *Store) Subscribe(ctx context.Context, collectionPath string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) (store.Subscription, error) {
	subCtx, cancel := context.WithCancel(context.Background())
	sub := &subscription{cancel: cancel}

	initial, err := s.GetOnce(ctx, collectionPath, q)
	if err != nil {
		cancel()
		return nil, err
	}
	sub.deliver(onSnapshot, initial)

	go s.watch(subCtx, sub, collectionPath, q, onSnapshot, onError)
	return sub, nil
}

func (s *Store) watch(ctx context.Context, sub *subscription, collectionPath string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) {
	t := s.resolve(collectionPath)

	stream, err := t.coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		// No replica set: degrade to polling. Snapshots stay authoritative,
		// only the change trigger differs.
		s.poll(ctx, sub, collectionPath, q, onSnapshot, onError)
		return
	}
	defer stream.Close(context.Background())

	for stream.Next(ctx) {
		docs, err := s.GetOnce(ctx, collectionPath, q)
		if err != nil {
			if onError != nil && !sub.isClosed() {
				onError(err)
			}
			continue
		}
		sub.deliver(onSnapshot, docs)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil && onError != nil && !sub.isClosed() {
		onError(wrapErr(err))
	}
}

func (s *Store) poll(ctx context.Context, sub *subscription, collectionPath string, q store.Query, onSnapshot store.SnapshotFunc, onError store.ErrorFunc) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var last []store.Document
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			docs, err := s.GetOnce(ctx, collectionPath, q)
			if err != nil {
				if onError != nil && !sub.isClosed() {
					onError(err)
				}
				continue
			}
			if snapshotsEqual(last, docs) {
				continue
			}
			last = docs
			sub.deliver(onSnapshot, docs)
		}
	}
}

func (s *Store) Create(ctx context.Context, collectionPath string, data map[string]any) (string, error) {
	t := s.resolve(collectionPath)
	id := primitive.NewObjectID().Hex()

	doc := bson.M{"_id": id}
	for k, v := range data {
		doc[k] = v
	}
	for k, v := range t.parents {
		doc[k] = v
	}

	if _, err := t.coll.InsertOne(ctx, doc); err != nil {
		return "", wrapErr(err)
	}
	return id, nil
}

func (s *Store) Set(ctx context.Context, docPath string, data map[string]any, merge bool) error {
	t := s.resolve(store.Parent(docPath))
	id := store.DocID(docPath)

	fields := bson.M{}
	for k, v := range data {
		fields[k] = v
	}
	for k, v := range t.parents {
		fields[k] = v
	}

	if merge {
		_, err := t.coll.UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": fields}, options.Update().SetUpsert(true))
		return wrapErr(err)
	}
	fields["_id"] = id
	_, err := t.coll.ReplaceOne(ctx, bson.M{"_id": id}, fields,
		options.Replace().SetUpsert(true))
	return wrapErr(err)
}

func (s *Store) Update(ctx context.Context, docPath string, partial map[string]any) error {
	t := s.resolve(store.Parent(docPath))
	id := store.DocID(docPath)

	res, err := t.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(partial)})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.NewError(store.NotFound, docPath)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, docPath string) error {
	t := s.resolve(store.Parent(docPath))
	_, err := t.coll.DeleteOne(ctx, bson.M{"_id": store.DocID(docPath)})
	return wrapErr(err)
}

func (s *Store) AtomicIncrement(ctx context.Context, docPath string, field string, delta int64) error {
	t := s.resolve(store.Parent(docPath))
	id := store.DocID(docPath)

	res, err := t.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{field: delta}})
	if err != nil {
		return wrapErr(err)
	}
	if res.MatchedCount == 0 {
		return store.NewError(store.NotFound, docPath)
	}
	return nil
}

type subscription struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

func (sub *subscription) Unsubscribe() {
	sub.mu.Lock()
	sub.closed = true
	sub.mu.Unlock()
	sub.cancel()
}

func (sub *subscription) isClosed() bool {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.closed
}

// deliver serializes snapshot callbacks and drops them after Unsubscribe.
func (sub *subscription) deliver(onSnapshot store.SnapshotFunc, docs []store.Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.closed {
		return
	}
	onSnapshot(docs)
}

func buildFilter(t target, q store.Query) bson.M {
	filter := bson.M{}
	for k, v := range t.parents {
		filter[k] = v
	}
	for _, f := range q.Filters {
		op := map[string]string{
			"==": "$eq", "<": "$lt", "<=": "$lte", ">": "$gt", ">=": "$gte",
		}[f.Op]
		if op == "" {
			continue
		}
		existing, ok := filter[f.Field].(bson.M)
		if !ok {
			existing = bson.M{}
		}
		existing[op] = f.Value
		filter[f.Field] = existing
	}
	if q.After != nil {
		cond := cursorCondition(q)
		if and, ok := filter["$and"].([]bson.M); ok {
			filter["$and"] = append(and, cond)
		} else {
			filter["$and"] = []bson.M{cond}
		}
	}
	return filter
}

// cursorCondition expands a cursor into the strict range predicate for the
// query's sort order, tie-broken by _id.
func cursorCondition(q store.Query) bson.M {
	cur := q.After
	var branches []bson.M

	equalPrefix := func(n int) bson.M {
		eq := bson.M{}
		for i := 0; i < n && i < len(cur.Values); i++ {
			eq[q.OrderBy[i].Field] = cur.Values[i]
		}
		return eq
	}

	for i, o := range q.OrderBy {
		if i >= len(cur.Values) {
			break
		}
		op := "$gt"
		if o.Desc {
			op = "$lt"
		}
		branch := equalPrefix(i)
		branch[o.Field] = bson.M{op: cur.Values[i]}
		branches = append(branches, branch)
	}

	final := equalPrefix(len(q.OrderBy))
	final["_id"] = bson.M{"$gt": cur.ID}
	branches = append(branches, final)

	return bson.M{"$or": branches}
}

func buildSort(q store.Query) bson.D {
	sort := bson.D{}
	for _, o := range q.OrderBy {
		dir := 1
		if o.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: o.Field, Value: dir})
	}
	// Deterministic final key matching the cursor tie-break.
	sort = append(sort, bson.E{Key: "_id", Value: 1})
	return sort
}

func toDocument(raw bson.M, parents bson.M) store.Document {
	id, _ := raw["_id"].(string)
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		if _, isParent := parents[k]; isParent {
			continue
		}
		data[k] = v
	}
	return store.Document{ID: id, Data: data}
}

func snapshotsEqual(a, b []store.Document) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || len(a[i].Data) != len(b[i].Data) {
			return false
		}
		for k, v := range a[i].Data {
			if b[i].Data[k] != v {
				return false
			}
		}
	}
	return true
}

func queryErr(err error, collection string, q store.Query) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && strings.Contains(strings.ToLower(cmdErr.Message), "index") {
		spec := &store.IndexSpec{Collection: collection}
		for _, f := range q.Filters {
			spec.Fields = append(spec.Fields, store.IndexField{Field: f.Field})
		}
		for _, o := range q.OrderBy {
			spec.Fields = append(spec.Fields, store.IndexField{Field: o.Field, Desc: o.Desc})
		}
		return &store.StoreError{Kind: store.IndexMissing, Message: cmdErr.Message, Index: spec, Err: err}
	}
	return wrapErr(err)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	var se *store.StoreError
	if errors.As(err, &se) {
		return err
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == 13 {
		return &store.StoreError{Kind: store.PermissionDenied, Message: cmdErr.Message, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return &store.StoreError{Kind: store.Unavailable, Message: err.Error(), Err: err}
	}
	log.Printf("mongostore: unclassified error: %v", err)
	return &store.StoreError{Kind: store.Unavailable, Message: err.Error(), Err: err}
}
