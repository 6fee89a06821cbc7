package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client

// Connect opens the mongo client and pings it.
func Connect(uri string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	log.Println("Connected to MongoDB successfully")
	return nil
}

// Disconnect closes the mongo client.
func Disconnect() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}

// EnsureIndexes creates the composite indexes the filtered+ordered queries
// rely on. Idempotent; safe to run at every boot.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		"posts": {
			{Keys: bson.D{{Key: "authorBrand", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		"brands": {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "nameLower", Value: 1}}},
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "storeCount", Value: -1}}},
		},
		"post_comments": {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		"post_comment_replies": {
			{Keys: bson.D{{Key: "postId", Value: 1}, {Key: "commentId", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		"brandReviews": {
			{Keys: bson.D{{Key: "brand", Value: 1}, {Key: "authorId", Value: 1}}},
		},
	}

	for coll, indexes := range specs {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}
