package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/example/pizzashop/pkg/config"
)

// MongoCredentials stores user records in their own collection, separate
// from the document store's backing collection.
type MongoCredentials struct {
	collection *mongo.Collection
}

func NewMongoCredentials(client *mongo.Client, cfg *config.MongoDBConfig) *MongoCredentials {
	return &MongoCredentials{
		collection: client.Database(cfg.Database).Collection(cfg.Users),
	}
}

func (c *MongoCredentials) FindByEmail(ctx context.Context, email string) (*UserRecord, error) {
	var rec UserRecord
	err := c.collection.FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *MongoCredentials) Insert(ctx context.Context, rec *UserRecord) error {
	_, err := c.collection.InsertOne(ctx, rec)
	return err
}
