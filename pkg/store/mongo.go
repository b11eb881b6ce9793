package store

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/example/pizzashop/pkg/config"
)

// Mongo persists every document in a single backing collection keyed by its
// hierarchical path, so wildcard patterns become a single path query.
// Change signals travel through the Notifier.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
	config   *config.MongoDBConfig
	notifier Notifier
	logger   *zap.Logger
}

type record struct {
	ID        string    `bson:"_id"`
	Path      string    `bson:"path"`
	Data      Document  `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongo(cfg *config.MongoDBConfig, notifier Notifier, logger *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &Mongo{
		client:   client,
		database: client.Database(cfg.Database),
		config:   cfg,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Client exposes the underlying connection for components that keep their
// own collections, like the credential directory.
func (m *Mongo) Client() *mongo.Client {
	return m.client
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) collection() *mongo.Collection {
	return m.database.Collection(m.config.Collection)
}

func (m *Mongo) Create(ctx context.Context, collection string, doc Document) (string, error) {
	rec := record{
		ID:        uuid.NewString(),
		Path:      collection,
		Data:      cloneDocument(doc),
		CreatedAt: time.Now(),
	}
	if _, err := m.collection().InsertOne(ctx, rec); err != nil {
		return "", err
	}
	m.publish(ctx, collection)
	return rec.ID, nil
}

func (m *Mongo) Update(ctx context.Context, docPath string, fields Document) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range fields {
		set["data."+k] = v
	}
	if _, err := m.collection().UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return err
	}
	m.publish(ctx, collection)
	return nil
}

func (m *Mongo) Delete(ctx context.Context, docPath string) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	if _, err := m.collection().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return err
	}
	m.publish(ctx, collection)
	return nil
}

func (m *Mongo) DeleteAll(ctx context.Context, collection string) error {
	if _, err := m.collection().DeleteMany(ctx, bson.M{"path": collection}); err != nil {
		return err
	}
	m.publish(ctx, collection)
	return nil
}

func (m *Mongo) Subscribe(ctx context.Context, pattern string, onChange ChangeHandler, onError ErrorHandler) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)

	signals, stop, err := m.notifier.Listen(subCtx, pattern)
	if err != nil {
		cancel()
		return nil, err
	}

	deliver := func() {
		snap, err := m.snapshot(subCtx, pattern)
		if err != nil {
			if subCtx.Err() == nil && onError != nil {
				onError(err)
			}
			return
		}
		if subCtx.Err() == nil {
			onChange(snap)
		}
	}

	go func() {
		deliver()
		for {
			select {
			case _, ok := <-signals:
				if !ok {
					return
				}
				deliver()
			case <-subCtx.Done():
				return
			}
		}
	}()

	return func() {
		cancel()
		stop()
	}, nil
}

func (m *Mongo) snapshot(ctx context.Context, pattern string) (Snapshot, error) {
	filter := pathFilter(pattern)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := m.collection().Find(ctx, filter, opts)
	if err != nil {
		return Snapshot{}, err
	}
	defer cursor.Close(ctx)

	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Pattern: pattern}
	for _, r := range recs {
		snap.Docs = append(snap.Docs, Doc{ID: r.ID, Path: r.Path + "/" + r.ID, Data: r.Data})
	}
	return snap, nil
}

func (m *Mongo) publish(ctx context.Context, collection string) {
	if err := m.notifier.Publish(ctx, collection); err != nil {
		m.logger.Warn("failed to publish change signal",
			zap.String("collection", collection), zap.Error(err))
	}
}

func pathFilter(pattern string) bson.M {
	if !strings.Contains(pattern, "*") {
		return bson.M{"path": pattern}
	}
	segments := strings.Split(pattern, "/")
	for i, s := range segments {
		if s == "*" {
			segments[i] = "[^/]+"
		} else {
			segments[i] = regexp.QuoteMeta(s)
		}
	}
	expr := "^" + strings.Join(segments, "/") + "$"
	return bson.M{"path": primitive.Regex{Pattern: expr}}
}
