package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	models "github.com/phillip/chama-tracker-go/models"
)

type mongoRecord struct {
	ID        string          `bson:"_id"`
	SHA       string          `bson:"sha"`
	UpdatedAt time.Time       `bson:"updated_at"`
	Document  models.Document `bson:",inline"`
}

// mongoDocs is what the store needs from a collection.
type mongoDocs interface {
	findOne(ctx context.Context, id string) (*mongoRecord, error)
	insert(ctx context.Context, rec *mongoRecord) error
	replace(ctx context.Context, id, sha string, rec *mongoRecord) (bool, error)
	list(ctx context.Context) ([]FileInfo, error)
}

// Mongo keeps the whole document as one MongoDB document and guards writes with its sha field.
type Mongo struct {
	client *mongo.Client
	docs   mongoDocs
	id     string
}

type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	DocumentID string
}

func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	col := client.Database(opts.Database).Collection(opts.Collection)
	return &Mongo{client: client, docs: &mongoCollection{col: col}, id: opts.DocumentID}, nil
}

func (m *Mongo) Name() string { return "mongo" }

func (m *Mongo) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}

func (m *Mongo) Load(ctx context.Context) (*Snapshot, error) {
	rec, err := m.docs.findOne(ctx, m.id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return emptySnapshot(), nil
	}
	doc := rec.Document
	return &Snapshot{Document: doc.Normalize(), SHA: rec.SHA, Exists: true}, nil
}

func (m *Mongo) Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}
	rec := &mongoRecord{
		ID:        m.id,
		SHA:       ContentSHA(data),
		UpdatedAt: time.Now().UTC(),
		Document:  *doc,
	}

	if expectedSHA == "" {
		if err := m.docs.insert(ctx, rec); err != nil {
			return "", err
		}
		return rec.SHA, nil
	}

	matched, err := m.docs.replace(ctx, m.id, expectedSHA, rec)
	if err != nil {
		return "", err
	}
	if !matched {
		return "", ErrConflict
	}
	return rec.SHA, nil
}

func (m *Mongo) List(ctx context.Context) ([]FileInfo, error) {
	return m.docs.list(ctx)
}

// ---------------- COLLECTION ADAPTER ----------------

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) findOne(ctx context.Context, id string) (*mongoRecord, error) {
	var rec mongoRecord
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find document %s: %w", id, err)
	}
	return &rec, nil
}

func (c *mongoCollection) insert(ctx context.Context, rec *mongoRecord) error {
	_, err := c.col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert document %s: %w", rec.ID, err)
	}
	return nil
}

func (c *mongoCollection) replace(ctx context.Context, id, sha string, rec *mongoRecord) (bool, error) {
	res, err := c.col.ReplaceOne(ctx, bson.M{"_id": id, "sha": sha}, rec)
	if err != nil {
		return false, fmt.Errorf("replace document %s: %w", id, err)
	}
	return res.MatchedCount > 0, nil
}

func (c *mongoCollection) list(ctx context.Context) ([]FileInfo, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "sha": 1, "updated_at": 1})
	cursor, err := c.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var recs []struct {
		ID        string    `bson:"_id"`
		SHA       string    `bson:"sha"`
		UpdatedAt time.Time `bson:"updated_at"`
	}
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	files := make([]FileInfo, 0, len(recs))
	for _, r := range recs {
		files = append(files, FileInfo{
			Name:    r.ID,
			Path:    c.col.Database().Name() + "." + c.col.Name() + "/" + r.ID,
			SHA:     r.SHA,
			ModTime: r.UpdatedAt,
		})
	}
	return files, nil
}
