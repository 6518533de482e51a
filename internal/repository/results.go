package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/omkarspace/Doc-Check/internal/common"
	"github.com/omkarspace/Doc-Check/internal/entity"
)

// ResultStore keeps the unstructured extraction payloads. The relational
// store holds only the reference id.
type ResultStore interface {
	Save(ctx context.Context, documentID uuid.UUID, ex *entity.Extraction) (string, error)
	Get(ctx context.Context, id string) (*entity.Extraction, error)
}

type resultDoc struct {
	ID         string            `bson:"_id"`
	DocumentID string            `bson:"document_id"`
	Extraction entity.Extraction `bson:"extraction"`
	CreatedAt  time.Time         `bson:"created_at"`
}

type mongoResultStore struct {
	coll *mongo.Collection
	log  *slog.Logger
}

// OpenMongo connects the document store and pings it so a bad MONGO_URL is a
// startup failure.
func OpenMongo(ctx context.Context, url, database string, timeout time.Duration, logger *slog.Logger) (*mongo.Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(url))
	if err != nil {
		logger.Error("failed to connect to document store", "error", err)
		return nil, err
	}
	if err := client.Ping(connCtx, nil); err != nil {
		logger.Error("document store ping failed", "error", err)
		return nil, err
	}
	logger.Info("connected to document store", "database", database)
	return client, nil
}

func NewMongoResultStore(client *mongo.Client, database string, log *slog.Logger) ResultStore {
	return &mongoResultStore{
		coll: client.Database(database).Collection("extraction_results"),
		log:  log,
	}
}

func (s *mongoResultStore) Save(ctx context.Context, documentID uuid.UUID, ex *entity.Extraction) (string, error) {
	doc := resultDoc{
		ID:         uuid.New().String(),
		DocumentID: documentID.String(),
		Extraction: *ex,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		s.log.Error("result save failed", "document_id", documentID, "error", err)
		return "", common.StorageErrorf("save extraction result: %v", err)
	}
	s.log.Info("extraction result saved", "document_id", documentID, "result_id", doc.ID)
	return doc.ID, nil
}

func (s *mongoResultStore) Get(ctx context.Context, id string) (*entity.Extraction, error) {
	var doc resultDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, common.NotFoundErrorf("extraction result %s", id)
	}
	if err != nil {
		return nil, common.StorageErrorf("load extraction result: %v", err)
	}
	return &doc.Extraction, nil
}

// MemoryResultStore is the in-process fallback used when no MONGO_URL is
// configured, and by tests.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string]entity.Extraction
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[string]entity.Extraction)}
}

func (s *MemoryResultStore) Save(_ context.Context, _ uuid.UUID, ex *entity.Extraction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.results[id] = *ex
	return id, nil
}

func (s *MemoryResultStore) Get(_ context.Context, id string) (*entity.Extraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ex, ok := s.results[id]
	if !ok {
		return nil, common.NotFoundErrorf("extraction result %s", id)
	}
	return &ex, nil
}
