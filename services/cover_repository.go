package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aaandrangom/biblioteca-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidCoverID is returned for ids that are not Mongo ObjectIDs
var ErrInvalidCoverID = validationError("INVALID_COVER_ID", "cover id is not valid")

// CoverRepository persists cover documents
type CoverRepository interface {
	FindByTitleKey(ctx context.Context, titleKey string) (*models.Cover, error)
	FindByID(ctx context.Context, id string) (*models.Cover, error)
	Search(ctx context.Context, title string) ([]models.Cover, error)
	Upsert(ctx context.Context, cover *models.Cover) (*models.Cover, error)
	SetImageKey(ctx context.Context, id, imageKey string) (*models.Cover, error)
}

// MongoCoverRepository stores covers in the portadas collection
type MongoCoverRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoCoverRepository connects to MongoDB and ensures the title index exists
func NewMongoCoverRepository(ctx context.Context, uri, database string) (*MongoCoverRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	collection := client.Database(database).Collection(models.CoverCollection)
	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "titulo_clave", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create cover index: %w", err)
	}

	return &MongoCoverRepository{client: client, collection: collection}, nil
}

// Close disconnects the client
func (r *MongoCoverRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoCoverRepository) findOne(ctx context.Context, filter bson.M) (*models.Cover, error) {
	var cover models.Cover
	if err := r.collection.FindOne(ctx, filter).Decode(&cover); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCoverNotFound
		}
		return nil, fmt.Errorf("failed to load cover: %w", err)
	}
	return &cover, nil
}

func (r *MongoCoverRepository) FindByTitleKey(ctx context.Context, titleKey string) (*models.Cover, error) {
	return r.findOne(ctx, bson.M{"titulo_clave": titleKey})
}

func (r *MongoCoverRepository) FindByID(ctx context.Context, id string) (*models.Cover, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidCoverID
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// Search lists covers whose title contains title, ignoring case
func (r *MongoCoverRepository) Search(ctx context.Context, title string) ([]models.Cover, error) {
	filter := bson.M{}
	if key := models.NormalizeTitle(title); key != "" {
		filter["titulo_clave"] = bson.M{"$regex": regexp.QuoteMeta(key)}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "titulo_clave", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to search covers: %w", err)
	}
	defer cursor.Close(ctx)

	covers := []models.Cover{}
	if err := cursor.All(ctx, &covers); err != nil {
		return nil, fmt.Errorf("failed to decode covers: %w", err)
	}
	return covers, nil
}

// Upsert inserts or refreshes the cover for its title key
func (r *MongoCoverRepository) Upsert(ctx context.Context, cover *models.Cover) (*models.Cover, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"titulo":     cover.Title,
			"urlPortada": cover.URL,
			"olid":       cover.EditionID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved models.Cover
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"titulo_clave": cover.TitleKey}, update, opts).Decode(&saved)
	if err != nil {
		return nil, fmt.Errorf("failed to save cover: %w", err)
	}
	return &saved, nil
}

// SetImageKey records an uploaded custom image on the cover
func (r *MongoCoverRepository) SetImageKey(ctx context.Context, id, imageKey string) (*models.Cover, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidCoverID
	}

	update := bson.M{"$set": bson.M{"imagen_clave": imageKey, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved models.Cover
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&saved); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCoverNotFound
		}
		return nil, fmt.Errorf("failed to update cover image: %w", err)
	}
	return &saved, nil
}

// MemoryCoverRepository keeps covers in process memory. Used when MONGO_URI is unset and in tests.
type MemoryCoverRepository struct {
	mu     sync.Mutex
	covers map[primitive.ObjectID]models.Cover
}

// NewMemoryCoverRepository creates an empty in-memory repository
func NewMemoryCoverRepository() *MemoryCoverRepository {
	return &MemoryCoverRepository{covers: make(map[primitive.ObjectID]models.Cover)}
}

func (m *MemoryCoverRepository) FindByTitleKey(ctx context.Context, titleKey string) (*models.Cover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.covers {
		if c.TitleKey == titleKey {
			c := c
			return &c, nil
		}
	}
	return nil, ErrCoverNotFound
}

func (m *MemoryCoverRepository) FindByID(ctx context.Context, id string) (*models.Cover, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidCoverID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.covers[oid]
	if !ok {
		return nil, ErrCoverNotFound
	}
	return &c, nil
}

func (m *MemoryCoverRepository) Search(ctx context.Context, title string) ([]models.Cover, error) {
	key := models.NormalizeTitle(title)
	m.mu.Lock()
	defer m.mu.Unlock()
	covers := []models.Cover{}
	for _, c := range m.covers {
		if strings.Contains(c.TitleKey, key) {
			covers = append(covers, c)
		}
	}
	sort.Slice(covers, func(i, j int) bool { return covers[i].TitleKey < covers[j].TitleKey })
	return covers, nil
}

func (m *MemoryCoverRepository) Upsert(ctx context.Context, cover *models.Cover) (*models.Cover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	for id, c := range m.covers {
		if c.TitleKey == cover.TitleKey {
			c.Title, c.URL, c.EditionID, c.UpdatedAt = cover.Title, cover.URL, cover.EditionID, now
			m.covers[id] = c
			return &c, nil
		}
	}
	c := *cover
	c.ID = primitive.NewObjectID()
	c.CreatedAt, c.UpdatedAt = now, now
	m.covers[c.ID] = c
	return &c, nil
}

func (m *MemoryCoverRepository) SetImageKey(ctx context.Context, id, imageKey string) (*models.Cover, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidCoverID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.covers[oid]
	if !ok {
		return nil, ErrCoverNotFound
	}
	c.ImageKey = &imageKey
	c.UpdatedAt = time.Now().UTC()
	m.covers[oid] = c
	return &c, nil
}
