package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/roamly-app/backend/internal/errs"
	"github.com/roamly-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoryWindow is the fixed visibility window of a story.
const StoryWindow = 24 * time.Hour

// StoryRepository defines the interface for story persistence
type StoryRepository interface {
	EnsureIndexes(ctx context.Context) error
	CreateStory(ctx context.Context, story *models.Story) error
	GetLiveByID(ctx context.Context, id string) (*models.Story, error)
	GetActiveByOwner(ctx context.Context, ownerID uint) ([]models.Story, error)
	GetActiveByOwners(ctx context.Context, ownerIDs []uint) ([]models.Story, error)
	AddView(ctx context.Context, id string, viewerID uint) (story *models.Story, added bool, err error)
	DeleteByID(ctx context.Context, id string) error
}

type mongoStoryRepository struct {
	collection *mongo.Collection
}

func NewMongoStoryRepository(db *mongo.Database) StoryRepository {
	return &mongoStoryRepository{collection: db.Collection("stories")}
}

// EnsureIndexes creates the TTL index that removes stories past expires_at
// and the owner/recency index backing the feed queries.
func (r *mongoStoryRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

func (r *mongoStoryRepository) CreateStory(ctx context.Context, story *models.Story) error {
	story.ID = primitive.NewObjectID()
	story.CreatedAt = time.Now()
	story.ExpiresAt = story.CreatedAt.Add(StoryWindow)
	if story.Views == nil {
		story.Views = []models.StoryView{}
	}
	_, err := r.collection.InsertOne(ctx, story)
	return err
}

// GetLiveByID returns the story only while it is within its visibility
// window. An expired story is indistinguishable from one that never
// existed.
func (r *mongoStoryRepository) GetLiveByID(ctx context.Context, id string) (*models.Story, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.ErrNotFound
	}
	var story models.Story
	err = r.collection.FindOne(ctx, liveFilter(bson.M{"_id": objID})).Decode(&story)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &story, nil
}

func (r *mongoStoryRepository) GetActiveByOwner(ctx context.Context, ownerID uint) ([]models.Story, error) {
	return r.findActive(ctx, liveFilter(bson.M{"user_id": ownerID}))
}

func (r *mongoStoryRepository) GetActiveByOwners(ctx context.Context, ownerIDs []uint) ([]models.Story, error) {
	if len(ownerIDs) == 0 {
		return []models.Story{}, nil
	}
	return r.findActive(ctx, liveFilter(bson.M{"user_id": bson.M{"$in": ownerIDs}}))
}

func (r *mongoStoryRepository) findActive(ctx context.Context, filter bson.M) ([]models.Story, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stories := []models.Story{}
	if err = cursor.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

// AddView appends a view record unless the viewer already has one. The
// dedup check and the append happen in a single server-side update whose
// filter excludes stories already viewed by this viewer, so two
// concurrent calls can never both append.
func (r *mongoStoryRepository) AddView(ctx context.Context, id string, viewerID uint) (*models.Story, bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, errs.ErrNotFound
	}

	filter := liveFilter(bson.M{
		"_id":             objID,
		"views.viewer_id": bson.M{"$ne": viewerID},
	})
	update := bson.M{"$push": bson.M{"views": models.StoryView{
		ViewerID: viewerID,
		ViewedAt: time.Now(),
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Story
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	// Either the viewer already viewed it or the story is gone; a second
	// lookup distinguishes the two.
	story, err := r.GetLiveByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return story, false, nil
}

// DeleteByID removes a story immediately, bypassing the TTL sweep.
func (r *mongoStoryRepository) DeleteByID(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return errs.ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// liveFilter restricts a query to stories still inside their window.
func liveFilter(filter bson.M) bson.M {
	filter["expires_at"] = bson.M{"$gt": time.Now()}
	return filter
}
