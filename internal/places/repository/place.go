package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	placeserrors "parkspot/internal/places/errors"
	"parkspot/pkg/config"
	"parkspot/pkg/model"
)

const CollectionName = "Places"

type PlaceRepository interface {
	Create(ctx context.Context, place *model.Place) error
	FindByID(ctx context.Context, id string) (*model.Place, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Place, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, place *model.Place) error
	Delete(ctx context.Context, id string) error
}

type mongoPlaceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPlaceRepository(cfg *config.Config) PlaceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPlaceRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoPlaceRepository) Create(ctx context.Context, place *model.Place) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	place.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, place)
	if err != nil {
		return fmt.Errorf("failed to create place: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		place.ID = oid.Hex()
	}
	return nil
}

func (r *mongoPlaceRepository) FindByID(ctx context.Context, id string) (*model.Place, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", placeserrors.ErrInvalidID, id)
	}

	var place model.Place
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&place)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, placeserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find place: %w", err)
	}

	return &place, nil
}

func (r *mongoPlaceRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Place, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find places: %w", err)
	}
	defer cursor.Close(ctx)

	var places []*model.Place
	if err = cursor.All(ctx, &places); err != nil {
		return nil, fmt.Errorf("failed to decode places: %w", err)
	}

	return places, nil
}

func (r *mongoPlaceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count places: %w", err)
	}
	return count, nil
}

func (r *mongoPlaceRepository) Update(ctx context.Context, id string, place *model.Place) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", placeserrors.ErrInvalidID, id)
	}

	set := bson.M{
		"description": place.Description,
		"type":        place.Type,
		"geolocation": place.Geolocation,
	}
	if place.Picture != "" {
		set["picture"] = place.Picture
	}
	if place.AvailabilityDate != nil {
		set["availability_date"] = place.AvailabilityDate
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if result.MatchedCount == 0 {
		return placeserrors.ErrNotFound
	}

	return nil
}

func (r *mongoPlaceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", placeserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete place: %w", err)
	}
	if result.DeletedCount == 0 {
		return placeserrors.ErrNotFound
	}

	return nil
}
