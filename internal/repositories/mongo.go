package repositories

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	moviesCollection = "movies"
	usersCollection  = "users"
)

// EnsureMongoIndexes creates the unique indexes the repositories rely on for
// title and email uniqueness.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	movieIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "titleKey", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("movies_title_key"),
		},
		{
			Keys:    bson.D{{Key: "genreKeys", Value: 1}},
			Options: options.Index().SetName("movies_genre_keys"),
		},
	}
	if _, err := database.Collection(moviesCollection).Indexes().CreateMany(ctx, movieIndexes); err != nil {
		return fmt.Errorf("create movie indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("users_email"),
		},
	}
	if _, err := database.Collection(usersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func translateMongoError(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrConflict
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
