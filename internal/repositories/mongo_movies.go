package repositories

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Taswoor2507/movie-api/internal/models"
)

type movieDocument struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	models.Movie `bson:",inline"`
	TitleIndex   string   `bson:"titleKey"`
	GenreIndex   []string `bson:"genreKeys"`
}

func newMovieDocument(movie models.Movie) movieDocument {
	if movie.Genre == nil {
		movie.Genre = []string{}
	}
	if movie.Actors == nil {
		movie.Actors = []string{}
	}
	if movie.Reviews == nil {
		movie.Reviews = []models.Review{}
	}
	return movieDocument{
		Movie:      movie,
		TitleIndex: movie.TitleKey(),
		GenreIndex: movie.GenreKeys(),
	}
}

func (d movieDocument) model() models.Movie {
	movie := d.Movie
	movie.ID = d.ID.Hex()
	return movie
}

// MongoMovieRepository stores movies in a MongoDB collection.
type MongoMovieRepository struct {
	coll *mongo.Collection
}

// NewMongoMovieRepository constructs a movie repository on the given database.
func NewMongoMovieRepository(database *mongo.Database) *MongoMovieRepository {
	return &MongoMovieRepository{coll: database.Collection(moviesCollection)}
}

// FindByTitle matches the whole title case-insensitively.
func (r *MongoMovieRepository) FindByTitle(ctx context.Context, title string) (models.Movie, error) {
	return r.findOne(ctx, bson.M{"titleKey": models.NormalizeKey(title)})
}

// FindByID fetches a movie by its hex object id.
func (r *MongoMovieRepository) FindByID(ctx context.Context, id string) (models.Movie, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return models.Movie{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// ListByGenre returns movies tagged with the genre, ignoring case.
func (r *MongoMovieRepository) ListByGenre(ctx context.Context, genre string) ([]models.Movie, error) {
	return r.find(ctx, bson.M{"genreKeys": models.NormalizeKey(genre)})
}

// ListAll returns every movie in insertion order.
func (r *MongoMovieRepository) ListAll(ctx context.Context) ([]models.Movie, error) {
	return r.find(ctx, bson.M{})
}

// Upsert inserts the movie only when its title is not stored yet.
func (r *MongoMovieRepository) Upsert(ctx context.Context, movie models.Movie) (models.Movie, error) {
	doc := newMovieDocument(movie)
	doc.ID = bson.NilObjectID

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored movieDocument
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"titleKey": doc.TitleIndex},
		bson.M{"$setOnInsert": doc},
		opts,
	).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// Lost an insert race; the winner's document is authoritative.
		return r.findOne(ctx, bson.M{"titleKey": doc.TitleIndex})
	}
	if err != nil {
		return models.Movie{}, translateMongoError(err, "upsert movie")
	}
	return stored.model(), nil
}

// Save replaces the document when its version is unchanged.
func (r *MongoMovieRepository) Save(ctx context.Context, movie models.Movie) (models.Movie, error) {
	oid, err := parseObjectID(movie.ID)
	if err != nil {
		return models.Movie{}, err
	}

	next := movie
	next.Version = movie.Version + 1
	doc := newMovieDocument(next)
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "version": versionFilter(movie.Version)}, doc)
	if err != nil {
		return models.Movie{}, translateMongoError(err, "replace movie")
	}
	if res.MatchedCount == 0 {
		return models.Movie{}, r.missOrConflict(ctx, oid)
	}
	return doc.model(), nil
}

// MarkPosterMirrored records the mirrored poster location.
func (r *MongoMovieRepository) MarkPosterMirrored(ctx context.Context, id, location string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"posterMirror": location},
		"$inc": bson.M{"version": 1},
	})
	if err != nil {
		return translateMongoError(err, "mark poster mirrored")
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// NormalizeGenres converts string genres into arrays and fills in lookup keys
// on documents written before they existed.
func (r *MongoMovieRepository) NormalizeGenres(ctx context.Context) (int, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"genre": bson.M{"$type": "string"}},
		bson.M{"titleKey": bson.M{"$exists": false}},
		bson.M{"genreKeys": bson.M{"$exists": false}},
	}}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("find legacy movies: %w", err)
	}
	defer cursor.Close(ctx)

	var changed int
	for cursor.Next(ctx) {
		var legacy struct {
			ID    bson.ObjectID `bson:"_id"`
			Title string        `bson:"title"`
			Genre bson.RawValue `bson:"genre"`
		}
		if err := cursor.Decode(&legacy); err != nil {
			return changed, fmt.Errorf("decode legacy movie: %w", err)
		}

		movie := models.Movie{Title: legacy.Title, Genre: legacyGenres(legacy.Genre)}
		_, err := r.coll.UpdateOne(ctx, bson.M{"_id": legacy.ID}, bson.M{"$set": bson.M{
			"genre":     movie.Genre,
			"titleKey":  movie.TitleKey(),
			"genreKeys": movie.GenreKeys(),
		}})
		if err != nil {
			return changed, translateMongoError(err, "normalize movie "+legacy.ID.Hex())
		}
		changed++
	}
	if err := cursor.Err(); err != nil {
		return changed, fmt.Errorf("iterate legacy movies: %w", err)
	}
	return changed, nil
}

func (r *MongoMovieRepository) findOne(ctx context.Context, filter bson.M) (models.Movie, error) {
	var doc movieDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return models.Movie{}, translateMongoError(err, "find movie")
	}
	return doc.model(), nil
}

func (r *MongoMovieRepository) find(ctx context.Context, filter bson.M) ([]models.Movie, error) {
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find movies: %w", err)
	}
	var docs []movieDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movies: %w", err)
	}

	movies := make([]models.Movie, 0, len(docs))
	for _, doc := range docs {
		movies = append(movies, doc.model())
	}
	return movies, nil
}

func (r *MongoMovieRepository) missOrConflict(ctx context.Context, oid bson.ObjectID) error {
	count, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("count movie: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return ErrVersionConflict
}

// versionFilter matches documents written before versioning when version is 0.
func versionFilter(version int) any {
	if version == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return version
}

func legacyGenres(value bson.RawValue) []string {
	switch value.Type {
	case bson.TypeString:
		return models.SplitList(value.StringValue())
	case bson.TypeArray:
		var genres []string
		if err := value.Unmarshal(&genres); err == nil {
			return genres
		}
	}
	return []string{}
}

var _ MovieRepository = (*MongoMovieRepository)(nil)
