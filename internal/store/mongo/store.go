// Package mongo implements the recipe store on top of the MongoDB driver.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mleone/recipebook/internal/recipe"
)

// Config captures the parameters for the Mongo-backed store.
type Config struct {
	URI        string
	Database   string
	Collection string
}

// Store persists recipes in a MongoDB collection with a unique slug index.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect establishes the client connection, verifies it with a ping, and
// ensures the unique slug index exists. The caller bounds the attempt with
// the context deadline; failure here is fatal at startup.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		// Best-effort disconnect; the ping error is the one that matters.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &Store{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create slug index: %w", err)
	}
	return nil
}

// Create inserts a new recipe document.
func (s *Store) Create(ctx context.Context, r recipe.Recipe) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert recipe %q: %w", r.Slug, recipe.ErrDuplicateSlug)
		}
		return fmt.Errorf("insert recipe %q: %w", r.Slug, err)
	}
	return nil
}

// FindBySlug fetches the recipe with the given slug.
func (s *Store) FindBySlug(ctx context.Context, slug string) (recipe.Recipe, error) {
	var r recipe.Recipe
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("find recipe %q: %w", slug, err)
	}
	return r, nil
}

// FindAll returns every recipe in the collection.
func (s *Store) FindAll(ctx context.Context) ([]recipe.Recipe, error) {
	cursor, err := s.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	var recipes []recipe.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	return recipes, nil
}

// FindRandomOne returns one uniformly sampled recipe via $sample.
func (s *Store) FindRandomOne(ctx context.Context) (recipe.Recipe, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sample", Value: bson.D{{Key: "size", Value: 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("sample recipe: %w", err)
	}
	var sampled []recipe.Recipe
	if err := cursor.All(ctx, &sampled); err != nil {
		return recipe.Recipe{}, fmt.Errorf("decode sampled recipe: %w", err)
	}
	if len(sampled) == 0 {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return sampled[0], nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
