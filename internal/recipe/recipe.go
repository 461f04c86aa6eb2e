// Package recipe defines core types shared across subsystems.
package recipe

import (
	"context"
	"errors"
)

// Recipe is the single persisted entity. Field names match the documents
// stored in the recipes collection.
type Recipe struct {
	Title        string   `bson:"title" json:"title"`
	Description  string   `bson:"description" json:"description"`
	Ingredients  []string `bson:"ingredients" json:"ingredients"`
	Instructions string   `bson:"instructions" json:"instructions"`
	Image        string   `bson:"image" json:"image"`
	Slug         string   `bson:"slug" json:"slug"`
}

// Sentinel errors shared by store implementations and mapped to HTTP
// statuses at the router boundary.
var (
	// ErrNotFound is returned when no recipe matches a lookup.
	ErrNotFound = errors.New("recipe not found")
	// ErrDuplicateSlug is returned when a create collides with the unique
	// slug index.
	ErrDuplicateSlug = errors.New("recipe slug already exists")
)

// Store persists recipes in a document collection.
type Store interface {
	// Create persists a new recipe. Returns ErrDuplicateSlug if a recipe
	// with the same slug already exists.
	Create(ctx context.Context, r Recipe) error
	// FindBySlug returns the recipe with the given slug or ErrNotFound.
	FindBySlug(ctx context.Context, slug string) (Recipe, error)
	// FindAll returns every recipe in the collection.
	FindAll(ctx context.Context) ([]Recipe, error)
	// FindRandomOne returns one uniformly sampled recipe, or ErrNotFound
	// when the collection is empty.
	FindRandomOne(ctx context.Context) (Recipe, error)
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
