// Package memory provides an in-memory recipe store for development/testing.
package memory

import (
	"context"
	"math/rand"
	"sync"

	"github.com/mleone/recipebook/internal/recipe"
)

// Store keeps recipes in insertion order behind a mutex. It enforces the
// same slug-uniqueness invariant as the Mongo store.
type Store struct {
	mu      sync.RWMutex
	recipes []recipe.Recipe
	bySlug  map[string]int
}

// New constructs a Store.
func New() *Store {
	return &Store{bySlug: make(map[string]int)}
}

// Create stores a new recipe, rejecting duplicate slugs.
func (s *Store) Create(_ context.Context, r recipe.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySlug[r.Slug]; exists {
		return recipe.ErrDuplicateSlug
	}
	s.bySlug[r.Slug] = len(s.recipes)
	s.recipes = append(s.recipes, r)
	return nil
}

// FindBySlug fetches a recipe by slug.
func (s *Store) FindBySlug(_ context.Context, slug string) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.bySlug[slug]
	if !ok {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return s.recipes[idx], nil
}

// FindAll returns all recipes in insertion order.
func (s *Store) FindAll(_ context.Context) ([]recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]recipe.Recipe, len(s.recipes))
	copy(out, s.recipes)
	return out, nil
}

// FindRandomOne returns one uniformly sampled recipe.
func (s *Store) FindRandomOne(_ context.Context) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.recipes) == 0 {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return s.recipes[rand.Intn(len(s.recipes))], nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
