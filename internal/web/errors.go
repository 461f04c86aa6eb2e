package web

import (
	"errors"
	"net/http"

	"github.com/mleone/recipebook/internal/recipe"
)

// statusFor maps store errors onto HTTP status codes in one place so every
// route classifies failures the same way: a missing recipe is 404, anything
// else (duplicate slug, connectivity, upload failures) is 500.
func statusFor(err error) int {
	if errors.Is(err, recipe.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func isNotFound(err error) bool {
	return errors.Is(err, recipe.ErrNotFound)
}
