// Package web exposes the server-rendered HTTP interface for the recipe service.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mleone/recipebook/internal/metrics"
	"github.com/mleone/recipebook/internal/recipe"
)

//go:embed templates/*.html
var templateFS embed.FS

// Saver stores a single uploaded file and returns its generated filename.
type Saver interface {
	Save(originalName string, r io.Reader) (string, error)
}

// Config captures the handler-level knobs the Server needs.
type Config struct {
	// UploadsDir is served at /uploads/ so stored images are fetchable.
	UploadsDir string
	// AssetsDir is served at /assets/.
	AssetsDir string
	// MaxUploadBytes bounds multipart form memory on create.
	MaxUploadBytes int64
}

// Server wires HTTP handlers to the recipe store and upload saver.
type Server struct {
	router chi.Router
	store  recipe.Store
	saver  Saver
	tmpl   *template.Template
	logger *zap.Logger
	cfg    Config
}

// NewServer constructs a Server with middleware, routes, and templates.
func NewServer(store recipe.Store, saver Saver, cfg Config, logger *zap.Logger) *Server {
	metrics.Init()

	s := &Server{
		store:  store,
		saver:  saver,
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
		logger: logger,
		cfg:    cfg,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metrics.Middleware)

	r.Get("/healthz", s.healthz)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	r.Get("/", s.listRecipes)
	r.Get("/recipe/{slug}", s.showRecipe)
	r.Post("/add-recipe", s.createRecipe)

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.AssetsDir))))

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		s.logger.Error("write healthz failed", zap.Error(err))
	}
}

type listPage struct {
	Recipes  []recipe.Recipe
	Featured *recipe.Recipe
}

type detailPage struct {
	Recipe recipe.Recipe
}

func (s *Server) listRecipes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	recipes, err := s.store.FindAll(ctx)
	if err != nil {
		s.logger.Error("fetch recipes failed", zap.Error(err))
		s.textError(w, statusFor(err), "Error fetching recipes")
		return
	}

	page := listPage{Recipes: recipes}
	if len(recipes) > 0 {
		// Sampled independently of the listing, exactly like the $sample
		// aggregation the listing page has always used.
		featured, err := s.store.FindRandomOne(ctx)
		switch {
		case err == nil:
			page.Featured = &featured
		case isNotFound(err):
			// Collection emptied between the two reads; render without one.
		default:
			s.logger.Error("fetch featured recipe failed", zap.Error(err))
			s.textError(w, statusFor(err), "Error fetching recipes")
			return
		}
	}

	s.render(w, "main.html", page)
}

func (s *Server) showRecipe(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	rec, err := s.store.FindBySlug(r.Context(), slug)
	if err != nil {
		if isNotFound(err) {
			s.textError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		s.logger.Error("fetch recipe failed", zap.String("slug", slug), zap.Error(err))
		s.textError(w, statusFor(err), "Error retrieving recipe")
		return
	}

	s.render(w, "recipe.html", detailPage{Recipe: rec})
}

func (s *Server) createRecipe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.logger.Error("parse recipe form failed", zap.Error(err))
		s.textError(w, http.StatusInternalServerError, "Error adding recipe")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		s.logger.Error("read image upload failed", zap.Error(err))
		s.textError(w, http.StatusInternalServerError, "Error adding recipe")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			s.logger.Warn("close upload failed", zap.Error(closeErr))
		}
	}()

	// The upload must land on disk before the recipe is persisted. A create
	// failure after this point leaves the file orphaned; nothing cleans it up.
	filename, err := s.saver.Save(header.Filename, file)
	if err != nil {
		s.logger.Error("store image upload failed", zap.Error(err))
		s.textError(w, http.StatusInternalServerError, "Error adding recipe")
		return
	}

	title := r.FormValue("title")
	rec := recipe.Recipe{
		Title:        title,
		Description:  r.FormValue("description"),
		Ingredients:  recipe.SplitIngredients(r.FormValue("ingredients")),
		Instructions: r.FormValue("instructions"),
		Image:        filename,
		Slug:         recipe.Slugify(title),
	}

	if err := s.store.Create(r.Context(), rec); err != nil {
		s.logger.Error("create recipe failed", zap.String("slug", rec.Slug), zap.Error(err))
		s.textError(w, statusFor(err), "Error adding recipe")
		return
	}

	metrics.ObserveRecipeCreated()
	metrics.ObserveUpload(header.Size)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render template failed", zap.String("template", name), zap.Error(err))
		s.textError(w, http.StatusInternalServerError, "Error rendering page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("write page failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) textError(w http.ResponseWriter, status int, msg string) {
	http.Error(w, msg, status)
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				s.textError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type requestIDKey struct{}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}
