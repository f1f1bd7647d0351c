// Package app contains the application setup for the catalog service.
package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocatalog/internal/config"
	"github.com/abgdnv/gocatalog/internal/imagestore"
	"github.com/abgdnv/gocatalog/internal/imaging"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/abgdnv/gocatalog/internal/transport/rest"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Dependencies struct {
	CatalogService service.CatalogService
	MaxUpload      int64
	// StaticDir is non-empty when the local backend serves images itself.
	StaticDir string
	StaticURL string
	Logger    *slog.Logger
}

// SetupDependencies builds the object graph: image store backend, encoder,
// allocator, record store and the catalog service. The local image directory
// is created here, once, rather than as a package side effect.
func SetupDependencies(dbPool *pgxpool.Pool, publisher messaging.Publisher, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		MaxUpload: cfg.Storage.MaxUploadBytes,
		Logger:    logger,
	}

	var images imagestore.Store
	switch cfg.Storage.Backend {
	case config.BackendLocal:
		local, err := imagestore.NewLocal(cfg.Storage.Local.Dir, cfg.Storage.Local.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to set up local image store: %w", err)
		}
		images = local
		deps.StaticDir = local.Dir()
		deps.StaticURL = cfg.Storage.Local.BaseURL
	case config.BackendCloudinary:
		remote, err := imagestore.NewCloudinary(cfg.Storage.Cloudinary.URL, cfg.Storage.Cloudinary.Folder)
		if err != nil {
			return nil, fmt.Errorf("failed to set up cloudinary image store: %w", err)
		}
		images = remote
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}

	deps.CatalogService = service.NewService(
		store.NewPgStore(dbPool),
		images,
		imaging.NewWebPEncoder(cfg.Storage.Quality),
		imagestore.NewAllocator(images, logger),
		publisher,
		logger,
	)
	return deps, nil
}

// SetupHttpHandler initializes the router and routes for the catalog service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the catalog service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	catalogHandler := rest.NewHandler(deps.CatalogService, deps.Logger, deps.MaxUpload)
	catalogHandler.RegisterRoutes(mux)

	if deps.StaticDir != "" {
		fileServer := http.StripPrefix(deps.StaticURL+"/", http.FileServer(http.Dir(deps.StaticDir)))
		mux.Handle(deps.StaticURL+"/*", fileServer)
	}
}

// SetupHttpServer creates and configures an HTTP server for the catalog service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
