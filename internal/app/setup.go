// Package app contains the application setup: store construction, service
// wiring and HTTP server assembly.
package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/lromero/filecart/internal/cart"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/lromero/filecart/internal/config"
	"github.com/lromero/filecart/internal/storage/jsonstore"
	"github.com/lromero/filecart/internal/transport/rest"
	"github.com/lromero/filecart/internal/transport/views"
	"github.com/lromero/filecart/internal/transport/ws"
	"github.com/lromero/filecart/pkg/server"
)

const (
	productsFile = "products.json"
	cartsFile    = "carts.json"
)

type Dependencies struct {
	Catalog   catalog.Catalog
	Ledger    cart.Ledger
	Hub       *ws.Hub
	WSHandler *ws.Handler
	Logger    *slog.Logger
}

// SetupDependencies constructs the JSON-file stores and the services on top
// of them. One store handle per file for the whole process.
func SetupDependencies(storeDir string, logger *slog.Logger) (*Dependencies, error) {
	productStore, err := jsonstore.New[catalog.Product](filepath.Join(storeDir, productsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open product store: %w", err)
	}
	cartStore, err := jsonstore.New[cart.Cart](filepath.Join(storeDir, cartsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open cart store: %w", err)
	}

	catalogService := catalog.NewService(productStore)
	hub := ws.NewHub(logger)

	return &Dependencies{
		Catalog:   catalogService,
		Ledger:    cart.NewService(cartStore),
		Hub:       hub,
		WSHandler: ws.NewHandler(hub, catalogService, logger),
		Logger:    logger,
	}, nil
}

// SetupHTTPHandler initializes the router with all routes and middleware.
// Used by tests to exercise the full HTTP surface without a listener.
func SetupHTTPHandler(deps *Dependencies) (http.Handler, error) {
	mux := server.NewChiRouter(deps.Logger)
	if err := wireRoutes(mux, deps); err != nil {
		return nil, err
	}
	return mux, nil
}

// wireRoutes sets up the REST, view and WebSocket routes.
func wireRoutes(mux *chi.Mux, deps *Dependencies) error {
	rest.NewProductHandler(deps.Catalog, deps.Logger).RegisterRoutes(mux)
	rest.NewCartHandler(deps.Ledger, deps.Catalog, deps.Logger).RegisterRoutes(mux)

	viewHandler, err := views.NewHandler(deps.Catalog, deps.Logger)
	if err != nil {
		return err
	}
	viewHandler.RegisterRoutes(mux)

	mux.Handle("/ws", deps.WSHandler)
	return nil
}

// SetupHTTPServer creates and configures the HTTP server for the application.
func SetupHTTPServer(deps *Dependencies, cfg *config.Config) (*http.Server, error) {
	mux, err := SetupHTTPHandler(deps)
	if err != nil {
		return nil, err
	}

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux), nil
}
