// Package views renders the HTML pages: the product list, per-product
// detail and the real-time product board.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/lromero/filecart/pkg/web"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Handler serves the read-only HTML views over the catalog.
type Handler struct {
	catalog catalog.Catalog
	tmpl    *template.Template
	logger  *slog.Logger
}

// NewHandler parses the embedded templates and creates the view handler.
func NewHandler(cat catalog.Catalog, logger *slog.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse view templates: %w", err)
	}
	return &Handler{
		catalog: cat,
		tmpl:    tmpl,
		logger:  logger.With("component", "views"),
	}, nil
}

// RegisterRoutes registers the HTML routes and the embedded static assets.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Get("/", h.Home)
	r.Get("/products/{id}", h.ProductDetail)
	r.Get("/realtimeproducts", h.RealTimeProducts)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))
}

// Home renders the full product list.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), nil, catalog.ListOptions{})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error loading products for home view", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "home.html", map[string]any{"Products": products})
}

// ProductDetail renders one product's detail page.
func (h *Handler) ProductDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger, "id")
	if !ok {
		return
	}
	product, err := h.catalog.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error loading product for detail view", "ID", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "product_detail.html", map[string]any{"Product": product})
}

// RealTimeProducts renders the WebSocket-backed product board.
func (h *Handler) RealTimeProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context(), nil, catalog.ListOptions{})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error loading products for realtime view", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "realtime_products.html", map[string]any{"Products": products})
}

// render executes the named template into a buffer first so a render error
// never produces a half-written page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "Error rendering template", "template", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
