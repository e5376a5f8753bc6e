// Package rest provides HTTP handlers for the product and cart APIs.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/lromero/filecart/pkg/web"
)

const (
	defaultPageSize = 10
	defaultPage     = 1
)

// ProductHandler serves the product API backed by the catalog.
type ProductHandler struct {
	service  catalog.Catalog
	validate *validator.Validate
	logger   *slog.Logger
}

// NewProductHandler creates a new ProductHandler with the provided catalog.
func NewProductHandler(service catalog.Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the product API.
func (h *ProductHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
		})
	})

	r.Get("/healthz", h.HealthCheck)
}

// productPage is the paginated list envelope returned by List.
type productPage struct {
	Status      string            `json:"status"`
	Payload     []catalog.Product `json:"payload"`
	TotalPages  int64             `json:"totalPages"`
	PrevPage    *int64            `json:"prevPage"`
	NextPage    *int64            `json:"nextPage"`
	Page        int64             `json:"page"`
	HasPrevPage bool              `json:"hasPrevPage"`
	HasNextPage bool              `json:"hasNextPage"`
	PrevLink    *string           `json:"prevLink"`
	NextLink    *string           `json:"nextLink"`
}

// List retrieves a filtered, sorted and paginated product page.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	limit, ok := web.ParseQueryGt(r, w, mLogger, "limit", 0, defaultPageSize)
	if !ok {
		return
	}
	page, ok := web.ParseQueryGt(r, w, mLogger, "page", 0, defaultPage)
	if !ok {
		return
	}
	sortOrder, ok := parseSort(r, w, mLogger)
	if !ok {
		return
	}
	query := r.URL.Query().Get("query")
	filter := searchFilter(query)

	mLogger.DebugContext(r.Context(), "Received request to list products",
		"limit", limit, "page", page, "sort", sortOrder, "query", query)

	opts := catalog.ListOptions{
		Sort:  sortOrder,
		Limit: int(limit),
		Skip:  int((page - 1) * limit),
	}
	list, err := h.service.List(r.Context(), filter, opts)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	total, err := h.service.Count(r.Context(), filter)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error counting products", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	mLogger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list), "total", total)
	web.RespondJSON(w, mLogger, http.StatusOK, buildPage(list, int64(total), limit, page, string(sortOrder), query))
}

// buildPage assembles the pagination envelope around one page of products.
func buildPage(list []catalog.Product, total, limit, page int64, sortOrder, query string) productPage {
	totalPages := (total + limit - 1) / limit
	result := productPage{
		Status:      "success",
		Payload:     list,
		TotalPages:  totalPages,
		Page:        page,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
	}
	link := func(p int64) *string {
		l := fmt.Sprintf("/api/v1/products?limit=%d&page=%d&sort=%s&query=%s", limit, p, sortOrder, query)
		return &l
	}
	if result.HasPrevPage {
		prev := page - 1
		result.PrevPage = &prev
		result.PrevLink = link(prev)
	}
	if result.HasNextPage {
		next := page + 1
		result.NextPage = &next
		result.NextLink = link(next)
	}
	return result
}

// FindByID retrieves a product by its ID.
func (h *ProductHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger, "id")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var in catalog.ProductCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to create product", "product", in)
	if !h.validateStruct(w, r, mLogger, in) {
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	mLogger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Update applies a partial update to an existing product.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger, "id")
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	var in catalog.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *ProductHandler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger, "id")
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			mLogger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
			web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		mLogger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	mLogger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	web.RespondJSON(w, mLogger, http.StatusOK, map[string]string{"status": "success", "message": "Product deleted"})
}

// HealthCheck is a simple health check endpoint.
func (h *ProductHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// validateStruct runs struct validation and writes the field error map on failure.
func (h *ProductHandler) validateStruct(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, v any) bool {
	if err := h.validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// If the error is a validation error, we can extract field-specific errors.
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				// fieldErr.Tag() returns "required", "gt", etc.
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		// If it's not a validation error, we can return a generic error.
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// parseSort reads the optional sort query parameter (asc|desc).
func parseSort(r *http.Request, w http.ResponseWriter, mLogger *slog.Logger) (catalog.SortOrder, bool) {
	switch v := r.URL.Query().Get("sort"); v {
	case "":
		return catalog.SortNone, true
	case "asc":
		return catalog.SortAsc, true
	case "desc":
		return catalog.SortDesc, true
	default:
		web.RespondError(w, mLogger, http.StatusBadRequest, fmt.Sprintf("Invalid sort order: %s", v))
		return catalog.SortNone, false
	}
}

// searchFilter builds the OR filter the list endpoint applies: the query
// substring is matched against category or availability.
func searchFilter(query string) catalog.Filter {
	if query == "" {
		return nil
	}
	return catalog.Filter{
		{Field: "category", Contains: query},
		{Field: "availability", Contains: query},
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *ProductHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
