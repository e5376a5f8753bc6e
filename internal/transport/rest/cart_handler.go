package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lromero/filecart/internal/cart"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/lromero/filecart/pkg/web"
)

// CartHandler serves the cart API. The catalog is used to populate line
// items with product details and to compute cart totals.
type CartHandler struct {
	service  cart.Ledger
	catalog  catalog.Catalog
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCartHandler creates a new CartHandler with the provided ledger and catalog.
func NewCartHandler(service cart.Ledger, cat catalog.Catalog, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		catalog:  cat,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the cart API.
func (h *CartHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)

		r.Route("/{cid}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Delete("/", h.Clear)
			r.Get("/items", h.ListItems)
			r.Post("/items", h.AddItem)

			r.Route("/items/{pid}", func(r chi.Router) {
				r.Put("/", h.UpdateItemQuantity)
				r.Delete("/", h.RemoveItem)
			})
		})
	})
}

// addItemRequest is the body of POST /carts/{cid}/items.
type addItemRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int64 `json:"quantity"  validate:"required,gt=0"`
}

// updateQuantityRequest is the body of PUT /carts/{cid}/items/{pid}.
// Zero and negative quantities are allowed and remove the line item.
type updateQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// populatedItem is a line item with its product reference resolved.
type populatedItem struct {
	Product  *catalog.Product `json:"product"`
	Quantity int64            `json:"quantity"`
}

// populatedCart is a cart with resolved line items.
type populatedCart struct {
	ID    int64           `json:"id"`
	Items []populatedItem `json:"products"`
}

// cartResponse wraps a populated cart with its computed total.
type cartResponse struct {
	Cart  populatedCart `json:"cart"`
	Total float64       `json:"total"`
}

// FindAll returns all carts without product population.
func (h *CartHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	carts, err := h.service.FindAll(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving carts", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch carts")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved carts", "count", len(carts))
	web.RespondJSON(w, mLogger, http.StatusOK, carts)
}

// Create creates a new empty cart.
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	created, err := h.service.Create(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating cart", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create cart")
		return
	}
	mLogger.InfoContext(r.Context(), "Cart created successfully", "ID", created.ID)
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// FindByID returns one cart with populated line items and its total.
func (h *CartHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to find cart by ID", "ID", cartID)
	found, err := h.service.FindByID(r.Context(), cartID)
	if err != nil {
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}

	items, total := h.populateItems(r.Context(), mLogger, found.Items)
	web.RespondJSON(w, mLogger, http.StatusOK, cartResponse{
		Cart:  populatedCart{ID: found.ID, Items: items},
		Total: total,
	})
}

// ListItems returns the populated line items of one cart.
func (h *CartHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	found, err := h.service.FindByID(r.Context(), cartID)
	if err != nil {
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}
	items, _ := h.populateItems(r.Context(), mLogger, found.Items)
	web.RespondJSON(w, mLogger, http.StatusOK, items)
}

// AddItem adds a product to the cart, merging quantities for an existing
// line item.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	var in addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validate.Struct(in); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to add product to cart",
		"cartID", cartID, "productID", in.ProductID, "quantity", in.Quantity)
	updated, err := h.service.AddItem(r.Context(), cartID, in.ProductID, in.Quantity)
	if err != nil {
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product added to cart", "cartID", cartID, "productID", in.ProductID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// UpdateItemQuantity sets the quantity of a line item; zero or below
// removes it from the cart.
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	productID, ok := web.ParseID(w, r, mLogger, "pid")
	if !ok {
		return
	}
	var in updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to update cart item quantity",
		"cartID", cartID, "productID", productID, "quantity", in.Quantity)
	updated, err := h.service.UpdateItemQuantity(r.Context(), cartID, productID, in.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			mLogger.WarnContext(r.Context(), "Cart item not found", "cartID", cartID, "productID", productID)
			web.RespondError(w, mLogger, http.StatusNotFound,
				fmt.Sprintf("Product %d is not in cart %d", productID, cartID))
			return
		}
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Cart item quantity updated", "cartID", cartID, "productID", productID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// RemoveItem removes a line item from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	productID, ok := web.ParseID(w, r, mLogger, "pid")
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to remove product from cart",
		"cartID", cartID, "productID", productID)
	updated, err := h.service.RemoveItem(r.Context(), cartID, productID)
	if err != nil {
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Product removed from cart", "cartID", cartID, "productID", productID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// Clear removes every line item from the cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	cartID, ok := web.ParseID(w, r, mLogger, "cid")
	if !ok {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to clear cart", "ID", cartID)
	updated, err := h.service.Clear(r.Context(), cartID)
	if err != nil {
		h.respondCartError(w, r, mLogger, cartID, err)
		return
	}
	mLogger.InfoContext(r.Context(), "Cart cleared", "ID", cartID)
	web.RespondJSON(w, mLogger, http.StatusOK, updated)
}

// populateItems resolves each line item's product reference and sums the
// cart total. Items whose product no longer resolves keep a nil product and
// do not contribute to the total.
func (h *CartHandler) populateItems(ctx context.Context, mLogger *slog.Logger, items []cart.Item) ([]populatedItem, float64) {
	populated := make([]populatedItem, 0, len(items))
	var total float64
	for _, item := range items {
		product, err := h.catalog.FindByID(ctx, item.ProductID)
		if err != nil {
			mLogger.WarnContext(ctx, "Cart references unknown product", "productID", item.ProductID, "error", err)
			populated = append(populated, populatedItem{Product: nil, Quantity: item.Quantity})
			continue
		}
		populated = append(populated, populatedItem{Product: product, Quantity: item.Quantity})
		total += float64(item.Quantity) * product.Price
	}
	return populated, total
}

// respondCartError maps ledger errors to HTTP responses.
func (h *CartHandler) respondCartError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, cartID int64, err error) {
	if errors.Is(err, cart.ErrCartNotFound) {
		mLogger.WarnContext(r.Context(), "Cart not found", "ID", cartID)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Cart with ID %d not found", cartID))
		return
	}
	mLogger.ErrorContext(r.Context(), "Cart operation failed", "ID", cartID, "error", err)
	web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Cart operation failed for ID %d", cartID))
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *CartHandler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID, _ := web.GetRequestID(r.Context())
	return h.logger.With("request_id", reqID)
}
