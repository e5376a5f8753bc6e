package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lromero/filecart/internal/catalog"
)

// Inbound and outbound event names of the real-time product channel.
const (
	EventNewProduct     = "newProduct"
	EventDeleteProduct  = "deleteProduct"
	EventUpdateProducts = "updateProducts"
)

// newProductPayload is the inbound payload of a newProduct event. The
// real-time board only collects a title and a price.
type newProductPayload struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// Handler upgrades HTTP connections and applies inbound product events to
// the catalog, broadcasting the refreshed list after every mutation.
type Handler struct {
	hub      *Hub
	catalog  catalog.Catalog
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a WebSocket handler bound to hub and catalog.
func NewHandler(hub *Hub, cat catalog.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		catalog: cat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same-origin browser clients only; the board is served by this process.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("component", "ws"),
	}
}

// ServeHTTP upgrades the connection, registers the client with the hub and
// starts its read/write pumps. The client immediately receives the current
// product list.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	ctx := context.WithoutCancel(r.Context())
	client := NewClient(uuid.NewString(), h.hub, conn, func(data []byte) {
		h.handleEvent(ctx, data)
	})

	// Queue the current list before the pumps start so the client gets a
	// snapshot as its first message.
	if list, err := h.productList(ctx); err == nil {
		client.send <- Message{Event: EventUpdateProducts, Data: list}
	}
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// handleEvent dispatches one inbound event and broadcasts the refreshed
// product list after a successful mutation.
func (h *Handler) handleEvent(ctx context.Context, data []byte) {
	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Warn("Dropping malformed WebSocket message", "error", err)
		return
	}

	switch msg.Event {
	case EventNewProduct:
		var payload newProductPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.logger.Warn("Dropping malformed newProduct payload", "error", err)
			return
		}
		created, err := h.catalog.Create(ctx, catalog.ProductCreate{
			Name:  payload.Title,
			Price: payload.Price,
		})
		if err != nil {
			h.logger.Error("Failed to create product from WebSocket event", "error", err)
			return
		}
		h.logger.Info("Product created via WebSocket", "ID", created.ID, "Name", created.Name)

	case EventDeleteProduct:
		var id int64
		if err := json.Unmarshal(msg.Data, &id); err != nil {
			h.logger.Warn("Dropping malformed deleteProduct payload", "error", err)
			return
		}
		if err := h.catalog.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				h.logger.Warn("Product to delete not found", "ID", id)
			} else {
				h.logger.Error("Failed to delete product from WebSocket event", "ID", id, "error", err)
				return
			}
		} else {
			h.logger.Info("Product deleted via WebSocket", "ID", id)
		}

	default:
		h.logger.Warn("Unknown WebSocket event", "event", msg.Event)
		return
	}

	h.BroadcastProducts(ctx)
}

// BroadcastProducts sends the full current product list to all clients.
func (h *Handler) BroadcastProducts(ctx context.Context) {
	list, err := h.productList(ctx)
	if err != nil {
		h.logger.Error("Failed to load products for broadcast", "error", err)
		return
	}
	h.hub.Broadcast(Message{Event: EventUpdateProducts, Data: list})
}

func (h *Handler) productList(ctx context.Context) ([]catalog.Product, error) {
	return h.catalog.List(ctx, nil, catalog.ListOptions{})
}
