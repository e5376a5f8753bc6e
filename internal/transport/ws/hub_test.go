package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/lromero/filecart/internal/storage/jsonstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productListMessage struct {
	Event string            `json:"event"`
	Data  []catalog.Product `json:"data"`
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTestServer wires a real catalog over a temp-dir store to a running
// hub and returns a connected client.
func startTestServer(t *testing.T) *websocket.Conn {
	t.Helper()

	store, err := jsonstore.New[catalog.Product](filepath.Join(t.TempDir(), "products.json"))
	require.NoError(t, err)
	service := catalog.NewService(store)

	logger := testLogger()
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(NewHandler(hub, service, logger))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads updateProducts messages until the predicate matches or the
// deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(products []catalog.Product) bool) []catalog.Product {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for time.Now().Before(deadline) {
		var msg productListMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == EventUpdateProducts && match(msg.Data) {
			return msg.Data
		}
	}
	t.Fatal("expected product list update not received")
	return nil
}

func Test_Handler_NewProductEventBroadcastsRefreshedList(t *testing.T) {
	// given
	conn := startTestServer(t)

	// when
	err := conn.WriteJSON(Message{
		Event: EventNewProduct,
		Data:  map[string]any{"title": "Pen", "price": 1.5},
	})
	require.NoError(t, err)

	// then: the refreshed full list reaches the client
	products := readUntil(t, conn, func(products []catalog.Product) bool {
		return len(products) == 1
	})
	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "Pen", products[0].Name)
	assert.Equal(t, 1.5, products[0].Price)
}

func Test_Handler_DeleteProductEventBroadcastsRefreshedList(t *testing.T) {
	// given
	conn := startTestServer(t)
	err := conn.WriteJSON(Message{
		Event: EventNewProduct,
		Data:  map[string]any{"title": "Mug", "price": 10.0},
	})
	require.NoError(t, err)
	readUntil(t, conn, func(products []catalog.Product) bool {
		return len(products) == 1
	})

	// when
	err = conn.WriteJSON(Message{Event: EventDeleteProduct, Data: 1})
	require.NoError(t, err)

	// then
	readUntil(t, conn, func(products []catalog.Product) bool {
		return len(products) == 0
	})
}

func Test_Handler_ConnectSendsCurrentList(t *testing.T) {
	// given / when
	conn := startTestServer(t)

	// then: the initial snapshot is an empty product list
	products := readUntil(t, conn, func(products []catalog.Product) bool {
		return true
	})
	assert.Empty(t, products)
}

func Test_Hub_ClientCount(t *testing.T) {
	// given
	hub := NewHub(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// when
	client := NewClient("c1", hub, nil, func([]byte) {})
	hub.register <- client

	// then
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	// when
	hub.unregister <- client

	// then
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
}
