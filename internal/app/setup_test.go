package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps, err := SetupDependencies(t.TempDir(), logger)
	require.NoError(t, err)
	handler, err := SetupHTTPHandler(deps)
	require.NoError(t, err)
	return handler
}

func Test_SetupHTTPHandler_WiresAllSurfaces(t *testing.T) {
	// given
	handler := setupHandler(t)

	testCases := []struct {
		name           string
		method         string
		url            string
		body           string
		expectedStatus int
	}{
		{name: "health check", method: http.MethodGet, url: "/healthz", expectedStatus: http.StatusOK},
		{name: "product list", method: http.MethodGet, url: "/api/v1/products", expectedStatus: http.StatusOK},
		{name: "home view", method: http.MethodGet, url: "/", expectedStatus: http.StatusOK},
		{name: "realtime view", method: http.MethodGet, url: "/realtimeproducts", expectedStatus: http.StatusOK},
		{name: "cart creation", method: http.MethodPost, url: "/api/v1/carts", expectedStatus: http.StatusCreated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			req := httptest.NewRequest(tc.method, tc.url, body)
			rec := httptest.NewRecorder()
			// when
			handler.ServeHTTP(rec, req)
			// then
			assert.Equal(t, tc.expectedStatus, rec.Code)
		})
	}
}

func Test_SetupHTTPHandler_EndToEndScenario(t *testing.T) {
	// given
	handler := setupHandler(t)
	do := func(method, url, body string) *httptest.ResponseRecorder {
		var r io.Reader
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, url, r)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// when: create a product, a cart, and add three pens
	rec := do(http.MethodPost, "/api/v1/products", `{"name":"Pen","description":"Blue ink","price":1.5}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":1`)

	rec = do(http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":1`)

	rec = do(http.MethodPost, "/api/v1/carts/1/items", `{"productId":1,"quantity":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// then: the populated cart totals 3 x 1.5
	rec = do(http.MethodGet, "/api/v1/carts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":4.5`)
	assert.Contains(t, rec.Body.String(), `"quantity":3`)
}
