package views

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/lromero/filecart/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCatalog is a mock implementation of the catalog.Catalog interface
type mockCatalog struct {
	products []catalog.Product
	product  *catalog.Product
	error    error
}

func (m *mockCatalog) List(_ context.Context, _ catalog.Filter, _ catalog.ListOptions) ([]catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.products, nil
}

func (m *mockCatalog) Count(_ context.Context, _ catalog.Filter) (int, error) {
	return len(m.products), m.error
}

func (m *mockCatalog) FindByID(_ context.Context, _ int64) (*catalog.Product, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockCatalog) Create(_ context.Context, _ catalog.ProductCreate) (*catalog.Product, error) {
	return m.product, m.error
}

func (m *mockCatalog) Update(_ context.Context, _ int64, _ catalog.ProductUpdate) (*catalog.Product, error) {
	return m.product, m.error
}

func (m *mockCatalog) DeleteByID(_ context.Context, _ int64) error {
	return m.error
}

func newViewRouter(t *testing.T, mock *mockCatalog) *chi.Mux {
	t.Helper()
	handler, err := NewHandler(mock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return mux
}

func Test_Home_RendersProductList(t *testing.T) {
	// given
	router := newViewRouter(t, &mockCatalog{products: []catalog.Product{
		{ID: 1, Name: "Pen", Description: "Blue ink", Price: 1.5},
		{ID: 2, Name: "Mug", Description: "Ceramic", Price: 10},
	}})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	// when
	router.ServeHTTP(rec, req)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Pen")
	assert.Contains(t, rec.Body.String(), "/products/2")
}

func Test_Home_EmptyCatalog(t *testing.T) {
	// given
	router := newViewRouter(t, &mockCatalog{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	// when
	router.ServeHTTP(rec, req)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No products yet")
}

func Test_ProductDetail(t *testing.T) {
	testCases := []struct {
		name           string
		mock           *mockCatalog
		url            string
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "Success - product rendered",
			mock: &mockCatalog{product: &catalog.Product{
				ID: 1, Name: "Pen", Description: "Blue ink", Price: 1.5, Category: "stationery",
			}},
			url:            "/products/1",
			expectedStatus: http.StatusOK,
			expectedBody:   "Blue ink",
		},
		{
			name:           "Error - product not found",
			mock:           &mockCatalog{error: catalog.ErrNotFound},
			url:            "/products/42",
			expectedStatus: http.StatusNotFound,
			expectedBody:   "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			router := newViewRouter(t, tc.mock)
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			// when
			router.ServeHTTP(rec, req)
			// then
			assert.Equal(t, tc.expectedStatus, rec.Code)
			if tc.expectedBody != "" {
				assert.Contains(t, rec.Body.String(), tc.expectedBody)
			}
		})
	}
}

func Test_RealTimeProducts_ServesBoardAndScript(t *testing.T) {
	// given
	router := newViewRouter(t, &mockCatalog{products: []catalog.Product{{ID: 1, Name: "Pen", Price: 1.5}}})

	// when - board page
	req := httptest.NewRequest(http.MethodGet, "/realtimeproducts", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "product-form")
	assert.Contains(t, rec.Body.String(), "/static/js/realtime.js")

	// when - embedded client script
	req = httptest.NewRequest(http.MethodGet, "/static/js/realtime.js", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// then
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "updateProducts")
}
