package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/carebook-api/internal/middleware"
	"github.com/jwalitptl/carebook-api/internal/model"
)

type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) ListServices(ctx context.Context, category string) ([]*model.Service, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Service), args.Error(1)
}

func (m *mockCatalogService) ListCategories(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockCatalogService) ListLocations(ctx context.Context) ([]*model.Location, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Location), args.Error(1)
}

func (m *mockCatalogService) ListPractitioners(ctx context.Context) ([]*model.Practitioner, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Practitioner), args.Error(1)
}

func (m *mockCatalogService) Invalidate() {
	m.Called()
}

func setup() (*gin.Engine, *mockCatalogService) {
	gin.SetMode(gin.TestMode)
	svc := &mockCatalogService{}
	engine := gin.New()
	engine.Use(middleware.ErrorHandler(zerolog.Nop()))
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine, svc
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListServices_PassesCategory(t *testing.T) {
	engine, svc := setup()
	svc.On("ListServices", mock.Anything, "Wellness").Return([]*model.Service{
		{Name: "IV Drip", Category: "Wellness", Price: decimal.RequireFromString("650.5"), Duration: 45},
	}, nil)

	w := get(engine, "/api/v1/catalog/services?category=Wellness")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"IV Drip"`)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	svc.AssertExpectations(t)
}

func TestListEndpoints(t *testing.T) {
	engine, svc := setup()
	svc.On("ListCategories", mock.Anything).Return([]string{"Consultation", "Wellness"}, nil)
	svc.On("ListLocations", mock.Anything).Return([]*model.Location{{Name: "Harbour Clinic"}}, nil)
	svc.On("ListPractitioners", mock.Anything).Return([]*model.Practitioner{{Name: "Dr Lee"}}, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/catalog/categories", `"data":["Consultation","Wellness"]`},
		{"/api/v1/catalog/locations", "Harbour Clinic"},
		{"/api/v1/catalog/practitioners", "Dr Lee"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(engine, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestListServices_StoreFailure(t *testing.T) {
	engine, svc := setup()
	svc.On("ListServices", mock.Anything, "").Return(nil, errors.New("connection refused"))

	w := get(engine, "/api/v1/catalog/services")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
