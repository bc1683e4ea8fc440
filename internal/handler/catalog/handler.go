package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/service/catalog"
)

type Handler struct {
	svc catalog.CatalogServicer
}

func NewHandler(svc catalog.CatalogServicer) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	catalog := r.Group("/catalog")
	{
		catalog.GET("/services", h.ListServices)
		catalog.GET("/categories", h.ListCategories)
		catalog.GET("/locations", h.ListLocations)
		catalog.GET("/practitioners", h.ListPractitioners)
	}
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context(), c.Query("category"))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(categories))
}

func (h *Handler) ListLocations(c *gin.Context) {
	locations, err := h.svc.ListLocations(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(locations))
}

func (h *Handler) ListPractitioners(c *gin.Context) {
	practitioners, err := h.svc.ListPractitioners(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(practitioners))
}
