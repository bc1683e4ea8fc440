package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/service/admin"
)

type Handler struct {
	svc admin.AdminServicer
}

func NewHandler(svc admin.AdminServicer) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	services := r.Group("/admin/services")
	{
		services.GET("", h.ListServices)
		services.POST("", h.CreateService)
		services.PATCH("/:id", h.UpdateService)
		services.DELETE("/:id", h.DeactivateService)
	}
	r.GET("/admin/analytics", h.Analytics)
}

func (h *Handler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context(), handler.Session(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(services))
}

func (h *Handler) CreateService(c *gin.Context) {
	var req model.CreateServiceRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	service, err := h.svc.CreateService(c.Request.Context(), handler.Session(c), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(service))
}

func (h *Handler) UpdateService(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	var req model.UpdateServiceRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	service, err := h.svc.UpdateService(c.Request.Context(), handler.Session(c), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(service))
}

// DeactivateService is a soft delete.
func (h *Handler) DeactivateService(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	if err := h.svc.DeactivateService(c.Request.Context(), handler.Session(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("service deactivated", nil))
}

func (h *Handler) Analytics(c *gin.Context) {
	dates, err := handler.DateRange(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	analytics, err := h.svc.Analytics(c.Request.Context(), handler.Session(c), dates)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(analytics))
}
