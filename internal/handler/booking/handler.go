package booking

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/service/booking"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	"github.com/jwalitptl/carebook-api/pkg/validator"
)

type Handler struct {
	svc booking.BookingServicer
}

// NewHandler also installs the custom binding tags SubmitRequest relies on.
func NewHandler(svc booking.BookingServicer) *Handler {
	validator.Engine()
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.Submit)
		bookings.GET("/time-slots", h.TimeSlots)
		bookings.GET("/draft", h.Draft)
		bookings.GET("/mine", h.ListMine)
		bookings.GET("/:id", h.Get)
		bookings.POST("/:id/cancel", h.Cancel)
	}
}

// Submit replays the posted draft through the wizard and stores it. Online
// payments answer with the gateway redirect.
func (h *Handler) Submit(c *gin.Context) {
	var req booking.SubmitRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	svc, err := h.svc.ServiceByID(c.Request.Context(), req.ServiceID)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	w, err := h.svc.Replay(svc, req)
	if err != nil {
		handler.Fail(c, err)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), handler.Session(c), w, req.ReturnURLs())
	if err != nil {
		handler.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewMessageResponse(result.Message, result))
}

func (h *Handler) TimeSlots(c *gin.Context) {
	c.JSON(http.StatusOK, handler.NewSuccessResponse(booking.TimeSlots()))
}

func (h *Handler) Draft(c *gin.Context) {
	serviceID, err := uuid.Parse(c.Query("service"))
	if err != nil {
		handler.Fail(c, apperrors.BadRequest("service must be a valid id", err))
		return
	}

	draft, err := h.svc.Draft(c.Request.Context(), serviceID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(draft))
}

func (h *Handler) ListMine(c *gin.Context) {
	dates, err := handler.DateRange(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	filters := model.BookingFilters{DateRange: dates}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			filters.Statuses = append(filters.Statuses, model.BookingStatus(strings.TrimSpace(s)))
		}
	}

	bookings, err := h.svc.ListMine(c.Request.Context(), handler.Session(c), filters)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(bookings))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	detail, err := h.svc.Get(c.Request.Context(), handler.Session(c), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(detail))
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), handler.Session(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("booking cancelled", nil))
}
