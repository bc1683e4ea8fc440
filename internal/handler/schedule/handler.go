package schedule

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/service/schedule"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

type Handler struct {
	svc schedule.ScheduleServicer
	now func() time.Time
}

func NewHandler(svc schedule.ScheduleServicer) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	practitioner := r.Group("/practitioner")
	{
		practitioner.GET("/schedule", h.Schedule)
		practitioner.POST("/bookings/:id/:action", h.Transition)
		practitioner.GET("/patients/:id", h.PatientProfile)
	}
}

// Schedule takes ?view=day|week|month and an optional ?date=YYYY-MM-DD anchor.
func (h *Handler) Schedule(c *gin.Context) {
	view, err := schedule.ParseView(c.Query("view"))
	if err != nil {
		handler.Fail(c, apperrors.BadRequest(err.Error(), err))
		return
	}

	anchor := h.now()
	if raw := c.Query("date"); raw != "" {
		anchor, err = model.ParseDate(raw)
		if err != nil {
			handler.Fail(c, apperrors.BadRequest("date must be YYYY-MM-DD", err))
			return
		}
	}

	out, err := h.svc.Schedule(c.Request.Context(), handler.Session(c), view, anchor)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(out))
}

func (h *Handler) Transition(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	booking, err := h.svc.Transition(c.Request.Context(), handler.Session(c), id, schedule.Action(c.Param("action")))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(booking))
}

func (h *Handler) PatientProfile(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}

	profile, err := h.svc.PatientProfile(c.Request.Context(), handler.Session(c), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(profile))
}
