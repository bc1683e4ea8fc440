package invitation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/service/invitation"
)

type Handler struct {
	svc invitation.InvitationServicer
}

func NewHandler(svc invitation.InvitationServicer) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the admin-only invite endpoint. Errors use the bare
// {"error"} shape.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/admin/invitations", h.Invite)
}

// RegisterPublicRoutes mounts onboarding, which authenticates by invitation
// token instead of a session.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/onboarding", h.Accept)
}

func (h *Handler) Invite(c *gin.Context) {
	var req model.InviteRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.FailJSON(c, err)
		return
	}

	resp, err := h.svc.Invite(c.Request.Context(), handler.Session(c), &req)
	if err != nil {
		handler.FailJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Accept(c *gin.Context) {
	var req model.OnboardingRequest
	if err := handler.BindJSON(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	practitioner, err := h.svc.Accept(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewMessageResponse("onboarding complete", practitioner))
}
