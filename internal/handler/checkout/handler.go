package checkout

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/carebook-api/internal/handler"
	"github.com/jwalitptl/carebook-api/internal/service/checkout"
)

// Handler exposes the checkout bridge. Its replies use the bare
// {"checkout_id", "redirect_url"} and {"error"} shapes.
type Handler struct {
	svc checkout.CheckoutServicer
}

func NewHandler(svc checkout.CheckoutServicer) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checkout", h.CreateCheckout)
}

func (h *Handler) CreateCheckout(c *gin.Context) {
	var req checkout.Request
	if err := handler.BindJSON(c, &req); err != nil {
		handler.FailJSON(c, err)
		return
	}

	result, err := h.svc.CreateCheckout(c.Request.Context(), handler.Session(c), req)
	if err != nil {
		handler.FailJSON(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
