package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/carebook-api/internal/middleware"
	"github.com/jwalitptl/carebook-api/internal/model"
	"github.com/jwalitptl/carebook-api/internal/session"
	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewMessageResponse(message string, data interface{}) *Response {
	return &Response{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// Fail hands err to the error middleware, which writes the response.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// FailJSON writes {"error": message} immediately. Used by endpoints whose
// clients expect the bare error shape without going through middleware.
func FailJSON(c *gin.Context, err error) {
	status, body := middleware.Render(err)
	c.AbortWithStatusJSON(status, gin.H{"error": body.Error})
}

// BindJSON decodes and validates the body. Validation failures pass through
// for per-field messages; any other decode failure is a 400.
func BindJSON(c *gin.Context, dst interface{}) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &validationErrs) || errors.As(err, &maxBytesErr) {
		return err
	}
	return apperrors.BadRequest("malformed JSON body", err)
}

// Session returns the authenticated caller, or nil on public routes.
func Session(c *gin.Context) *session.Session {
	return middleware.CurrentSession(c)
}

// ParamID parses a uuid path parameter.
func ParamID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

// DateRange reads optional from/to query parameters in YYYY-MM-DD form.
func DateRange(c *gin.Context) (model.DateRange, error) {
	var dates model.DateRange
	for _, p := range []struct {
		name string
		dst  **time.Time
	}{{"from", &dates.From}, {"to", &dates.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := model.ParseDate(raw)
		if err != nil {
			return dates, apperrors.BadRequest(p.name+" must be YYYY-MM-DD", err)
		}
		*p.dst = &t
	}
	return dates, nil
}
