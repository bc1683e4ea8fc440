package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	apperrors "github.com/jwalitptl/carebook-api/pkg/errors"
	pkgvalidator "github.com/jwalitptl/carebook-api/pkg/validator"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
	TraceID string            `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Validation failures become 400 with per-field messages; AppErrors keep their
// status and message; anything else is a 500 whose cause is only logged.
func ErrorHandler(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		traceID := c.GetString(ContextRequestID)
		status, body := Render(err)
		body.TraceID = traceID

		event := logger.Warn()
		if status >= 500 {
			event = logger.Error()
		}
		event.Err(err).
			Str("request_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("Request error")

		c.JSON(status, body)
	}
}

// Render maps err to a status code and response body.
func Render(err error) (int, ErrorResponse) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := pkgvalidator.FieldErrors(err)
		return http.StatusBadRequest, ErrorResponse{Error: pkgvalidator.Format(fields), Fields: fields}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return http.StatusBadRequest, ErrorResponse{Error: "malformed JSON body"}
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"}
	}

	return apperrors.StatusOf(err), ErrorResponse{Error: apperrors.MessageOf(err)}
}
