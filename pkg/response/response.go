package response

import (
	"errors"
	"net/http"
	"time"

	"event-token-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderReplayed is set on responses that return the stored outcome of a
// transaction id that had already settled.
const HeaderReplayed = "Idempotent-Replayed"

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Data      any    `json:"data"`
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is the standard error envelope. Details carries structured
// context such as required/available on LED_001.
type ErrorResponse struct {
	ErrorCode string         `json:"error_code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id"`
	Timestamp string         `json:"timestamp"`
}

// OK sends a 200 response with data.
func OK(c *gin.Context, data any) {
	success(c, http.StatusOK, data)
}

// Created sends a 201 response with data.
func Created(c *gin.Context, data any) {
	success(c, http.StatusCreated, data)
}

// Settled answers a spend or top-up. A fresh transfer is 201; a replay of a
// settled transaction id is 200 with the Idempotent-Replayed header.
func Settled(c *gin.Context, data any, replayed bool) {
	if replayed {
		c.Header(HeaderReplayed, "true")
		success(c, http.StatusOK, data)
		return
	}
	success(c, http.StatusCreated, data)
}

// Error sends an error response. Anything that is not an *apperror.AppError
// is reported as SYS_002 without leaking its message.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.InternalError(err)
	}
	c.JSON(appErr.HTTPStatus, ErrorResponse{
		ErrorCode: appErr.Code,
		Message:   appErr.Message,
		Details:   appErr.Details,
		RequestID: getRequestID(c),
		Timestamp: timestamp(),
	})
}

func success(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{
		Data:      data,
		RequestID: getRequestID(c),
		Timestamp: timestamp(),
	})
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getRequestID retrieves request ID from context, or generates one.
func getRequestID(c *gin.Context) string {
	if id, ok := c.Get("request_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return uuid.NewString()
}
