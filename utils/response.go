package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the flat error shape every endpoint returns: an "error" message plus
// at most one detail field whose key depends on the failure.
type ErrorBody map[string]string

// NewErrorBody builds an error body; detailKey is skipped when empty.
func NewErrorBody(message, detailKey, detail string) ErrorBody {
	body := ErrorBody{"error": message}
	if detailKey != "" {
		body[detailKey] = detail
	}
	return body
}

// ErrorResponseWithCode sends an error body with a custom status code and aborts the chain
func ErrorResponseWithCode(c *gin.Context, statusCode int, body ErrorBody) {
	c.AbortWithStatusJSON(statusCode, body)
}

// BadRequestError sends a 400 error response
func BadRequestError(c *gin.Context, message string) {
	ErrorResponseWithCode(c, http.StatusBadRequest, NewErrorBody(message, "", ""))
}

// InternalServerError sends a 500 error response carrying one detail field
func InternalServerError(c *gin.Context, message, detailKey, detail string) {
	ErrorResponseWithCode(c, http.StatusInternalServerError, NewErrorBody(message, detailKey, detail))
}

// UnauthorizedError sends a 401 error response
func UnauthorizedError(c *gin.Context, message string) {
	ErrorResponseWithCode(c, http.StatusUnauthorized, NewErrorBody(message, "", ""))
}

// NotFoundError sends a 404 error response
func NotFoundError(c *gin.Context, message string) {
	ErrorResponseWithCode(c, http.StatusNotFound, NewErrorBody(message, "", ""))
}
