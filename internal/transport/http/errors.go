package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func badRequest(c *gin.Context, message string) {
	writeError(c, http.StatusBadRequest, "invalid_request", message)
}

func notFound(c *gin.Context, code, message string) {
	writeError(c, http.StatusNotFound, code, message)
}

func conflict(c *gin.Context, code, message string) {
	writeError(c, http.StatusConflict, code, message)
}

func internal(c *gin.Context) {
	writeError(c, http.StatusInternalServerError, "internal_error", "internal error")
}
