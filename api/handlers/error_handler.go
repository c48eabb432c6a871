// api/handlers/error_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/dosepoint/services/device/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorLogHandler exposes recent diagnostics to operators
type ErrorLogHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewErrorLogHandler creates a new ErrorLogHandler instance
func NewErrorLogHandler(svc service.Service, log *logrus.Logger) *ErrorLogHandler {
	return &ErrorLogHandler{
		service: svc,
		log:     log,
	}
}

// ListErrors handles retrieving recent diagnostic records
func (h *ErrorLogHandler) ListErrors(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "100")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 100
	}

	logs, err := h.service.GetErrorLogs(c, limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to list error logs")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list error logs",
		})
		return
	}

	c.JSON(http.StatusOK, logs)
}
