// api/handlers/press_handler.go
package handlers

import (
	"io"
	"net/http"

	"example.com/dosepoint/services/device/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PressHandler handles raw button press callbacks
type PressHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewPressHandler creates a new PressHandler instance
func NewPressHandler(svc service.Service, log *logrus.Logger) *PressHandler {
	return &PressHandler{
		service: svc,
		log:     log,
	}
}

// HandlePress receives one button press payload. The response is always
// 200 with the outcome text as the body; handled errors are conveyed in
// the text, not the status code, because the button gateway treats any
// non-success status as a delivery failure and retries.
func (h *PressHandler) HandlePress(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.WithError(err).Warn("Failed to read press payload")
		c.String(http.StatusOK, "error")
		return
	}

	res := h.service.HandlePress(c.Request.Context(), raw)

	h.log.WithFields(logrus.Fields{
		"outcome": res.Outcome,
	}).Info("Press dispatched")

	c.String(http.StatusOK, res.Message)
}
