// api/handlers/device_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DeviceHandler handles device-related requests
type DeviceHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewDeviceHandler creates a new DeviceHandler instance
func NewDeviceHandler(svc service.Service, log *logrus.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: svc,
		log:     log,
	}
}

// RegisterDevice handles device registration
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	var device models.Device
	if err := c.ShouldBindJSON(&device); err != nil {
		h.log.WithError(err).Warn("Invalid device format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device format",
		})
		return
	}

	if device.SerialNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Serial number is required",
		})
		return
	}

	if err := h.service.RegisterDevice(c, &device); err != nil {
		h.log.WithError(err).Error("Failed to register device")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to register device",
		})
		return
	}

	c.JSON(http.StatusOK, device)
}

// GetDevice handles device information retrieval
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		// Try to get by serial number if it's not a numeric ID
		device, err := h.service.GetDeviceBySerial(c, idStr)
		if err != nil {
			h.log.WithError(err).Error("Failed to get device")
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Device not found",
			})
			return
		}
		c.JSON(http.StatusOK, device)
		return
	}

	device, err := h.service.GetDevice(c, uint(id))
	if err != nil {
		h.log.WithError(err).Error("Failed to get device")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Device not found",
		})
		return
	}

	c.JSON(http.StatusOK, device)
}

// ListDevices handles listing all devices
func (h *DeviceHandler) ListDevices(c *gin.Context) {
	userIDStr := c.Query("user_id")
	var userID uint

	if userIDStr != "" {
		id, err := strconv.ParseUint(userIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid user ID",
			})
			return
		}
		userID = uint(id)
	}

	devices, err := h.service.ListDevices(c, userID)
	if err != nil {
		h.log.WithError(err).Error("Failed to list devices")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list devices",
		})
		return
	}

	c.JSON(http.StatusOK, devices)
}

// UpdateDeviceStatus handles toggling a device's active flag
func (h *DeviceHandler) UpdateDeviceStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device ID",
		})
		return
	}

	var request struct {
		Active bool `json:"active"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.service.UpdateDeviceActive(c, uint(id), request.Active); err != nil {
		h.log.WithError(err).Error("Failed to update device status")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update device status",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"id":     id,
		"active": request.Active,
	})
}

// AssignUser handles assigning an owner to a device
func (h *DeviceHandler) AssignUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device ID",
		})
		return
	}

	var request struct {
		UserID uint `json:"user_id"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	if err := h.service.AssignUserToDevice(c, uint(id), request.UserID); err != nil {
		h.log.WithError(err).Error("Failed to assign user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to assign user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"device_id": id,
		"user_id":   request.UserID,
	})
}

// UnassignUser handles removing the owner from a device
func (h *DeviceHandler) UnassignUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device ID",
		})
		return
	}

	if err := h.service.UnassignUserFromDevice(c, uint(id)); err != nil {
		h.log.WithError(err).Error("Failed to unassign user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to unassign user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"device_id": id,
	})
}

// ShipDevice handles marking a device shipped with its tracking id
func (h *DeviceHandler) ShipDevice(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device ID",
		})
		return
	}

	var request struct {
		TrackingID string `json:"tracking_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Tracking id is required",
		})
		return
	}

	if err := h.service.MarkDeviceShipped(c, uint(id), request.TrackingID); err != nil {
		h.log.WithError(err).Error("Failed to mark device shipped")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to mark device shipped",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"device_id":   id,
		"tracking_id": request.TrackingID,
	})
}

// GetDeviceActivity handles retrieving a device's activity log
func (h *DeviceHandler) GetDeviceActivity(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid device ID",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}

	logs, err := h.service.GetDeviceActivity(c, uint(id), limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to get device activity")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get device activity",
		})
		return
	}

	c.JSON(http.StatusOK, logs)
}

// GetDeviceClicks handles retrieving a device's raw click trail
func (h *DeviceHandler) GetDeviceClicks(c *gin.Context) {
	serial := c.Param("serial")
	if serial == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Serial number is required",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}

	logs, err := h.service.GetDeviceClicks(c, serial, limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to get device clicks")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get device clicks",
		})
		return
	}

	c.JSON(http.StatusOK, logs)
}
