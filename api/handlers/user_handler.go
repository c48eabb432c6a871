// api/handlers/user_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserHandler handles device owner requests
type UserHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(svc service.Service, log *logrus.Logger) *UserHandler {
	return &UserHandler{
		service: svc,
		log:     log,
	}
}

// CreateUser handles owner provisioning
func (h *UserHandler) CreateUser(c *gin.Context) {
	var user models.User
	if err := c.ShouldBindJSON(&user); err != nil {
		h.log.WithError(err).Warn("Invalid user format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user format",
		})
		return
	}

	if user.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Email is required",
		})
		return
	}

	if err := h.service.CreateUser(c, &user); err != nil {
		h.log.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create user",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser handles user retrieval
func (h *UserHandler) GetUser(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	user, err := h.service.GetUser(c, uint(id))
	if err != nil {
		h.log.WithError(err).Error("Failed to get user")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles listing all users
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c)
	if err != nil {
		h.log.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list users",
		})
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUserStories handles retrieving a user's narrative timeline
func (h *UserHandler) GetUserStories(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid user ID",
		})
		return
	}

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		limit = 50
	}

	stories, err := h.service.GetUserStories(c, uint(id), limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to get user stories")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get user stories",
		})
		return
	}

	c.JSON(http.StatusOK, stories)
}
