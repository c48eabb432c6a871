package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"example.com/dosepoint/services/device/internal/cache"
	"example.com/dosepoint/services/device/internal/messaging"
	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/narrative"
	"example.com/dosepoint/services/device/internal/repository"
	"example.com/dosepoint/services/device/internal/tasks"
	"example.com/dosepoint/services/device/internal/tracking"

	"github.com/sirupsen/logrus"
)

// Service defines the business logic operations
type Service interface {
	// Press dispatch
	HandlePress(ctx context.Context, rawPayload []byte) PressResult

	// Device operations
	RegisterDevice(ctx context.Context, device *models.Device) error
	GetDevice(ctx context.Context, id uint) (*models.Device, error)
	GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error)
	ListDevices(ctx context.Context, userID uint) ([]*models.Device, error)
	UpdateDeviceActive(ctx context.Context, id uint, active bool) error
	AssignUserToDevice(ctx context.Context, deviceID, userID uint) error
	UnassignUserFromDevice(ctx context.Context, deviceID uint) error
	MarkDeviceShipped(ctx context.Context, deviceID uint, trackingID string) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Log retrieval for operators
	GetDeviceActivity(ctx context.Context, deviceID uint, limit int) ([]*models.DeviceUserLog, error)
	GetDeviceClicks(ctx context.Context, serial string, limit int) ([]*models.ClickLog, error)
	GetUserStories(ctx context.Context, userID uint, limit int) ([]*models.UserStory, error)
	GetErrorLogs(ctx context.Context, limit int) ([]*models.ErrorLog, error)
}

// service is an implementation of the Service interface
type service struct {
	repo      repository.Repository
	cache     cache.RedisClient
	notifier  messaging.Notifier
	tracker   tracking.Client
	tasks     tasks.Client
	stories   narrative.Recorder
	log       *logrus.Logger
	locks     *deviceLocks
	opsGroup  string
	shipGroup string
}

// ServiceConfig holds the configuration for the service
type ServiceConfig struct {
	Repository        repository.Repository
	Cache             cache.RedisClient
	Notifier          messaging.Notifier
	Tracker           tracking.Client
	Tasks             tasks.Client
	Logger            *logrus.Logger
	OpsRecipient      string
	ShippingRecipient string
}

// NewService creates a new service instance
func NewService(config ServiceConfig) (Service, error) {
	// Validate required config
	if config.Repository == nil {
		return nil, errors.New("repository is required")
	}
	if config.Cache == nil {
		return nil, errors.New("cache is required")
	}
	if config.Notifier == nil {
		return nil, errors.New("notifier is required")
	}
	if config.Tracker == nil {
		return nil, errors.New("tracking client is required")
	}
	if config.Tasks == nil {
		return nil, errors.New("task client is required")
	}
	if config.Logger == nil {
		config.Logger = logrus.New() // Default logger
	}
	if config.OpsRecipient == "" {
		config.OpsRecipient = "ops"
	}
	if config.ShippingRecipient == "" {
		config.ShippingRecipient = "shipping"
	}

	return &service{
		repo:      config.Repository,
		cache:     config.Cache,
		notifier:  config.Notifier,
		tracker:   config.Tracker,
		tasks:     config.Tasks,
		stories:   narrative.NewRecorder(config.Repository),
		log:       config.Logger,
		locks:     newDeviceLocks(),
		opsGroup:  config.OpsRecipient,
		shipGroup: config.ShippingRecipient,
	}, nil
}

// Device operations implementation

func (s *service) RegisterDevice(ctx context.Context, device *models.Device) error {
	// New devices start active, unshipped, in ready status
	device.Active = true
	device.Status = models.StatusReady

	if err := s.repo.CreateDevice(ctx, device); err != nil {
		return fmt.Errorf("failed to create device: %w", err)
	}

	s.cacheDevice(ctx, device)
	return nil
}

func (s *service) GetDevice(ctx context.Context, id uint) (*models.Device, error) {
	device, err := s.repo.FindDeviceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheDevice(ctx, device)
	return device, nil
}

func (s *service) GetDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	// Try the cache first
	cacheKey := fmt.Sprintf("device:%s", serial)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		var device models.Device
		if err := json.Unmarshal([]byte(cachedData), &device); err == nil {
			return &device, nil
		}
	}

	// Fallback to database
	device, err := s.repo.FindDeviceBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}

	s.cacheDevice(ctx, device)
	return device, nil
}

func (s *service) ListDevices(ctx context.Context, userID uint) ([]*models.Device, error) {
	return s.repo.ListDevices(ctx, userID)
}

func (s *service) UpdateDeviceActive(ctx context.Context, id uint, active bool) error {
	device, err := s.repo.FindDeviceByID(ctx, id)
	if err != nil {
		return err
	}

	device.Active = active

	return s.saveDevice(ctx, device)
}

func (s *service) AssignUserToDevice(ctx context.Context, deviceID, userID uint) error {
	device, err := s.repo.FindDeviceByID(ctx, deviceID)
	if err != nil {
		return err
	}

	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}

	device.UserID = &user.ID
	device.User = user

	return s.saveDevice(ctx, device)
}

func (s *service) UnassignUserFromDevice(ctx context.Context, deviceID uint) error {
	device, err := s.repo.FindDeviceByID(ctx, deviceID)
	if err != nil {
		return err
	}

	device.UserID = nil
	device.User = nil

	return s.saveDevice(ctx, device)
}

func (s *service) MarkDeviceShipped(ctx context.Context, deviceID uint, trackingID string) error {
	if trackingID == "" {
		return errors.New("tracking id is required when marking a device shipped")
	}

	device, err := s.repo.FindDeviceByID(ctx, deviceID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	device.Shipped = true
	device.ShippedAt = &now
	device.TrackingID = &trackingID

	return s.saveDevice(ctx, device)
}

// User operations implementation

func (s *service) CreateUser(ctx context.Context, user *models.User) error {
	user.Active = true
	return s.repo.CreateUser(ctx, user)
}

func (s *service) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.repo.FindUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// Log retrieval implementation

func (s *service) GetDeviceActivity(ctx context.Context, deviceID uint, limit int) ([]*models.DeviceUserLog, error) {
	return s.repo.ListDeviceUserLogs(ctx, deviceID, limit)
}

func (s *service) GetDeviceClicks(ctx context.Context, serial string, limit int) ([]*models.ClickLog, error) {
	return s.repo.ListClickLogs(ctx, serial, limit)
}

func (s *service) GetUserStories(ctx context.Context, userID uint, limit int) ([]*models.UserStory, error) {
	return s.repo.ListUserStories(ctx, userID, limit)
}

func (s *service) GetErrorLogs(ctx context.Context, limit int) ([]*models.ErrorLog, error) {
	return s.repo.ListErrorLogs(ctx, limit)
}

// saveDevice persists a device and refreshes its cache entry
func (s *service) saveDevice(ctx context.Context, device *models.Device) error {
	if err := s.repo.UpdateDevice(ctx, device); err != nil {
		return err
	}

	s.cacheDevice(ctx, device)
	return nil
}

// cacheDevice stores a device in the read-through cache, best effort
func (s *service) cacheDevice(ctx context.Context, device *models.Device) {
	deviceJSON, err := json.Marshal(device)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, fmt.Sprintf("device:%s", device.SerialNumber), string(deviceJSON), 24*time.Hour); err != nil {
		s.log.WithError(err).Debug("Failed to update device cache")
	}
}

// recordError writes a diagnostic row. Diagnostics are best effort: a
// failure to record one is logged and swallowed, never surfaced upstream.
func (s *service) recordError(ctx context.Context, kind models.ErrorKind, message, details string, userID *uint) {
	errorLog := &models.ErrorLog{
		Kind:    kind,
		Message: message,
		Details: details,
		UserID:  userID,
	}

	if err := s.repo.SaveErrorLog(ctx, errorLog); err != nil {
		s.log.WithError(err).WithField("kind", kind).Error("Failed to persist diagnostic record")
	}
}

// notifyOps publishes an operator notification, best effort
func (s *service) notifyOps(ctx context.Context, class messaging.NotificationClass, subject, body string, device *models.Device) {
	n := messaging.Notification{
		Recipient: s.opsGroup,
		Class:     class,
		Subject:   subject,
		Body:      body,
		Context:   deviceContext(device),
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WithError(err).Warn("Failed to publish operator notification")
	}
}

// deviceContext collects the notification context fields for a device
func deviceContext(device *models.Device) map[string]string {
	if device == nil {
		return nil
	}

	fields := map[string]string{
		"serial_number": device.SerialNumber,
	}
	if device.User != nil {
		fields["user_email"] = device.User.Email
		fields["user_name"] = device.User.FirstName + " " + device.User.LastName
	}
	return fields
}
