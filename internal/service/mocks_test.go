package service

import (
	"context"
	"time"

	"example.com/dosepoint/services/device/internal/messaging"
	"example.com/dosepoint/services/device/internal/models"
	"example.com/dosepoint/services/device/internal/repository"
	"example.com/dosepoint/services/device/internal/tracking"

	"github.com/stretchr/testify/mock"
)

// Mock repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo repository.Repository) error) error {
	return fn(ctx, m)
}

func (m *MockRepository) CreateDevice(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockRepository) UpdateDevice(ctx context.Context, device *models.Device) error {
	args := m.Called(ctx, device)
	return args.Error(0)
}

func (m *MockRepository) FindDeviceByID(ctx context.Context, id uint) (*models.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockRepository) FindDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	args := m.Called(ctx, serial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *MockRepository) ListDevices(ctx context.Context, userID uint) ([]*models.Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Device), args.Error(1)
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockRepository) SaveClickLog(ctx context.Context, log *models.ClickLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRepository) ListClickLogs(ctx context.Context, serial string, limit int) ([]*models.ClickLog, error) {
	args := m.Called(ctx, serial, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ClickLog), args.Error(1)
}

func (m *MockRepository) SaveDeviceUserLog(ctx context.Context, log *models.DeviceUserLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRepository) ListDeviceUserLogs(ctx context.Context, deviceID uint, limit int) ([]*models.DeviceUserLog, error) {
	args := m.Called(ctx, deviceID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DeviceUserLog), args.Error(1)
}

func (m *MockRepository) SaveUserStory(ctx context.Context, story *models.UserStory) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

func (m *MockRepository) ListUserStories(ctx context.Context, userID uint, limit int) ([]*models.UserStory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserStory), args.Error(1)
}

func (m *MockRepository) SaveErrorLog(ctx context.Context, log *models.ErrorLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockRepository) ListErrorLogs(ctx context.Context, limit int) ([]*models.ErrorLog, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ErrorLog), args.Error(1)
}

func (m *MockRepository) CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockRepository) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.APIKey), args.Error(1)
}

func (m *MockRepository) UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func (m *MockRepository) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.APIKey), args.Error(1)
}

func (m *MockRepository) DeleteAPIKey(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock cache for testing
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n messaging.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNotifier) Close() error {
	args := m.Called()
	return args.Error(0)
}

// Mock carrier tracking client for testing
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Track(ctx context.Context, trackingID string) (*tracking.TrackResult, error) {
	args := m.Called(ctx, trackingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracking.TrackResult), args.Error(1)
}

// Mock support-desk task client for testing
type MockTaskClient struct {
	mock.Mock
}

func (m *MockTaskClient) CreateTask(ctx context.Context, kind models.TaskKind, device *models.Device, user *models.User) (string, error) {
	args := m.Called(ctx, kind, device, user)
	return args.String(0), args.Error(1)
}

func (m *MockTaskClient) RemoveTask(ctx context.Context, taskID string) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}
