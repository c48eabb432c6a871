package repository

import (
	"context"

	"example.com/dosepoint/services/device/internal/database"
	"example.com/dosepoint/services/device/internal/models"

	"gorm.io/gorm"
)

// Repository provides data access methods
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	// Device operations
	CreateDevice(ctx context.Context, device *models.Device) error
	UpdateDevice(ctx context.Context, device *models.Device) error
	FindDeviceByID(ctx context.Context, id uint) (*models.Device, error)
	FindDeviceBySerial(ctx context.Context, serial string) (*models.Device, error)
	ListDevices(ctx context.Context, userID uint) ([]*models.Device, error)

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// ClickLog operations
	SaveClickLog(ctx context.Context, log *models.ClickLog) error
	ListClickLogs(ctx context.Context, serial string, limit int) ([]*models.ClickLog, error)

	// DeviceUserLog operations
	SaveDeviceUserLog(ctx context.Context, log *models.DeviceUserLog) error
	ListDeviceUserLogs(ctx context.Context, deviceID uint, limit int) ([]*models.DeviceUserLog, error)

	// UserStory operations
	SaveUserStory(ctx context.Context, story *models.UserStory) error
	ListUserStories(ctx context.Context, userID uint, limit int) ([]*models.UserStory, error)

	// ErrorLog operations
	SaveErrorLog(ctx context.Context, log *models.ErrorLog) error
	ListErrorLogs(ctx context.Context, limit int) ([]*models.ErrorLog, error)

	// APIKey operations
	CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error
	GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error)
	UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	DeleteAPIKey(ctx context.Context, id uint) error
}

// repo is an implementation of the Repository interface
type repo struct {
	db database.DB
}

// Helper type for transaction support
type dbWrapper struct {
	db *gorm.DB
}

func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

func (w *dbWrapper) Close() error {
	return nil
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}

// WithTransaction executes the given function within a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{
			db: &dbWrapper{db: tx},
		}
		return fn(ctx, txRepo)
	})
}

// Device operations implementation

func (r *repo) CreateDevice(ctx context.Context, device *models.Device) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(device).Error
}

func (r *repo) UpdateDevice(ctx context.Context, device *models.Device) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Save(device).Error
}

func (r *repo) FindDeviceByID(ctx context.Context, id uint) (*models.Device, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var device models.Device
	if err := gormDB.Preload("User").First(&device, id).Error; err != nil {
		return nil, err
	}

	return &device, nil
}

func (r *repo) FindDeviceBySerial(ctx context.Context, serial string) (*models.Device, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var device models.Device
	if err := gormDB.Preload("User").Where("serial_number = ?", serial).First(&device).Error; err != nil {
		return nil, err
	}

	return &device, nil
}

func (r *repo) ListDevices(ctx context.Context, userID uint) ([]*models.Device, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var devices []*models.Device
	query := gormDB.Preload("User")

	if userID > 0 {
		query = query.Where("user_id = ?", userID)
	}

	if err := query.Find(&devices).Error; err != nil {
		return nil, err
	}

	return devices, nil
}

// User operations implementation

func (r *repo) CreateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(user).Error
}

func (r *repo) UpdateUser(ctx context.Context, user *models.User) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Save(user).Error
}

func (r *repo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := gormDB.First(&user, id).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repo) ListUsers(ctx context.Context) ([]*models.User, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var users []*models.User
	if err := gormDB.Find(&users).Error; err != nil {
		return nil, err
	}

	return users, nil
}

// ClickLog operations implementation

func (r *repo) SaveClickLog(ctx context.Context, log *models.ClickLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(log).Error
}

func (r *repo) ListClickLogs(ctx context.Context, serial string, limit int) ([]*models.ClickLog, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var logs []*models.ClickLog
	query := gormDB.Where("serial_number = ?", serial).Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

// DeviceUserLog operations implementation

func (r *repo) SaveDeviceUserLog(ctx context.Context, log *models.DeviceUserLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(log).Error
}

func (r *repo) ListDeviceUserLogs(ctx context.Context, deviceID uint, limit int) ([]*models.DeviceUserLog, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var logs []*models.DeviceUserLog
	query := gormDB.Where("device_id = ?", deviceID).Order("logged_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

// UserStory operations implementation

func (r *repo) SaveUserStory(ctx context.Context, story *models.UserStory) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(story).Error
}

func (r *repo) ListUserStories(ctx context.Context, userID uint, limit int) ([]*models.UserStory, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var stories []*models.UserStory
	query := gormDB.Where("user_id = ?", userID).Order("occurred_at DESC, seq DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&stories).Error; err != nil {
		return nil, err
	}

	return stories, nil
}

// ErrorLog operations implementation

func (r *repo) SaveErrorLog(ctx context.Context, log *models.ErrorLog) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(log).Error
}

func (r *repo) ListErrorLogs(ctx context.Context, limit int) ([]*models.ErrorLog, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var logs []*models.ErrorLog
	query := gormDB.Order("created_at DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}

// APIKey operations implementation

func (r *repo) CreateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Create(apiKey).Error
}

func (r *repo) GetAPIKeyByKey(ctx context.Context, key string) (*models.APIKey, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var apiKey models.APIKey
	if err := gormDB.Where("key = ?", key).First(&apiKey).Error; err != nil {
		return nil, err
	}

	return &apiKey, nil
}

func (r *repo) UpdateAPIKey(ctx context.Context, apiKey *models.APIKey) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Save(apiKey).Error
}

func (r *repo) ListAPIKeys(ctx context.Context) ([]*models.APIKey, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}

	var apiKeys []*models.APIKey
	if err := gormDB.Find(&apiKeys).Error; err != nil {
		return nil, err
	}

	return apiKeys, nil
}

func (r *repo) DeleteAPIKey(ctx context.Context, id uint) error {
	gormDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return gormDB.Delete(&models.APIKey{}, id).Error
}
