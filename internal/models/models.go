package models

import (
	"time"

	"gorm.io/gorm"
)

// Model is the base model with common fields for all database entities
type Model struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// AuthorizationLevel represents the level of access for an API key
type AuthorizationLevel int

const (
	// NoAuthLevel represents public access with no authentication
	NoAuthLevel AuthorizationLevel = 0
	// ViewerAuthLevel represents read-only access
	ViewerAuthLevel AuthorizationLevel = 1
	// WriterAuthLevel represents read-write access
	WriterAuthLevel AuthorizationLevel = 2
	// SudoAuthLevel represents administrative access
	SudoAuthLevel AuthorizationLevel = 3
	// DeviceGatewayAuthLevel represents authentication for the button ingress gateway
	DeviceGatewayAuthLevel AuthorizationLevel = 5
)

// APIKey represents an API token with associated access level
type APIKey struct {
	Model
	Key                string             `json:"key" gorm:"uniqueIndex;Column:key"`
	Name               string             `json:"name" gorm:"Column:name"`
	AuthorizationLevel AuthorizationLevel `json:"authorization_level" gorm:"Column:authorization_level"`
	ExpiresAt          *time.Time         `json:"expires_at" gorm:"Column:expires_at"`
	LastUsedAt         *time.Time         `json:"last_used_at" gorm:"Column:last_used_at"`
}

// User model represents a patient who owns a button device
type User struct {
	Model
	Email     string `json:"email" gorm:"uniqueIndex;Column:email"`
	FirstName string `json:"first_name" gorm:"Column:first_name"`
	LastName  string `json:"last_name" gorm:"Column:last_name"`
	Phone     string `json:"phone" gorm:"Column:phone"`
	Timezone  string `json:"timezone" gorm:"Column:timezone"`
	Active    bool   `json:"active" gorm:"Column:active"`
}

// Device model represents a physical dosing button in the system.
//
// The three lifecycle booleans Shipped/Delivered/Activated define the
// device's lifecycle stage. Delivered implies Shipped and Activated implies
// Delivered; Status is only meaningful once Activated is true.
type Device struct {
	Model
	SerialNumber    string        `json:"serial_number" gorm:"uniqueIndex;Column:serial_number"`
	User            *User         `json:"user" gorm:"foreignKey:UserID"`
	UserID          *uint         `json:"user_id" gorm:"Column:user_id"`
	Active          bool          `json:"active" gorm:"Column:active"`
	Demo            bool          `json:"demo" gorm:"Column:demo"`
	Shipped         bool          `json:"shipped" gorm:"Column:shipped"`
	Delivered       bool          `json:"delivered" gorm:"Column:delivered"`
	Activated       bool          `json:"activated" gorm:"Column:activated"`
	TrackingID      *string       `json:"tracking_id" gorm:"Column:tracking_id"`
	Status          DeviceStatus  `json:"status" gorm:"Column:status;default:'ready'"`
	OpenTaskID      *string       `json:"open_task_id" gorm:"Column:open_task_id"`
	ClicksTotal     uint          `json:"clicks_total" gorm:"Column:clicks_total"`
	ClicksUser      uint          `json:"clicks_user" gorm:"Column:clicks_user"`
	Battery         *float64      `json:"battery" gorm:"Column:battery"`
	LastClickKind   *ClickKind    `json:"last_click_kind" gorm:"Column:last_click_kind"`
	LastPressedAt   *time.Time    `json:"last_pressed_at" gorm:"Column:last_pressed_at"`
	ShippedAt       *time.Time    `json:"shipped_at" gorm:"Column:shipped_at"`
	DeliveredAt     *time.Time    `json:"delivered_at" gorm:"Column:delivered_at"`
	ActivatedAt     *time.Time    `json:"activated_at" gorm:"Column:activated_at"`
	DeliveryDetails string        `json:"delivery_details" gorm:"Column:delivery_details;type:text"`
}

// ClickLog model records every raw press payload that reaches the service,
// whether or not it is later matched to a device. This is the forensic
// trail and is written before any device lookup.
type ClickLog struct {
	Model
	UUID         string     `json:"uuid" gorm:"uniqueIndex;Column:uuid"`
	SerialNumber *string    `json:"serial_number" gorm:"Column:serial_number"`
	Battery      *float64   `json:"battery" gorm:"Column:battery"`
	ClickKind    *ClickKind `json:"click_kind" gorm:"Column:click_kind"`
	RawPayload   string     `json:"raw_payload" gorm:"Column:raw_payload;type:text"`
}

// DeviceUserLog model is the append-only activity log. One row per
// device-state-affecting action. LoggedAt defaults to now but the delivery
// action is backdated to the carrier-reported delivery time.
type DeviceUserLog struct {
	Model
	Device   *Device    `json:"-" gorm:"foreignKey:DeviceID"`
	DeviceID uint       `json:"device_id" gorm:"Column:device_id"`
	Action   ActionKind `json:"action" gorm:"Column:action"`
	LoggedAt time.Time  `json:"logged_at" gorm:"Column:logged_at"`
}

// UserStory model is a narrative timeline entry for a device owner. Seq is
// a strictly monotonic sequence number; downstream feeds order entries by
// (OccurredAt, Seq) so entries written in the same instant keep their
// relative order.
type UserStory struct {
	Model
	User       *User      `json:"-" gorm:"foreignKey:UserID"`
	UserID     uint       `json:"user_id" gorm:"Column:user_id"`
	Device     *Device    `json:"-" gorm:"foreignKey:DeviceID"`
	DeviceID   uint       `json:"device_id" gorm:"Column:device_id"`
	Action     ActionKind `json:"action" gorm:"Column:action"`
	Seq        int64      `json:"seq" gorm:"Column:seq;index"`
	OccurredAt time.Time  `json:"occurred_at" gorm:"Column:occurred_at"`
}

// ErrorLog model is an append-only diagnostic record. Write-only from the
// dispatcher's perspective; operators read it through the errors endpoint.
type ErrorLog struct {
	Model
	Kind    ErrorKind `json:"kind" gorm:"Column:kind"`
	Message string    `json:"message" gorm:"Column:message;type:text"`
	Details string    `json:"details" gorm:"Column:details;type:text"`
	UserID  *uint     `json:"user_id" gorm:"Column:user_id"`
}
