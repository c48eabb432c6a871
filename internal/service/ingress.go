package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"example.com/dosepoint/services/device/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// pressPayload is the one ingress shape the service recognizes: the
// enterprise 1-click button callback. Anything else is an unknown format.
type pressPayload struct {
	DeviceInfo *struct {
		DeviceID      string   `json:"deviceId"`
		RemainingLife *float64 `json:"remainingLife"`
	} `json:"deviceInfo"`
	DeviceEvent *struct {
		ButtonClicked struct {
			ClickType string `json:"clickType"`
		} `json:"buttonClicked"`
	} `json:"deviceEvent"`
}

// classifyPress resolves a raw press payload to a device. It writes the
// forensic click log before any lookup, applies the unconditional
// per-click device update (battery, last press, counters), and fails open:
// any failure after format recognition surfaces as "device absent" rather
// than aborting the press.
func (s *service) classifyPress(ctx context.Context, raw []byte) (device *models.Device, unknownFormat bool) {
	var payload pressPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.DeviceInfo == nil || payload.DeviceEvent == nil {
		s.recordError(ctx, models.ErrUnknownIngressFormat, "Received click data is in an unknown format", string(raw), nil)
		return nil, true
	}

	serial := payload.DeviceInfo.DeviceID
	clickKind := models.ParseClickKind(payload.DeviceEvent.ButtonClicked.ClickType)

	clickLog := &models.ClickLog{
		UUID:         uuid.New().String(),
		SerialNumber: &serial,
		Battery:      payload.DeviceInfo.RemainingLife,
		ClickKind:    clickKind,
		RawPayload:   string(raw),
	}
	if err := s.repo.SaveClickLog(ctx, clickLog); err != nil {
		s.recordError(ctx, models.ErrDeviceParsing, err.Error(), string(raw), nil)
		return nil, false
	}

	device, err := s.repo.FindDeviceBySerial(ctx, serial)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.recordError(ctx, models.ErrDeviceNotSetup, "Device is not setup", string(raw), nil)
		} else {
			s.recordError(ctx, models.ErrDeviceParsing, err.Error(), string(raw), nil)
		}
		return nil, false
	}

	// Every recognized click updates the device, independent of what the
	// press later resolves to.
	now := time.Now().UTC()
	device.Battery = clickLog.Battery
	device.LastPressedAt = &now
	device.LastClickKind = clickKind
	device.ClicksTotal++

	if err := s.saveDevice(ctx, device); err != nil {
		s.recordError(ctx, models.ErrDeviceParsing, err.Error(), string(raw), device.UserID)
		return nil, false
	}

	return device, false
}
