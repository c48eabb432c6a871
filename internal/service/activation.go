package service

import (
	"context"
	"fmt"
	"time"

	"example.com/dosepoint/services/device/internal/models"
)

// activateDevice runs the shared activation sequence: flip the activated
// flag, open the welcome task, and write the activation and welcome entries
// in order. Callers guard on device.Activated; once set, no path re-runs
// this sequence.
func (s *service) activateDevice(ctx context.Context, device *models.Device) error {
	now := time.Now().UTC()
	device.Activated = true
	device.ActivatedAt = &now
	device.Status = models.StatusReady

	if err := s.saveDevice(ctx, device); err != nil {
		return fmt.Errorf("saving activation: %w", err)
	}

	// Welcome task for the call center to greet the new user
	taskID, err := s.tasks.CreateTask(ctx, models.TaskWelcome, device, device.User)
	if err != nil {
		return fmt.Errorf("creating welcome task: %w", err)
	}

	device.OpenTaskID = &taskID
	if err := s.saveDevice(ctx, device); err != nil {
		return fmt.Errorf("saving welcome task id: %w", err)
	}

	aLog := &models.DeviceUserLog{
		DeviceID: device.ID,
		Action:   models.ActionDeviceActivation,
		LoggedAt: now,
	}
	if err := s.repo.SaveDeviceUserLog(ctx, aLog); err != nil {
		return fmt.Errorf("logging activation: %w", err)
	}

	if err := s.stories.Record(ctx, device.User, device, models.ActionDeviceActivation); err != nil {
		return fmt.Errorf("recording activation narrative: %w", err)
	}

	if err := s.stories.Record(ctx, device.User, device, models.ActionTaskAddedWelcome); err != nil {
		return fmt.Errorf("recording welcome narrative: %w", err)
	}

	return nil
}
