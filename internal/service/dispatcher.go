package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"example.com/dosepoint/services/device/internal/messaging"
	"example.com/dosepoint/services/device/internal/models"

	"github.com/sirupsen/logrus"
)

// HandlePress decides what one physical button press means and what should
// happen next. It never returns an error to the caller: every failure is
// converted to a diagnostic record plus a descriptive outcome, and a
// catch-all turns anything unhandled into the "error" outcome.
func (s *service) HandlePress(ctx context.Context, rawPayload []byte) (res PressResult) {
	defer func() {
		if rec := recover(); rec != nil {
			s.recordError(ctx, models.ErrUncaughtDispatch, fmt.Sprintf("panic: %v", rec), string(rawPayload), nil)
			res = result(OutcomeError)
		}
	}()

	device, unknownFormat := s.classifyPress(ctx, rawPayload)
	if unknownFormat {
		return result(OutcomeUnknownFormat)
	}

	// Top-level gate, evaluated in order before the lifecycle state machine
	if device == nil || !device.Active {
		if device != nil {
			s.notifyOps(ctx, messaging.ClassWarning, "Inactive device pressed",
				"An inactive device was clicked.", device)
		}
		return result(OutcomeDeviceNotActive)
	}

	if device.User == nil {
		s.recordError(ctx, models.ErrDeviceNotAssigned, "Device is not assigned to a user", string(rawPayload), nil)
		s.notifyOps(ctx, messaging.ClassError, "Unassigned device pressed",
			"A user is not assigned to the device that was clicked.", device)
		return result(OutcomeNoUserAssigned)
	}

	if device.Demo {
		// Demo units are inert for dosing and activation purposes
		return result(OutcomeDemoIgnored)
	}

	// Serialize the state machine per device; duplicate concurrent presses
	// must not race on the status transition.
	unlock := s.locks.lock(device.ID)
	defer unlock()

	res, err := s.dispatchLifecycle(ctx, device, rawPayload)
	if err != nil {
		s.recordError(ctx, models.ErrUncaughtDispatch, err.Error(), string(rawPayload), device.UserID)
		return result(OutcomeError)
	}

	return res
}

// dispatchLifecycle routes a press through the lifecycle state machine. The
// branch is fully determined by the shipped/delivered/activated booleans
// plus, once activated, the device status.
func (s *service) dispatchLifecycle(ctx context.Context, device *models.Device, rawPayload []byte) (PressResult, error) {
	switch {
	case !device.Shipped:
		return s.handleTestClick(ctx, device), nil
	case !device.Delivered && device.TrackingID != nil:
		return s.handleInTransit(ctx, device)
	case !device.Delivered:
		return s.handleMissingTracking(ctx, device, rawPayload), nil
	case !device.Activated:
		return s.handleFirstActivation(ctx, device)
	default:
		return s.handleDosing(ctx, device)
	}
}

// handleTestClick covers presses before shipment: the device is on a desk
// somewhere being verified. A notification failure is diagnosed but never
// fatal for the press.
func (s *service) handleTestClick(ctx context.Context, device *models.Device) PressResult {
	n := messaging.Notification{
		Recipient: s.shipGroup,
		Class:     messaging.ClassTestClick,
		Subject:   "Client Test Click",
		Body:      fmt.Sprintf("Device %s was test clicked before shipment.", device.SerialNumber),
		Context:   deviceContext(device),
	}

	if err := s.notifier.Notify(ctx, n); err != nil {
		s.recordError(ctx, models.ErrTestClickNotification, err.Error(), "", device.UserID)
		return PressResult{
			Outcome: OutcomeTestClickFailed,
			Message: fmt.Sprintf("%s: %s", OutcomeTestClickFailed, err.Error()),
		}
	}

	return result(OutcomeTestClick)
}

// handleInTransit asks the carrier whether a shipped device has arrived. A
// press while genuinely in transit is expected noise; a press after
// delivery is the activation trigger.
func (s *service) handleInTransit(ctx context.Context, device *models.Device) (PressResult, error) {
	trackRes, err := s.tracker.Track(ctx, *device.TrackingID)
	if err != nil {
		return PressResult{}, fmt.Errorf("tracking lookup for device %s: %w", device.SerialNumber, err)
	}

	if !trackRes.Delivered {
		details, _ := json.Marshal(map[string]interface{}{
			"delivery_estimate": trackRes.DeliveryEstimate,
			"delivery_attempts": trackRes.DeliveryAttempts,
		})
		device.DeliveryDetails = string(details)

		if err := s.saveDevice(ctx, device); err != nil {
			return PressResult{}, fmt.Errorf("saving delivery details: %w", err)
		}

		if err := s.stories.Record(ctx, device.User, device, models.ActionPressIgnoredInDelivery); err != nil {
			return PressResult{}, fmt.Errorf("recording in-delivery press: %w", err)
		}

		return result(OutcomeNotDeliveredIgnored), nil
	}

	deliveredAt := time.Now().UTC()
	if trackRes.DeliveredAt != nil {
		deliveredAt = *trackRes.DeliveredAt
	}

	details, _ := json.Marshal(map[string]interface{}{
		"delivered_signature_name": trackRes.SignatureName,
		"delivery_attempts":        trackRes.DeliveryAttempts,
	})

	device.Delivered = true
	device.DeliveredAt = &deliveredAt
	device.DeliveryDetails = string(details)

	if err := s.saveDevice(ctx, device); err != nil {
		return PressResult{}, fmt.Errorf("marking device delivered: %w", err)
	}

	// Delivery narrative is backdated to the carrier-reported time; the
	// delivery activity log entry matches. Sequence numbers keep the
	// delivery, activation and welcome entries strictly ordered.
	deliveryLog := &models.DeviceUserLog{
		DeviceID: device.ID,
		Action:   models.ActionDeviceDelivery,
		LoggedAt: deliveredAt,
	}
	if err := s.repo.SaveDeviceUserLog(ctx, deliveryLog); err != nil {
		return PressResult{}, fmt.Errorf("logging delivery: %w", err)
	}
	if err := s.stories.RecordAt(ctx, device.User, device, models.ActionDeviceDelivery, deliveredAt); err != nil {
		return PressResult{}, fmt.Errorf("recording delivery narrative: %w", err)
	}

	if err := s.activateDevice(ctx, device); err != nil {
		return PressResult{}, err
	}

	s.log.WithFields(logrus.Fields{
		"serial_number": device.SerialNumber,
		"delivered_at":  deliveredAt,
	}).Info("Device marked delivered and activated")

	return result(OutcomeMarkDeliveredActivated), nil
}

// handleMissingTracking covers the data-integrity hole where a shipped
// device carries no tracking handle. Nothing about the device is mutated.
func (s *service) handleMissingTracking(ctx context.Context, device *models.Device, rawPayload []byte) PressResult {
	s.recordError(ctx, models.ErrMissingTrackingID,
		"Device is marked as shipped but no tracking id to check if delivered.",
		string(rawPayload), device.UserID)

	s.notifyOps(ctx, messaging.ClassDataError, "Missing tracking id",
		"A device was clicked and not yet delivered BUT the tracking Id is missing! "+
			"There is no way to determine if the device was delivered. "+
			"Please add the Tracking Id to the deployment page.", device)

	return result(OutcomeNoTrackingID)
}

// handleFirstActivation treats any click on a delivered, not-yet-activated
// device as its activation trigger. The user click counter is bumped first:
// it reflects user interaction, not activation success.
func (s *service) handleFirstActivation(ctx context.Context, device *models.Device) (PressResult, error) {
	device.ClicksUser++
	if err := s.saveDevice(ctx, device); err != nil {
		return PressResult{}, fmt.Errorf("incrementing user clicks: %w", err)
	}

	// An open task at this point was for a delivery-verification concern
	// that activation resolves.
	if device.OpenTaskID != nil {
		if err := s.tasks.RemoveTask(ctx, *device.OpenTaskID); err != nil {
			return PressResult{}, fmt.Errorf("removing stale task %s: %w", *device.OpenTaskID, err)
		}
		device.OpenTaskID = nil
	}

	if err := s.activateDevice(ctx, device); err != nil {
		return PressResult{}, err
	}

	return result(OutcomeActivatedDevice), nil
}

// handleDosing dispatches a press on a live device strictly on its current
// status. Every row of the table increments the user click counter, writes
// one primary activity entry, and answers "Dosing Click"; sub-cases are
// distinguishable only in the logs.
func (s *service) handleDosing(ctx context.Context, device *models.Device) (PressResult, error) {
	var action models.ActionKind

	switch device.Status {
	case models.StatusReady:
		action = models.ActionDosing
		device.Status = models.StatusDosed

	case models.StatusDosed:
		// Already dosed: counted, logged as a duplicate, status unchanged
		action = models.ActionDosingDuplicate

	case models.StatusWarning:
		// The user took their medication; the warning no longer applies
		action = models.ActionDosingFromWarning
		device.Status = models.StatusDosed

	case models.StatusEscalated:
		// Dose taken during escalation: the call-center task comes down too
		action = models.ActionDosingFromEscalation
		if device.OpenTaskID != nil {
			if err := s.tasks.RemoveTask(ctx, *device.OpenTaskID); err != nil {
				return PressResult{}, fmt.Errorf("removing escalation task: %w", err)
			}
		}
		device.Status = models.StatusDosed
		device.OpenTaskID = nil

	case models.StatusHold:
		// Dosing while on hold needs a human to review
		action = models.ActionDosingFromHold
		device.Status = models.StatusDosed

		taskID, err := s.tasks.CreateTask(ctx, models.TaskDosingResumed, device, device.User)
		if err != nil {
			return PressResult{}, fmt.Errorf("creating dosing-resumed task: %w", err)
		}
		device.OpenTaskID = &taskID

	default:
		return PressResult{}, fmt.Errorf("device %s has unknown status %q", device.SerialNumber, device.Status)
	}

	device.ClicksUser++
	if err := s.saveDevice(ctx, device); err != nil {
		return PressResult{}, fmt.Errorf("saving dosing transition: %w", err)
	}

	dLog := &models.DeviceUserLog{
		DeviceID: device.ID,
		Action:   action,
		LoggedAt: time.Now().UTC(),
	}
	if err := s.repo.SaveDeviceUserLog(ctx, dLog); err != nil {
		return PressResult{}, fmt.Errorf("logging dosing action: %w", err)
	}

	if err := s.stories.Record(ctx, device.User, device, action); err != nil {
		return PressResult{}, fmt.Errorf("recording dosing narrative: %w", err)
	}

	// Extra narrative entries for the task-affecting rows, in order
	switch action {
	case models.ActionDosingFromEscalation:
		if err := s.stories.Record(ctx, device.User, device, models.ActionTaskRemovedMissedDose); err != nil {
			return PressResult{}, fmt.Errorf("recording task removal narrative: %w", err)
		}
	case models.ActionDosingFromHold:
		if err := s.stories.Record(ctx, device.User, device, models.ActionTaskAddedDosingResumed); err != nil {
			return PressResult{}, fmt.Errorf("recording task creation narrative: %w", err)
		}
	}

	return result(OutcomeDosingClick), nil
}
