package models

import "strings"

// ClickKind is an enum for the physical press gesture reported by a button
type ClickKind string

const (
	// ClickSingle represents a single short press
	ClickSingle ClickKind = "single"
	// ClickDouble represents a double press
	ClickDouble ClickKind = "double"
	// ClickLong represents a long hold press
	ClickLong ClickKind = "long"
)

// ParseClickKind maps a raw click-kind string to a ClickKind. The mapping is
// case-insensitive; unrecognized strings return nil rather than failing the
// whole press.
func ParseClickKind(s string) *ClickKind {
	var k ClickKind
	switch strings.ToUpper(s) {
	case "SINGLE":
		k = ClickSingle
	case "DOUBLE":
		k = ClickDouble
	case "LONG":
		k = ClickLong
	default:
		return nil
	}
	return &k
}

// DeviceStatus is the dosing state of an activated device
type DeviceStatus string

const (
	// StatusReady means the device is waiting for the next scheduled dose
	StatusReady DeviceStatus = "ready"
	// StatusDosed means the current dose window has been satisfied
	StatusDosed DeviceStatus = "dosed"
	// StatusWarning means the dose window is past due
	StatusWarning DeviceStatus = "warning"
	// StatusEscalated means a missed dose was escalated to the call center
	StatusEscalated DeviceStatus = "escalated"
	// StatusHold means dosing is clinically paused for this device
	StatusHold DeviceStatus = "hold"
)

// ActionKind tags activity log and user story entries
type ActionKind string

const (
	// ActionDosing is a press from the ready state
	ActionDosing ActionKind = "dosing"
	// ActionDosingDuplicate is a repeated press while already dosed
	ActionDosingDuplicate ActionKind = "dosing_duplicate"
	// ActionDosingFromWarning is a press clearing a warning state
	ActionDosingFromWarning ActionKind = "dosing_from_warning"
	// ActionDosingFromEscalation is a press clearing an escalation state
	ActionDosingFromEscalation ActionKind = "dosing_from_escalation"
	// ActionTaskRemovedMissedDose records removal of a missed-dose task
	ActionTaskRemovedMissedDose ActionKind = "task_removed_missed_dose"
	// ActionDosingFromHold is a press while the device is on hold
	ActionDosingFromHold ActionKind = "dosing_from_hold"
	// ActionTaskAddedDosingResumed records creation of a dosing-resumed task
	ActionTaskAddedDosingResumed ActionKind = "task_added_dosing_resumed"
	// ActionDeviceActivation records the device's first activation
	ActionDeviceActivation ActionKind = "device_activation"
	// ActionTaskAddedWelcome records creation of the welcome task
	ActionTaskAddedWelcome ActionKind = "task_added_welcome"
	// ActionDeviceDelivery records carrier-confirmed delivery
	ActionDeviceDelivery ActionKind = "device_delivery"
	// ActionPressIgnoredInDelivery is a press received while still in transit
	ActionPressIgnoredInDelivery ActionKind = "press_ignored_in_delivery"
)

// TaskKind is an enum for support-desk task types
type TaskKind string

const (
	// TaskWelcome asks the call center to welcome a newly activated user
	TaskWelcome TaskKind = "welcome"
	// TaskDosingResumed asks the call center to review dosing resumed from hold
	TaskDosingResumed TaskKind = "dosing_resumed"
)

// ErrorKind categorizes diagnostic records
type ErrorKind string

const (
	// ErrUnknownIngressFormat means the press payload had no recognized shape
	ErrUnknownIngressFormat ErrorKind = "unknown_ingress_format"
	// ErrDeviceNotSetup means no device row exists for the reported serial
	ErrDeviceNotSetup ErrorKind = "device_not_setup"
	// ErrDeviceParsing means classification itself failed unexpectedly
	ErrDeviceParsing ErrorKind = "device_parsing_failure"
	// ErrDeviceNotAssigned means an active device has no owner
	ErrDeviceNotAssigned ErrorKind = "device_not_assigned"
	// ErrMissingTrackingID means a shipped device carries no tracking handle
	ErrMissingTrackingID ErrorKind = "fedex_missing_tracking_id"
	// ErrTestClickNotification means the test-click notification failed to send
	ErrTestClickNotification ErrorKind = "test_click_notification_failure"
	// ErrUncaughtDispatch wraps any failure not handled by a branch
	ErrUncaughtDispatch ErrorKind = "uncaught_dispatch_failure"
)
