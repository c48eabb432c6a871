package service

// Outcome is the short human-readable code a press resolves to. The ingress
// contract returns it as the response body with a success status even for
// handled errors, so callers distinguish results by text, not status code.
type Outcome string

const (
	// OutcomeDosingClick covers every press on an activated device,
	// whatever the prior status; sub-cases are visible only in the logs
	OutcomeDosingClick Outcome = "Dosing Click"
	// OutcomeActivatedDevice is the first press after delivery
	OutcomeActivatedDevice Outcome = "Activated Device"
	// OutcomeMarkDeliveredActivated is a press that resolved an in-transit
	// device to delivered and activated it in one go
	OutcomeMarkDeliveredActivated Outcome = "Mark delivered and activated"
	// OutcomeNotDeliveredIgnored is expected in-transit noise
	OutcomeNotDeliveredIgnored Outcome = "Not delivered, ignored"
	// OutcomeNoTrackingID means a shipped device has no tracking handle
	OutcomeNoTrackingID Outcome = "No Tracking Id to Check - Failed to verify next steps. See error log."
	// OutcomeTestClick is a press before shipment
	OutcomeTestClick Outcome = "Test Click"
	// OutcomeTestClickFailed means the test-click notification did not send
	OutcomeTestClickFailed Outcome = "Test Click Email Error"
	// OutcomeNoUserAssigned means an active device has no owner
	OutcomeNoUserAssigned Outcome = "No user assigned to device"
	// OutcomeDeviceNotActive covers absent and deactivated devices
	OutcomeDeviceNotActive Outcome = "Device is not active"
	// OutcomeUnknownFormat means the payload shape was not recognized
	OutcomeUnknownFormat Outcome = "Unknown format"
	// OutcomeDemoIgnored is the explicit no-op for demo units
	OutcomeDemoIgnored Outcome = "Demo device, ignored"
	// OutcomeError is the catch-all for unhandled dispatch failures
	OutcomeError Outcome = "error"
)

// PressResult is what one press resolves to. Message is the text returned
// to the caller; it equals the outcome except where a branch embeds a
// failure detail (test-click notification errors).
type PressResult struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
}

func result(o Outcome) PressResult {
	return PressResult{Outcome: o, Message: string(o)}
}
