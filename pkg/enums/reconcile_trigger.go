package enums

import "fmt"

// ReconcileTrigger names the entry point that drove a payment transition.
type ReconcileTrigger string

const (
	ReconcileTriggerWebhook      ReconcileTrigger = "gateway_webhook"
	ReconcileTriggerQuoteWebhook ReconcileTrigger = "gateway_quote_webhook"
	ReconcileTriggerAdmin        ReconcileTrigger = "admin_action"
)

var validReconcileTriggers = []ReconcileTrigger{
	ReconcileTriggerWebhook,
	ReconcileTriggerQuoteWebhook,
	ReconcileTriggerAdmin,
}

// String implements fmt.Stringer.
func (t ReconcileTrigger) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ReconcileTrigger.
func (t ReconcileTrigger) IsValid() bool {
	for _, candidate := range validReconcileTriggers {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseReconcileTrigger converts raw input into a ReconcileTrigger.
func ParseReconcileTrigger(value string) (ReconcileTrigger, error) {
	for _, candidate := range validReconcileTriggers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reconcile trigger %q", value)
}
