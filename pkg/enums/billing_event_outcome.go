package enums

import "fmt"

// BillingEventOutcome records what a ledgered webhook event did.
type BillingEventOutcome string

const (
	// BillingEventOutcomeApplied means the event produced an entitlement write.
	BillingEventOutcomeApplied BillingEventOutcome = "applied"
	// BillingEventOutcomeSkipped means the event type carries no state change.
	BillingEventOutcomeSkipped BillingEventOutcome = "skipped"
	// BillingEventOutcomeUnresolved means no teacher matched the event; the
	// delivery was acknowledged so the sender stops retrying.
	BillingEventOutcomeUnresolved BillingEventOutcome = "unresolved"
)

var validBillingEventOutcomes = []BillingEventOutcome{
	BillingEventOutcomeApplied,
	BillingEventOutcomeSkipped,
	BillingEventOutcomeUnresolved,
}

// String implements fmt.Stringer.
func (o BillingEventOutcome) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o BillingEventOutcome) IsValid() bool {
	for _, candidate := range validBillingEventOutcomes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseBillingEventOutcome converts raw input into a BillingEventOutcome.
func ParseBillingEventOutcome(value string) (BillingEventOutcome, error) {
	for _, candidate := range validBillingEventOutcomes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billing event outcome %q", value)
}
