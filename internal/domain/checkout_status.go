package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle       CheckoutStatus = "IDLE"
	CheckoutStatusSubmitting CheckoutStatus = "SUBMITTING"
	CheckoutStatusSucceeded  CheckoutStatus = "SUCCEEDED"
	CheckoutStatusFailed     CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var legalTransitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:       {CheckoutStatusSubmitting},
	CheckoutStatusSubmitting: {CheckoutStatusSucceeded, CheckoutStatusFailed},
	// Failed returns to Idle so the user can retry; Succeeded is terminal.
	CheckoutStatusFailed: {CheckoutStatusIdle},
}

func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
