package domain

// CheckoutState tracks a single checkout attempt. It is never persisted.
type CheckoutState string

const (
	CheckoutStateStart         CheckoutState = "START"
	CheckoutStateQuoted        CheckoutState = "QUOTED"
	CheckoutStateIntentCreated CheckoutState = "INTENT_CREATED"
	CheckoutStateFailed        CheckoutState = "FAILED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateIntentCreated || s == CheckoutStateFailed
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

var allowedTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateStart:  {CheckoutStateQuoted, CheckoutStateFailed},
	CheckoutStateQuoted: {CheckoutStateIntentCreated, CheckoutStateFailed},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
