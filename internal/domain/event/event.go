package event

import (
	"time"

	"github.com/rcarvalho-pb/payment_lifecycle-go/internal/domain/payment"
)

// PaymentTransition is published once per successful status change. It is
// ephemeral: the bus never stores it and delivery is at-most-once.
type PaymentTransition struct {
	PaymentID  string
	From       payment.Status
	To         payment.Status
	OccurredAt time.Time
	Context    map[string]string
}
