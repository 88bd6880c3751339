package alert

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound means the webhook key resolved to no active alert.
	ErrConfigNotFound = errors.New("alert config not found or inactive")

	// ErrTargetInactive means the alert resolved but its Telegram target is
	// disabled.
	ErrTargetInactive = errors.New("telegram target is inactive")

	// ErrTargetInUse blocks deletion of a target that alerts still reference.
	ErrTargetInUse = errors.New("target is referenced by existing alerts")

	// ErrNotFound is the generic missing-entity error for admin operations.
	ErrNotFound = errors.New("not found")
)

// DeliveryError carries the messaging provider's failure detail. It is
// recorded in the notification log and surfaced to the webhook caller; it is
// never fatal to the poller.
type DeliveryError struct {
	Detail string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery failed: %s", e.Detail)
}

// IsDelivery reports whether err is a delivery failure.
func IsDelivery(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
