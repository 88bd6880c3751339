package marketdata

import (
	"errors"
	"time"
)

// ErrUnavailable means every configured price source failed for a symbol.
// Callers treat the symbol as un-priced for the current cycle; the next
// cycle is the retry mechanism.
var ErrUnavailable = errors.New("price data unavailable")

// Quote is a single observed price for a symbol.
type Quote struct {
	Symbol     string
	Price      float64
	ObservedAt time.Time
}
