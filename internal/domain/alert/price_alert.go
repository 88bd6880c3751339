package alert

import (
	"fmt"
	"strings"
	"time"
)

// Condition selects which side of the target price fires the alert.
type Condition string

const (
	ConditionAbove Condition = "above"
	ConditionBelow Condition = "below"
)

// DefaultPriceTemplate is applied when a price alert is created without a
// custom message template.
const DefaultPriceTemplate = "Price alert: {{symbol}} reached {{current_price}}, target: {{target_price}}"

// PriceAlert is a symbol watch evaluated every poll cycle.
type PriceAlert struct {
	ID              int64
	Name            string
	Symbol          string
	Condition       Condition
	TargetPrice     float64
	MessageTemplate string
	IsActive        bool
	IsOneTime       bool
	IsTriggered     bool
	LastTriggeredAt *time.Time
	TargetID        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate checks required fields before the alert is persisted.
func (a PriceAlert) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("symbol is required")
	}
	switch a.Condition {
	case ConditionAbove, ConditionBelow:
	default:
		return fmt.Errorf("unsupported condition: %s", a.Condition)
	}
	if a.TargetID == 0 {
		return fmt.Errorf("target_id is required")
	}
	return nil
}

// NormalizeSymbol upper-cases and trims a symbol for storage and comparison.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ShouldTrigger reports whether the observed price satisfies the alert
// condition. Comparisons are strict: above fires only when price > target,
// below only when price < target.
func (a PriceAlert) ShouldTrigger(price float64) bool {
	switch a.Condition {
	case ConditionAbove:
		return price > a.TargetPrice
	case ConditionBelow:
		return price < a.TargetPrice
	default:
		return false
	}
}

// Spent reports whether a one-time alert has already fired and must be
// skipped until reset.
func (a PriceAlert) Spent() bool {
	return a.IsOneTime && a.IsTriggered
}
