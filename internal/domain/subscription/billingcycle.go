package subscription

// BillingCycle is the renewal cadence of a subscription.
type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleAnnual  BillingCycle = "annual"
)

// ParseBillingCycle accepts exactly "monthly" or "annual".
func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(s) {
	case BillingCycleMonthly, BillingCycleAnnual:
		return BillingCycle(s), nil
	default:
		return "", ErrInvalidBillingCycle
	}
}

func (c BillingCycle) String() string {
	return string(c)
}
