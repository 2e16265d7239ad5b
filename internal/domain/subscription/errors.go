package subscription

import "errors"

var (
	ErrInvalidBillingCycle = errors.New("invalid billing cycle")
	ErrInvalidPeriod       = errors.New("period start must be before period end")
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrInvalidTenant       = errors.New("tenant id cannot be empty")
)
