package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription is a tenant's single current plan selection. It is replaced
// wholesale on re-subscribe.
type Subscription struct {
	tenantID  uuid.UUID
	planID    string
	cycle     BillingCycle
	period    Period
	updatedAt time.Time
}

// NewSubscription starts a subscription on today's date for the given cycle.
func NewSubscription(tenantID uuid.UUID, planID string, cycle BillingCycle, today time.Time) (*Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, ErrInvalidTenant
	}
	if planID == "" {
		return nil, ErrInvalidPlan
	}
	period, err := NewPeriod(today, cycle)
	if err != nil {
		return nil, err
	}
	return &Subscription{
		tenantID:  tenantID,
		planID:    planID,
		cycle:     cycle,
		period:    period,
		updatedAt: time.Now().UTC(),
	}, nil
}

func ReconstructSubscription(tenantID uuid.UUID, planID string, cycle BillingCycle, periodStart, periodEnd, updatedAt time.Time) (*Subscription, error) {
	period, err := ReconstructPeriod(periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	return &Subscription{
		tenantID:  tenantID,
		planID:    planID,
		cycle:     cycle,
		period:    period,
		updatedAt: updatedAt,
	}, nil
}

func (s *Subscription) TenantID() uuid.UUID  { return s.tenantID }
func (s *Subscription) PlanID() string       { return s.planID }
func (s *Subscription) Cycle() BillingCycle  { return s.cycle }
func (s *Subscription) UpdatedAt() time.Time { return s.updatedAt }

// CurrentPeriod is the authoritative window for all usage queries.
func (s *Subscription) CurrentPeriod() Period { return s.period }
