package subscription

import (
	"context"

	"github.com/google/uuid"
)

// PlanRepository reads the plan catalog. Get returns (nil, nil) when the
// plan does not exist.
type PlanRepository interface {
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
	Upsert(ctx context.Context, plan *Plan) error
}

// SubscriptionRepository stores one subscription per tenant. Get returns
// (nil, nil) when the tenant has never subscribed.
type SubscriptionRepository interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)
	Upsert(ctx context.Context, sub *Subscription) error
}
