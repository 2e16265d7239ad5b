package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// Fixture wires every fake behind a real limits.Service.
type Fixture struct {
	Today    time.Time
	Tenants  *TenantRepo
	Plans    *PlanRepo
	Subs     *SubscriptionRepo
	Projects *ProjectRepo
	Ledger   *Ledger
	Messages *MessageRepo
	Provider *Provider
	Limiter  *Limiter
	Guard    *Guard
	Limits   *limits.Service
	Logger   logger.Interface
}

func NewFixture(today time.Time, rpm int, plans ...*subscription.Plan) *Fixture {
	f := &Fixture{
		Today:    today,
		Tenants:  NewTenantRepo(),
		Plans:    NewPlanRepo(plans...),
		Subs:     NewSubscriptionRepo(),
		Projects: NewProjectRepo(),
		Ledger:   NewLedger(today),
		Messages: &MessageRepo{},
		Provider: &Provider{Answer: DefaultAnswer()},
		Limiter:  NewLimiter(rpm),
		Guard:    NewGuard(),
		Logger:   logger.NewNopLogger(),
	}
	f.Limits = limits.NewService(f.Limiter, f.Guard, f.Subs, f.Plans, nil, f.Logger)
	return f
}

// NewTenant stores a tenant subscribed monthly to planID from Today. An
// empty planID leaves the tenant unsubscribed.
func (f *Fixture) NewTenant(planID string) uuid.UUID {
	t, err := tenant.NewTenant("acme", planID, 0)
	if err != nil {
		panic(err)
	}
	_ = f.Tenants.Create(context.Background(), t)
	if planID != "" {
		f.Subscribe(t.ID(), planID)
	}
	return t.ID()
}

func (f *Fixture) Subscribe(tenantID uuid.UUID, planID string) *subscription.Subscription {
	sub, err := subscription.NewSubscription(tenantID, planID, subscription.BillingCycleMonthly, f.Today)
	if err != nil {
		panic(err)
	}
	_ = f.Subs.Upsert(context.Background(), sub)
	return sub
}

// NewProject stores a project; an empty storeID leaves it without a
// vector store.
func (f *Fixture) NewProject(tenantID uuid.UUID, name, storeID string) *project.Project {
	p, err := project.NewProject(tenantID, name)
	if err != nil {
		panic(err)
	}
	if storeID != "" {
		_ = p.AssignVectorStore(storeID)
	}
	_ = f.Projects.Create(context.Background(), p)
	return p
}
