// Package tenant models the billing and isolation unit that owns projects,
// usage and a subscription.
package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidName = errors.New("tenant name cannot be empty")
	ErrNotFound    = errors.New("tenant not found")
)

type Tenant struct {
	id           uuid.UUID
	name         string
	planID       string
	planMessages int64
	createdAt    time.Time
}

// NewTenant creates a tenant on planID with its cached message cap.
func NewTenant(name, planID string, planMessages int64) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return &Tenant{
		id:           uuid.New(),
		name:         name,
		planID:       planID,
		planMessages: planMessages,
		createdAt:    time.Now().UTC(),
	}, nil
}

func ReconstructTenant(id uuid.UUID, name, planID string, planMessages int64, createdAt time.Time) *Tenant {
	return &Tenant{
		id:           id,
		name:         name,
		planID:       planID,
		planMessages: planMessages,
		createdAt:    createdAt,
	}
}

func (t *Tenant) ID() uuid.UUID        { return t.id }
func (t *Tenant) Name() string         { return t.name }
func (t *Tenant) PlanID() string       { return t.planID }
func (t *Tenant) PlanMessages() int64  { return t.planMessages }
func (t *Tenant) CreatedAt() time.Time { return t.createdAt }

// ApplyPlan refreshes the denormalized plan fields after a subscribe.
func (t *Tenant) ApplyPlan(planID string, messageCap int64) {
	t.planID = planID
	t.planMessages = messageCap
}

// Repository persists tenants. Get returns (nil, nil) when absent.
type Repository interface {
	Create(ctx context.Context, t *Tenant) error
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)
	UpdatePlan(ctx context.Context, t *Tenant) error
	ListIDs(ctx context.Context) ([]uuid.UUID, error)
}
