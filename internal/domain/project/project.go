// Package project models a tenant-scoped chatbot backed by one provider
// vector store.
package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxNameLength = 255

var (
	ErrInvalidName         = errors.New("invalid project name")
	ErrVectorStoreAssigned = errors.New("project already has a vector store")
	ErrEmptyVectorStoreID  = errors.New("vector store id cannot be empty")
)

type Project struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	name          string
	vectorStoreID string
	createdAt     time.Time
}

func NewProject(tenantID uuid.UUID, name string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, fmt.Errorf("%w: must be 1-%d characters", ErrInvalidName, maxNameLength)
	}
	return &Project{
		id:        uuid.New(),
		tenantID:  tenantID,
		name:      name,
		createdAt: time.Now().UTC(),
	}, nil
}

func ReconstructProject(id, tenantID uuid.UUID, name, vectorStoreID string, createdAt time.Time) *Project {
	return &Project{
		id:            id,
		tenantID:      tenantID,
		name:          name,
		vectorStoreID: vectorStoreID,
		createdAt:     createdAt,
	}
}

func (p *Project) ID() uuid.UUID         { return p.id }
func (p *Project) TenantID() uuid.UUID   { return p.tenantID }
func (p *Project) Name() string          { return p.name }
func (p *Project) VectorStoreID() string { return p.vectorStoreID }
func (p *Project) CreatedAt() time.Time  { return p.createdAt }

// OwnedBy reports whether tenantID owns the project.
func (p *Project) OwnedBy(tenantID uuid.UUID) bool {
	return p.tenantID == tenantID
}

func (p *Project) HasVectorStore() bool {
	return p.vectorStoreID != ""
}

// AssignVectorStore records the provider store backing this project. It can
// only be set once.
func (p *Project) AssignVectorStore(id string) error {
	if id == "" {
		return ErrEmptyVectorStoreID
	}
	if p.vectorStoreID != "" {
		return ErrVectorStoreAssigned
	}
	p.vectorStoreID = id
	return nil
}

// StoreName is the provider-side name for this project's vector store.
func (p *Project) StoreName() string {
	return "proj_" + p.id.String()
}

// Repository persists projects. Lookups return (nil, nil) when absent.
type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	GetByTenantAndName(ctx context.Context, tenantID uuid.UUID, name string) (*Project, error)
	SetVectorStoreID(ctx context.Context, p *Project) error
	CountForTenant(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
