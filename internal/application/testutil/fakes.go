// Package testutil provides in-memory fakes of the domain ports for use
// case and handler tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/domain/message"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/tenant"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
)

// Day returns a calendar date at UTC midnight.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MustPlan builds a plan or panics.
func MustPlan(id string, maxProjects, messageCap, charCap int64) *subscription.Plan {
	p, err := subscription.NewPlan(id, id, maxProjects, messageCap, charCap, true)
	if err != nil {
		panic(err)
	}
	return p
}

// NoTx runs fn directly.
type NoTx struct{}

func (NoTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type TenantRepo struct {
	mu      sync.Mutex
	Tenants map[uuid.UUID]*tenant.Tenant
}

func NewTenantRepo() *TenantRepo {
	return &TenantRepo{Tenants: map[uuid.UUID]*tenant.Tenant{}}
}

func (r *TenantRepo) Create(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Tenants[t.ID()] = t
	return nil
}

func (r *TenantRepo) Get(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Tenants[id], nil
}

func (r *TenantRepo) UpdatePlan(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Tenants[t.ID()]; !ok {
		return tenant.ErrNotFound
	}
	r.Tenants[t.ID()] = t
	return nil
}

func (r *TenantRepo) ListIDs(context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(r.Tenants))
	for id := range r.Tenants {
		ids = append(ids, id)
	}
	return ids, nil
}

type PlanRepo struct {
	mu    sync.Mutex
	Plans map[string]*subscription.Plan
}

func NewPlanRepo(plans ...*subscription.Plan) *PlanRepo {
	r := &PlanRepo{Plans: map[string]*subscription.Plan{}}
	for _, p := range plans {
		r.Plans[p.ID()] = p
	}
	return r
}

func (r *PlanRepo) Get(_ context.Context, id string) (*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Plans[id], nil
}

func (r *PlanRepo) List(context.Context) ([]*subscription.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*subscription.Plan, 0, len(r.Plans))
	for _, p := range r.Plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaxProjects() < out[j].MaxProjects() })
	return out, nil
}

func (r *PlanRepo) Upsert(_ context.Context, p *subscription.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Plans[p.ID()] = p
	return nil
}

type SubscriptionRepo struct {
	mu   sync.Mutex
	Subs map[uuid.UUID]*subscription.Subscription
}

func NewSubscriptionRepo() *SubscriptionRepo {
	return &SubscriptionRepo{Subs: map[uuid.UUID]*subscription.Subscription{}}
}

func (r *SubscriptionRepo) Get(_ context.Context, tenantID uuid.UUID) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Subs[tenantID], nil
}

func (r *SubscriptionRepo) Upsert(_ context.Context, s *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Subs[s.TenantID()] = s
	return nil
}

type ProjectRepo struct {
	mu       sync.Mutex
	Projects map[uuid.UUID]*project.Project
}

func NewProjectRepo() *ProjectRepo {
	return &ProjectRepo{Projects: map[uuid.UUID]*project.Project{}}
}

func (r *ProjectRepo) Create(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Projects {
		if existing.TenantID() == p.TenantID() && existing.Name() == p.Name() {
			return fmt.Errorf("failed to create project: UNIQUE constraint failed: projects.tenant_id, projects.name")
		}
	}
	r.Projects[p.ID()] = p
	return nil
}

func (r *ProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.Projects[id]
	if !ok {
		return nil, nil
	}
	return project.ReconstructProject(p.ID(), p.TenantID(), p.Name(), p.VectorStoreID(), p.CreatedAt()), nil
}

func (r *ProjectRepo) GetByTenantAndName(_ context.Context, tenantID uuid.UUID, name string) (*project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Projects {
		if p.TenantID() == tenantID && p.Name() == name {
			return p, nil
		}
	}
	return nil, nil
}

func (r *ProjectRepo) SetVectorStoreID(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.Projects[p.ID()]
	if !ok || stored.HasVectorStore() {
		return project.ErrVectorStoreAssigned
	}
	r.Projects[p.ID()] = project.ReconstructProject(p.ID(), p.TenantID(), p.Name(), p.VectorStoreID(), p.CreatedAt())
	return nil
}

func (r *ProjectRepo) CountForTenant(_ context.Context, tenantID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.Projects {
		if p.TenantID() == tenantID {
			n++
		}
	}
	return n, nil
}

type ledgerKey struct {
	date      time.Time
	tenantID  uuid.UUID
	projectID uuid.UUID
}

// Ledger is an in-memory usage.Ledger. Rows are written on the date
// returned by Today.
type Ledger struct {
	mu    sync.Mutex
	rows  map[ledgerKey]*usage.Counters
	Today func() time.Time
}

func NewLedger(today time.Time) *Ledger {
	return &Ledger{rows: map[ledgerKey]*usage.Counters{}, Today: func() time.Time { return today }}
}

func (l *Ledger) row(tenantID, projectID uuid.UUID) *usage.Counters {
	k := ledgerKey{date: l.Today(), tenantID: tenantID, projectID: projectID}
	c, ok := l.rows[k]
	if !ok {
		c = &usage.Counters{}
		l.rows[k] = c
	}
	return c
}

func (l *Ledger) IncrementMessage(_ context.Context, tenantID, projectID uuid.UUID, tokensIn, tokensOut int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c := l.row(tenantID, projectID)
	c.MessagesCount++
	c.TokensIn += tokensIn
	c.TokensOut += tokensOut
	return nil
}

func (l *Ledger) RecordUploadChars(_ context.Context, tenantID, projectID uuid.UUID, chars int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.row(tenantID, projectID).CharsUploaded += chars
	return nil
}

// Seed adds counters on an arbitrary date.
func (l *Ledger) Seed(date time.Time, tenantID, projectID uuid.UUID, c usage.Counters) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[ledgerKey{date: date, tenantID: tenantID, projectID: projectID}] = &c
}

func (l *Ledger) sum(tenantID uuid.UUID, projectID *uuid.UUID, period subscription.Period, pick func(*usage.Counters) int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	var total int64
	for k, c := range l.rows {
		if k.tenantID != tenantID || !period.Contains(k.date) {
			continue
		}
		if projectID != nil && k.projectID != *projectID {
			continue
		}
		total += pick(c)
	}
	return total
}

func (l *Ledger) MessagesInPeriod(_ context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error) {
	return l.sum(tenantID, nil, period, func(c *usage.Counters) int64 { return c.MessagesCount }), nil
}

func (l *Ledger) CharsUploadedInPeriod(_ context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error) {
	return l.sum(tenantID, nil, period, func(c *usage.Counters) int64 { return c.CharsUploaded }), nil
}

func (l *Ledger) CharsUploadedForProjectInPeriod(_ context.Context, tenantID, projectID uuid.UUID, period subscription.Period) (int64, error) {
	return l.sum(tenantID, &projectID, period, func(c *usage.Counters) int64 { return c.CharsUploaded }), nil
}

func (l *Ledger) TotalsForDate(_ context.Context, date time.Time) ([]usage.TenantTotals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	byTenant := map[uuid.UUID]*usage.TenantTotals{}
	for k, c := range l.rows {
		if !k.date.Equal(date) {
			continue
		}
		t, ok := byTenant[k.tenantID]
		if !ok {
			t = &usage.TenantTotals{TenantID: k.tenantID}
			byTenant[k.tenantID] = t
		}
		t.MessagesCount += c.MessagesCount
		t.TokensIn += c.TokensIn
		t.TokensOut += c.TokensOut
		t.CharsUploaded += c.CharsUploaded
	}
	out := make([]usage.TenantTotals, 0, len(byTenant))
	for _, t := range byTenant {
		out = append(out, *t)
	}
	return out, nil
}

type MessageRepo struct {
	mu       sync.Mutex
	Messages []*message.Message
}

func (r *MessageRepo) Create(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, m)
	return nil
}

func (r *MessageRepo) ListForProject(_ context.Context, tenantID, projectID uuid.UUID, limit int) ([]*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*message.Message, 0)
	for i := len(r.Messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := r.Messages[i]
		if m.TenantID == tenantID && m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

// Provider is a scripted retrieval.Provider that counts its calls.
type Provider struct {
	mu sync.Mutex

	StoreID   string
	Answer    retrieval.Answer
	Files     []retrieval.StoreFile
	QueryErr  error
	UploadErr error

	CreateCalls int
	UploadCalls int
	AttachCalls int
	QueryCalls  int
	Removed     []string
}

func (p *Provider) CreateStore(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CreateCalls++
	if p.StoreID == "" {
		return "vs_test", nil
	}
	return p.StoreID, nil
}

func (p *Provider) UploadFiles(_ context.Context, files []retrieval.File) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.UploadCalls++
	if p.UploadErr != nil {
		return nil, p.UploadErr
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = "file-" + f.Name
	}
	return ids, nil
}

func (p *Provider) AttachFiles(_ context.Context, _ string, fileIDs []string) (*retrieval.Batch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.AttachCalls++
	return &retrieval.Batch{
		ID:     "vsfb_test",
		Status: "completed",
		FileCounts: retrieval.FileCounts{
			Completed: len(fileIDs),
			Total:     len(fileIDs),
		},
	}, nil
}

func (p *Provider) ListFiles(context.Context, string) ([]retrieval.StoreFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Files, nil
}

func (p *Provider) RemoveFile(_ context.Context, _, fileID string, _ bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Removed = append(p.Removed, fileID)
	return nil
}

func (p *Provider) Query(context.Context, []string, string, string) (*retrieval.Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.QueryCalls++
	if p.QueryErr != nil {
		return nil, p.QueryErr
	}
	a := p.Answer
	return &a, nil
}

// Limiter admits Limit requests per tenant, then denies.
type Limiter struct {
	mu     sync.Mutex
	Limit  int
	counts map[string]int
}

func NewLimiter(limit int) *Limiter {
	return &Limiter{Limit: limit, counts: map[string]int{}}
}

func (l *Limiter) Allow(_ context.Context, tenantID string) (ratelimit.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[tenantID]++
	n := l.counts[tenantID]
	remaining := l.Limit - n
	if remaining < 0 {
		remaining = 0
	}
	return ratelimit.Result{
		Allowed:    n <= l.Limit,
		Limit:      l.Limit,
		Remaining:  remaining,
		RetryAfter: 30 * time.Second,
	}, nil
}

// NextWindow clears all counts.
func (l *Limiter) NextWindow() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts = map[string]int{}
}

type Guard struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func NewGuard() *Guard {
	return &Guard{claimed: map[string]bool{}}
}

func (g *Guard) Claim(_ context.Context, tenantID, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := tenantID + ":" + key
	if g.claimed[k] {
		return false, nil
	}
	g.claimed[k] = true
	return true, nil
}

// DefaultAnswer is the scripted provider reply.
func DefaultAnswer() retrieval.Answer {
	return retrieval.Answer{
		Text:      "Refunds are accepted within **30 days**.",
		TokensIn:  100,
		TokensOut: 12,
		Citations: []retrieval.Citation{{FileID: "file-1", Filename: "policy.md"}},
	}
}
