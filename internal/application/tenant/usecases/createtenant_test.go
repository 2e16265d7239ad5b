package usecases

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsphere/docsphere/internal/application/testutil"
	"github.com/docsphere/docsphere/internal/shared/errors"
)

type stubIssuer struct {
	err    error
	issued []uuid.UUID
}

func (s *stubIssuer) Issue(tenantID uuid.UUID) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	s.issued = append(s.issued, tenantID)
	return "token-" + tenantID.String(), time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), nil
}

func newCreateTenant(f *testutil.Fixture, tokens TokenIssuer) *CreateTenantUseCase {
	uc := NewCreateTenantUseCase(f.Tenants, f.Plans, f.Subs, testutil.NoTx{}, tokens, f.Logger)
	uc.today = func() time.Time { return f.Today }
	return uc
}

func TestCreateTenant_Defaults(t *testing.T) {
	f := testutil.NewFixture(testutil.Day(2025, 3, 10), 60, testutil.MustPlan("hobby", 1, 100, 50000))
	tokens := &stubIssuer{}

	res, err := newCreateTenant(f, tokens).Execute(context.Background(), CreateTenantCommand{Name: " Acme "})
	require.NoError(t, err)
	assert.Equal(t, "Acme", res.Name)
	assert.Equal(t, "hobby", res.Plan.ID)
	assert.Equal(t, "monthly", res.BillingCycle)
	assert.Equal(t, "2025-03-10", res.Period.Start)
	assert.Equal(t, "2025-04-10", res.Period.End)
	require.NotNil(t, res.ExpiresAt)
	assert.Equal(t, "token-"+res.TenantID, res.AccessToken)

	id := uuid.MustParse(res.TenantID)
	sub, err := f.Subs.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "hobby", sub.PlanID())

	tn, err := f.Tenants.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), tn.PlanMessages())
}

func TestCreateTenant_WithoutIssuer(t *testing.T) {
	f := testutil.NewFixture(testutil.Day(2025, 3, 10), 60, testutil.MustPlan("pro", 10, 5000, 2000000))

	res, err := newCreateTenant(f, nil).Execute(context.Background(),
		CreateTenantCommand{Name: "Acme", PlanID: "pro", BillingCycle: "annual"})
	require.NoError(t, err)
	assert.Empty(t, res.AccessToken)
	assert.Nil(t, res.ExpiresAt)
	assert.Equal(t, "2026-03-10", res.Period.End)
}

func TestCreateTenant_Rejections(t *testing.T) {
	f := testutil.NewFixture(testutil.Day(2025, 3, 10), 60, testutil.MustPlan("hobby", 1, 100, 50000))

	tests := []struct {
		name  string
		cmd   CreateTenantCommand
		check func(error) bool
	}{
		{"blank name", CreateTenantCommand{Name: "  "}, errors.IsValidationError},
		{"unknown plan", CreateTenantCommand{Name: "Acme", PlanID: "gold"}, errors.IsNotFoundError},
		{"bad cycle", CreateTenantCommand{Name: "Acme", BillingCycle: "weekly"}, errors.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCreateTenant(f, nil).Execute(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.True(t, tt.check(err))
		})
	}
	ids, err := f.Tenants.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCreateTenant_IssuerFailure(t *testing.T) {
	f := testutil.NewFixture(testutil.Day(2025, 3, 10), 60, testutil.MustPlan("hobby", 1, 100, 50000))
	boom := stderrors.New("signing key unavailable")

	_, err := newCreateTenant(f, &stubIssuer{err: boom}).Execute(context.Background(), CreateTenantCommand{Name: "Acme"})
	assert.ErrorIs(t, err, boom)
}
