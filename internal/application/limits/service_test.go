package limits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/infrastructure/ratelimit"
	apperrors "github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type stubLimiter struct {
	result ratelimit.Result
	err    error
}

func (s *stubLimiter) Allow(context.Context, string) (ratelimit.Result, error) {
	return s.result, s.err
}

type stubGuard struct {
	claimed map[string]bool
	err     error
}

func (s *stubGuard) Claim(_ context.Context, tenantID, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if key == "" {
		return true, nil
	}
	k := tenantID + ":" + key
	if s.claimed[k] {
		return false, nil
	}
	s.claimed[k] = true
	return true, nil
}

type stubSubscriptions struct {
	sub *subscription.Subscription
}

func (s *stubSubscriptions) Get(context.Context, uuid.UUID) (*subscription.Subscription, error) {
	return s.sub, nil
}

func (s *stubSubscriptions) Upsert(context.Context, *subscription.Subscription) error { return nil }

type stubPlans struct {
	plan *subscription.Plan
}

func (s *stubPlans) Get(context.Context, string) (*subscription.Plan, error) { return s.plan, nil }
func (s *stubPlans) List(context.Context) ([]*subscription.Plan, error)      { return nil, nil }
func (s *stubPlans) Upsert(context.Context, *subscription.Plan) error         { return nil }

type recordedDecision struct{ gate, outcome string }

type spyRecorder struct {
	decisions  []recordedDecision
	denied     int
	duplicates int
}

func (s *spyRecorder) ObserveQuotaDecision(gate, outcome string) {
	s.decisions = append(s.decisions, recordedDecision{gate, outcome})
}
func (s *spyRecorder) IncRateLimitDenied()  { s.denied++ }
func (s *spyRecorder) IncDuplicateRequest() { s.duplicates++ }

func newService(limiter RateLimiter, guard IdempotencyGuard, subs *stubSubscriptions, plans *stubPlans, rec DecisionRecorder) *Service {
	return NewService(limiter, guard, subs, plans, rec, logger.NewNopLogger())
}

func TestService_CheckRate(t *testing.T) {
	tenantID := uuid.New()

	t.Run("allowed reports headers", func(t *testing.T) {
		limiter := &stubLimiter{result: ratelimit.Result{Allowed: true, Limit: 60, Remaining: 59, RetryAfter: 30 * time.Second}}
		s := newService(limiter, nil, nil, nil, nil)

		var reported []ratelimit.Result
		ctx := WithRateReporter(context.Background(), func(r ratelimit.Result) { reported = append(reported, r) })

		require.NoError(t, s.CheckRate(ctx, tenantID))
		require.Len(t, reported, 1)
		assert.Equal(t, 59, reported[0].Remaining)
	})

	t.Run("denied", func(t *testing.T) {
		rec := &spyRecorder{}
		limiter := &stubLimiter{result: ratelimit.Result{Allowed: false, Limit: 60}}
		s := newService(limiter, nil, nil, nil, rec)

		err := s.CheckRate(context.Background(), tenantID)
		require.Error(t, err)
		assert.True(t, apperrors.IsRateLimitedError(err))
		assert.Equal(t, quota.OutcomeRateLimitExceeded.String(), apperrors.ReasonOf(err))
		assert.Equal(t, 1, rec.denied)
	})

	t.Run("limiter failure is internal", func(t *testing.T) {
		s := newService(&stubLimiter{err: errors.New("redis down")}, nil, nil, nil, nil)
		err := s.CheckRate(context.Background(), tenantID)
		require.Error(t, err)
		assert.False(t, apperrors.IsRateLimitedError(err))
	})
}

func TestService_ClaimIdempotency(t *testing.T) {
	rec := &spyRecorder{}
	s := newService(nil, &stubGuard{claimed: map[string]bool{}}, nil, nil, rec)
	tenantID := uuid.New()

	require.NoError(t, s.ClaimIdempotency(context.Background(), tenantID, "abc"))
	err := s.ClaimIdempotency(context.Background(), tenantID, "abc")
	require.Error(t, err)
	assert.True(t, apperrors.IsDuplicateRequestError(err))
	assert.Equal(t, 1, rec.duplicates)

	require.NoError(t, s.ClaimIdempotency(context.Background(), uuid.New(), "abc"), "keys are tenant scoped")
	require.NoError(t, s.ClaimIdempotency(context.Background(), tenantID, ""))
	require.NoError(t, s.ClaimIdempotency(context.Background(), tenantID, ""))

	t.Run("guard failure fails closed", func(t *testing.T) {
		s := newService(nil, &stubGuard{err: errors.New("redis down")}, nil, nil, nil)
		assert.Error(t, s.ClaimIdempotency(context.Background(), tenantID, "k"))
	})
}

func TestService_RequireSubscriptionAndPlan(t *testing.T) {
	tenantID := uuid.New()
	sub, err := subscription.NewSubscription(tenantID, "pro", subscription.BillingCycleMonthly, time.Now())
	require.NoError(t, err)
	plan, err := subscription.NewPlan("pro", "Pro", 5, 10000, 2000000, true)
	require.NoError(t, err)

	t.Run("no subscription", func(t *testing.T) {
		s := newService(nil, nil, &stubSubscriptions{}, &stubPlans{}, nil)
		_, err := s.RequireSubscription(context.Background(), tenantID)
		require.Error(t, err)
		assert.True(t, apperrors.IsForbiddenError(err))
		assert.Equal(t, quota.OutcomeNoActiveSubscription.String(), apperrors.ReasonOf(err))
	})

	t.Run("missing plan is an inconsistency", func(t *testing.T) {
		s := newService(nil, nil, &stubSubscriptions{sub: sub}, &stubPlans{}, nil)
		got, err := s.RequireSubscription(context.Background(), tenantID)
		require.NoError(t, err)

		_, err = s.RequirePlan(context.Background(), got)
		require.Error(t, err)
		assert.Equal(t, quota.OutcomePlanDataMissing.String(), apperrors.ReasonOf(err))
		assert.Equal(t, 500, apperrors.GetAppError(err).Code)
	})

	t.Run("resolved", func(t *testing.T) {
		s := newService(nil, nil, &stubSubscriptions{sub: sub}, &stubPlans{plan: plan}, nil)
		got, err := s.RequirePlan(context.Background(), sub)
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.MaxProjects())
	})
}

func TestService_Enforce(t *testing.T) {
	rec := &spyRecorder{}
	s := newService(nil, nil, nil, nil, rec)
	limits := quota.Limits{MaxProjects: 1, MonthlyMessageCap: 3, MonthlyUploadCharCap: 10}

	require.NoError(t, s.Enforce(uuid.New(), GateMessage, quota.EvaluateMessage(2, limits)))

	err := s.Enforce(uuid.New(), GateUpload, quota.EvaluateUpload(5, 6, limits))
	require.Error(t, err)
	assert.True(t, apperrors.IsQuotaExceededError(err))
	assert.Equal(t, quota.MsgUploadCapExceeded, apperrors.GetAppError(err).Message)

	assert.Equal(t, []recordedDecision{
		{GateMessage, "allowed"},
		{GateUpload, "upload_cap_exceeded"},
	}, rec.decisions)
}
