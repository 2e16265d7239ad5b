package quota

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docsphere/docsphere/internal/shared/errors"
)

var hobby = Limits{MaxProjects: 1, MonthlyMessageCap: 2000, MonthlyUploadCharCap: 500_000}

func TestEvaluateProjectCreation(t *testing.T) {
	tests := []struct {
		name     string
		existing int64
		limits   Limits
		want     Outcome
	}{
		{"no projects yet", 0, hobby, OutcomeAllowed},
		{"at limit", 1, hobby, OutcomeProjectLimitReached},
		{"over limit after downgrade", 4, hobby, OutcomeProjectLimitReached},
		{"zero limit plan", 0, Limits{}, OutcomeProjectLimitReached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := EvaluateProjectCreation(tt.existing, tt.limits)
			assert.Equal(t, tt.want, d.Outcome)
			assert.Equal(t, tt.limits.MaxProjects, d.Limit)
		})
	}
}

func TestEvaluateUpload_BoundaryIsInclusive(t *testing.T) {
	assert.True(t, EvaluateUpload(499_000, 1_000, hobby).Allowed())
	assert.Equal(t, OutcomeUploadCapExceeded, EvaluateUpload(499_000, 1_001, hobby).Outcome)
	assert.True(t, EvaluateUpload(0, 0, hobby).Allowed())
}

func TestEvaluateMessage_AllowsExactlyCapMinusUsed(t *testing.T) {
	limits := Limits{MonthlyMessageCap: 5}
	used := int64(2)

	allowed := 0
	for {
		d := EvaluateMessage(used, limits)
		if !d.Allowed() {
			assert.Equal(t, OutcomeMessageCapReached, d.Outcome)
			break
		}
		allowed++
		used++
	}

	assert.Equal(t, 3, allowed)
}

func TestDecisionErr(t *testing.T) {
	require.NoError(t, EvaluateMessage(0, hobby).Err())

	err := EvaluateMessage(2000, hobby).Err()
	require.Error(t, err)
	appErr := errors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusPaymentRequired, appErr.Code)
	assert.Equal(t, MsgMessageCapReached, appErr.Message)
	assert.Equal(t, "message_cap_reached", appErr.Reason)
}

func TestDecisionRemaining(t *testing.T) {
	assert.Equal(t, int64(1999), EvaluateMessage(0, hobby).Remaining())
	assert.Equal(t, int64(0), EvaluateMessage(2000, hobby).Remaining())
	assert.Equal(t, int64(400_000), EvaluateUpload(50_000, 50_000, hobby).Remaining())
}

func TestOutcomeErrorStatusCodes(t *testing.T) {
	want := map[Outcome]int{
		OutcomeProjectLimitReached:  http.StatusPaymentRequired,
		OutcomeUploadCapExceeded:    http.StatusPaymentRequired,
		OutcomeMessageCapReached:    http.StatusPaymentRequired,
		OutcomeRateLimitExceeded:    http.StatusTooManyRequests,
		OutcomeDuplicateRequest:     http.StatusConflict,
		OutcomeNoActiveSubscription: http.StatusForbidden,
		OutcomePlanDataMissing:      http.StatusInternalServerError,
	}

	assert.Nil(t, OutcomeAllowed.Error())
	for o, code := range want {
		appErr := o.Error()
		require.NotNil(t, appErr, o)
		assert.Equal(t, code, appErr.Code, o)
		assert.Equal(t, string(o), appErr.Reason, o)
	}
}
