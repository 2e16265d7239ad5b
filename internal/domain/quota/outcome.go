// Package quota holds the pure plan-enforcement decisions: given plan limits
// and current usage, may a project be created, an upload accepted, or a
// question asked.
package quota

import (
	"github.com/docsphere/docsphere/internal/shared/errors"
)

// Outcome is a stable, machine-checkable decision category.
type Outcome string

const (
	OutcomeAllowed              Outcome = "allowed"
	OutcomeProjectLimitReached  Outcome = "project_limit_reached"
	OutcomeUploadCapExceeded    Outcome = "upload_cap_exceeded"
	OutcomeMessageCapReached    Outcome = "message_cap_reached"
	OutcomeRateLimitExceeded    Outcome = "rate_limit_exceeded"
	OutcomeDuplicateRequest     Outcome = "duplicate_request"
	OutcomeNoActiveSubscription Outcome = "no_active_subscription"
	OutcomePlanDataMissing      Outcome = "plan_data_missing"
)

// User-facing messages for each denial.
const (
	MsgProjectLimitReached  = "Project limit reached for your plan. Upgrade to add more chatbots."
	MsgUploadCapExceeded    = "Upload character cap exceeded for this billing period. Upgrade your plan."
	MsgMessageCapReached    = "Monthly message cap reached. Upgrade plan."
	MsgRateLimitExceeded    = "Rate limit exceeded"
	MsgDuplicateRequest     = "Duplicate request (idempotency)"
	MsgNoActiveSubscription = "No active subscription"
	MsgPlanDataMissing      = "Subscription plan data missing"
)

// Outcomes lists every outcome, in taxonomy order.
var Outcomes = []Outcome{
	OutcomeAllowed,
	OutcomeProjectLimitReached,
	OutcomeUploadCapExceeded,
	OutcomeMessageCapReached,
	OutcomeRateLimitExceeded,
	OutcomeDuplicateRequest,
	OutcomeNoActiveSubscription,
	OutcomePlanDataMissing,
}

func (o Outcome) String() string { return string(o) }

// Error maps a denial outcome onto the application error taxonomy.
// It returns nil for OutcomeAllowed.
func (o Outcome) Error() *errors.AppError {
	r := string(o)
	switch o {
	case OutcomeAllowed:
		return nil
	case OutcomeProjectLimitReached:
		return errors.NewQuotaExceededError(r, MsgProjectLimitReached)
	case OutcomeUploadCapExceeded:
		return errors.NewQuotaExceededError(r, MsgUploadCapExceeded)
	case OutcomeMessageCapReached:
		return errors.NewQuotaExceededError(r, MsgMessageCapReached)
	case OutcomeRateLimitExceeded:
		return errors.NewRateLimitedError(r, MsgRateLimitExceeded)
	case OutcomeDuplicateRequest:
		return errors.NewDuplicateRequestError(r, MsgDuplicateRequest)
	case OutcomeNoActiveSubscription:
		return errors.NewForbiddenError(MsgNoActiveSubscription).WithReason(r)
	case OutcomePlanDataMissing:
		return errors.NewInternalInconsistencyError(r, MsgPlanDataMissing)
	default:
		return errors.NewInternalError("unknown quota outcome", r)
	}
}
