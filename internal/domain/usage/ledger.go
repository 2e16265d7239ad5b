// Package usage defines the daily usage ledger: per (date, tenant, project)
// counters that are only ever incremented.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/domain/subscription"
)

// Counters is one row, or a sum of rows, of the ledger.
type Counters struct {
	MessagesCount int64
	TokensIn      int64
	TokensOut     int64
	CharsUploaded int64
}

// Record is the ledger row for one calendar day of one project.
type Record struct {
	Date      time.Time
	TenantID  uuid.UUID
	ProjectID uuid.UUID
	Counters
}

// TenantTotals is a per-tenant sum used by reports.
type TenantTotals struct {
	TenantID uuid.UUID
	Counters
}

// Ledger is the atomic usage store. Increments are upserts-with-addition
// and are safe under concurrent callers for the same key. Sums are over
// the half-open period and return 0 when no rows match.
type Ledger interface {
	IncrementMessage(ctx context.Context, tenantID, projectID uuid.UUID, tokensIn, tokensOut int64) error
	RecordUploadChars(ctx context.Context, tenantID, projectID uuid.UUID, chars int64) error

	MessagesInPeriod(ctx context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error)
	CharsUploadedInPeriod(ctx context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error)
	CharsUploadedForProjectInPeriod(ctx context.Context, tenantID, projectID uuid.UUID, period subscription.Period) (int64, error)

	TotalsForDate(ctx context.Context, date time.Time) ([]TenantTotals, error)
}
