// Package usecases summarizes ledger usage for operators.
package usecases

import (
	"context"
	"time"

	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/infrastructure/metrics"
	"github.com/docsphere/docsphere/internal/shared/biztime"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// UsageGauges publishes the report totals.
type UsageGauges interface {
	SetDailyUsage(u metrics.DailyUsage)
}

// ReportDailyUsageUseCase logs each tenant's totals for the previous
// business day and publishes the sums.
type ReportDailyUsageUseCase struct {
	ledger usage.Ledger
	gauges UsageGauges
	today  func() time.Time
	logger logger.Interface
}

func NewReportDailyUsageUseCase(ledger usage.Ledger, gauges UsageGauges, logger logger.Interface) *ReportDailyUsageUseCase {
	return &ReportDailyUsageUseCase{
		ledger: ledger,
		gauges: gauges,
		today:  biztime.Today,
		logger: logger,
	}
}

// ReportDailyUsage satisfies scheduler.UsageReporter.
func (uc *ReportDailyUsageUseCase) ReportDailyUsage(ctx context.Context) error {
	_, err := uc.Execute(ctx, uc.today().AddDate(0, 0, -1))
	return err
}

func (uc *ReportDailyUsageUseCase) Execute(ctx context.Context, date time.Time) (metrics.DailyUsage, error) {
	totals, err := uc.ledger.TotalsForDate(ctx, date)
	if err != nil {
		uc.logger.Errorw("failed to load daily usage", "date", biztime.FormatDate(date), "error", err)
		return metrics.DailyUsage{}, err
	}

	sum := metrics.DailyUsage{Tenants: len(totals)}
	for _, t := range totals {
		uc.logger.Infow("tenant daily usage",
			"date", biztime.FormatDate(date),
			"tenant_id", t.TenantID,
			"messages", t.MessagesCount,
			"tokens_in", t.TokensIn,
			"tokens_out", t.TokensOut,
			"chars_uploaded", t.CharsUploaded,
		)
		sum.Messages += t.MessagesCount
		sum.TokensIn += t.TokensIn
		sum.TokensOut += t.TokensOut
		sum.CharsUploaded += t.CharsUploaded
	}

	if uc.gauges != nil {
		uc.gauges.SetDailyUsage(sum)
	}

	uc.logger.Infow("daily usage report",
		"date", biztime.FormatDate(date),
		"tenants", sum.Tenants,
		"messages", sum.Messages,
		"chars_uploaded", sum.CharsUploaded,
	)
	return sum, nil
}
