package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/biztime"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

// UsageRepositoryImpl is the daily usage ledger. Every write is a single
// INSERT ... ON CONFLICT statement that adds to the existing row, so
// concurrent increments for the same (date, tenant, project) never lose
// updates.
type UsageRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
	today  func() time.Time
}

func NewUsageRepository(db *gorm.DB, logger logger.Interface) usage.Ledger {
	return &UsageRepositoryImpl{
		db:     db,
		logger: logger,
		today:  biztime.Today,
	}
}

func (r *UsageRepositoryImpl) IncrementMessage(ctx context.Context, tenantID, projectID uuid.UUID, tokensIn, tokensOut int64) error {
	row := &models.UsageDailyModel{
		UsageDate:     r.today(),
		TenantID:      tenantID.String(),
		ProjectID:     projectID.String(),
		MessagesCount: 1,
		TokensIn:      tokensIn,
		TokensOut:     tokensOut,
	}
	err := r.upsertAdd(ctx, row, map[string]any{
		"messages_count": gorm.Expr("messages_count + ?", 1),
		"tokens_in":      gorm.Expr("tokens_in + ?", tokensIn),
		"tokens_out":     gorm.Expr("tokens_out + ?", tokensOut),
	})
	if err != nil {
		r.logger.Errorw("failed to record message usage", "error", err, "tenant_id", tenantID, "project_id", projectID)
		return fmt.Errorf("failed to record message usage: %w", err)
	}
	return nil
}

func (r *UsageRepositoryImpl) RecordUploadChars(ctx context.Context, tenantID, projectID uuid.UUID, chars int64) error {
	row := &models.UsageDailyModel{
		UsageDate:     r.today(),
		TenantID:      tenantID.String(),
		ProjectID:     projectID.String(),
		CharsUploaded: chars,
	}
	err := r.upsertAdd(ctx, row, map[string]any{
		"chars_uploaded": gorm.Expr("chars_uploaded + ?", chars),
	})
	if err != nil {
		r.logger.Errorw("failed to record upload usage", "error", err, "tenant_id", tenantID, "project_id", projectID, "chars", chars)
		return fmt.Errorf("failed to record upload usage: %w", err)
	}
	return nil
}

func (r *UsageRepositoryImpl) upsertAdd(ctx context.Context, row *models.UsageDailyModel, additions map[string]any) error {
	return db.GetTxFromContext(ctx, r.db).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "usage_date"},
			{Name: "tenant_id"},
			{Name: "project_id"},
		},
		DoUpdates: clause.Assignments(additions),
	}).Create(row).Error
}

func (r *UsageRepositoryImpl) MessagesInPeriod(ctx context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error) {
	return r.sum(ctx, "messages_count", period,
		"tenant_id = ?", tenantID.String())
}

func (r *UsageRepositoryImpl) CharsUploadedInPeriod(ctx context.Context, tenantID uuid.UUID, period subscription.Period) (int64, error) {
	return r.sum(ctx, "chars_uploaded", period,
		"tenant_id = ?", tenantID.String())
}

func (r *UsageRepositoryImpl) CharsUploadedForProjectInPeriod(ctx context.Context, tenantID, projectID uuid.UUID, period subscription.Period) (int64, error) {
	return r.sum(ctx, "chars_uploaded", period,
		"tenant_id = ? AND project_id = ?", tenantID.String(), projectID.String())
}

// sum totals one counter column over rows in [period.Start, period.End).
func (r *UsageRepositoryImpl) sum(ctx context.Context, column string, period subscription.Period, where string, args ...any) (int64, error) {
	var total int64
	err := db.GetTxFromContext(ctx, r.db).Model(&models.UsageDailyModel{}).
		Select(fmt.Sprintf("COALESCE(SUM(%s), 0)", column)).
		Where(where, args...).
		Where("usage_date >= ? AND usage_date < ?", period.Start, period.End).
		Row().Scan(&total)
	if err != nil {
		r.logger.Errorw("failed to sum usage", "error", err, "column", column, "period", period.String())
		return 0, fmt.Errorf("failed to sum %s: %w", column, err)
	}
	return total, nil
}

type tenantTotalsRow struct {
	TenantID      string
	MessagesCount int64
	TokensIn      int64
	TokensOut     int64
	CharsUploaded int64
}

// TotalsForDate aggregates every tenant's counters for one calendar day.
func (r *UsageRepositoryImpl) TotalsForDate(ctx context.Context, date time.Time) ([]usage.TenantTotals, error) {
	var rows []tenantTotalsRow
	err := db.GetTxFromContext(ctx, r.db).Model(&models.UsageDailyModel{}).
		Select("tenant_id, " +
			"COALESCE(SUM(messages_count), 0) AS messages_count, " +
			"COALESCE(SUM(tokens_in), 0) AS tokens_in, " +
			"COALESCE(SUM(tokens_out), 0) AS tokens_out, " +
			"COALESCE(SUM(chars_uploaded), 0) AS chars_uploaded").
		Where("usage_date = ?", biztime.DateOf(date)).
		Group("tenant_id").
		Order("tenant_id").
		Scan(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to aggregate daily usage", "error", err, "date", biztime.FormatDate(date))
		return nil, fmt.Errorf("failed to aggregate daily usage: %w", err)
	}

	totals := make([]usage.TenantTotals, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.TenantID)
		if err != nil {
			r.logger.Warnw("skipping usage row with malformed tenant id", "tenant_id", row.TenantID)
			continue
		}
		totals = append(totals, usage.TenantTotals{
			TenantID: id,
			Counters: usage.Counters{
				MessagesCount: row.MessagesCount,
				TokensIn:      row.TokensIn,
				TokensOut:     row.TokensOut,
				CharsUploaded: row.CharsUploaded,
			},
		})
	}
	return totals, nil
}
