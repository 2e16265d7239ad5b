package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/docsphere/docsphere/internal/domain/message"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/infrastructure/persistence/models"
	"github.com/docsphere/docsphere/internal/shared/db"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

func NewMessageRepository(db *gorm.DB, logger logger.Interface) message.Repository {
	return &MessageRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, m *message.Message) error {
	model, err := r.toModel(m)
	if err != nil {
		return err
	}
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create message", "error", err, "project_id", m.ProjectID, "role", m.Role)
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// ListForProject returns the newest messages first.
func (r *MessageRepositoryImpl) ListForProject(ctx context.Context, tenantID, projectID uuid.UUID, limit int) ([]*message.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []*models.MessageModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("tenant_id = ? AND project_id = ?", tenantID.String(), projectID.String()).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list messages", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	out := make([]*message.Message, 0, len(rows))
	for _, row := range rows {
		m, err := r.toEntity(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MessageRepositoryImpl) toModel(m *message.Message) (*models.MessageModel, error) {
	model := &models.MessageModel{
		ID:        m.ID.String(),
		TenantID:  m.TenantID.String(),
		ProjectID: m.ProjectID.String(),
		Role:      string(m.Role),
		Content:   m.Content,
		TokensIn:  m.TokensIn,
		TokensOut: m.TokensOut,
		CreatedAt: m.CreatedAt,
	}
	if m.IdempotencyKey != "" {
		key := m.IdempotencyKey
		model.IdempotencyKey = &key
	}
	if len(m.Citations) > 0 {
		raw, err := json.Marshal(m.Citations)
		if err != nil {
			return nil, fmt.Errorf("failed to encode citations: %w", err)
		}
		model.Citations = datatypes.JSON(raw)
	}
	return model, nil
}

func (r *MessageRepositoryImpl) toEntity(row *models.MessageModel) (*message.Message, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", row.ID, err)
	}
	tenantID, err := uuid.Parse(row.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invalid tenant id on message %s: %w", row.ID, err)
	}
	projectID, err := uuid.Parse(row.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid project id on message %s: %w", row.ID, err)
	}

	m := &message.Message{
		ID:        id,
		TenantID:  tenantID,
		ProjectID: projectID,
		Role:      message.Role(row.Role),
		Content:   row.Content,
		TokensIn:  row.TokensIn,
		TokensOut: row.TokensOut,
		CreatedAt: row.CreatedAt,
	}
	if row.IdempotencyKey != nil {
		m.IdempotencyKey = *row.IdempotencyKey
	}
	if len(row.Citations) > 0 {
		var citations []retrieval.Citation
		if err := json.Unmarshal(row.Citations, &citations); err != nil {
			r.logger.Warnw("failed to decode citations", "error", err, "message_id", row.ID)
		} else {
			m.Citations = citations
		}
	}
	return m, nil
}
