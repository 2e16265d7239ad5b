package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/message"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

type ListMessagesQuery struct {
	ActorTenantID uuid.UUID
	TenantID      uuid.UUID
	ProjectID     uuid.UUID
	Limit         int
}

type MessageDTO struct {
	ID        string               `json:"id"`
	Role      string               `json:"role"`
	Content   string               `json:"content"`
	TokensIn  int64                `json:"tokens_in"`
	TokensOut int64                `json:"tokens_out"`
	Citations []retrieval.Citation `json:"citations,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// ListMessagesUseCase returns a project's question and answer history,
// newest first.
type ListMessagesUseCase struct {
	projectRepo project.Repository
	messageRepo message.Repository
	logger      logger.Interface
}

func NewListMessagesUseCase(projectRepo project.Repository, messageRepo message.Repository, logger logger.Interface) *ListMessagesUseCase {
	return &ListMessagesUseCase{projectRepo: projectRepo, messageRepo: messageRepo, logger: logger}
}

func (uc *ListMessagesUseCase) Execute(ctx context.Context, q ListMessagesQuery) ([]MessageDTO, error) {
	if err := limits.AuthorizeTenant(q.ActorTenantID, q.TenantID); err != nil {
		return nil, err
	}

	p, err := uc.projectRepo.GetByID(ctx, q.ProjectID)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.OwnedBy(q.TenantID) {
		return nil, errors.NewNotFoundError("Project not found")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	msgs, err := uc.messageRepo.ListForProject(ctx, q.TenantID, p.ID(), limit)
	if err != nil {
		uc.logger.Errorw("failed to list messages", "project_id", p.ID(), "error", err)
		return nil, err
	}

	out := make([]MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, MessageDTO{
			ID:        m.ID.String(),
			Role:      string(m.Role),
			Content:   m.Content,
			TokensIn:  m.TokensIn,
			TokensOut: m.TokensOut,
			Citations: m.Citations,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}
