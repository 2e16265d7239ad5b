// Package message stores the question and answer turns of a project chat.
package message

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/domain/retrieval"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	ProjectID      uuid.UUID
	Role           Role
	Content        string
	TokensIn       int64
	TokensOut      int64
	IdempotencyKey string
	Citations      []retrieval.Citation
	CreatedAt      time.Time
}

// NewUserMessage records a question as asked.
func NewUserMessage(tenantID, projectID uuid.UUID, question, idempotencyKey string) *Message {
	return &Message{
		ID:             uuid.New(),
		TenantID:       tenantID,
		ProjectID:      projectID,
		Role:           RoleUser,
		Content:        question,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
}

// NewAssistantMessage records a provider answer with its token usage.
func NewAssistantMessage(tenantID, projectID uuid.UUID, answer retrieval.Answer) *Message {
	return &Message{
		ID:        uuid.New(),
		TenantID:  tenantID,
		ProjectID: projectID,
		Role:      RoleAssistant,
		Content:   answer.Text,
		TokensIn:  answer.TokensIn,
		TokensOut: answer.TokensOut,
		Citations: answer.Citations,
		CreatedAt: time.Now().UTC(),
	}
}

type Repository interface {
	Create(ctx context.Context, m *Message) error
	ListForProject(ctx context.Context, tenantID, projectID uuid.UUID, limit int) ([]*Message, error)
}
