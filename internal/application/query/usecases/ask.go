// Package usecases answers tenant questions against a project's documents.
package usecases

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/message"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/domain/retrieval"
	"github.com/docsphere/docsphere/internal/domain/usage"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const maxQuestionLength = 4000

// AnswerRenderer turns a Markdown answer into sanitized HTML.
type AnswerRenderer interface {
	Render(markdown string) (string, error)
}

type AskCommand struct {
	TenantID       uuid.UUID
	ProjectID      uuid.UUID
	Question       string
	Model          string
	IdempotencyKey string
}

type AskResult struct {
	Answer     string               `json:"answer"`
	AnswerHTML string               `json:"answer_html"`
	TokensIn   int64                `json:"tokens_in"`
	TokensOut  int64                `json:"tokens_out"`
	Citations  []retrieval.Citation `json:"citations"`
}

type AskUseCase struct {
	projectRepo project.Repository
	messageRepo message.Repository
	ledger      usage.Ledger
	provider    retrieval.Provider
	renderer    AnswerRenderer
	limits      *limits.Service
	logger      logger.Interface
}

func NewAskUseCase(
	projectRepo project.Repository,
	messageRepo message.Repository,
	ledger usage.Ledger,
	provider retrieval.Provider,
	renderer AnswerRenderer,
	limitsService *limits.Service,
	logger logger.Interface,
) *AskUseCase {
	return &AskUseCase{
		projectRepo: projectRepo,
		messageRepo: messageRepo,
		ledger:      ledger,
		provider:    provider,
		renderer:    renderer,
		limits:      limitsService,
		logger:      logger,
	}
}

// Execute gates the question on rate, idempotency and the monthly message
// cap, asks the provider, and records one message of usage on success. A
// provider failure records nothing, neither usage nor the question.
func (uc *AskUseCase) Execute(ctx context.Context, cmd AskCommand) (*AskResult, error) {
	question := strings.TrimSpace(cmd.Question)
	if question == "" {
		return nil, errors.NewValidationError("question is required")
	}
	if len(question) > maxQuestionLength {
		return nil, errors.NewValidationError("question is too long")
	}

	if err := uc.limits.CheckRate(ctx, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.ClaimIdempotency(ctx, cmd.TenantID, cmd.IdempotencyKey); err != nil {
		return nil, err
	}

	p, err := uc.projectRepo.GetByID(ctx, cmd.ProjectID)
	if err != nil {
		uc.logger.Errorw("failed to get project", "project_id", cmd.ProjectID, "error", err)
		return nil, err
	}
	if p == nil || !p.OwnedBy(cmd.TenantID) {
		return nil, errors.NewNotFoundError("Project not found")
	}
	if !p.HasVectorStore() {
		return nil, errors.NewValidationError("Vector store missing. Ingest files first.")
	}

	sub, err := uc.limits.RequireSubscription(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}
	plan, err := uc.limits.RequirePlan(ctx, sub)
	if err != nil {
		return nil, err
	}

	used, err := uc.ledger.MessagesInPeriod(ctx, cmd.TenantID, sub.CurrentPeriod())
	if err != nil {
		uc.logger.Errorw("failed to sum messages", "tenant_id", cmd.TenantID, "error", err)
		return nil, err
	}
	if err := uc.limits.Enforce(cmd.TenantID, limits.GateMessage, quota.EvaluateMessage(used, plan.Limits())); err != nil {
		return nil, err
	}

	userMsg := message.NewUserMessage(cmd.TenantID, p.ID(), question, cmd.IdempotencyKey)

	answer, err := uc.provider.Query(ctx, []string{p.VectorStoreID()}, question, cmd.Model)
	if err != nil {
		uc.logger.Errorw("provider query failed", "tenant_id", cmd.TenantID, "project_id", p.ID(), "error", err)
		return nil, err
	}

	// The exchange is only persisted once the provider has answered.
	if err := uc.messageRepo.Create(ctx, userMsg); err != nil {
		uc.logger.Errorw("failed to save question", "project_id", p.ID(), "error", err)
	}
	assistantMsg := message.NewAssistantMessage(cmd.TenantID, p.ID(), *answer)
	if err := uc.messageRepo.Create(ctx, assistantMsg); err != nil {
		uc.logger.Errorw("failed to save answer", "project_id", p.ID(), "error", err)
	}
	if err := uc.ledger.IncrementMessage(ctx, cmd.TenantID, p.ID(), answer.TokensIn, answer.TokensOut); err != nil {
		uc.logger.Errorw("failed to record message usage",
			"tenant_id", cmd.TenantID,
			"project_id", p.ID(),
			"tokens_in", answer.TokensIn,
			"tokens_out", answer.TokensOut,
			"error", err,
		)
	}

	html, err := uc.renderer.Render(answer.Text)
	if err != nil {
		uc.logger.Warnw("failed to render answer", "project_id", p.ID(), "error", err)
		html = ""
	}

	citations := answer.Citations
	if citations == nil {
		citations = []retrieval.Citation{}
	}

	uc.logger.Infow("question answered",
		"tenant_id", cmd.TenantID,
		"project_id", p.ID(),
		"tokens_in", answer.TokensIn,
		"tokens_out", answer.TokensOut,
		"citations", len(citations),
	)

	return &AskResult{
		Answer:     answer.Text,
		AnswerHTML: html,
		TokensIn:   answer.TokensIn,
		TokensOut:  answer.TokensOut,
		Citations:  citations,
	}, nil
}
