package usecases

import (
	"context"

	"github.com/google/uuid"

	"github.com/docsphere/docsphere/internal/application/limits"
	"github.com/docsphere/docsphere/internal/domain/project"
	"github.com/docsphere/docsphere/internal/domain/quota"
	"github.com/docsphere/docsphere/internal/shared/errors"
	"github.com/docsphere/docsphere/internal/shared/logger"
)

const (
	StatusCreated = "created"
	StatusExists  = "exists"
)

type CreateProjectCommand struct {
	ActorTenantID  uuid.UUID
	TenantID       uuid.UUID
	Name           string
	IdempotencyKey string
}

type CreateProjectResult struct {
	Status  string     `json:"status"`
	Project ProjectDTO `json:"project"`
}

type CreateProjectUseCase struct {
	projectRepo project.Repository
	limits      *limits.Service
	logger      logger.Interface
}

func NewCreateProjectUseCase(projectRepo project.Repository, limitsService *limits.Service, logger logger.Interface) *CreateProjectUseCase {
	return &CreateProjectUseCase{
		projectRepo: projectRepo,
		limits:      limitsService,
		logger:      logger,
	}
}

// Execute creates the project, or returns the tenant's existing project of
// the same name without counting it against the plan.
func (uc *CreateProjectUseCase) Execute(ctx context.Context, cmd CreateProjectCommand) (*CreateProjectResult, error) {
	candidate, err := project.NewProject(cmd.TenantID, cmd.Name)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}

	if err := limits.AuthorizeTenant(cmd.ActorTenantID, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.CheckRate(ctx, cmd.TenantID); err != nil {
		return nil, err
	}
	if err := uc.limits.ClaimIdempotency(ctx, cmd.TenantID, cmd.IdempotencyKey); err != nil {
		return nil, err
	}

	sub, err := uc.limits.RequireSubscription(ctx, cmd.TenantID)
	if err != nil {
		return nil, err
	}

	existing, err := uc.projectRepo.GetByTenantAndName(ctx, cmd.TenantID, candidate.Name())
	if err != nil {
		uc.logger.Errorw("failed to look up project by name", "tenant_id", cmd.TenantID, "error", err)
		return nil, err
	}
	if existing != nil {
		return &CreateProjectResult{Status: StatusExists, Project: toProjectDTO(existing)}, nil
	}

	plan, err := uc.limits.RequirePlan(ctx, sub)
	if err != nil {
		return nil, err
	}

	count, err := uc.projectRepo.CountForTenant(ctx, cmd.TenantID)
	if err != nil {
		uc.logger.Errorw("failed to count projects", "tenant_id", cmd.TenantID, "error", err)
		return nil, err
	}
	decision := quota.EvaluateProjectCreation(count, plan.Limits())
	if err := uc.limits.Enforce(cmd.TenantID, limits.GateProject, decision); err != nil {
		return nil, err
	}

	if err := uc.projectRepo.Create(ctx, candidate); err != nil {
		if errors.IsDuplicateError(err) {
			return uc.resolveConcurrentCreate(ctx, candidate)
		}
		uc.logger.Errorw("failed to create project", "tenant_id", cmd.TenantID, "error", err)
		return nil, err
	}

	uc.logger.Infow("project created",
		"tenant_id", cmd.TenantID,
		"project_id", candidate.ID(),
		"name", candidate.Name(),
	)
	return &CreateProjectResult{Status: StatusCreated, Project: toProjectDTO(candidate)}, nil
}

// resolveConcurrentCreate handles losing a same-name insert race.
func (uc *CreateProjectUseCase) resolveConcurrentCreate(ctx context.Context, candidate *project.Project) (*CreateProjectResult, error) {
	existing, err := uc.projectRepo.GetByTenantAndName(ctx, candidate.TenantID(), candidate.Name())
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.NewConflictError("Project already exists")
	}
	return &CreateProjectResult{Status: StatusExists, Project: toProjectDTO(existing)}, nil
}
