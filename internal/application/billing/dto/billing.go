// Package dto holds the plan, period and limits views shared by the
// billing, tenant and limits endpoints.
package dto

import (
	"github.com/docsphere/docsphere/internal/domain/subscription"
	"github.com/docsphere/docsphere/internal/shared/biztime"
)

type PlanDTO struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	MaxProjects          int64  `json:"max_projects"`
	MonthlyMessageCap    int64  `json:"monthly_message_cap"`
	MonthlyUploadCharCap int64  `json:"monthly_upload_char_cap"`
	IsAnnualAvailable    bool   `json:"is_annual_available"`
}

type PeriodDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type LimitsDTO struct {
	MaxProjects          int64 `json:"max_projects"`
	MonthlyMessageCap    int64 `json:"monthly_message_cap"`
	MonthlyUploadCharCap int64 `json:"monthly_upload_char_cap"`
}

type UsageDTO struct {
	Projects      int64 `json:"projects"`
	MessagesUsed  int64 `json:"messages_used"`
	CharsUploaded int64 `json:"chars_uploaded"`
}

func ToPlanDTO(p *subscription.Plan) PlanDTO {
	return PlanDTO{
		ID:                   p.ID(),
		Name:                 p.Name(),
		MaxProjects:          p.MaxProjects(),
		MonthlyMessageCap:    p.MonthlyMessageCap(),
		MonthlyUploadCharCap: p.MonthlyUploadCharCap(),
		IsAnnualAvailable:    p.IsAnnualAvailable(),
	}
}

func ToPlanDTOs(plans []*subscription.Plan) []PlanDTO {
	out := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlanDTO(p))
	}
	return out
}

func ToPeriodDTO(p subscription.Period) PeriodDTO {
	return PeriodDTO{
		Start: biztime.FormatDate(p.Start),
		End:   biztime.FormatDate(p.End),
	}
}

func ToLimitsDTO(p *subscription.Plan) LimitsDTO {
	l := p.Limits()
	return LimitsDTO{
		MaxProjects:          l.MaxProjects,
		MonthlyMessageCap:    l.MonthlyMessageCap,
		MonthlyUploadCharCap: l.MonthlyUploadCharCap,
	}
}
