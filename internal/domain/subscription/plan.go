package subscription

import (
	"strings"

	"github.com/docsphere/docsphere/internal/domain/quota"
)

// Plan is an immutable catalog tier.
type Plan struct {
	id                   string
	name                 string
	maxProjects          int64
	monthlyMessageCap    int64
	monthlyUploadCharCap int64
	isAnnualAvailable    bool
}

func NewPlan(id, name string, maxProjects, messageCap, uploadCharCap int64, annual bool) (*Plan, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrInvalidPlan
	}
	if maxProjects < 0 || messageCap < 0 || uploadCharCap < 0 {
		return nil, ErrInvalidPlan
	}
	return &Plan{
		id:                   id,
		name:                 name,
		maxProjects:          maxProjects,
		monthlyMessageCap:    messageCap,
		monthlyUploadCharCap: uploadCharCap,
		isAnnualAvailable:    annual,
	}, nil
}

func (p *Plan) ID() string                  { return p.id }
func (p *Plan) Name() string                { return p.name }
func (p *Plan) MaxProjects() int64          { return p.maxProjects }
func (p *Plan) MonthlyMessageCap() int64    { return p.monthlyMessageCap }
func (p *Plan) MonthlyUploadCharCap() int64 { return p.monthlyUploadCharCap }
func (p *Plan) IsAnnualAvailable() bool     { return p.isAnnualAvailable }

// Limits returns the caps the quota gates evaluate against.
func (p *Plan) Limits() quota.Limits {
	return quota.Limits{
		MaxProjects:          p.maxProjects,
		MonthlyMessageCap:    p.monthlyMessageCap,
		MonthlyUploadCharCap: p.monthlyUploadCharCap,
	}
}
