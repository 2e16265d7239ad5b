package seeds

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/docsphere/docsphere/internal/domain/subscription"
)

//go:embed plans.yaml
var defaultPlansYAML []byte

type planSeed struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	MaxProjects          int64  `yaml:"max_projects"`
	MonthlyMessageCap    int64  `yaml:"monthly_message_cap"`
	MonthlyUploadCharCap int64  `yaml:"monthly_upload_char_cap"`
	IsAnnualAvailable    bool   `yaml:"is_annual_available"`
}

type planCatalog struct {
	Plans []planSeed `yaml:"plans"`
}

// ParsePlans decodes a plan catalog document.
func ParsePlans(data []byte) ([]*subscription.Plan, error) {
	var catalog planCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse plan catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(catalog.Plans))
	plans := make([]*subscription.Plan, 0, len(catalog.Plans))
	for _, s := range catalog.Plans {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q in catalog", s.ID)
		}
		seen[s.ID] = struct{}{}

		p, err := subscription.NewPlan(s.ID, s.Name, s.MaxProjects, s.MonthlyMessageCap, s.MonthlyUploadCharCap, s.IsAnnualAvailable)
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", s.ID, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// DefaultPlans returns the built-in hobby, pro and business tiers.
func DefaultPlans() []*subscription.Plan {
	plans, err := ParsePlans(defaultPlansYAML)
	if err != nil {
		panic(err)
	}
	return plans
}

// SeedPlans upserts every plan so repeated runs converge on the catalog.
func SeedPlans(ctx context.Context, repo subscription.PlanRepository, plans []*subscription.Plan) error {
	for _, p := range plans {
		if err := repo.Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to seed plan %q: %w", p.ID(), err)
		}
	}
	return nil
}
