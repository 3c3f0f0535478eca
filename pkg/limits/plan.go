package limits

import "fmt"

// Plan describes a set of per-store resource ceilings.
type Plan struct {
	ID     string
	Name   string
	Limits map[Resource]int64 // Resource limits
}

// Limit returns the configured ceiling for res.
func (p Plan) Limit(res Resource) (int64, bool) {
	limit, ok := p.Limits[res]
	return limit, ok
}

// DefaultPlan builds the single plan used when stores are not tiered.
func DefaultPlan(maxDefinitions int64) Plan {
	return Plan{
		ID:   DefaultPlanID,
		Name: "Default",
		Limits: map[Resource]int64{
			ResourceDefinitions: maxDefinitions,
			ResourceMetafields:  Unlimited,
		},
	}
}

func validatePlan(plan Plan) error {
	for res, limit := range plan.Limits {
		if limit < Unlimited {
			return fmt.Errorf("plan %s has negative limit for %s: %d", plan.ID, res, limit)
		}
	}
	return nil
}
