package limits

import (
	"context"
	"maps"
	"sync"
)

// inMemSource implements the Source interface using an in-memory plan map.
type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns an in-memory Source with a deep copy of the given plans.
func NewInMemSource(plans ...Plan) Source {
	return &inMemSource{plans: clonePlans(plans...)}
}

// Load returns a copy of all available plans from memory.
func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Plan, len(s.plans))
	for id, plan := range s.plans {
		plan.Limits = maps.Clone(plan.Limits)
		out[id] = plan
	}
	return out, nil
}

func clonePlans(plans ...Plan) map[string]Plan {
	out := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		plan.Limits = maps.Clone(plan.Limits)
		out[plan.ID] = plan
	}
	return out
}
