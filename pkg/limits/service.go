package limits

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// LimitsService defines the public interface for interacting with per-store resource limits.
type LimitsService interface {
	// CanCreate checks if a store can create a new resource instance.
	CanCreate(ctx context.Context, storeID uuid.UUID, res Resource) error

	// GetUsage returns the current usage and limit for a resource in a store.
	GetUsage(ctx context.Context, storeID uuid.UUID, res Resource) (used, limit int64, err error)

	// GetAllUsage returns all resource usage for a store.
	GetAllUsage(ctx context.Context, storeID uuid.UUID) (map[Resource]UsageInfo, error)
}

// Source defines how plans are loaded into the limits service.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// PlanIDResolver resolves a plan ID for a given store.
type PlanIDResolver func(ctx context.Context, storeID uuid.UUID) (string, error)

type service struct {
	// Treated as immutable after construction.
	plans          map[string]Plan
	counters       CounterRegistry
	planIDResolver PlanIDResolver
}

// NewLimitsService creates a new LimitsService with the given Source and CounterRegistry.
func NewLimitsService(ctx context.Context, src Source, counters CounterRegistry, planIDResolver PlanIDResolver) (LimitsService, error) {
	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if plans == nil {
		plans = make(map[string]Plan)
	}

	for _, plan := range plans {
		if err := validatePlan(plan); err != nil {
			return nil, errors.Join(ErrInvalidPlanConfiguration, err)
		}
	}

	if counters == nil {
		counters = NewRegistry()
	}

	if planIDResolver == nil {
		planIDResolver = PlanIDContextResolver
	}

	return &service{
		plans:          plans,
		counters:       counters,
		planIDResolver: planIDResolver,
	}, nil
}

// CanCreate checks if a store can create a new resource instance.
func (s *service) CanCreate(ctx context.Context, storeID uuid.UUID, res Resource) error {
	used, limit, err := s.GetUsage(ctx, storeID, res)
	if errors.Is(err, ErrNoCounterRegistered) && limit == Unlimited {
		return nil
	}
	if err != nil {
		return err
	}

	// -1 indicates unlimited usage
	if limit == Unlimited {
		return nil
	}

	if used >= limit {
		return ErrLimitExceeded
	}

	return nil
}

// GetUsage returns the current usage and limit for a resource in a store.
func (s *service) GetUsage(ctx context.Context, storeID uuid.UUID, res Resource) (used, limit int64, err error) {
	plan, err := s.plan(ctx, storeID)
	if err != nil {
		return 0, 0, err
	}

	limit, exists := plan.Limit(res)
	if !exists {
		return 0, 0, ErrInvalidResource
	}

	counter, exists := s.counters[res]
	if !exists {
		return 0, limit, ErrNoCounterRegistered
	}

	current, err := counter(ctx, storeID)
	if err != nil {
		return 0, limit, errors.Join(ErrFailedToCountResourceUsage, err)
	}

	return current, limit, nil
}

// GetAllUsage returns all resource usage for a store.
// Counter failures leave the current value at zero.
func (s *service) GetAllUsage(ctx context.Context, storeID uuid.UUID) (map[Resource]UsageInfo, error) {
	plan, err := s.plan(ctx, storeID)
	if err != nil {
		return nil, err
	}

	result := make(map[Resource]UsageInfo, len(plan.Limits))
	for res, limit := range plan.Limits {
		usage := UsageInfo{Limit: limit}
		if counter, exists := s.counters[res]; exists {
			if current, err := counter(ctx, storeID); err == nil {
				usage.Current = current
			}
		}
		result[res] = usage
	}

	return result, nil
}

func (s *service) plan(ctx context.Context, storeID uuid.UUID) (Plan, error) {
	planID, err := s.planIDResolver(ctx, storeID)
	if err != nil {
		return Plan{}, err
	}

	plan, exists := s.plans[planID]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}
