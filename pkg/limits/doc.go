// Package limits enforces per-store resource ceilings such as the maximum
// number of metafield definitions a store may hold.
//
// Plans map resources to limits; a CounterFunc registered per resource reports
// current usage. The plan for a store is resolved through a PlanIDResolver,
// which by default reads the plan ID from context and falls back to
// DefaultPlanID.
//
// Basic usage:
//
//	source := limits.NewInMemSource(limits.DefaultPlan(250))
//	counters := limits.NewRegistry()
//	counters.Register(limits.ResourceDefinitions, countDefinitions)
//
//	svc, err := limits.NewLimitsService(ctx, source, counters, nil)
//	if err != nil {
//	    return err
//	}
//
//	if err := svc.CanCreate(ctx, storeID, limits.ResourceDefinitions); err != nil {
//	    // errors.Is(err, limits.ErrLimitExceeded)
//	}
package limits
