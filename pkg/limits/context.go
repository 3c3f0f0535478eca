package limits

import (
	"context"

	"github.com/google/uuid"
)

type planIDCtxKey struct{}

// SetPlanIDToContext stores the plan ID in the context for downstream access.
func SetPlanIDToContext(ctx context.Context, planID string) context.Context {
	return context.WithValue(ctx, planIDCtxKey{}, planID)
}

// GetPlanIDFromContext retrieves the plan ID from the context, if present.
func GetPlanIDFromContext(ctx context.Context) (string, bool) {
	planID, ok := ctx.Value(planIDCtxKey{}).(string)
	return planID, ok
}

// PlanIDContextResolver is the default resolver: plan ID from context, falling back to DefaultPlanID.
func PlanIDContextResolver(ctx context.Context, _ uuid.UUID) (string, error) {
	if planID, ok := GetPlanIDFromContext(ctx); ok && planID != "" {
		return planID, nil
	}
	return DefaultPlanID, nil
}
