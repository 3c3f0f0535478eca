package limits

// Resource represents a countable per-store resource type.
type Resource string

// Predefined resource types.
const (
	ResourceDefinitions Resource = "metafield_definitions"
	ResourceMetafields  Resource = "metafields"
)

// Unlimited represents a resource with no limit (-1)
const Unlimited int64 = -1

// DefaultPlanID is the plan applied when no plan is resolved for a store.
const DefaultPlanID = "default"

// UsageInfo contains the current usage and limit for a resource.
type UsageInfo struct {
	Current int64 `json:"current"`
	Limit   int64 `json:"limit"`
}
