package limits_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/pkg/limits"
)

func staticCounter(n int64) limits.CounterFunc {
	return func(ctx context.Context, storeID uuid.UUID) (int64, error) {
		return n, nil
	}
}

func newService(t *testing.T, counters limits.CounterRegistry, plans ...limits.Plan) limits.LimitsService {
	t.Helper()

	svc, err := limits.NewLimitsService(context.Background(), limits.NewInMemSource(plans...), counters, nil)
	require.NoError(t, err)
	return svc
}

func TestNewLimitsService(t *testing.T) {
	t.Parallel()

	t.Run("rejects negative limits", func(t *testing.T) {
		t.Parallel()

		plan := limits.Plan{ID: "broken", Limits: map[limits.Resource]int64{limits.ResourceDefinitions: -5}}
		_, err := limits.NewLimitsService(context.Background(), limits.NewInMemSource(plan), nil, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, limits.ErrInvalidPlanConfiguration)
	})

	t.Run("source failure", func(t *testing.T) {
		t.Parallel()

		_, err := limits.NewLimitsService(context.Background(), failingSource{}, nil, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, limits.ErrFailedToLoadPlans)
	})
}

type failingSource struct{}

func (failingSource) Load(context.Context) (map[string]limits.Plan, error) {
	return nil, errors.New("boom")
}

func TestService_CanCreate(t *testing.T) {
	t.Parallel()

	storeID := uuid.New()

	tests := []struct {
		name    string
		used    int64
		limit   int64
		wantErr error
	}{
		{name: "under limit", used: 249, limit: 250},
		{name: "at limit", used: 250, limit: 250, wantErr: limits.ErrLimitExceeded},
		{name: "over limit", used: 300, limit: 250, wantErr: limits.ErrLimitExceeded},
		{name: "unlimited", used: 10_000, limit: limits.Unlimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			counters := limits.NewRegistry()
			counters.Register(limits.ResourceDefinitions, staticCounter(tt.used))
			svc := newService(t, counters, limits.DefaultPlan(tt.limit))

			err := svc.CanCreate(context.Background(), storeID, limits.ResourceDefinitions)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("unlimited without counter", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, nil, limits.DefaultPlan(250))
		assert.NoError(t, svc.CanCreate(context.Background(), storeID, limits.ResourceMetafields))
	})

	t.Run("limited without counter", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, nil, limits.DefaultPlan(250))
		err := svc.CanCreate(context.Background(), storeID, limits.ResourceDefinitions)
		assert.ErrorIs(t, err, limits.ErrNoCounterRegistered)
	})

	t.Run("counter failure", func(t *testing.T) {
		t.Parallel()

		counters := limits.NewRegistry()
		counters.Register(limits.ResourceDefinitions, func(ctx context.Context, storeID uuid.UUID) (int64, error) {
			return 0, errors.New("db down")
		})
		svc := newService(t, counters, limits.DefaultPlan(250))

		err := svc.CanCreate(context.Background(), storeID, limits.ResourceDefinitions)
		assert.ErrorIs(t, err, limits.ErrFailedToCountResourceUsage)
	})

	t.Run("plan from context", func(t *testing.T) {
		t.Parallel()

		counters := limits.NewRegistry()
		counters.Register(limits.ResourceDefinitions, staticCounter(5))
		small := limits.Plan{ID: "small", Limits: map[limits.Resource]int64{limits.ResourceDefinitions: 5}}
		svc := newService(t, counters, limits.DefaultPlan(250), small)

		ctx := limits.SetPlanIDToContext(context.Background(), "small")
		assert.ErrorIs(t, svc.CanCreate(ctx, storeID, limits.ResourceDefinitions), limits.ErrLimitExceeded)
		assert.NoError(t, svc.CanCreate(context.Background(), storeID, limits.ResourceDefinitions))
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, nil, limits.DefaultPlan(250))
		ctx := limits.SetPlanIDToContext(context.Background(), "missing")
		assert.ErrorIs(t, svc.CanCreate(ctx, storeID, limits.ResourceDefinitions), limits.ErrPlanNotFound)
	})
}

func TestService_GetUsage(t *testing.T) {
	t.Parallel()

	counters := limits.NewRegistry()
	counters.Register(limits.ResourceDefinitions, staticCounter(12))
	svc := newService(t, counters, limits.DefaultPlan(250))

	used, limit, err := svc.GetUsage(context.Background(), uuid.New(), limits.ResourceDefinitions)
	require.NoError(t, err)
	assert.Equal(t, int64(12), used)
	assert.Equal(t, int64(250), limit)

	_, _, err = svc.GetUsage(context.Background(), uuid.New(), limits.Resource("unknown"))
	assert.ErrorIs(t, err, limits.ErrInvalidResource)

	all, err := svc.GetAllUsage(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, limits.UsageInfo{Current: 12, Limit: 250}, all[limits.ResourceDefinitions])
	assert.Equal(t, limits.UsageInfo{Current: 0, Limit: limits.Unlimited}, all[limits.ResourceMetafields])
}

func TestInMemSource_Isolation(t *testing.T) {
	t.Parallel()

	plan := limits.DefaultPlan(10)
	src := limits.NewInMemSource(plan)
	plan.Limits[limits.ResourceDefinitions] = 1

	loaded, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10), loaded[limits.DefaultPlanID].Limits[limits.ResourceDefinitions])
}

func TestPlanIDContextResolver(t *testing.T) {
	t.Parallel()

	id, err := limits.PlanIDContextResolver(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, limits.DefaultPlanID, id)

	ctx := limits.SetPlanIDToContext(context.Background(), "pro")
	id, err = limits.PlanIDContextResolver(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "pro", id)
}
