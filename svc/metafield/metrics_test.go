package metafield_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/metafields/svc/metafield"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metafield.NewMetrics(reg)
	require.NoError(t, err)

	again, err := metafield.NewMetrics(reg)
	require.NoError(t, err, "registering twice reuses collectors")
	require.NotNil(t, again)

	f := newFixture(t, metafield.WithMetrics(m))
	ctx := context.Background()

	f.addDefinition(t, "gift", metafield.TypeBoolean)
	_, err = f.fields.Upsert(ctx, f.storeID, 1, metafield.OwnerProduct, []metafield.FieldRequest{field("gift", "true")})
	require.NoError(t, err)
	_, err = f.fields.Upsert(ctx, f.storeID, 1, metafield.OwnerProduct, []metafield.FieldRequest{field("gift", "maybe")})
	require.Error(t, err)

	assert.InDelta(t, 1, counterValue(t, reg, "metafields_definition_operations_total",
		map[string]string{"operation": "create", "owner_resource": "product"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "metafields_values_saved_total",
		map[string]string{"owner_resource": "product"}), 0)
	assert.InDelta(t, 1, counterValue(t, reg, "metafields_validation_errors_total",
		map[string]string{"code": "invalid"}), 0)
}
