package metafield

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	definitions      *prometheus.CounterVec
	valuesSaved      *prometheus.CounterVec
	validationErrors *prometheus.CounterVec
	cascadeDeleted   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already registered by a previous call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		definitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metafields",
			Name:      "definition_operations_total",
			Help:      "Definition changes by operation and owner resource.",
		}, []string{"operation", "owner_resource"}),
		valuesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metafields",
			Name:      "values_saved_total",
			Help:      "Metafield values persisted by owner resource.",
		}, []string{"owner_resource"}),
		validationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metafields",
			Name:      "validation_errors_total",
			Help:      "Rejected inputs by error code.",
		}, []string{"code"}),
		cascadeDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metafields",
			Name:      "cascade_deleted_total",
			Help:      "Metafields removed by definition cascades.",
		}),
	}

	var err error
	m.definitions, err = register(reg, m.definitions)
	if err != nil {
		return nil, err
	}
	m.valuesSaved, err = register(reg, m.valuesSaved)
	if err != nil {
		return nil, err
	}
	m.validationErrors, err = register(reg, m.validationErrors)
	if err != nil {
		return nil, err
	}
	m.cascadeDeleted, err = register(reg, m.cascadeDeleted)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) definitionChanged(operation string, owner OwnerResource) {
	if m == nil {
		return
	}
	m.definitions.WithLabelValues(operation, string(owner)).Inc()
}

func (m *Metrics) valuesPersisted(items []Metafield) {
	if m == nil {
		return
	}
	for _, item := range items {
		m.valuesSaved.WithLabelValues(string(item.OwnerResource)).Inc()
	}
}

func (m *Metrics) rejected(errs ValidationErrors) {
	if m == nil {
		return
	}
	for _, e := range errs {
		m.validationErrors.WithLabelValues(e.Code).Inc()
	}
}

func (m *Metrics) cascaded(n int64) {
	if m == nil {
		return
	}
	m.cascadeDeleted.Add(float64(n))
}
