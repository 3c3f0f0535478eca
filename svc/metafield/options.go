package metafield

import (
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/metafields/pkg/limits"
	"github.com/dmitrymomot/metafields/pkg/rbac"
)

type options struct {
	cfg       Config
	logger    *slog.Logger
	metrics   *Metrics
	authz     rbac.Authorizer
	limits    limits.LimitsService
	publisher EventPublisher
	owners    OwnerChecker
	locker    Locker
	provider  *Provider
	now       func() time.Time
}

// Option configures DefinitionService and MetafieldService.
type Option func(*options)

func newOptions(opts []Option) options {
	o := options{
		cfg:    DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg = o.cfg.withDefaults()
	return o
}

// WithConfig sets engine limits. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithAuthorizer enables permission checks against the role stored in the request context.
func WithAuthorizer(a rbac.Authorizer) Option {
	return func(o *options) {
		o.authz = a
	}
}

// WithLimits replaces the default single-plan definition ceiling.
func WithLimits(l limits.LimitsService) Option {
	return func(o *options) {
		o.limits = l
	}
}

// WithPublisher sets where DefinitionDeleted events go. Without one no events are sent.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) {
		o.publisher = p
	}
}

// WithOwnerChecker sets the owner lookup used by Sets and reference values.
func WithOwnerChecker(c OwnerChecker) Option {
	return func(o *options) {
		o.owners = c
	}
}

// WithLocker sets the per-owner write lock. Defaults to an in-process lock.
func WithLocker(l Locker) Option {
	return func(o *options) {
		o.locker = l
	}
}

// WithProvider replaces the value validator built from the owner checker and config.
func WithProvider(p *Provider) Option {
	return func(o *options) {
		o.provider = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
