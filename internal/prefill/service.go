package prefill

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"formflow/internal/formio"
	"formflow/internal/forms"
	prefillmetrics "formflow/internal/prefill/metrics"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	"formflow/pkg/platform/audit"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Service orchestrates prefill fetches and the initial data override for a submission.
type Service struct {
	plugins    *Registry
	values     variables.Store
	components *formio.Registry
	logger     *slog.Logger
	auditor    audit.Emitter
	metrics    *prefillmetrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(emitter audit.Emitter) Option {
	return func(s *Service) { s.auditor = emitter }
}

func WithMetrics(m *prefillmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithComponentRegistry replaces the component registry used for normalisation.
func WithComponentRegistry(r *formio.Registry) Option {
	return func(s *Service) { s.components = r }
}

func New(plugins *Registry, values variables.Store, opts ...Option) *Service {
	s := &Service{
		plugins:    plugins,
		values:     values,
		components: formio.Default,
		logger:     slog.Default(),
		tracer:     otel.Tracer("formflow/prefill"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PrefillVariables fetches values for every prefill variable of the form and stores
// them as one batch. Plugin failures yield missing values, not errors. The only
// errors returned are storage failures and initial data ownership violations.
func (s *Service) PrefillVariables(ctx context.Context, sub *models.Submission, form *forms.Form) error {
	ctx, span := s.tracer.Start(ctx, "prefill.variables",
		trace.WithAttributes(attribute.String("submission_id", sub.ID.String())))
	defer span.End()

	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, form.Wrapper(), s.components)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load state")
		return err
	}

	byAttribute, byOptions := state.Partition()
	span.SetAttributes(
		attribute.Int("prefill.attribute_variables", len(byAttribute)),
		attribute.Int("prefill.options_variables", len(byOptions)),
	)

	data := make(map[string]any)
	if len(byAttribute) > 0 {
		maps.Copy(data, s.fetchFromAttributes(ctx, sub, byAttribute))
	}
	if len(byOptions) > 0 {
		values, err := s.fetchFromOptions(ctx, sub, byOptions)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "options prefill")
			return err
		}
		maps.Copy(data, values)
	}

	for key, value := range data {
		data[key] = state.Normalize(key, value)
	}
	if err := state.SavePrefillData(ctx, s.values, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save prefill data")
		return err
	}
	s.metrics.AddValuesSaved(len(data))
	return nil
}

// ApplyInitialData stores caller-supplied values as prefill data. It runs after
// PrefillVariables so initial data wins on conflicting keys. Keys of disabled
// components are never stored.
func (s *Service) ApplyInitialData(ctx context.Context, sub *models.Submission, form *forms.Form, initialData map[string]any) error {
	if len(initialData) == 0 {
		return nil
	}
	ctx, span := s.tracer.Start(ctx, "prefill.initial_data",
		trace.WithAttributes(attribute.String("submission_id", sub.ID.String())))
	defer span.End()

	wrapper := form.Wrapper()
	normalized := make(map[string]any, len(initialData))
	for _, key := range slices.Sorted(maps.Keys(initialData)) {
		component, err := wrapper.Component(key)
		if err != nil {
			s.logger.WarnContext(ctx, "initial_data.component_not_found",
				"submission_id", sub.ID.String(),
				"component_key", key,
			)
			s.metrics.IncInitialDataSkipped("component_not_found")
			continue
		}
		if component.Disabled() {
			s.logger.WarnContext(ctx, "initial_data.disabled_component_skipped",
				"submission_id", sub.ID.String(),
				"component_key", key,
			)
			s.metrics.IncInitialDataSkipped("disabled_component")
			continue
		}
		normalized[key] = s.components.Normalize(component, initialData[key])
	}
	if len(normalized) == 0 {
		return nil
	}

	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, wrapper, s.components)
	if err != nil {
		return err
	}
	if err := state.SavePrefillData(ctx, s.values, normalized); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save initial data")
		return fmt.Errorf("apply initial data: %w", err)
	}
	s.metrics.AddValuesSaved(len(normalized))
	return nil
}

// PrefilledData returns the values currently stored with source prefill.
func (s *Service) PrefilledData(ctx context.Context, sub *models.Submission, form *forms.Form) (map[string]any, error) {
	state, err := variables.Load(ctx, s.values, sub.ID, form.Variables, form.Wrapper(), s.components)
	if err != nil {
		return nil, err
	}
	return state.PrefilledData(), nil
}

// InjectPrefill writes prefilled values into the defaultValue of the matching
// components of configuration, in place. Keys whose component is not part of
// configuration, or whose component has no prefill plugin and attribute, are skipped.
func (s *Service) InjectPrefill(ctx context.Context, sub *models.Submission, configuration formio.Component, prefilled map[string]any) {
	wrapper := formio.NewConfigurationWrapper(configuration)
	for key, value := range prefilled {
		component, err := wrapper.Component(key)
		if err != nil {
			continue
		}
		if !component.Prefill().Configured() {
			continue
		}
		value = s.components.Normalize(component, value)
		if def := component.DefaultValue(); def != nil && !formio.ValuesEqual(def, value) {
			s.logger.InfoContext(ctx, "prefill.overwrite_non_null_default_value",
				"submission_id", sub.ID.String(),
				"component_type", component.Type(),
				"component_key", key,
				"default_value", def,
			)
		}
		component.SetDefaultValue(value)
	}
}
