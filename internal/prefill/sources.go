package prefill

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"

	prefillmetrics "formflow/internal/prefill/metrics"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	dErrors "formflow/pkg/domain-errors"
	"formflow/pkg/platform/audit"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// fieldMapping ties a plugin attribute to the variable that receives its value.
type fieldMapping struct {
	attribute string
	key       string
}

// attributeGroup is one plugin call: all attributes requested from one plugin for
// one identifier role.
type attributeGroup struct {
	plugin Plugin
	role   variables.IdentifierRole
	fields []fieldMapping
}

func (g attributeGroup) attributes() []string {
	out := make([]string, 0, len(g.fields))
	for _, f := range g.fields {
		if !slices.Contains(out, f.attribute) {
			out = append(out, f.attribute)
		}
	}
	return out
}

const maxParallelLookups = 8

// fetchFromAttributes groups the variables per plugin and identifier role and runs
// one lookup per group in parallel, at most maxParallelLookups at a time.
//
// Plugin failures are swallowed: invokeAttributePlugin logs, audits and counts them
// and the group contributes no values. The goroutines never return an error, so one
// failing plugin does not cancel the other lookups.
func (s *Service) fetchFromAttributes(ctx context.Context, sub *models.Submission, vars []variables.FormVariable) map[string]any {
	groups := s.groupByPlugin(ctx, sub, vars)
	results := make([]map[string]any, len(groups))

	var g errgroup.Group
	g.SetLimit(maxParallelLookups)
	for i, group := range groups {
		g.Go(func() error {
			results[i] = s.invokeAttributePlugin(ctx, sub, group)
			return nil
		})
	}
	_ = g.Wait()

	mappings := make(map[string]any)
	for i, group := range groups {
		for _, f := range group.fields {
			if v, ok := results[i][f.attribute]; ok {
				mappings[f.key] = v
			}
		}
	}
	return mappings
}

func (s *Service) groupByPlugin(ctx context.Context, sub *models.Submission, vars []variables.FormVariable) []attributeGroup {
	var (
		pluginOrder []string
		byPlugin    = make(map[string][]variables.FormVariable)
	)
	for _, v := range vars {
		if _, seen := byPlugin[v.PrefillPlugin]; !seen {
			pluginOrder = append(pluginOrder, v.PrefillPlugin)
		}
		byPlugin[v.PrefillPlugin] = append(byPlugin[v.PrefillPlugin], v)
	}

	var groups []attributeGroup
	for _, pluginID := range pluginOrder {
		plugin, err := s.plugins.Get(pluginID)
		if err != nil {
			s.logger.ErrorContext(ctx, "prefill.plugin.not_registered",
				"submission_id", sub.ID.String(),
				"plugin", pluginID,
			)
			continue
		}
		if !authAttributeAccepted(plugin, sub) {
			s.logger.DebugContext(ctx, "prefill.plugin.auth_attribute_not_supported",
				"submission_id", sub.ID.String(),
				"plugin", pluginID,
				"auth_attribute", sub.Auth.Attribute,
			)
			s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeSkipped, 0)
			continue
		}

		var roles []variables.IdentifierRole
		byRole := make(map[variables.IdentifierRole][]fieldMapping)
		for _, v := range byPlugin[pluginID] {
			role := v.Role()
			if _, seen := byRole[role]; !seen {
				roles = append(roles, role)
			}
			byRole[role] = append(byRole[role], fieldMapping{attribute: v.PrefillAttribute, key: v.Key})
		}
		for _, role := range roles {
			groups = append(groups, attributeGroup{plugin: plugin, role: role, fields: byRole[role]})
		}
	}
	return groups
}

func (s *Service) invokeAttributePlugin(ctx context.Context, sub *models.Submission, group attributeGroup) map[string]any {
	pluginID := group.plugin.Identifier()
	attributes := group.attributes()
	log := s.logger.With(
		"submission_id", sub.ID.String(),
		"plugin", pluginID,
		"for_role", string(group.role),
	)

	if !group.plugin.IsEnabled() {
		log.DebugContext(ctx, "prefill.plugin.disabled")
		s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeSkipped, 0)
		return nil
	}
	if !authPluginAllowed(group.plugin, sub) {
		log.InfoContext(ctx, "prefill.plugin.auth_plugin_requirements_not_met")
		s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeSkipped, 0)
		return nil
	}

	ctx, span := s.tracer.Start(ctx, "prefill.plugin", trace.WithAttributes(
		attribute.String("prefill.plugin", pluginID),
		attribute.String("prefill.role", string(group.role)),
		attribute.StringSlice("prefill.attributes", attributes),
	))
	defer span.End()

	log.DebugContext(ctx, "prefill.plugin.lookup_attributes", "attributes", attributes)
	start := time.Now()
	values, err := group.plugin.Values(ctx, sub, attributes, group.role)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		log.ErrorContext(ctx, "prefill.plugin.retrieve_failure", "error", err)
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveFailure,
			"plugin", pluginID, "error", err)
		s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeFailure, elapsed)
		return nil
	}
	if len(values) == 0 {
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveEmpty,
			"plugin", pluginID, "attributes", attributes)
		s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeEmpty, elapsed)
		return nil
	}
	audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveSuccess,
		"plugin", pluginID, "attributes", attributes)
	s.metrics.ObservePluginCall(pluginID, prefillmetrics.OutcomeSuccess, elapsed)
	return values
}

// fetchFromOptions runs the options-based variables one by one. Invalid options and
// plugin failures skip the variable; a failed ownership check aborts the whole fetch.
func (s *Service) fetchFromOptions(ctx context.Context, sub *models.Submission, vars []variables.FormVariable) (map[string]any, error) {
	values := make(map[string]any)
	for _, v := range vars {
		log := s.logger.With(
			"submission_id", sub.ID.String(),
			"plugin", v.PrefillPlugin,
			"variable", v.Key,
		)
		p, err := s.plugins.Get(v.PrefillPlugin)
		if err != nil {
			log.ErrorContext(ctx, "prefill.plugin.not_registered")
			continue
		}
		plugin, ok := p.(OptionsPlugin)
		if !ok {
			log.WarnContext(ctx, "prefill.plugin.options_not_supported")
			continue
		}
		if !plugin.IsEnabled() {
			log.DebugContext(ctx, "prefill.plugin.disabled")
			s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeSkipped, 0)
			continue
		}
		if !authPluginAllowed(plugin, sub) {
			log.InfoContext(ctx, "prefill.plugin.auth_plugin_requirements_not_met")
			s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeSkipped, 0)
			continue
		}

		options, err := plugin.DecodeOptions(v.PrefillOptions)
		if err != nil {
			log.WarnContext(ctx, "prefill.plugin.retrieve_failure", "reason", "invalid_options", "error", err)
			audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveFailure,
				"plugin", v.PrefillPlugin, "reason", "invalid_options", "error", err)
			s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeFailure, 0)
			continue
		}

		if sub.InitialDataReference != "" {
			if err := plugin.VerifyInitialDataOwnership(ctx, sub, options); err != nil {
				log.WarnContext(ctx, "prefill.plugin.ownership_check_failure",
					"data_reference", sub.InitialDataReference, "error", err)
				audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveFailure,
					"plugin", v.PrefillPlugin, "reason", "ownership_check_failure", "error", err)
				if errors.Is(err, ErrPermissionDenied) {
					return nil, dErrors.Wrap(err, dErrors.CodeForbidden, "initial data reference is not owned by the user")
				}
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "initial data ownership check failed")
			}
		}

		start := time.Now()
		newValues, err := plugin.ValuesFromOptions(ctx, sub, options, v)
		elapsed := time.Since(start)
		if err != nil {
			log.ErrorContext(ctx, "prefill.plugin.retrieve_failure", "error", err)
			audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveFailure,
				"plugin", v.PrefillPlugin, "error", err)
			s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeFailure, elapsed)
			continue
		}
		if len(newValues) == 0 {
			audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveEmpty,
				"plugin", v.PrefillPlugin, "variable", v.Key)
			s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeEmpty, elapsed)
			continue
		}
		maps.Copy(values, newValues)
		audit.LogAudit(ctx, s.logger, s.auditor, sub.ID, audit.EventPrefillRetrieveSuccess,
			"plugin", v.PrefillPlugin, "keys", slices.Sorted(maps.Keys(newValues)))
		s.metrics.ObservePluginCall(v.PrefillPlugin, prefillmetrics.OutcomeSuccess, elapsed)
	}
	return values, nil
}
