package app

import (
	"fmt"
	"net/http"
	"time"

	"formflow/internal/appointments"
	"formflow/internal/platform/jsonclient"
	"formflow/internal/prefill"
	"formflow/internal/prefill/contrib/httpjson"
	"formflow/internal/prefill/contrib/static"
	"formflow/internal/registrations"
	"formflow/internal/registrations/contrib/appointment"
	"formflow/internal/registrations/contrib/genericjson"
)

const apiKeyHeader = "Authorization"

// prefillPlugins registers every prefill plugin. Plugins without a backend are
// registered disabled so forms referring to them are skipped instead of failing.
func (a *App) prefillPlugins() (*prefill.Registry, error) {
	cfg := a.cfg.Plugins
	plugins := prefill.NewRegistry()

	var staticOpts []static.Option
	if len(cfg.StaticPrefill) == 0 {
		staticOpts = append(staticOpts, static.Disabled())
	}
	if err := plugins.Register(static.New(cfg.StaticPrefill, staticOpts...)); err != nil {
		return nil, fmt.Errorf("register prefill plugin %s: %w", static.Identifier, err)
	}

	var httpOpts []httpjson.Option
	if cfg.PrefillURL == "" {
		httpOpts = append(httpOpts, httpjson.Disabled())
	}
	client := a.jsonClient(cfg.PrefillURL, cfg.PrefillAPIKey)
	if err := plugins.Register(httpjson.New(client, httpOpts...)); err != nil {
		return nil, fmt.Errorf("register prefill plugin %s: %w", httpjson.Identifier, err)
	}
	return plugins, nil
}

// registrationPlugins registers the JSON dump and appointment backends. The
// appointment plugin may chain into any plugin of the same registry.
func (a *App) registrationPlugins(st stores) (*registrations.Registry, error) {
	cfg := a.cfg.Plugins
	plugins := registrations.NewRegistry()

	var dumpOpts []genericjson.Option
	if cfg.JSONDumpURL == "" {
		dumpOpts = append(dumpOpts, genericjson.Disabled())
	}
	dump := genericjson.New(a.jsonClient(cfg.JSONDumpURL, cfg.JSONDumpAPIKey), st.values, dumpOpts...)
	if err := plugins.Register(dump); err != nil {
		return nil, fmt.Errorf("register registration plugin %s: %w", genericjson.Identifier, err)
	}

	apptOpts := []appointment.Option{
		appointment.WithLogger(a.logger),
		appointment.WithLocation(a.location()),
		appointment.WithChain(plugins),
	}
	if cfg.AppointmentsURL == "" {
		apptOpts = append(apptOpts, appointment.Disabled())
	}
	booker := appointments.NewHTTPBooker(cfg.AppointmentsName, a.jsonClient(cfg.AppointmentsURL, cfg.AppointmentsKey))
	if err := plugins.Register(appointment.New(st.values, st.appointments, booker, apptOpts...)); err != nil {
		return nil, fmt.Errorf("register registration plugin %s: %w", appointment.Identifier, err)
	}
	return plugins, nil
}

func (a *App) jsonClient(baseURL, apiKey string) *jsonclient.Client {
	opts := []jsonclient.Option{
		jsonclient.WithHTTPClient(&http.Client{Timeout: a.cfg.Plugins.HTTPClientTimeout}),
	}
	if apiKey != "" {
		opts = append(opts, jsonclient.WithHeader(apiKeyHeader, "Token "+apiKey))
	}
	return jsonclient.New(baseURL, opts...)
}

func (a *App) location() *time.Location {
	if a.cfg.Plugins.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(a.cfg.Plugins.Timezone)
	if err != nil {
		a.logger.Warn("unknown time zone, using UTC", "time_zone", a.cfg.Plugins.Timezone, "error", err)
		return time.UTC
	}
	return loc
}
