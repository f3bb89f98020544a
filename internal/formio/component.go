package formio

import (
	"fmt"
	"strings"
)

// Component is one node of a form configuration, kept as its decoded JSON object so
// unknown properties survive a round trip. Mutations through the accessors write to the
// underlying configuration.
type Component map[string]any

func (c Component) Key() string  { return c.str("key") }
func (c Component) Type() string { return c.str("type") }

func (c Component) Hidden() bool   { return c.boolean("hidden", false) }
func (c Component) Multiple() bool { return c.boolean("multiple", false) }
func (c Component) Disabled() bool { return c.boolean("disabled", false) }

// ClearOnHide defaults to true when the property is absent.
func (c Component) ClearOnHide() bool { return c.boolean("clearOnHide", true) }

// DefaultValue returns the static default, nil when absent.
func (c Component) DefaultValue() any { return c["defaultValue"] }

func (c Component) SetDefaultValue(v any) { c["defaultValue"] = v }

// Clone deep-copies the configuration so per-submission rewrites do not touch the
// stored form.
func (c Component) Clone() Component { return Component(Data(c).Clone()) }

// Components returns the nested components of a container.
func (c Component) Components() []Component { return children(c["components"]) }

// Columns returns the columns of a columns component. Each column carries its own
// "components" list.
func (c Component) Columns() []Component { return children(c["columns"]) }

// Prefill describes the component's prefill source.
type Prefill struct {
	Plugin         string
	Attribute      string
	IdentifierRole string
}

// Configured reports whether both plugin and attribute are set.
func (p Prefill) Configured() bool { return p.Plugin != "" && p.Attribute != "" }

func (c Component) Prefill() Prefill {
	raw, ok := c["prefill"].(map[string]any)
	if !ok {
		return Prefill{}
	}
	pc := Component(raw)
	return Prefill{
		Plugin:         pc.str("plugin"),
		Attribute:      pc.str("attribute"),
		IdentifierRole: pc.str("identifierRole"),
	}
}

// Conditional is a resolved {show, when, eq} rule.
type Conditional struct {
	Show bool
	When string
	Eq   any
}

// Conditional resolves the component's conditional. It reports false when the rule is
// absent or incomplete: show or when empty, or eq missing or null.
func (c Component) Conditional() (Conditional, bool) {
	raw, ok := c["conditional"].(map[string]any)
	if !ok || len(raw) == 0 {
		return Conditional{}, false
	}
	show, ok := parseShow(raw["show"])
	if !ok {
		return Conditional{}, false
	}
	when, _ := raw["when"].(string)
	if when == "" {
		return Conditional{}, false
	}
	eq, ok := raw["eq"]
	if !ok || eq == nil {
		return Conditional{}, false
	}
	return Conditional{Show: show, When: when, Eq: eq}, true
}

// parseShow accepts booleans and the "true"/"false" strings older builders store.
func parseShow(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(t) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func (c Component) str(name string) string {
	s, _ := c[name].(string)
	return s
}

func (c Component) boolean(name string, fallback bool) bool {
	b, ok := c[name].(bool)
	if !ok {
		return fallback
	}
	return b
}

func children(v any) []Component {
	switch t := v.(type) {
	case []Component:
		return t
	case []map[string]any:
		out := make([]Component, len(t))
		for i, m := range t {
			out[i] = Component(m)
		}
		return out
	case []any:
		out := make([]Component, 0, len(t))
		for _, item := range t {
			switch m := item.(type) {
			case map[string]any:
				out = append(out, Component(m))
			case Component:
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}

// ConfigurationWrapper indexes one or more component trees by key at any depth.
type ConfigurationWrapper struct {
	roots []Component
	index map[string]Component
}

// NewConfigurationWrapper indexes the given configuration. The first component seen
// for a key wins.
func NewConfigurationWrapper(configuration Component) *ConfigurationWrapper {
	w := &ConfigurationWrapper{index: make(map[string]Component)}
	w.add(configuration)
	return w
}

// Merge adds another configuration (typically a later form step) to the index.
func (w *ConfigurationWrapper) Merge(configuration Component) *ConfigurationWrapper {
	w.add(configuration)
	return w
}

// Component looks up a component by key.
func (w *ConfigurationWrapper) Component(key string) (Component, error) {
	if c, ok := w.index[key]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, key)
}

// Has reports whether key is present in any indexed tree.
func (w *ConfigurationWrapper) Has(key string) bool {
	_, ok := w.index[key]
	return ok
}

// Roots returns the indexed configurations in merge order.
func (w *ConfigurationWrapper) Roots() []Component { return w.roots }

// Walk visits every indexed component in document order.
func (w *ConfigurationWrapper) Walk(fn func(Component)) {
	for _, root := range w.roots {
		walk(root, fn)
	}
}

func (w *ConfigurationWrapper) add(configuration Component) {
	w.roots = append(w.roots, configuration)
	walk(configuration, func(c Component) {
		key := c.Key()
		if key == "" {
			return
		}
		if _, exists := w.index[key]; !exists {
			w.index[key] = c
		}
	})
}

func walk(node Component, fn func(Component)) {
	for _, child := range node.Components() {
		fn(child)
		walk(child, fn)
	}
	for _, column := range node.Columns() {
		walk(column, fn)
	}
}
