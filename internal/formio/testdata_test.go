package formio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustConfig decodes a JSON form configuration.
func mustConfig(t *testing.T, raw string) Component {
	t.Helper()
	var c map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &c))
	return Component(c)
}

func mustData(t *testing.T, raw string) Data {
	t.Helper()
	var d map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return Data(d)
}
