package logic

import (
	"bytes"
	"encoding/json"
	"fmt"

	"formflow/internal/formio"

	"github.com/diegoholiveira/jsonlogic/v3"
)

// Apply evaluates a JSON-logic expression against data. Numbers in the result are
// json.Number, like request bodies.
func Apply(expression json.RawMessage, data formio.Data) (any, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode logic data: %w", err)
	}
	var out bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(expression), bytes.NewReader(payload), &out); err != nil {
		return nil, fmt.Errorf("evaluate json logic: %w", err)
	}
	dec := json.NewDecoder(&out)
	dec.UseNumber()
	var result any
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decode json logic result: %w", err)
	}
	return result, nil
}

// Truthy applies the JSON-logic truth rules: false, null, 0, "" and [] are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return true
	}
}
