package genericjson

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"formflow/internal/platform/jsonclient"
	"formflow/internal/registrations"
	"formflow/internal/submissions/models"
	"formflow/internal/variables"
	id "formflow/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ registrations.Plugin = (*Plugin)(nil)

func TestRegisterPostsSelectedValues(t *testing.T) {
	var received payload
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if received.Values["fail"] != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"R-1"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	values := variables.NewInMemoryStore()
	completed := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	sub := &models.Submission{
		ID:                          id.NewSubmissionID(),
		FormID:                      id.NewFormID(),
		Language:                    "nl",
		CompletedOn:                 &completed,
		PublicRegistrationReference: "OF-ABC123",
	}
	require.NoError(t, values.SaveValues(ctx, sub.ID, map[string]any{
		"firstName": "Kim",
		"secret":    "not sent",
	}, variables.ValueSourceUserInput))

	plugin := New(jsonclient.New(srv.URL), values)
	opts, err := plugin.DecodeOptions(json.RawMessage(
		`{"path":"registrations","variables":["firstName","missing"],"additionalMetadataVariables":["completed_on"]}`))
	require.NoError(t, err)

	result, err := plugin.Register(ctx, sub, opts)
	require.NoError(t, err)
	assert.Equal(t, "/registrations", path)
	assert.Equal(t, map[string]any{"firstName": "Kim"}, received.Values)
	assert.Equal(t, map[string]any{
		"submission_id":    sub.ID.String(),
		"form_id":          sub.FormID.String(),
		"public_reference": "OF-ABC123",
		"completed_on":     "2025-05-01T09:00:00Z",
	}, received.Metadata)
	assert.Equal(t, map[string]any{"api_response": map[string]any{"id": "R-1"}}, result)

	require.NoError(t, values.SaveValues(ctx, sub.ID, map[string]any{"fail": true}, variables.ValueSourceUserInput))
	opts, err = plugin.DecodeOptions(json.RawMessage(`{"path":"registrations","variables":["fail"]}`))
	require.NoError(t, err)
	_, err = plugin.Register(ctx, sub, opts)
	assert.ErrorIs(t, err, registrations.ErrRegistrationFailed)
}

func TestDecodeOptionsRejects(t *testing.T) {
	plugin := New(jsonclient.New("http://unused"), variables.NewInMemoryStore())
	for name, raw := range map[string]string{
		"path traversal": `{"path":"../admin","variables":["a"]}`,
		"no variables":   `{"path":"registrations"}`,
		"not json":       `[`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := plugin.DecodeOptions(json.RawMessage(raw))
			assert.Error(t, err)
		})
	}
}
