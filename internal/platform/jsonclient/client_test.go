package jsonclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"formflow/pkg/platform/sentinel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/people/1":
			assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
			_, _ = w.Write([]byte(`{"name":"Kim"}`))
		case "/echo":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(body)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/", WithHeader("X-Api-Key", "secret"))
	ctx := context.Background()

	var person map[string]any
	require.NoError(t, c.Get(ctx, "/people/1", &person))
	assert.Equal(t, "Kim", person["name"])

	var echoed map[string]any
	require.NoError(t, c.Post(ctx, "echo", map[string]any{"a": "b"}, &echoed))
	assert.Equal(t, "b", echoed["a"])

	assert.ErrorIs(t, c.Get(ctx, "missing", nil), sentinel.ErrNotFound)

	var statusErr *StatusError
	require.ErrorAs(t, c.Get(ctx, "broken", nil), &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, "upstream down", statusErr.Body)
}
