package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"formflow/internal/formio"
	"formflow/internal/forms"
	"formflow/internal/platform/config"
	"formflow/internal/variables"
	id "formflow/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type AppSuite struct {
	suite.Suite
	app    *App
	api    *httptest.Server
	dump   *httptest.Server
	cancel context.CancelFunc
	done   chan error

	mu     sync.Mutex
	dumped []map[string]any
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	s.dumped = nil
	s.dump = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		s.mu.Lock()
		s.dumped = append(s.dumped, body)
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stored": true}`))
	}))

	cfg := testConfig()
	cfg.Plugins.JSONDumpURL = s.dump.URL
	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.app = a
	s.api = httptest.NewServer(a.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- a.Run(ctx) }()
}

func (s *AppSuite) TearDownTest() {
	s.cancel()
	select {
	case err := <-s.done:
		s.NoError(err)
	case <-time.After(5 * time.Second):
		s.Fail("app did not stop")
	}
	s.api.Close()
	s.dump.Close()
	s.app.Close()
}

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{Addr: "127.0.0.1:0", ShutdownGrace: time.Second},
		Registration: config.Registration{
			AttemptLimit: 3,
			LockTTL:      time.Minute,
		},
		Tasks: config.TasksConfig{Workers: 2, QueueSize: 16},
		Plugins: config.PluginsConfig{
			Timezone:          "UTC",
			HTTPClientTimeout: 5 * time.Second,
		},
	}
}

func permitForm() *forms.Form {
	return &forms.Form{
		ID:   id.NewFormID(),
		Name: "permit",
		Steps: []forms.Step{
			{Slug: "personal", Configuration: formio.Component{"components": []any{
				map[string]any{"key": "name", "type": "textfield"},
			}}},
		},
		Variables: []variables.FormVariable{
			{Key: "name", Source: variables.SourceComponent, DataType: variables.DataTypeString},
		},
		RegistrationBackend: forms.Backend{
			Plugin:  "json_dump",
			Options: json.RawMessage(`{"path": "submissions", "variables": ["name"]}`),
		},
	}
}

func (s *AppSuite) call(method, path, body string) (int, map[string]any) {
	req, err := http.NewRequest(method, s.api.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (s *AppSuite) TestHealthAndMetrics() {
	status, body := s.call(http.MethodGet, "/healthz", "")
	s.Equal(http.StatusOK, status)
	s.Equal("ok", body["status"])

	resp, err := http.Get(s.api.URL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	s.Contains(string(raw), "go_goroutines")
}

func (s *AppSuite) TestSubmissionIsRegisteredInTheBackground() {
	form := permitForm()
	s.Require().NoError(s.app.Forms.Save(context.Background(), form))

	status, started := s.call(http.MethodPost, "/submissions/", `{"form_id": "`+form.ID.String()+`", "language": "nl"}`)
	s.Require().Equal(http.StatusCreated, status)
	subID, _ := started["id"].(string)
	s.Require().NotEmpty(subID)

	status, _ = s.call(http.MethodPut, "/submissions/"+subID+"/steps/personal", `{"data": {"name": "Ada"}}`)
	s.Require().Equal(http.StatusOK, status)

	status, _ = s.call(http.MethodPost, "/submissions/"+subID+"/complete", "")
	s.Require().Equal(http.StatusAccepted, status)

	s.Eventually(func() bool {
		_, reg := s.call(http.MethodGet, "/submissions/"+subID+"/registration", "")
		return reg["status"] == "success"
	}, 5*time.Second, 20*time.Millisecond)

	_, reg := s.call(http.MethodGet, "/submissions/"+subID+"/registration", "")
	s.Equal(true, reg["pre_registration_completed"])
	s.NotEmpty(reg["public_reference"])

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Require().Len(s.dumped, 1)
	s.Equal(map[string]any{"name": "Ada"}, s.dumped[0]["values"])
}

func (s *AppSuite) TestUnknownFormIsNotFound() {
	status, _ := s.call(http.MethodPost, "/submissions/", `{"form_id": "`+id.NewFormID().String()+`"}`)
	s.Equal(http.StatusNotFound, status)
}

func TestBuild_SeedsFormsFromDirectory(t *testing.T) {
	dir := t.TempDir()
	doc := `{
		"id": "6f0c1b9e-8a41-4c53-9d0e-2b7b0c1e5a10",
		"name": "seeded",
		"steps": [{"slug": "only", "configuration": {"components": [{"key": "a", "type": "textfield"}]}}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "seeded.json"), []byte(doc), 0o600))

	cfg := testConfig()
	cfg.Forms.Dir = dir
	a, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(a.Close)

	formID, err := id.ParseFormID("6f0c1b9e-8a41-4c53-9d0e-2b7b0c1e5a10")
	require.NoError(t, err)
	form, err := a.Forms.FindByID(context.Background(), formID)
	require.NoError(t, err)
	assert.Equal(t, "seeded", form.Name)
}

func TestBuild_RejectsInvalidFormDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"id": "x"}`), 0o600))

	cfg := testConfig()
	cfg.Forms.Dir = dir
	_, err := Build(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
