package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"formflow/internal/submissions/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	Base
	id string
}

func (p stubPlugin) Identifier() string                         { return p.id }
func (p stubPlugin) IsEnabled() bool                            { return true }
func (p stubPlugin) DecodeOptions(json.RawMessage) (any, error) { return nil, nil }
func (p stubPlugin) Register(context.Context, *models.Submission, any) (map[string]any, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(stubPlugin{id: "b"}))
	require.NoError(t, r.Register(stubPlugin{id: "a"}))

	err := r.Register(stubPlugin{id: "a"})
	assert.ErrorIs(t, err, ErrDuplicatePlugin)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrPluginNotFound)

	p, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", p.Identifier())
	assert.Equal(t, []string{"a", "b"}, r.Identifiers())
}

func TestBaseDefaults(t *testing.T) {
	p := stubPlugin{id: "x"}
	res, err := p.PreRegister(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Reference)
	assert.ErrorIs(t, p.VerifyInitialDataOwnership(context.Background(), nil, nil), ErrOwnershipUnsupported)
}

func TestRegistrationFailedError(t *testing.T) {
	cause := errors.New("503 from backend")
	err := Failed("booking %s failed", "A-1").WithCause(cause).WithResult(map[string]any{"appointment_id": "A-1"})

	assert.ErrorIs(t, err, ErrRegistrationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "booking A-1 failed: 503 from backend", err.Error())
}

func TestDecision(t *testing.T) {
	assert.False(t, Continue.Aborted())
	d := Abort(ReasonCosignRequired)
	assert.True(t, d.Aborted())
	assert.Equal(t, ReasonCosignRequired, d.Reason)
}

func TestTracebackIncludesCauses(t *testing.T) {
	err := Failed("rejected").WithCause(errors.New("bad zip"))
	tb := traceback(err, false)
	assert.Contains(t, tb, "rejected: bad zip")
	assert.Contains(t, tb, "caused by *errors.errorString: bad zip")

	_, perr := invoke(func() (int, error) { panic("boom") })
	require.Error(t, perr)
	assert.Contains(t, traceback(perr, false), "plugin panicked: boom")
	assert.Contains(t, traceback(perr, false), "goroutine")
}
