package worker

import (
	"context"
	"testing"
	"time"

	id "formflow/pkg/domain"
	audit "formflow/pkg/platform/audit"
	auditmemory "formflow/pkg/platform/audit/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerDrainsUntilInboxCloses(t *testing.T) {
	store := auditmemory.NewInMemoryStore()
	inbox := make(chan audit.Event, 2)
	subID := id.NewSubmissionID()
	inbox <- audit.Event{SubmissionID: subID, Action: "registration_start", Timestamp: time.Now()}
	inbox <- audit.Event{SubmissionID: subID, Action: "registration_success", Timestamp: time.Now()}
	close(inbox)

	require.NoError(t, NewWorker(store, inbox, nil).Run(context.Background()))
	assert.Equal(t, []string{"registration_start", "registration_success"}, store.Actions(subID))
}

func TestWorkerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewWorker(auditmemory.NewInMemoryStore(), make(chan audit.Event), nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
