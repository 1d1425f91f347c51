package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/notesync/internal/merge"
)

func TestRunIfNeeded_FirstRun_PerformsSync(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addNote(t, "n1", "u1", "hello", 10)

	decision, outcome, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, SyncPerformed, decision)
	require.NotNil(t, outcome)
	assert.Equal(t, StateSuccess, outcome.State)
}

func TestRunIfNeeded_NothingChanged_SkipsWithZeroRemoteCalls(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addNote(t, "n1", "u1", "hello", 10)

	_, _, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)

	before := make(map[string]int, len(e.remote.Calls))
	for op, n := range e.remote.Calls {
		before[op] = n
	}

	decision, outcome, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, AlreadyInSync, decision)
	assert.Nil(t, outcome)
	assert.Equal(t, before, e.remote.Calls)
}

func TestRunIfNeeded_LocalEdit_TriggersFullPass(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addNote(t, "n1", "u1", "v1", 10)
	_, _, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)

	e.addNote(t, "n1", "u1", "v2", 20)

	decision, outcome, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, SyncPerformed, decision)
	require.NotNil(t, outcome)
	assert.Equal(t, StateSuccess, outcome.State)

	// The fresh pass persisted matching fingerprints, so the next trigger
	// skips again.
	decision, _, err = e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, AlreadyInSync, decision)
}

func TestRunIfNeeded_SchemaVersionMismatch_ForcesFullPass(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addNote(t, "n1", "u1", "hello", 10)
	_, _, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)

	_, err = e.repos.DB.ExecContext(ctx,
		`update sync_metadata set schema_version=0 where owner_id='u1'`)
	require.NoError(t, err)

	decision, _, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, SyncPerformed, decision)
}

func TestRunIfNeeded_FailedPass_PropagatesOutcome(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.remote.FailAuth = true

	decision, outcome, err := e.inc.RunIfNeeded(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, SyncPerformed, decision)
	require.NotNil(t, outcome)
	assert.Equal(t, StateError, outcome.State)
	require.Error(t, outcome.Err)
}
