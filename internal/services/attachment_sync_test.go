package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillnotes/notesync/internal/blobstore"
	"github.com/quillnotes/notesync/internal/common"
	"github.com/quillnotes/notesync/internal/hashx"
	"github.com/quillnotes/notesync/internal/merge"
	"github.com/quillnotes/notesync/internal/models"
)

func (e *testEnv) addPendingAttachment(t *testing.T, id string, payload []byte) *models.Attachment {
	t.Helper()
	ctx := context.Background()

	path, err := e.content.Write(payload)
	require.NoError(t, err)

	a := &models.Attachment{
		ID:          id,
		NoteID:      "n1",
		OwnerID:     "u1",
		FileName:    id + ".png",
		MimeType:    "image/png",
		Size:        int64(len(payload)),
		LocalPath:   path,
		ContentHash: hashx.Sum(payload),
		SyncStatus:  models.AttachmentPending,
		NeedsUpload: true,
		CreatedAt:   1,
		ModifiedAt:  2,
	}
	require.NoError(t, e.repos.Attachments.Upsert(ctx, a))
	return a
}

func TestUploadPhase_UploadsPendingAndMarksSynced(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addPendingAttachment(t, "a1", []byte("payload one"))
	e.addPendingAttachment(t, "a2", []byte("payload two"))

	result := e.coord.UploadPhase(ctx, "u1")
	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, result.Errors)

	got, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentSynced, got.SyncStatus)
	assert.False(t, got.NeedsUpload)
	assert.NotEmpty(t, got.RemoteID)

	infos, err := e.remote.ListAttachments(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestUploadPhase_NothingPending_NoRemoteCalls(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)

	result := e.coord.UploadPhase(context.Background(), "u1")
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Errors)
	assert.Zero(t, e.remote.Calls["UploadAttachment"])
}

func TestUploadPhase_MissingFile_TombstonedNotUploaded(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	a := &models.Attachment{
		ID: "a1", NoteID: "n1", OwnerID: "u1", FileName: "gone.png",
		LocalPath:   filepath.Join(t.TempDir(), "does-not-exist"),
		SyncStatus:  models.AttachmentPending,
		NeedsUpload: true,
		CreatedAt:   1, ModifiedAt: 2,
	}
	require.NoError(t, e.repos.Attachments.Upsert(ctx, a))

	result := e.coord.UploadPhase(ctx, "u1")
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Errors)
	assert.Zero(t, e.remote.Calls["UploadAttachment"])

	got, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentLocallyDeleted, got.SyncStatus)
	assert.False(t, got.NeedsUpload)

	deleted, err := e.tracker.IsDeleted(ctx, models.TableAttachments, "a1", "u1")
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestUploadPhase_FailedUpload_RetriedOnNextPass(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	e.addPendingAttachment(t, "a1", []byte("one"))
	e.addPendingAttachment(t, "a2", []byte("two"))

	e.remote.FailUpload = true
	result := e.coord.UploadPhase(ctx, "u1")
	assert.Equal(t, 0, result.Succeeded)
	// One failed file never aborts the batch: both items were attempted.
	assert.Len(t, result.Errors, 2)

	got, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.NeedsUpload)
	assert.Equal(t, 1, got.RetryCount)

	e.remote.FailUpload = false
	result = e.coord.UploadPhase(ctx, "u1")
	assert.Equal(t, 2, result.Succeeded)
	assert.Empty(t, result.Errors)
}

func TestUploadPhase_HashDrift_ReconciledAndUploaded(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	payload := []byte("actual bytes")
	a := e.addPendingAttachment(t, "a1", payload)
	require.NoError(t, e.repos.Attachments.UpdateContentHash(ctx, a.ID, "stale-hash"))

	result := e.coord.UploadPhase(ctx, "u1")
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Errors)

	got, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, hashx.Sum(payload), got.ContentHash)
	assert.Equal(t, models.AttachmentSynced, got.SyncStatus)
}

func seedRemoteAttachment(t *testing.T, e *testEnv, id string, payload []byte, declaredHash string) {
	t.Helper()
	_, err := e.remote.UploadAttachment(context.Background(), "u1", payload, blobstore.AttachmentInfo{
		ID:          id,
		NoteID:      "n1",
		FileName:    id + ".png",
		MimeType:    "image/png",
		Size:        int64(len(payload)),
		ContentHash: declaredHash,
	})
	require.NoError(t, err)
}

func TestDownloadPhase_PullsNewAttachments(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	payload := []byte("remote payload")
	seedRemoteAttachment(t, e, "a1", payload, hashx.Sum(payload))

	result := e.coord.DownloadPhase(ctx, "u1")
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Errors)

	got, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.AttachmentSynced, got.SyncStatus)
	assert.False(t, got.NeedsUpload)

	data, err := e.content.Read(got.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadPhase_SecondPass_NothingToDo(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	payload := []byte("once only")
	seedRemoteAttachment(t, e, "a1", payload, hashx.Sum(payload))

	first := e.coord.DownloadPhase(ctx, "u1")
	require.Equal(t, 1, first.Succeeded)

	second := e.coord.DownloadPhase(ctx, "u1")
	assert.Equal(t, 0, second.Succeeded)
	assert.Empty(t, second.Errors)
	assert.Equal(t, 1, e.remote.Calls["DownloadAttachment"])
}

func TestDownloadPhase_TombstonedAttachment_NeverRecreated(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	payload := []byte("deleted here")
	seedRemoteAttachment(t, e, "a1", payload, hashx.Sum(payload))
	_, err := e.tracker.RecordDeletion(ctx, models.TableAttachments, "a1", "u1")
	require.NoError(t, err)

	result := e.coord.DownloadPhase(ctx, "u1")
	assert.Equal(t, 0, result.Succeeded)
	assert.Empty(t, result.Errors)

	_, err = e.repos.Attachments.GetByID(ctx, "a1")
	require.ErrorIs(t, err, common.ErrorNotFound)

	// The deletion propagated: the remote copy is gone too.
	infos, err := e.remote.ListAttachments(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func TestDownloadPhase_HashMismatch_RejectsPayload(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	seedRemoteAttachment(t, e, "a1", []byte("real bytes"), "declared-but-wrong")

	result := e.coord.DownloadPhase(ctx, "u1")
	assert.Equal(t, 0, result.Succeeded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "hash mismatch")

	_, err := e.repos.Attachments.GetByID(ctx, "a1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestConflictPhase_ReportsWithoutFailing(t *testing.T) {
	e := newTestEnv(t, merge.KeepNewer)
	ctx := context.Background()

	require.NoError(t, e.repos.Attachments.Upsert(ctx, &models.Attachment{
		ID: "a1", NoteID: "n1", OwnerID: "u1", FileName: "f.png",
		SyncStatus: models.AttachmentConflict, CreatedAt: 1, ModifiedAt: 2}))

	result := e.coord.ConflictPhase(ctx, "u1")
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Errors)
}
