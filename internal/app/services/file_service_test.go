package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/auth"
	"github.com/tustunkok/pc-link/internal/app/models"
	"github.com/tustunkok/pc-link/internal/app/models/dto"
	"github.com/tustunkok/pc-link/internal/pkg/apperrors"
	"github.com/tustunkok/pc-link/internal/pkg/filestorage"
	"github.com/tustunkok/pc-link/internal/pkg/locker"
)

type fileFixture struct {
	*uploadFixture
	fileSvc FileService
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()
	u := newUploadFixture(t, models.PolicyRecencyWins)
	storage, err := filestorage.NewLocalStorage(u.root)
	require.NoError(t, err)
	return &fileFixture{
		uploadFixture: u,
		fileSvc:       NewFileService(u.files, auth.NewAuthorizationService(u.users), storage, locker.NewMemory()),
	}
}

func TestListFilesScopesToOwner(t *testing.T) {
	f := newFileFixture(t)

	_, err := f.svc.Upload(withUser(f.owner), uploadOf(fall, validSheet))
	require.NoError(t, err)
	_, err = f.svc.Upload(withUser(f.other), uploadOf(spring, validSheet))
	require.NoError(t, err)

	own, err := f.fileSvc.ListFiles(withUser(f.owner), 1, 10)
	require.NoError(t, err)
	assert.Len(t, own.Items, 1)
	assert.Equal(t, int64(1), own.Pagination.TotalItems)

	all, err := f.fileSvc.ListFiles(withUser(f.admin), 1, 10)
	require.NoError(t, err)
	items := all.Items.([]dto.FileResponse)
	require.Len(t, items, 2)
	assert.Greater(t, items[0].ID, items[1].ID, "newest first")
}

func TestDeleteFileRemovesArtifactAndResults(t *testing.T) {
	f := newFileFixture(t)
	ctx := withUser(f.owner)

	up, err := f.svc.Upload(ctx, uploadOf(fall, validSheet))
	require.NoError(t, err)
	f.files.resultsRemoved = 2

	_, err = f.fileSvc.DeleteFile(withUser(f.other), up.FileID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	resp, err := f.fileSvc.DeleteFile(ctx, up.FileID)
	require.NoError(t, err)
	assert.Equal(t, up.FileID, resp.FileID)
	assert.Equal(t, int64(2), resp.RemovedResults)
	assert.Empty(t, f.files.byID)
	assert.Empty(t, storedFiles(t, f.root))

	_, err = f.fileSvc.DeleteFile(ctx, up.FileID)
	assert.ErrorIs(t, err, apperrors.ErrOutcomeFileNotFound)
}

func TestDeleteFileOnlyKeepsResults(t *testing.T) {
	f := newFileFixture(t)

	up, err := f.svc.Upload(withUser(f.owner), uploadOf(fall, validSheet))
	require.NoError(t, err)

	require.NoError(t, f.fileSvc.DeleteFileOnly(withUser(f.admin), up.FileID))
	assert.Empty(t, f.files.byID)
	assert.Empty(t, storedFiles(t, f.root))

	_, ok := f.results.get(ada, ce101, poOne, fall)
	assert.True(t, ok)
}
