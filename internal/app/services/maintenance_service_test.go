package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tustunkok/pc-link/internal/app/models"
)

func TestRecalculateAllReplaysInUploadOrder(t *testing.T) {
	f := newUploadFixture(t, models.PolicyRecencyWins)
	ctx := withUser(f.owner)

	_, err := f.svc.Upload(ctx, uploadOf(fall, validSheet))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, uploadOf(spring, "student_id,name,PO1,PO2\n44629785700,Ada,0,1\n"))
	require.NoError(t, err)

	// results that no stored file backs
	f.results.values[resultKey{alan, ce101, poOne, fall}] = 1

	svc := NewMaintenanceService(f.files, f.results, f.svc)
	resp, err := svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Files)
	assert.Zero(t, resp.Failed)
	assert.Equal(t, int64(3), resp.RemovedResults)
	assert.Equal(t, 4, resp.Created)

	_, ok := f.results.get(alan, ce101, poOne, fall)
	assert.False(t, ok)
	_, ok = f.results.get(ada, ce101, poOne, fall)
	assert.False(t, ok, "the later semester supersedes the earlier one on replay too")
	v, ok := f.results.get(ada, ce101, poTwo, spring)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRecalculateAllSkipsUnreadableFiles(t *testing.T) {
	f := newUploadFixture(t, models.PolicyRecencyWins)
	ctx := withUser(f.owner)

	broken, err := f.svc.Upload(ctx, uploadOf(fall, validSheet))
	require.NoError(t, err)
	_, err = f.svc.Upload(withUser(f.other), uploadOf(spring, validSheet))
	require.NoError(t, err)

	record, err := f.files.GetByID(ctx, broken.FileID)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(f.root, filepath.FromSlash(record.FilePath))))

	svc := NewMaintenanceService(f.files, f.results, f.svc)
	resp, err := svc.RecalculateAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Files)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, 2, resp.Created)
	_, ok := f.results.get(ada, ce101, poOne, spring)
	assert.True(t, ok)
}

func TestRecalculateAllStopsOnCancel(t *testing.T) {
	f := newUploadFixture(t, models.PolicyRecencyWins)
	_, err := f.svc.Upload(withUser(f.owner), uploadOf(fall, validSheet))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewMaintenanceService(f.files, f.results, f.svc).RecalculateAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
