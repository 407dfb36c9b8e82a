// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
)

func TestFileStateRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	repo := NewFileStateRepository(path)
	assert.True(t, repo.IsReady())

	_, err := repo.LoadState(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	want := samplePersistedState()
	require.NoError(t, repo.SaveState(ctx, want))

	got, err := repo.LoadState(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"zoom_users"`)
	assert.Contains(t, string(raw), `"version": "1.2.3"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileStateRepository_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{\"state\":"), 0o600))

	_, err := NewFileStateRepository(path).LoadState(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.ErrorTypeInternal, domain.GetErrorType(err))
}

func TestFileStateRepository_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "state.json")
	assert.Error(t, NewFileStateRepository(path).SaveState(ctx, samplePersistedState()))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestNewFileStateRepository_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultStateFile, NewFileStateRepository("").Path())
}
