// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-zoom-presence-bot/internal/logging"
)

// DefaultStateFile is used when no state path is configured.
const DefaultStateFile = "state.json"

// FileStateRepository persists the state envelope as one JSON file. Writes go to a
// temporary file in the same directory that is renamed over the target, so a crash
// never leaves a half-written state behind.
type FileStateRepository struct {
	path string
}

// Ensure FileStateRepository implements domain.StateRepository
var _ domain.StateRepository = (*FileStateRepository)(nil)

// NewFileStateRepository creates a repository backed by path
func NewFileStateRepository(path string) *FileStateRepository {
	if path == "" {
		path = DefaultStateFile
	}
	return &FileStateRepository{path: path}
}

// Path returns the file the repository reads and writes
func (r *FileStateRepository) Path() string {
	return r.path
}

// IsReady implements domain.StateRepository
func (r *FileStateRepository) IsReady() bool {
	return r.path != ""
}

// LoadState implements domain.StateRepository
func (r *FileStateRepository) LoadState(ctx context.Context) (*models.PersistedState, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("state file %s does not exist", r.path), err)
		}
		return nil, domain.NewInternalError(fmt.Sprintf("failed to read state file %s", r.path), err)
	}

	var state models.PersistedState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.ErrorContext(ctx, "state file is corrupt", "path", r.path, logging.ErrKey, err)
		return nil, domain.NewInternalError(fmt.Sprintf("failed to decode state file %s", r.path), err)
	}
	return &state, nil
}

// SaveState implements domain.StateRepository
func (r *FileStateRepository) SaveState(ctx context.Context, state *models.PersistedState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return domain.NewInternalError("failed to marshal state", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to create state directory %s", dir), err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return domain.NewInternalError("failed to create temporary state file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return domain.NewInternalError("failed to write temporary state file", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return domain.NewInternalError("failed to sync temporary state file", err)
	}
	if err := tmp.Close(); err != nil {
		return domain.NewInternalError("failed to close temporary state file", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to replace state file %s", r.path), err)
	}

	slog.DebugContext(ctx, "state saved", "path", r.path, "bytes", len(data))
	return nil
}
