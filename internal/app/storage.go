package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/klabast/wb-services/treatment-calendar/internal/program"
)

// storedSnapshot is the on-disk envelope. Program is kept verbatim.
type storedSnapshot struct {
	ID         uuid.UUID       `json:"id"`
	AcceptedAt time.Time       `json:"accepted_at"`
	Program    json.RawMessage `json:"program"`
}

func encodeSnapshot(snap *program.Snapshot) ([]byte, error) {
	return json.MarshalIndent(storedSnapshot{
		ID:         snap.ID,
		AcceptedAt: snap.AcceptedAt,
		Program:    snap.Raw,
	}, "", "  ")
}

func decodeSnapshot(data []byte) (*program.Snapshot, error) {
	var stored storedSnapshot
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	p, err := program.ParseProgram(stored.Program)
	if err != nil {
		return nil, err
	}
	return &program.Snapshot{
		ID:         stored.ID,
		Program:    p,
		Raw:        []byte(stored.Program),
		AcceptedAt: stored.AcceptedAt,
	}, nil
}

// FilePersister stores the snapshot as a JSON file. The previous file is
// moved into the backup directory before the new one is renamed into place.
type FilePersister struct {
	path   string
	logger *zap.Logger
}

// NewFilePersister returns a persister writing to path.
func NewFilePersister(path string, logger *zap.Logger) *FilePersister {
	return &FilePersister{path: path, logger: logger}
}

// Load reads the snapshot file.
func (f *FilePersister) Load(ctx context.Context) (*program.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	return decodeSnapshot(data)
}

// Save writes the snapshot through a temp file and keeps a timestamped
// backup of the file it replaces.
func (f *FilePersister) Save(ctx context.Context, snap *program.Snapshot) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpFile := f.path + TmpSuffix
	if err := os.WriteFile(tmpFile, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if _, err := os.Stat(f.path); err == nil {
		if err := f.backup(); err != nil {
			f.logger.Warn("Failed to create backup", zap.Error(err))
		}
	}

	if err := os.Rename(tmpFile, f.path); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func (f *FilePersister) backup() error {
	backupDirPath := filepath.Join(filepath.Dir(f.path), BackupDir)
	if err := os.MkdirAll(backupDirPath, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), filepath.Base(f.path), BackupSuffix)
	backupFile := filepath.Join(backupDirPath, name)
	if err := os.Rename(f.path, backupFile); err != nil {
		return err
	}
	f.logger.Debug("Backup created", zap.String("file", backupFile))
	return nil
}

// Close is a no-op; files are not held open.
func (f *FilePersister) Close() error { return nil }

// NewPersister builds the persister for the configured storage driver. The
// memory driver returns nil.
func NewPersister(cfg *Config, logger *zap.Logger) (Persister, error) {
	switch cfg.Storage.Driver {
	case StorageMemory:
		return nil, nil
	case StorageFile:
		return NewFilePersister(cfg.StoragePath(), logger), nil
	case StorageSQLite:
		p, err := OpenSQLitePersister(cfg.StoragePath())
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
