package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/kolp/internal/common"
	"github.com/dmitrijs2005/kolp/internal/container"
	"github.com/dmitrijs2005/kolp/internal/events"
	"github.com/dmitrijs2005/kolp/internal/filex"
	"github.com/dmitrijs2005/kolp/internal/logging"
	"github.com/dmitrijs2005/kolp/internal/models"
)

const localCopyName = "latest" + common.BackupFileExt

// UploadResult is the outcome of SyncUpload.
type UploadResult struct {
	Success bool
	FileID  string
	Name    string
	Error   string
}

// DownloadResult is the outcome of SyncDownload.
type DownloadResult struct {
	Success   bool
	Snapshot  *models.Snapshot
	Timestamp time.Time
	Error     string
}

// BackupService converts snapshots to containers and moves them between
// disk and the remote store.
type BackupService interface {
	Encode(ctx context.Context, s *models.Snapshot) ([]byte, error)
	Decode(ctx context.Context, b []byte) (*container.Backup, error)
	Export(ctx context.Context, s *models.Snapshot, path string) error
	Import(ctx context.Context, path string) (*container.Backup, error)
	SyncUpload(ctx context.Context, s *models.Snapshot) UploadResult
	SyncDownload(ctx context.Context) DownloadResult
	History(ctx context.Context, limit int) ([]models.HistoryEntry, error)
	LocalCopyPath() string
}

type backupService struct {
	backupDir string
	tokens    TokenProvider
	remote    RemoteStore
	journal   Journal
	bus       *events.Bus
	logger    logging.Logger
	now       func() time.Time
}

func NewBackupService(backupDir string, tokens TokenProvider, remote RemoteStore, journal Journal, bus *events.Bus, logger logging.Logger) BackupService {
	return &backupService{
		backupDir: backupDir,
		tokens:    tokens,
		remote:    remote,
		journal:   journal,
		bus:       bus,
		logger:    logger.With("module", "backup"),
		now:       time.Now,
	}
}

func (s *backupService) LocalCopyPath() string {
	return filepath.Join(s.backupDir, localCopyName)
}

func (s *backupService) Encode(_ context.Context, snap *models.Snapshot) ([]byte, error) {
	return container.EncodeAt(snap, s.now())
}

func (s *backupService) Decode(_ context.Context, b []byte) (*container.Backup, error) {
	return container.Decode(b)
}

// Export writes snap as a container at path.
func (s *backupService) Export(ctx context.Context, snap *models.Snapshot, path string) error {
	op := s.begin(ctx, models.OpExport)

	data, err := container.EncodeAt(snap, op.StartedAt)
	if err == nil {
		err = filex.WriteFileAtomic(path, data, 0o600)
	}
	if err != nil {
		s.fail(ctx, op, err)
		return err
	}

	op.Name = filepath.Base(path)
	op.Size = int64(len(data))
	op.Checksum = container.Checksum(data[container.HeaderSize:])
	s.succeed(ctx, op)
	return nil
}

// Import reads and validates the container at path.
func (s *backupService) Import(ctx context.Context, path string) (*container.Backup, error) {
	op := s.begin(ctx, models.OpImport)
	op.Name = filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read %s: %w", path, err)
		s.fail(ctx, op, err)
		return nil, err
	}

	b, err := container.Decode(data)
	if err != nil {
		s.fail(ctx, op, err)
		return nil, err
	}

	op.Size = int64(len(data))
	op.Checksum = b.Checksum
	s.succeed(ctx, op)
	return b, nil
}

// SyncUpload keeps exactly one remote backup: the local copy is written
// first, then any existing remote object is removed before the new one is
// uploaded. Steps run strictly in that order.
func (s *backupService) SyncUpload(ctx context.Context, snap *models.Snapshot) UploadResult {
	op := s.begin(ctx, models.OpUpload)

	data, err := container.EncodeAt(snap, op.StartedAt)
	if err != nil {
		return UploadResult{Error: s.fail(ctx, op, err)}
	}
	op.Size = int64(len(data))
	op.Checksum = container.Checksum(data[container.HeaderSize:])

	if err := filex.WriteFileAtomic(s.LocalCopyPath(), data, 0o600); err != nil {
		return UploadResult{Error: s.fail(ctx, op, fmt.Errorf("write local copy: %w", err))}
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return UploadResult{Error: s.fail(ctx, op, err)}
	}

	existing, found, err := s.remote.FindLatest(ctx, token)
	if err != nil {
		return UploadResult{Error: s.fail(ctx, op, err)}
	}
	if found {
		if err := s.remote.Delete(ctx, token, existing); err != nil {
			return UploadResult{Error: s.fail(ctx, op, err)}
		}
		s.logger.Debug(ctx, "previous backup removed", "file_id", existing)
	}

	op.Name = fmt.Sprintf("%s_%d%s", common.BackupNameMarker, op.StartedAt.UnixMilli(), common.BackupFileExt)
	id, err := s.remote.Upload(ctx, token, data, op.Name)
	if err != nil {
		return UploadResult{Error: s.fail(ctx, op, err)}
	}
	op.FileID = id

	s.succeed(ctx, op)
	return UploadResult{Success: true, FileID: id, Name: op.Name}
}

// SyncDownload fetches the newest remote backup. The local copy is replaced
// only after the downloaded bytes decode cleanly.
func (s *backupService) SyncDownload(ctx context.Context) DownloadResult {
	op := s.begin(ctx, models.OpDownload)

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return DownloadResult{Error: s.fail(ctx, op, err)}
	}

	id, found, err := s.remote.FindLatest(ctx, token)
	if err != nil {
		return DownloadResult{Error: s.fail(ctx, op, err)}
	}
	if !found {
		return DownloadResult{Error: s.fail(ctx, op, ErrNoBackup)}
	}
	op.FileID = id

	data, err := s.remote.Download(ctx, token, id)
	if err != nil {
		return DownloadResult{Error: s.fail(ctx, op, err)}
	}
	op.Size = int64(len(data))

	b, err := container.Decode(data)
	if err != nil {
		return DownloadResult{Error: s.fail(ctx, op, err)}
	}
	op.Checksum = b.Checksum

	if err := filex.WriteFileAtomic(s.LocalCopyPath(), data, 0o600); err != nil {
		return DownloadResult{Error: s.fail(ctx, op, fmt.Errorf("write local copy: %w", err))}
	}

	s.succeed(ctx, op)
	return DownloadResult{Success: true, Snapshot: &b.Data, Timestamp: b.Timestamp}
}

func (s *backupService) History(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	return s.journal.List(ctx, limit)
}

func (s *backupService) begin(ctx context.Context, kind string) *models.HistoryEntry {
	op := &models.HistoryEntry{
		ID:        uuid.NewString(),
		Op:        kind,
		StartedAt: s.now(),
	}
	s.logger.Info(ctx, "operation started", "op", kind, "op_id", op.ID)
	s.bus.Publish(events.New(events.KindSyncStarted, "op", kind, "op_id", op.ID))
	return op
}

func (s *backupService) succeed(ctx context.Context, op *models.HistoryEntry) {
	op.Status = models.StatusOK
	op.FinishedAt = s.now()
	s.record(ctx, op)

	s.logger.Info(ctx, "operation finished", "op", op.Op, "op_id", op.ID, "file_id", op.FileID, "size", op.Size)
	s.bus.Publish(events.New(events.KindSyncFinished,
		"op", op.Op, "op_id", op.ID, "file_id", op.FileID, "name", op.Name, "checksum", op.Checksum))
}

// fail journals and publishes err and returns the user-facing message.
func (s *backupService) fail(ctx context.Context, op *models.HistoryEntry, err error) string {
	msg := Message(err)
	op.Status = models.StatusFailed
	op.Error = msg
	op.FinishedAt = s.now()
	s.record(ctx, op)

	s.logger.Error(ctx, "operation failed", "op", op.Op, "op_id", op.ID, "error", err)
	s.bus.Publish(events.New(events.KindSyncFailed, "op", op.Op, "op_id", op.ID, "error", msg))
	return msg
}

func (s *backupService) record(ctx context.Context, op *models.HistoryEntry) {
	if err := s.journal.Record(ctx, op); err != nil {
		s.logger.Warn(ctx, "cannot write sync journal", "op_id", op.ID, "error", err)
	}
}
