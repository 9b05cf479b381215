package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/focussync/internal/client/client"
	"github.com/dmitrijs2005/focussync/internal/client/models"
	"github.com/dmitrijs2005/focussync/internal/netx"
)

// Snapshotter is the part of the replica a backup needs.
type Snapshotter interface {
	Export() models.Snapshot
	Restore(ctx context.Context, snap models.Snapshot) error
}

// BackupService moves the raw snapshot to and from object storage through
// presigned URLs issued by the server. One object per user; a new upload
// replaces the previous one.
type BackupService struct {
	client client.Client
	data   Snapshotter
	http   *http.Client
}

func NewBackupService(c client.Client, data Snapshotter, hc *http.Client) *BackupService {
	return &BackupService{client: c, data: data, http: hc}
}

// Upload stores the current snapshot, tombstones included, and returns the
// number of records written.
func (b *BackupService) Upload(ctx context.Context) (int, error) {
	snap := b.data.Export()
	body, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("encode snapshot: %w", err)
	}

	url, err := b.client.PresignBackupPut(ctx)
	if err != nil {
		return 0, fmt.Errorf("presign upload: %w", err)
	}
	if err := netx.UploadToPresignedURL(ctx, b.http, url, body); err != nil {
		return 0, fmt.Errorf("upload snapshot: %w", err)
	}
	return len(snap.Tasks) + len(snap.Habits), nil
}

// Download fetches the stored snapshot without applying it.
func (b *BackupService) Download(ctx context.Context) (models.Snapshot, error) {
	url, err := b.client.PresignBackupGet(ctx)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("presign download: %w", err)
	}
	body, err := netx.DownloadFromPresignedURL(ctx, b.http, url)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("download snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// RestoreLatest downloads the stored snapshot and overwrites local data
// with it.
func (b *BackupService) RestoreLatest(ctx context.Context) (int, error) {
	snap, err := b.Download(ctx)
	if err != nil {
		return 0, err
	}
	if err := b.data.Restore(ctx, snap); err != nil {
		return 0, fmt.Errorf("restore snapshot: %w", err)
	}
	return len(snap.Tasks) + len(snap.Habits), nil
}
