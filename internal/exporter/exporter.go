// Package exporter renders table snapshots to CSV and optionally uploads
// them to object storage.
package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/koustreak/DatEd/internal/editor"
	"github.com/koustreak/DatEd/internal/errs"
	"github.com/koustreak/DatEd/internal/filestore"
	"github.com/koustreak/DatEd/internal/logger"
)

// presignTTL is how long an export download link stays valid.
const presignTTL = 15 * time.Minute

// Exporter renders tables to CSV. When a filestore.Store is attached the
// rendered snapshot can be uploaded and shared via a presigned URL.
type Exporter struct {
	svc    *editor.Service
	store  filestore.Store
	bucket string
	log    *logger.Logger
}

// New returns an Exporter. store may be nil, in which case CanUpload
// reports false and Upload returns an error.
func New(svc *editor.Service, store filestore.Store, bucket string, log *logger.Logger) *Exporter {
	return &Exporter{svc: svc, store: store, bucket: bucket, log: log}
}

// Snapshot is a CSV rendering of a table at a point in time.
type Snapshot struct {
	Table    string
	Filename string
	Data     []byte
	Rows     int
}

// UploadResult is the receipt for an uploaded snapshot.
type UploadResult struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	URL    string `json:"url"`
	Rows   int    `json:"rows"`
}

// CanUpload reports whether an object store is attached.
func (e *Exporter) CanUpload() bool {
	return e.store != nil
}

// Render fetches every row of table and renders it as CSV. The header row
// is the table's column order as reported by the catalog.
func (e *Exporter) Render(ctx context.Context, table string) (*Snapshot, error) {
	data, err := e.svc.FetchAllRows(ctx, table)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(data.Columns); err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "failed to write csv header", err)
	}

	record := make([]string, len(data.Columns))
	for _, row := range data.Rows {
		for i, col := range data.Columns {
			record[i] = formatValue(row[col])
		}
		if err := w.Write(record); err != nil {
			return nil, errs.Wrap(errs.ErrKindUnknown, "failed to write csv record", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "failed to flush csv", err)
	}

	stamp := time.Now().UTC().Format("20060102T150405Z")
	return &Snapshot{
		Table:    table,
		Filename: fmt.Sprintf("%s-%s.csv", table, stamp),
		Data:     buf.Bytes(),
		Rows:     len(data.Rows),
	}, nil
}

// Upload pushes snap to the attached object store and returns a presigned
// download URL for it.
func (e *Exporter) Upload(ctx context.Context, snap *Snapshot) (*UploadResult, error) {
	if e.store == nil {
		return nil, errs.New(errs.ErrKindUnknown, "no object store configured")
	}

	if err := e.store.EnsureBucket(ctx, e.bucket); err != nil {
		return nil, err
	}

	info, err := e.store.PutObject(ctx, e.bucket, snap.Filename,
		bytes.NewReader(snap.Data), int64(len(snap.Data)), "text/csv")
	if err != nil {
		return nil, err
	}

	url, err := e.store.PresignGetURL(ctx, info.Bucket, info.Key, presignTTL)
	if err != nil {
		return nil, err
	}

	e.log.With().
		Str("table", snap.Table).
		Str("bucket", info.Bucket).
		Str("key", info.Key).
		Int("rows", snap.Rows).
		Logger().Info("table exported")

	return &UploadResult{
		Bucket: info.Bucket,
		Key:    info.Key,
		URL:    url,
		Rows:   snap.Rows,
	}, nil
}

// formatValue renders a scanned cell for CSV output.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}
