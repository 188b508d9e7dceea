// internal/infra/sheets/notification_repository.go
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"tracker_notification_bot/internal/domain/notification"
	"tracker_notification_bot/internal/domain/schedule"
)

// Fixed column order of the notifications sheet. This package is the only
// place the order is known; everything above it works with named Record
// fields.
const (
	colID = iota
	colKind
	colRelatedID
	colTitle
	colSchedule
	colStatus
	colCreatedAt
	colUpdatedAt
	colNextNotifyAt
	columnCount
)

const (
	recordsSheet = "notifications"
	// Row 1 is the header; data starts at row 2.
	recordsRange   = recordsSheet + "!A2:I"
	firstDataRow   = 2
	cellTimeLayout = time.RFC3339
)

// NotificationRepository persists notification records in the remote
// spreadsheet through the resilient Client. It implements
// notification.Repository.
type NotificationRepository struct {
	client *Client
	log    *logrus.Logger
	now    func() time.Time
}

func NewNotificationRepository(client *Client, log *logrus.Logger) *NotificationRepository {
	return &NotificationRepository{client: client, log: log, now: time.Now}
}

// storedRow pairs a decoded record with the sheet row it came from, so
// updates can address the row again.
type storedRow struct {
	sheetRow int
	rec      *notification.Record
}

// Create upserts rec by (kind, related id): an existing row is overwritten in
// place keeping its ID and creation time, otherwise a new row is appended
// with the next monotonic ID. Either way it is a single remote write, so a
// failed create leaves no partial record behind.
func (r *NotificationRepository) Create(ctx context.Context, rec *notification.Record) error {
	rows, err := r.loadRows(ctx)
	if err != nil {
		return fmt.Errorf("error loading rows for create: %w", err)
	}

	now := r.now()
	var maxID int64
	for _, row := range rows {
		if row.rec.ID > maxID {
			maxID = row.rec.ID
		}
		if row.rec.Kind == rec.Kind && row.rec.RelatedID == rec.RelatedID {
			rec.ID = row.rec.ID
			rec.CreatedAt = row.rec.CreatedAt
			rec.UpdatedAt = now
			if _, err := r.client.UpdateRow(ctx, rowRange(row.sheetRow), recordToRow(rec)); err != nil {
				return fmt.Errorf("error overwriting record for related ID %d: %w", rec.RelatedID, err)
			}
			return nil
		}
	}

	rec.ID = maxID + 1
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if _, err := r.client.AppendRow(ctx, recordsRange, recordToRow(rec)); err != nil {
		return fmt.Errorf("error appending record for related ID %d: %w", rec.RelatedID, err)
	}
	return nil
}

// GetByRelatedID returns the unique record for (kind, relatedID), or
// ErrRecordNotFound.
func (r *NotificationRepository) GetByRelatedID(ctx context.Context, kind notification.Kind, relatedID int64) (*notification.Record, error) {
	rows, err := r.loadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading rows for lookup: %w", err)
	}
	for _, row := range rows {
		if row.rec.Kind == kind && row.rec.RelatedID == relatedID {
			return row.rec, nil
		}
	}
	return nil, ErrRecordNotFound
}

// Update rewrites the row holding rec.ID. Returns ErrRecordNotFound when no
// row carries that ID.
func (r *NotificationRepository) Update(ctx context.Context, rec *notification.Record) error {
	rows, err := r.loadRows(ctx)
	if err != nil {
		return fmt.Errorf("error loading rows for update: %w", err)
	}
	for _, row := range rows {
		if row.rec.ID == rec.ID {
			if _, err := r.client.UpdateRow(ctx, rowRange(row.sheetRow), recordToRow(rec)); err != nil {
				return fmt.Errorf("error updating record %d: %w", rec.ID, err)
			}
			return nil
		}
	}
	return ErrRecordNotFound
}

// List returns every decodable record. Malformed rows are logged and skipped
// so a single bad row cannot break a scan.
func (r *NotificationRepository) List(ctx context.Context) ([]*notification.Record, error) {
	rows, err := r.loadRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("error loading rows for list: %w", err)
	}
	recs := make([]*notification.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, row.rec)
	}
	return recs, nil
}

func (r *NotificationRepository) loadRows(ctx context.Context) ([]storedRow, error) {
	raw, err := r.client.ReadRows(ctx, recordsRange)
	if err != nil {
		return nil, err
	}
	rows := make([]storedRow, 0, len(raw))
	for i, cells := range raw {
		sheetRow := firstDataRow + i
		rec, err := rowToRecord(cells)
		if err != nil {
			r.log.Warnf("Skipping malformed row %d in %s: %v", sheetRow, recordsSheet, err)
			continue
		}
		rows = append(rows, storedRow{sheetRow: sheetRow, rec: rec})
	}
	return rows, nil
}

func rowRange(sheetRow int) string {
	return fmt.Sprintf("%s!A%d:I%d", recordsSheet, sheetRow, sheetRow)
}

func recordToRow(rec *notification.Record) []interface{} {
	scheduleJSON, err := json.Marshal(rec.Schedule)
	if err != nil {
		// A Descriptor has no unmarshalable fields; this cannot happen with
		// values produced by the parser.
		scheduleJSON = []byte("{}")
	}
	nextNotify := ""
	if rec.NextNotifyAt != nil {
		nextNotify = rec.NextNotifyAt.Format(cellTimeLayout)
	}
	return []interface{}{
		strconv.FormatInt(rec.ID, 10),
		string(rec.Kind),
		strconv.FormatInt(rec.RelatedID, 10),
		rec.Title,
		string(scheduleJSON),
		string(rec.Status),
		rec.CreatedAt.Format(cellTimeLayout),
		rec.UpdatedAt.Format(cellTimeLayout),
		nextNotify,
	}
}

func rowToRecord(cells []interface{}) (*notification.Record, error) {
	// The remote values API omits trailing empty cells, so a row whose
	// next-notification cell is blank comes back one cell short. Pad those
	// back; only rows missing the mandatory leading cells are malformed.
	if len(cells) < colNextNotifyAt {
		return nil, fmt.Errorf("row has %d cells, want at least %d", len(cells), colNextNotifyAt)
	}
	for len(cells) < columnCount {
		cells = append(cells, "")
	}

	id, err := strconv.ParseInt(cellString(cells[colID]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad record ID %q: %w", cellString(cells[colID]), err)
	}
	relatedID, err := strconv.ParseInt(cellString(cells[colRelatedID]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad related ID %q: %w", cellString(cells[colRelatedID]), err)
	}

	var sched schedule.Descriptor
	if err := json.Unmarshal([]byte(cellString(cells[colSchedule])), &sched); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSchedule, err)
	}

	createdAt, err := time.Parse(cellTimeLayout, cellString(cells[colCreatedAt]))
	if err != nil {
		return nil, fmt.Errorf("bad created-at cell: %w", err)
	}
	updatedAt, err := time.Parse(cellTimeLayout, cellString(cells[colUpdatedAt]))
	if err != nil {
		return nil, fmt.Errorf("bad updated-at cell: %w", err)
	}

	var nextNotifyAt *time.Time
	if raw := cellString(cells[colNextNotifyAt]); raw != "" {
		t, err := time.Parse(cellTimeLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("bad next-notification cell: %w", err)
		}
		nextNotifyAt = &t
	}

	return &notification.Record{
		ID:           id,
		Kind:         notification.Kind(cellString(cells[colKind])),
		RelatedID:    relatedID,
		Title:        cellString(cells[colTitle]),
		Schedule:     sched,
		Status:       notification.Status(cellString(cells[colStatus])),
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
		NextNotifyAt: nextNotifyAt,
	}, nil
}

func cellString(cell interface{}) string {
	if s, ok := cell.(string); ok {
		return s
	}
	return fmt.Sprint(cell)
}
