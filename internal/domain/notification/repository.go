// internal/domain/notification/repository.go
package notification

import (
	"context"
)

// Repository defines persistence operations for notification Records.
//
// Implementations back onto the remote tabular store; the schedule descriptor
// is serialized to JSON at this boundary and nowhere else.
type Repository interface {
	// Create persists rec and assigns its ID, CreatedAt and UpdatedAt. When a
	// record for the same (kind, related id) already exists, that row is
	// overwritten instead of a duplicate being appended.
	Create(ctx context.Context, rec *Record) error

	// GetByRelatedID returns the unique record for the given kind and related
	// entity, or ErrRecordNotFound from the implementing package.
	GetByRelatedID(ctx context.Context, kind Kind, relatedID int64) (*Record, error)

	// Update persists rec's mutable fields (status, next-notification,
	// updated-at) for the row identified by rec.ID.
	Update(ctx context.Context, rec *Record) error

	// List returns every well-formed record. Rows whose stored schedule fails
	// to decode are skipped and logged, never surfaced as errors, so one bad
	// row cannot poison a scan.
	List(ctx context.Context) ([]*Record, error)
}

// Deliverer is the delivery sink for due records. The subsystem does not own
// presentation; implementations decide how a due record is rendered and where
// it is sent.
type Deliverer interface {
	DeliverDue(ctx context.Context, rec *Record) error
}
