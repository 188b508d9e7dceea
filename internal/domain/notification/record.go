// internal/domain/notification/record.go
package notification

import (
	"time"

	"tracker_notification_bot/internal/domain/schedule"
)

// Kind identifies the notification domain a record belongs to. There is
// currently a single domain: reminders to update a tracked entity.
type Kind string

const KindEntityUpdate Kind = "ENTITY_UPDATE"

// Status is the lifecycle state of a record. Records are created INACTIVE
// alongside their entity and flipped ACTIVE when the entity enters an
// in-progress tracking state.
type Status string

const (
	StatusInactive Status = "INACTIVE"
	StatusActive   Status = "ACTIVE"
)

// Record is one persisted notification schedule, at most one per
// (kind, related entity). NextNotifyAt is nil for schedules that never fire
// (irregular, completed); otherwise it is strictly in the future except in
// the window between coming due and being processed by the dispatcher.
type Record struct {
	ID           int64
	Kind         Kind
	RelatedID    int64 // identifier of the tracked entity this record belongs to
	Title        string
	Schedule     schedule.Descriptor
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextNotifyAt *time.Time
}

// IsDue reports whether the record should fire at now: active, with a
// non-nil next-notification timestamp at or before now.
func (r *Record) IsDue(now time.Time) bool {
	return r.Status == StatusActive && r.NextNotifyAt != nil && !r.NextNotifyAt.After(now)
}
