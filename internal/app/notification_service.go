// internal/app/notification_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"tracker_notification_bot/internal/domain/notification"
	"tracker_notification_bot/internal/domain/schedule"
	isheets "tracker_notification_bot/internal/infra/sheets"
)

// NotificationService owns the lifecycle of notification records: creation at
// entity-creation time, activation when an entity enters tracking, the due
// scan the dispatcher runs each tick, and drift-free advancement after a
// delivery.
type NotificationService interface {
	// Create computes the initial next occurrence from now and persists an
	// INACTIVE record for the entity. Upserts by related ID: at most one
	// record ever exists per tracked entity. Store errors are surfaced to the
	// caller, which decides whether to retry the whole user action.
	Create(ctx context.Context, relatedID int64, title string, sched schedule.Descriptor) (int64, error)

	// Activate flips the entity's record to ACTIVE and recomputes its next
	// occurrence from now, so a late activation does not fire for a day that
	// already passed. Returns false when the entity has no record. Calling it
	// on an already-active record is a no-op returning true.
	Activate(ctx context.Context, relatedID int64) (bool, error)

	// Deactivate flips the entity's record back to INACTIVE. Returns false
	// when the entity has no record; idempotent otherwise.
	Deactivate(ctx context.Context, relatedID int64) (bool, error)

	// ListDue returns every ACTIVE record whose next occurrence is at or
	// before now. Rows with undecodable schedules never appear here.
	ListDue(ctx context.Context, now time.Time) ([]*notification.Record, error)

	// Advance moves rec's next occurrence forward from its current value, not
	// from the wall clock, so repeated delivery delays never accumulate
	// drift.
	Advance(ctx context.Context, rec *notification.Record) error
}

// NotificationServiceImpl implements NotificationService over a record
// repository and the occurrence calculator.
type NotificationServiceImpl struct {
	repo   notification.Repository
	calc   *schedule.Calculator
	logger *logrus.Logger
	clock  func() time.Time
}

func NewNotificationService(repo notification.Repository, calc *schedule.Calculator, logger *logrus.Logger) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		repo:   repo,
		calc:   calc,
		logger: logger,
		clock:  time.Now,
	}
}

func (s *NotificationServiceImpl) Create(ctx context.Context, relatedID int64, title string, sched schedule.Descriptor) (int64, error) {
	now := s.clock()
	rec := &notification.Record{
		Kind:      notification.KindEntityUpdate,
		RelatedID: relatedID,
		Title:     title,
		Schedule:  sched,
		Status:    notification.StatusInactive,
	}
	if next, ok := s.calc.Next(sched, now); ok {
		rec.NextNotifyAt = &next
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Errorf("Failed to create notification record for related ID %d: %v", relatedID, err)
		return 0, fmt.Errorf("failed to create notification record: %w", err)
	}
	s.logger.Infof("Notification record %d created for related ID %d (%s), next occurrence: %s.",
		rec.ID, relatedID, sched, formatNext(rec.NextNotifyAt))
	return rec.ID, nil
}

func (s *NotificationServiceImpl) Activate(ctx context.Context, relatedID int64) (bool, error) {
	rec, err := s.repo.GetByRelatedID(ctx, notification.KindEntityUpdate, relatedID)
	if err != nil {
		if errors.Is(err, isheets.ErrRecordNotFound) {
			s.logger.Warnf("Activate requested for related ID %d, but no record exists.", relatedID)
			return false, nil
		}
		return false, fmt.Errorf("failed to load record for activation: %w", err)
	}
	if rec.Status == notification.StatusActive {
		s.logger.Debugf("Record %d for related ID %d is already active.", rec.ID, relatedID)
		return true, nil
	}

	now := s.clock()
	rec.Status = notification.StatusActive
	rec.UpdatedAt = now
	rec.NextNotifyAt = nil
	if next, ok := s.calc.Next(rec.Schedule, now); ok {
		rec.NextNotifyAt = &next
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to activate record %d: %w", rec.ID, err)
	}
	s.logger.Infof("Record %d for related ID %d activated, next occurrence: %s.",
		rec.ID, relatedID, formatNext(rec.NextNotifyAt))
	return true, nil
}

func (s *NotificationServiceImpl) Deactivate(ctx context.Context, relatedID int64) (bool, error) {
	rec, err := s.repo.GetByRelatedID(ctx, notification.KindEntityUpdate, relatedID)
	if err != nil {
		if errors.Is(err, isheets.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load record for deactivation: %w", err)
	}
	if rec.Status == notification.StatusInactive {
		return true, nil
	}

	rec.Status = notification.StatusInactive
	rec.UpdatedAt = s.clock()
	if err := s.repo.Update(ctx, rec); err != nil {
		return false, fmt.Errorf("failed to deactivate record %d: %w", rec.ID, err)
	}
	s.logger.Infof("Record %d for related ID %d deactivated.", rec.ID, relatedID)
	return true, nil
}

func (s *NotificationServiceImpl) ListDue(ctx context.Context, now time.Time) ([]*notification.Record, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification records: %w", err)
	}
	due := make([]*notification.Record, 0)
	for _, rec := range recs {
		if rec.IsDue(now) {
			due = append(due, rec)
		}
	}
	return due, nil
}

func (s *NotificationServiceImpl) Advance(ctx context.Context, rec *notification.Record) error {
	if rec.NextNotifyAt == nil {
		return fmt.Errorf("record %d has no next occurrence to advance from", rec.ID)
	}

	// Advance from the stored occurrence, not the wall clock: a record fired
	// late still lands on its regular grid.
	next, ok := s.calc.Next(rec.Schedule, *rec.NextNotifyAt)
	if ok {
		rec.NextNotifyAt = &next
	} else {
		rec.NextNotifyAt = nil
	}
	rec.UpdatedAt = s.clock()

	if err := s.repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("failed to advance record %d: %w", rec.ID, err)
	}
	s.logger.Infof("Record %d advanced, next occurrence: %s.", rec.ID, formatNext(rec.NextNotifyAt))
	return nil
}

func formatNext(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(time.RFC3339)
}
