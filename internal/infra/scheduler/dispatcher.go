// internal/infra/scheduler/dispatcher.go
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"tracker_notification_bot/internal/app"
	"tracker_notification_bot/internal/domain/notification"
)

const tickTimeout = 5 * time.Minute

// Dispatcher is the polling scheduler: on a fixed interval it scans for due
// notification records, fires delivery for each one and advances its next
// occurrence. It is an explicit two-state machine (stopped/running) whose
// only mutators are Start and Stop.
//
// Delivery is at-least-once: when a delivery succeeds but the advance write
// fails, the record stays due and is re-delivered on a later tick.
type Dispatcher struct {
	cronEngine *cron.Cron
	notifSvc   app.NotificationService
	deliverer  notification.Deliverer
	logger     *logrus.Logger
	cronSpec   string // e.g. "0 * * * *" for an hourly scan
	clock      func() time.Time

	mu      sync.Mutex
	running bool
	entryID cron.EntryID

	// tickMu serializes ticks; a tick that finds the previous one still in
	// flight is skipped, not queued.
	tickMu sync.Mutex
}

func NewDispatcher(
	notifSvc app.NotificationService,
	deliverer notification.Deliverer,
	logger *logrus.Logger,
	cronSpec string,
	loc *time.Location,
) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	return &Dispatcher{
		cronEngine: cron.New(cron.WithLocation(loc)),
		notifSvc:   notifSvc,
		deliverer:  deliverer,
		logger:     logger,
		cronSpec:   cronSpec,
		clock:      time.Now,
	}
}

// Start transitions the dispatcher to running: one immediate scan-and-fire
// pass, then a repeating cron entry. Calling Start on a running dispatcher is
// a logged no-op.
func (d *Dispatcher) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		d.logger.Warn("Dispatcher start requested, but it is already running.")
		return nil
	}

	entryID, err := d.cronEngine.AddFunc(d.cronSpec, d.Tick)
	if err != nil {
		return err
	}
	d.entryID = entryID
	d.running = true

	// First pass right away so a restart does not wait a full interval.
	go d.Tick()

	d.cronEngine.Start()
	d.logger.Infof("Dispatcher started, scanning on spec %q.", d.cronSpec)
	return nil
}

// Stop cancels future ticks and waits for an in-flight tick to finish.
// In-flight deliveries are allowed to complete. Idempotent.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.cronEngine.Remove(d.entryID)
	stopCtx := d.cronEngine.Stop()
	<-stopCtx.Done()
	d.running = false
	d.logger.Info("Dispatcher stopped.")
}

// Running reports whether the dispatcher is in the running state.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Tick performs one scan-and-fire pass. Due records are processed
// concurrently and independently; one record's failure never blocks the
// others or kills the polling loop.
func (d *Dispatcher) Tick() {
	if !d.tickMu.TryLock() {
		d.logger.Warn("Previous dispatcher tick still in flight, skipping this one.")
		return
	}
	defer d.tickMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	tickID := uuid.NewString()
	now := d.clock()
	log := d.logger.WithField("tick", tickID)

	due, err := d.notifSvc.ListDue(ctx, now)
	if err != nil {
		log.Errorf("Failed to scan for due records: %v", err)
		return
	}
	if len(due) == 0 {
		log.Debug("No records due.")
		return
	}
	log.Infof("Found %d due record(s).", len(due))

	var wg sync.WaitGroup
	for _, rec := range due {
		wg.Add(1)
		go func(rec *notification.Record) {
			defer wg.Done()
			d.processRecord(ctx, log, rec)
		}(rec)
	}
	wg.Wait()
}

// processRecord delivers one due record and, only after a successful
// delivery, advances its next occurrence. On any failure the record's next
// occurrence is left untouched so a later tick retries it.
func (d *Dispatcher) processRecord(ctx context.Context, log *logrus.Entry, rec *notification.Record) {
	if err := d.deliverer.DeliverDue(ctx, rec); err != nil {
		log.Errorf("Delivery failed for record %d (%s), will retry next tick: %v", rec.ID, rec.Title, err)
		return
	}
	if err := d.notifSvc.Advance(ctx, rec); err != nil {
		// Delivery already happened; the record stays due and may be
		// re-delivered. Accepted at-least-once behavior.
		log.Errorf("Failed to advance record %d after delivery: %v", rec.ID, err)
		return
	}
	log.Infof("Record %d (%s) delivered and advanced.", rec.ID, rec.Title)
}
