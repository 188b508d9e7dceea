// internal/infra/sheets/client.go
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Custom errors specific to the remote tabular store.
var (
	ErrStoreUnavailable  = errors.New("remote store unavailable")
	ErrRecordNotFound    = errors.New("notification record not found")
	ErrMalformedSchedule = errors.New("stored schedule descriptor is malformed")
)

const (
	defaultCallTimeout    = 10 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryMaxDelay  = 8 * time.Second
)

// Config holds the connection and resilience settings for the Client.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string        // path to a Google service-account JSON key
	CallTimeout     time.Duration // per remote call, before any retry
	MaxRetries      int           // retry attempts after the first failure
	RetryBaseDelay  time.Duration // first backoff delay, doubled per attempt
	RetryMaxDelay   time.Duration // backoff cap
}

// rowAPI is the seam between the resilience layer and the concrete
// spreadsheet transport.
type rowAPI interface {
	read(ctx context.Context, readRange string) ([][]interface{}, error)
	append(ctx context.Context, writeRange string, row []interface{}) (string, error)
	update(ctx context.Context, writeRange string, row []interface{}) (string, error)
}

// Client wraps every remote read/write with a per-call timeout and bounded
// exponential-backoff retries. It is the only component that talks to the
// network.
//
// When constructed without usable credentials the client runs in degraded
// mode: reads return empty row sets and writes return locally synthesized
// placeholder identifiers, so everything above it keeps running store-less
// instead of crashing.
type Client struct {
	api   rowAPI // nil in degraded mode
	cfg   Config
	log   *logrus.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client for the configured spreadsheet. Missing or
// unreadable credentials are not an error; they produce a degraded client.
func NewClient(ctx context.Context, cfg Config, log *logrus.Logger) *Client {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultRetryBaseDelay
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = defaultRetryMaxDelay
	}

	c := &Client{cfg: cfg, log: log, sleep: sleepContext}

	if cfg.SpreadsheetID == "" || cfg.CredentialsFile == "" {
		log.Warn("Sheets client starting in degraded mode: no spreadsheet or credentials configured. Reads are empty, writes are placeholders.")
		return c
	}

	api, err := newValuesAPI(ctx, cfg)
	if err != nil {
		log.Warnf("Sheets client starting in degraded mode: %v", err)
		return c
	}
	c.api = api
	log.Infof("Sheets client connected to spreadsheet %s.", cfg.SpreadsheetID)
	return c
}

// Degraded reports whether the client has no remote backend.
func (c *Client) Degraded() bool {
	return c.api == nil
}

// ReadRows fetches all rows in readRange. In degraded mode it returns an
// empty result and no error.
func (c *Client) ReadRows(ctx context.Context, readRange string) ([][]interface{}, error) {
	if c.api == nil {
		c.log.Debugf("Degraded read of %s: returning no rows.", readRange)
		return nil, nil
	}
	var rows [][]interface{}
	err := c.withRetry(ctx, "read "+readRange, func(callCtx context.Context) error {
		var err error
		rows, err = c.api.read(callCtx, readRange)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendRow appends one row after the last row of writeRange and returns the
// identifier of the written range. In degraded mode it returns a placeholder
// identifier.
func (c *Client) AppendRow(ctx context.Context, writeRange string, row []interface{}) (string, error) {
	if c.api == nil {
		id := "degraded:" + uuid.NewString()
		c.log.Debugf("Degraded append to %s: returning placeholder %s.", writeRange, id)
		return id, nil
	}
	var written string
	err := c.withRetry(ctx, "append "+writeRange, func(callCtx context.Context) error {
		var err error
		written, err = c.api.append(callCtx, writeRange, row)
		return err
	})
	if err != nil {
		return "", err
	}
	return written, nil
}

// UpdateRow overwrites writeRange with one row and returns the identifier of
// the written range. A single call writes one contiguous range; callers that
// touch several ranges get no cross-range atomicity; each range lands as its
// own remote update. In degraded mode it returns a placeholder identifier.
func (c *Client) UpdateRow(ctx context.Context, writeRange string, row []interface{}) (string, error) {
	if c.api == nil {
		id := "degraded:" + uuid.NewString()
		c.log.Debugf("Degraded update of %s: returning placeholder %s.", writeRange, id)
		return id, nil
	}
	var written string
	err := c.withRetry(ctx, "update "+writeRange, func(callCtx context.Context) error {
		var err error
		written, err = c.api.update(callCtx, writeRange, row)
		return err
	})
	if err != nil {
		return "", err
	}
	return written, nil
}

// withRetry runs fn with a per-call timeout, retrying up to MaxRetries times
// with exponential backoff. The final error is wrapped with the operation and
// attempt count.
func (c *Client) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := c.cfg.MaxRetries + 1
	delay := c.cfg.RetryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout)
		lastErr = fn(callCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}
		c.log.Warnf("Store call failed (%s), attempt %d/%d, retrying in %s: %v", op, attempt, attempts, delay, lastErr)
		if err := c.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%w: %s cancelled during retry backoff: %w", ErrStoreUnavailable, op, err)
		}
		delay *= 2
		if delay > c.cfg.RetryMaxDelay {
			delay = c.cfg.RetryMaxDelay
		}
	}
	return fmt.Errorf("%w: %s failed after %d attempts: %w", ErrStoreUnavailable, op, attempts, lastErr)
}

// sleepContext waits for d, giving up early when ctx is cancelled so a
// cancelled caller is not held through the remaining retry budget.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// valuesAPI is the real transport over the Google Sheets values API.
type valuesAPI struct {
	svc           *sheets.Service
	spreadsheetID string
}

func newValuesAPI(ctx context.Context, cfg Config) (*valuesAPI, error) {
	data, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to build sheets service: %w", err)
	}
	return &valuesAPI{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

func (a *valuesAPI) read(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := a.svc.Spreadsheets.Values.Get(a.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *valuesAPI) append(ctx context.Context, writeRange string, row []interface{}) (string, error) {
	body := &sheets.ValueRange{Values: [][]interface{}{row}}
	resp, err := a.svc.Spreadsheets.Values.Append(a.spreadsheetID, writeRange, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	if resp.Updates != nil {
		return resp.Updates.UpdatedRange, nil
	}
	return writeRange, nil
}

func (a *valuesAPI) update(ctx context.Context, writeRange string, row []interface{}) (string, error) {
	body := &sheets.ValueRange{Values: [][]interface{}{row}}
	resp, err := a.svc.Spreadsheets.Values.Update(a.spreadsheetID, writeRange, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return resp.UpdatedRange, nil
}
