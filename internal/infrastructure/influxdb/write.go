package influxdb

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	ihttp "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/jpillora/backoff"

	"github.com/avojak/pihole-influxdb/internal/metrics"
)

// Retry policy for transient write failures. Three attempts keeps the worst
// case well inside one polling interval.
const maxWriteAttempts = 3

// WritePoints writes one tick's batch of points in a single call.
//
// Transient failures (network errors, timeouts, HTTP 429/5xx) are retried up
// to maxWriteAttempts with exponential backoff. Permanent failures (auth
// rejected, malformed batch — any other 4xx) are returned immediately wrapped
// in ErrWriteFailed; the caller drops the batch and proceeds to the next
// tick. A rejected batch is never split into a valid/invalid partition.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - points: The normalized points for this tick; an empty batch is a no-op
//
// Returns:
//   - error: nil when the whole batch was accepted
func (c *Client) WritePoints(ctx context.Context, points []metrics.Point) error {
	if len(points) == 0 {
		return nil
	}

	converted := make([]*write.Point, len(points))
	for i, p := range points {
		converted[i] = write.NewPoint(p.Measurement, p.Tags, p.Fields, p.Timestamp)
	}

	retry := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = c.writeAPI.WritePoint(ctx, converted...)
		if err == nil {
			return nil
		}
		if !isTransient(err) {
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
		if attempt == maxWriteAttempts {
			break
		}

		select {
		case <-time.After(retry.Duration()):
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrWriteFailed, ctx.Err())
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrWriteFailed, maxWriteAttempts, err)
}

// isTransient reports whether a write error is worth retrying within the
// tick. Server-side 5xx and 429 responses, network errors and timeouts are
// transient; any other 4xx (bad token, malformed line) is permanent.
func isTransient(err error) bool {
	var httpErr *ihttp.Error
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == 429 || httpErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}
