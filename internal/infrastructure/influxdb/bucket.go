package influxdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	ihttp "github.com/influxdata/influxdb-client-go/v2/api/http"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

// createdBucketRetentionSeconds is the retention applied to buckets the
// monitor creates itself: 7 days. Pre-existing buckets are never modified.
const createdBucketRetentionSeconds = 604800

// EnsureBucket verifies that the target bucket exists.
//
// When the bucket is absent and create_bucket is enabled, it is created with
// a 7-day expiry retention rule. When the bucket is absent and create_bucket
// is disabled, ErrBucketNotFound is returned so startup can fail before any
// polling begins. A pre-existing bucket is left untouched and no create call
// is issued.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil when the bucket exists (or was created)
func (c *Client) EnsureBucket(ctx context.Context) error {
	bucketsAPI := c.client.BucketsAPI()

	bucket, err := bucketsAPI.FindBucketByName(ctx, c.cfg.Bucket)
	if err == nil && bucket != nil {
		return nil
	}

	// Genuine absence surfaces as a plain "not found" error (or an HTTP
	// 404); transport and server failures carry an *ihttp.Error and must
	// not be mistaken for a missing bucket.
	var svcErr *ihttp.Error
	if errors.As(err, &svcErr) && svcErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("looking up bucket %q: %w", c.cfg.Bucket, err)
	}

	if !c.cfg.CreateBucket {
		return fmt.Errorf("%w: %q (enable create_bucket or create it manually)", ErrBucketNotFound, c.cfg.Bucket)
	}

	org, err := c.client.OrganizationsAPI().FindOrganizationByName(ctx, c.cfg.Org)
	if err != nil {
		return fmt.Errorf("looking up organization %q: %w", c.cfg.Org, err)
	}

	retentionType := domain.RetentionRuleTypeExpire
	_, err = bucketsAPI.CreateBucketWithName(ctx, org, c.cfg.Bucket, domain.RetentionRule{
		Type:         &retentionType,
		EverySeconds: createdBucketRetentionSeconds,
	})
	if err != nil {
		return fmt.Errorf("creating bucket %q: %w", c.cfg.Bucket, err)
	}

	return nil
}
