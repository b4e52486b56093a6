package ingest

import (
	"context"
	"time"

	"github.com/AngelCh415/adinsights/internal/utils"
)

// backoff exponencial + jitter
var fetchBackoff = utils.NewBackoff(100*time.Millisecond, 2).WithJitter(150 * time.Millisecond)

// GetJSONWithRetry decodes url into dst, retrying transport errors and
// 5xx/429 answers. Other failures are returned after the first attempt.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, url string, dst any) error {
	return fetchBackoff.Do(ctx, func(int) error {
		err := getJSON(ctx, c, url, dst)
		if err != nil && !retryable(err) {
			return utils.Permanent(err)
		}
		return err
	})
}
