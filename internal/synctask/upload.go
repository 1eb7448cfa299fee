package synctask

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/reportkeeper/internal/client/rpc"
	"github.com/dmitrijs2005/reportkeeper/internal/outcome"
	"github.com/sethvargo/go-retry"
)

// upload performs one uploadBulletin call. Unavailable-server failures are
// retried with exponential backoff; anything else fails immediately.
func (r *Runner) upload(ctx context.Context, c rpc.Client, name string, data []byte) (*outcome.Response, error) {
	base := r.backoff
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.WithMaxRetries(r.retries, retry.NewExponential(base))

	var resp *outcome.Response
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		var err error
		resp, err = c.Execute(ctx, rpc.CmdUploadBulletin, []any{name, data})
		if errors.Is(err, rpc.ErrUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
	return resp, err
}
