// Package poller waits for long-running Azure operations.
package poller

import (
	"context"
	stderrors "errors"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/azctl/azctl/pkg/errors"
)

// Check reports whether the operation is finished. A non-nil error stops polling.
type Check func(ctx context.Context) (done bool, err error)

// Until calls check immediately and then every interval until it reports done, returns
// an error, timeout elapses or ctx is cancelled. A zero timeout waits on ctx only.
func Until(ctx context.Context, interval, timeout time.Duration, check Check) error {
	var checkErr error
	condition := func(ctx context.Context) (bool, error) {
		done, err := check(ctx)
		if err != nil {
			checkErr = err
		}
		return done, err
	}

	var err error
	if timeout > 0 {
		err = wait.PollUntilContextTimeout(ctx, interval, timeout, true, condition)
	} else {
		err = wait.PollUntilContextCancel(ctx, interval, true, condition)
	}
	if err == nil {
		return nil
	}
	if checkErr != nil {
		return checkErr
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if wait.Interrupted(err) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, "timed out waiting for the operation to complete", err)
	}
	return err
}
