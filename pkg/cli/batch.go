/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
)

// runBatch calls fn for every id with bounded concurrency. Results keep the order of
// ids; failed entries are left out. Every failure is reported, not just the first.
func runBatch[T any](ctx context.Context, ids []string, fn func(ctx context.Context, id string) (T, error)) ([]T, error) {
	results := make([]T, len(ids))
	ok := make([]bool, len(ids))

	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaults.BatchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			res, err := fn(gctx, id)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, errors.Wrap(errors.CodeOf(err), id, err))
				mu.Unlock()
				return nil
			}
			results[i] = res
			ok[i] = true
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, len(ids))
	for i := range results {
		if ok[i] {
			out = append(out, results[i])
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return out, errors.Wrap(batchCode(errs.Errors), fmt.Sprintf("%d of %d operations failed", len(errs.Errors), len(ids)), err)
	}
	return out, nil
}

// batchCode is the code shared by all errs, or CLI when they differ.
func batchCode(errs []error) errors.ErrorCode {
	code := errors.CodeOf(errs[0])
	for _, err := range errs[1:] {
		if errors.CodeOf(err) != code {
			return errors.ErrCodeCLI
		}
	}
	return code
}
