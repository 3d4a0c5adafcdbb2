/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/defaults"
	"github.com/azctl/azctl/pkg/errors"
)

func TestRunBatch_KeepsOrder(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	out, err := runBatch(context.Background(), ids, func(_ context.Context, id string) (string, error) {
		return strings.ToUpper(id), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F", "G"}, out)
}

func TestRunBatch_BoundedConcurrency(t *testing.T) {
	var running, peak int32
	ids := make([]string, 20)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	_, err := runBatch(context.Background(), ids, func(_ context.Context, _ string) (struct{}, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, int(peak), defaults.BatchConcurrency)
}

func TestRunBatch_CollectsEveryFailure(t *testing.T) {
	tests := []struct {
		name     string
		fail     map[string]errors.ErrorCode
		wantOut  []string
		wantCode errors.ErrorCode
	}{
		{
			name:     "same code",
			fail:     map[string]errors.ErrorCode{"b": errors.ErrCodeResourceNotFound, "d": errors.ErrCodeResourceNotFound},
			wantOut:  []string{"a", "c"},
			wantCode: errors.ErrCodeResourceNotFound,
		},
		{
			name:     "mixed codes",
			fail:     map[string]errors.ErrorCode{"a": errors.ErrCodeUnauthorized, "c": errors.ErrCodeResourceNotFound},
			wantOut:  []string{"b", "d"},
			wantCode: errors.ErrCodeCLI,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runBatch(context.Background(), []string{"a", "b", "c", "d"}, func(_ context.Context, id string) (string, error) {
				if code, ok := tt.fail[id]; ok {
					return "", errors.New(code, "failed "+id)
				}
				return id, nil
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantOut, out)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.Contains(t, errors.Message(err), "2 of 4 operations failed")
			for id := range tt.fail {
				assert.Contains(t, errors.Message(err), "failed "+id)
			}
		})
	}
}
