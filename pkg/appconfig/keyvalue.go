package appconfig

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	setRetries = 3

	// DefaultListTop is the number of key-values returned by list without --all or --top.
	DefaultListTop = 100
)

var setRetryInterval = time.Second

// SetArgs holds the arguments of kv set. Nil pointers keep the existing value.
type SetArgs struct {
	Key         string
	Label       string
	Value       *string
	ContentType *string
	Tags        map[string]string
}

// SetKeyValue creates or updates a key-value. Fields not given keep the stored values.
// Concurrent modifications are retried a few times before giving up.
func SetKeyValue(ctx context.Context, store Store, args SetArgs) (*KeyValue, error) {
	if err := ValidateKey(args.Key); err != nil {
		return nil, err
	}
	if args.Label == NullLabel {
		args.Label = ""
	}

	for i := 0; i < setRetries; i++ {
		kv := KeyValue{Key: args.Key, Label: args.Label, Tags: args.Tags}
		existing, err := store.Get(ctx, args.Key, args.Label)
		switch {
		case errors.IsCode(err, errors.ErrCodeResourceNotFound):
		case err != nil:
			return nil, err
		default:
			kv.Value = existing.Value
			kv.ContentType = existing.ContentType
			kv.ETag = existing.ETag
			if args.Tags == nil {
				kv.Tags = existing.Tags
			}
		}
		if args.Value != nil {
			kv.Value = *args.Value
		}
		if args.ContentType != nil {
			kv.ContentType = *args.ContentType
		}

		out, err := store.Set(ctx, kv)
		if err == nil {
			return out, nil
		}
		if statusOf(err) != http.StatusPreconditionFailed {
			return nil, err
		}
		slog.Debug("retrying set after concurrent modification", "key", args.Key, "attempt", i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(setRetryInterval):
		}
	}
	return nil, errors.Newf(errors.ErrCodeCLI, "Fail to set the key '%s' due to a conflicting operation.", args.Key)
}

// ShowKeyValue returns a single key-value.
func ShowKeyValue(ctx context.Context, store Store, key, label string) (*KeyValue, error) {
	kv, err := store.Get(ctx, key, label)
	if errors.IsCode(err, errors.ErrCodeResourceNotFound) {
		return nil, errors.New(errors.ErrCodeResourceNotFound, "The key-value does not exist.")
	}
	return kv, err
}

// ListKeyValues lists key-values matching the filters. top <= 0 means DefaultListTop and
// all returns every match. Every tag filter must match.
func ListKeyValues(ctx context.Context, store Store, keyFilter, labelFilter string, tagFilters []string, top int, all bool) ([]KeyValue, error) {
	if err := ValidateTagFilters(tagFilters); err != nil {
		return nil, err
	}
	kvs, err := store.List(ctx, keyFilter, labelFilter)
	if err != nil {
		return nil, err
	}
	if len(tagFilters) > 0 {
		matched := kvs[:0]
		for _, kv := range kvs {
			if matchTags(kv.Tags, tagFilters) {
				matched = append(matched, kv)
			}
		}
		kvs = matched
	}
	if all {
		return kvs, nil
	}
	if top <= 0 {
		top = DefaultListTop
	}
	if len(kvs) > top {
		kvs = kvs[:top]
	}
	return kvs, nil
}

// matchTags reports whether tags satisfy every name[=value] filter. A filter without "="
// only requires the tag to be present.
func matchTags(tags map[string]string, filters []string) bool {
	for _, f := range filters {
		if f == "" {
			continue
		}
		name, value, hasValue := strings.Cut(f, "=")
		got, ok := tags[name]
		if !ok || (hasValue && got != value) {
			return false
		}
	}
	return true
}

// DeleteKeyValues deletes every key-value matching key and label. Failures are collected;
// a partial success is logged and the deleted entries are returned.
func DeleteKeyValues(ctx context.Context, store Store, key, label string) ([]KeyValue, error) {
	if label == "" {
		label = NullLabel
	}
	entries, err := store.List(ctx, key, label)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCLI, "Deletion operation failed.", err)
	}

	var (
		deleted []KeyValue
		result  *multierror.Error
	)
	for _, entry := range entries {
		kv, err := store.Delete(ctx, entry.Key, entry.Label)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		deleted = append(deleted, *kv)
	}

	if err := result.ErrorOrNil(); err != nil {
		if len(deleted) == 0 {
			return nil, errors.Wrap(errors.ErrCodeCLI, "Deletion operation failed.", err)
		}
		slog.Error("Deletion operation partially succeed. Some keys are not successfully deleted.", "error", err)
	}
	return deleted, nil
}

func statusOf(err error) int {
	var se *errors.StructuredError
	if !stderrors.As(err, &se) || se.Context == nil {
		return 0
	}
	status, _ := se.Context["status"].(int)
	return status
}

func sortKeyValues(kvs []KeyValue) {
	sort.SliceStable(kvs, func(i, j int) bool {
		if kvs[i].Key != kvs[j].Key {
			return kvs[i].Key < kvs[j].Key
		}
		return kvs[i].Label < kvs[j].Label
	})
}
