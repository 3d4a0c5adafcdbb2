package appconfig

import (
	"context"
	"log/slog"

	"github.com/azctl/azctl/pkg/errors"
)

// FeatureArgs identifies a feature flag by name or key.
type FeatureArgs struct {
	Feature string
	Key     string
	Label   string
}

func (a FeatureArgs) resolve() (string, error) {
	if a.Key != "" {
		if err := ValidateFeatureKey(a.Key); err != nil {
			return "", err
		}
		return a.Key, nil
	}
	if err := ValidateFeatureName(a.Feature); err != nil {
		return "", err
	}
	return FeatureKey(a.Feature, ""), nil
}

// SetFeature creates a disabled feature flag, or updates the description of an existing
// one. Its state and filters are kept.
func SetFeature(ctx context.Context, store Store, args FeatureArgs, description *string) (*FeatureFlag, error) {
	key, err := args.resolve()
	if err != nil {
		return nil, err
	}

	value := FeatureFlagValue{ID: featureName(args, key)}
	var etag string
	existing, err := store.Get(ctx, key, args.Label)
	switch {
	case err == nil:
		flag, ferr := FeatureFlagFromKeyValue(*existing)
		if ferr != nil {
			return nil, ferr
		}
		value = flag.value()
		etag = existing.ETag
	case !isNotFoundCode(err):
		return nil, err
	}
	if description != nil {
		value.Description = *description
	}

	kv, err := value.ToKeyValue(key, args.Label)
	if err != nil {
		return nil, err
	}
	kv.ETag = etag
	stored, err := store.Set(ctx, kv)
	if err != nil {
		return nil, err
	}
	return FeatureFlagFromKeyValue(*stored)
}

// ShowFeature returns one feature flag.
func ShowFeature(ctx context.Context, store Store, args FeatureArgs) (*FeatureFlag, error) {
	key, err := args.resolve()
	if err != nil {
		return nil, err
	}
	kv, err := store.Get(ctx, key, args.Label)
	if err != nil {
		return nil, err
	}
	return FeatureFlagFromKeyValue(*kv)
}

// ListFeatures lists the feature flags whose name matches filter. Entries that cannot be
// decoded are skipped with a warning.
func ListFeatures(ctx context.Context, store Store, filter, label string, top int, all bool) ([]*FeatureFlag, error) {
	if filter == "" {
		filter = "*"
	}
	kvs, err := store.List(ctx, FeatureFlagPrefix+filter, label)
	if err != nil {
		return nil, err
	}

	flags := make([]*FeatureFlag, 0, len(kvs))
	for _, kv := range kvs {
		if !IsFeatureFlag(kv) {
			continue
		}
		flag, err := FeatureFlagFromKeyValue(kv)
		if err != nil {
			slog.Warn("skipping feature flag that could not be decoded", "key", kv.Key, "error", err)
			continue
		}
		flags = append(flags, flag)
	}

	if !all {
		if top <= 0 {
			top = DefaultListTop
		}
		if len(flags) > top {
			flags = flags[:top]
		}
	}
	return flags, nil
}

// SetFeatureState turns a feature flag on or off. Client filters are kept, so enabling a
// flag with filters makes it conditional.
func SetFeatureState(ctx context.Context, store Store, args FeatureArgs, enabled bool) (*FeatureFlag, error) {
	key, err := args.resolve()
	if err != nil {
		return nil, err
	}
	existing, err := store.Get(ctx, key, args.Label)
	if err != nil {
		return nil, err
	}
	flag, err := FeatureFlagFromKeyValue(*existing)
	if err != nil {
		return nil, err
	}

	value := flag.value()
	value.Enabled = enabled
	kv, err := value.ToKeyValue(key, args.Label)
	if err != nil {
		return nil, err
	}
	kv.ETag = existing.ETag
	stored, err := store.Set(ctx, kv)
	if err != nil {
		return nil, err
	}
	return FeatureFlagFromKeyValue(*stored)
}

// DeleteFeatures deletes the feature flags matching args and returns them.
func DeleteFeatures(ctx context.Context, store Store, args FeatureArgs) ([]*FeatureFlag, error) {
	key := args.Key
	if key == "" {
		key = FeatureKey(args.Feature, "")
	}
	kvs, err := DeleteKeyValues(ctx, store, key, args.Label)
	if err != nil {
		return nil, err
	}
	flags := make([]*FeatureFlag, 0, len(kvs))
	for _, kv := range kvs {
		flag, err := FeatureFlagFromKeyValue(kv)
		if err != nil {
			slog.Warn("deleted key-value is not a valid feature flag", "key", kv.Key, "error", err)
			continue
		}
		flags = append(flags, flag)
	}
	return flags, nil
}

func featureName(args FeatureArgs, key string) string {
	if args.Feature != "" {
		return args.Feature
	}
	return key[len(FeatureFlagPrefix):]
}

func isNotFoundCode(err error) bool {
	return errors.IsCode(err, errors.ErrCodeResourceNotFound)
}
