package appconfig

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/azctl/azctl/pkg/errors"
)

// File formats accepted by import and export.
const (
	FormatJSON       = "json"
	FormatYAML       = "yaml"
	FormatProperties = "properties"
)

const featureManagementKey = "FeatureManagement"

// ChangeSet describes what an import writes to the store.
type ChangeSet struct {
	Added   []KeyValue `json:"added" yaml:"added"`
	Updated []KeyValue `json:"updated" yaml:"updated"`
	Deleted []KeyValue `json:"deleted" yaml:"deleted"`
	Applied bool       `json:"applied" yaml:"applied"`
}

// Empty reports whether the change set has nothing to write.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// ImportOptions configures ImportFile.
type ImportOptions struct {
	Args ImportArgs
	// DryRun computes the change set without writing it.
	DryRun bool
	// Confirm is asked before writing a non-empty change set. Nil means yes.
	Confirm func(*ChangeSet) (bool, error)
}

// ImportFile imports key-values and feature flags from a JSON, YAML or properties file.
func ImportFile(ctx context.Context, store Store, opts ImportOptions) (*ChangeSet, error) {
	args := opts.Args
	if args.Source == "" {
		args.Source = SourceFile
	}
	if err := validateImportArgs(args); err != nil {
		return nil, err
	}
	depth, err := ValidateImportDepth(args.Depth)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(args.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileOperation, "File is not available.", err)
	}

	label := deref(args.Label)
	var src []KeyValue
	if args.Profile == ProfileKVSet {
		src, err = readKVSet(data)
	} else {
		src, err = readKeyValues(data, args, depth, label)
	}
	if err != nil {
		return nil, err
	}
	valid := src[:0]
	for _, kv := range src {
		if verr := ValidateKey(kv.Key); verr != nil {
			slog.Warn("Ignoring invalid key", "key", kv.Key, "reason", errors.Message(verr))
			continue
		}
		valid = append(valid, kv)
	}
	src = valid

	destLabel := label
	switch {
	case args.Profile == ProfileKVSet:
		destLabel = ""
	case destLabel == "":
		destLabel = NullLabel
	}
	dest, err := store.List(ctx, "", destLabel)
	if err != nil {
		return nil, err
	}

	changes := diffKeyValues(src, dest, args)
	if opts.DryRun || changes.Empty() {
		return changes, nil
	}
	if opts.Confirm != nil {
		ok, err := opts.Confirm(changes)
		if err != nil {
			return nil, err
		}
		if !ok {
			return changes, nil
		}
	}

	var result *multierror.Error
	for _, kv := range append(append([]KeyValue{}, changes.Added...), changes.Updated...) {
		if _, err := store.Set(ctx, kv); err != nil {
			result = multierror.Append(result, err)
		}
	}
	for _, kv := range changes.Deleted {
		if _, err := store.Delete(ctx, kv.Key, kv.Label); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return changes, errors.Wrap(errors.ErrCodeCLI, "Failed to import key-values", err)
	}
	changes.Applied = true
	return changes, nil
}

func validateImportArgs(args ImportArgs) error {
	format := args.Format
	for _, validate := range []func() error{
		func() error { return ValidateImport(args) },
		func() error { return ValidateImportProfile(args) },
		func() error { return ValidateStrictImport(args) },
		func() error { return ValidateSeparator(args.Separator, format) },
	} {
		if err := validate(); err != nil {
			return err
		}
	}
	switch format {
	case FormatJSON, FormatYAML, FormatProperties:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Unsupported format '%s', allowed values: json, yaml, properties.", format)
	}
}

func readKeyValues(data []byte, args ImportArgs, depth int, label string) ([]KeyValue, error) {
	var (
		doc      any
		features []KeyValue
		err      error
	)
	switch args.Format {
	case FormatJSON:
		if doc, err = decodeJSON(data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCLI, "The input is not a well formatted json file.", err)
		}
		if obj, ok := doc.(map[string]any); ok {
			if section, ok := obj[featureManagementKey].(map[string]any); ok && !args.SkipFeatures {
				if features, err = featuresFromManagementSection(section, label); err != nil {
					return nil, err
				}
			}
			delete(obj, featureManagementKey)
		}
	case FormatYAML:
		if doc, err = decodeYAML(data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCLI, "The input is not a well formatted yaml file.", err)
		}
		slog.Warn("Importing feature flags from a yaml file is not supported yet. If yaml file contains feature flags, they will be imported as regular key-values.")
	case FormatProperties:
		if doc, err = decodeProperties(data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCLI, "The input is not a well formatted properties file.", err)
		}
		slog.Warn("Importing feature flags from a properties file is not supported yet. If properties file contains feature flags, they will be imported as regular key-values.")
	}

	flattened, err := Flatten(doc, deref(args.Separator), depth, args.Prefix)
	if err != nil {
		return nil, err
	}

	kvs := make([]KeyValue, 0, len(flattened)+len(features))
	for _, k := range sortedKeys(flattened) {
		kv := KeyValue{Key: k, Value: flattened[k], Label: label}
		if args.ContentType != nil {
			kv.ContentType = *args.ContentType
		}
		kvs = append(kvs, kv)
	}
	kvs = append(kvs, features...)
	if len(args.Tags) > 0 {
		for i := range kvs {
			kvs[i].Tags = maps.Clone(args.Tags)
		}
	}
	return kvs, nil
}

// decodeJSON keeps numbers as json.Number so their literals are imported unchanged.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New(errors.ErrCodeCLI, "unexpected data after the top-level value")
	}
	return doc, nil
}

// decodeYAML merges every document of a YAML stream into one object.
func decodeYAML(data []byte) (any, error) {
	merged := make(map[string]any)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc any
		err := dec.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		obj, ok := doc.(map[string]any)
		if !ok {
			if doc == nil {
				continue
			}
			return doc, nil
		}
		for k, v := range obj {
			merged[k] = v
		}
	}
	return merged, nil
}

// decodeProperties reads key=value and key:value lines; '#' and '!' start comments.
func decodeProperties(data []byte) (map[string]any, error) {
	props := make(map[string]any)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.IndexAny(line, "=:")
		if idx < 0 {
			props[line] = ""
			continue
		}
		props[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	return props, scanner.Err()
}

type kvsetItem struct {
	Key         string            `json:"key"`
	Value       string            `json:"value"`
	Label       *string           `json:"label"`
	ContentType *string           `json:"content_type"`
	Tags        map[string]string `json:"tags"`
}

type kvsetFile struct {
	Items []kvsetItem `json:"items"`
}

func readKVSet(data []byte) ([]KeyValue, error) {
	var f kvsetFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCLI, "The input is not a well formatted json file.", err)
	}
	kvs := make([]KeyValue, 0, len(f.Items))
	for _, item := range f.Items {
		kvs = append(kvs, KeyValue{
			Key:         item.Key,
			Value:       item.Value,
			Label:       deref(item.Label),
			ContentType: deref(item.ContentType),
			Tags:        item.Tags,
		})
	}
	return kvs, nil
}

func diffKeyValues(src, dest []KeyValue, args ImportArgs) *ChangeSet {
	type id struct{ key, label string }
	existing := make(map[id]KeyValue, len(dest))
	for _, kv := range dest {
		existing[id{kv.Key, kv.Label}] = kv
	}

	changes := &ChangeSet{}
	seen := make(map[id]bool, len(src))
	for _, kv := range src {
		k := id{kv.Key, kv.Label}
		seen[k] = true
		old, ok := existing[k]
		switch {
		case !ok:
			changes.Added = append(changes.Added, kv)
		case old.Value != kv.Value || old.ContentType != kv.ContentType || !equalTags(old.Tags, kv.Tags):
			changes.Updated = append(changes.Updated, kv)
		}
	}

	if args.Strict {
		for _, kv := range dest {
			if seen[id{kv.Key, kv.Label}] || !strings.HasPrefix(kv.Key, args.Prefix) {
				continue
			}
			changes.Deleted = append(changes.Deleted, kv)
		}
	}
	return changes
}

func equalTags(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

// ExportOptions configures ExportFile.
type ExportOptions struct {
	Args ExportArgs
	// Key and Label filter the exported key-values.
	Key   string
	Label string
}

// ExportFile writes the store's key-values and feature flags to a file and returns the
// exported key-values.
func ExportFile(ctx context.Context, store Store, opts ExportOptions) ([]KeyValue, error) {
	args := opts.Args
	if args.Destination == "" {
		args.Destination = SourceFile
	}
	for _, validate := range []func() error{
		func() error { return ValidateExport(args) },
		func() error { return ValidateExportProfile(args) },
		func() error { return ValidateSeparator(args.Separator, args.Format) },
	} {
		if err := validate(); err != nil {
			return nil, err
		}
	}

	label := opts.Label
	if label == "" {
		label = NullLabel
	}
	all, err := store.List(ctx, opts.Key, label)
	if err != nil {
		return nil, err
	}

	var (
		kvs   []KeyValue
		flags []*FeatureFlag
	)
	for _, kv := range all {
		if !IsFeatureFlag(kv) {
			kvs = append(kvs, kv)
			continue
		}
		if args.SkipFeatures {
			continue
		}
		flag, err := FeatureFlagFromKeyValue(kv)
		if err != nil {
			slog.Warn("skipping feature flag that could not be decoded", "key", kv.Key, "error", err)
			continue
		}
		flags = append(flags, flag)
	}

	var out []byte
	if args.Profile == ProfileKVSet {
		out, err = encodeKVSet(all)
	} else {
		out, err = encodeDocument(kvs, flags, args)
	}
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(args.Path, out, 0o644); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileOperation, "Failed to export key-values to file.", err)
	}
	return kvs, nil
}

func encodeDocument(kvs []KeyValue, flags []*FeatureFlag, args ExportArgs) ([]byte, error) {
	separator := deref(args.Separator)
	if args.Format == FormatProperties {
		separator = ""
	}
	doc, err := Unflatten(kvs, separator, args.Prefix)
	if err != nil {
		return nil, err
	}

	if len(flags) > 0 {
		if args.Format != FormatJSON {
			slog.Warn("Exporting feature flags to a yaml or properties file is not supported yet. Ignoring all feature flags.")
		} else if obj, ok := doc.(map[string]any); ok {
			obj[featureManagementKey] = featureManagementSection(flags)
		}
	}

	switch args.Format {
	case FormatJSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCLI, "Failed to export key-values to file.", err)
		}
		return append(b, '\n'), nil
	case FormatYAML:
		b, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeCLI, "Failed to export key-values to file.", err)
		}
		return b, nil
	case FormatProperties:
		return encodeProperties(doc), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Unsupported format '%s', allowed values: json, yaml, properties.", args.Format)
	}
}

func encodeProperties(doc any) []byte {
	var buf bytes.Buffer
	obj, _ := doc.(map[string]any)
	for _, k := range sortedKeys(obj) {
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(scalarString(obj[k]))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func encodeKVSet(kvs []KeyValue) ([]byte, error) {
	items := make([]kvsetItem, 0, len(kvs))
	for _, kv := range kvs {
		item := kvsetItem{Key: kv.Key, Value: kv.Value, Tags: kv.Tags}
		if kv.Label != "" {
			item.Label = &kv.Label
		}
		if kv.ContentType != "" {
			item.ContentType = &kv.ContentType
		}
		if item.Tags == nil {
			item.Tags = map[string]string{}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	b, err := json.MarshalIndent(kvsetFile{Items: items}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCLI, "Failed to export key-values to file.", err)
	}
	return append(b, '\n'), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
