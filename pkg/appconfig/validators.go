package appconfig

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

// Import and export sources and destinations.
const (
	SourceFile       = "file"
	SourceAppConfig  = "appconfig"
	SourceAppService = "appservice"
)

// Auth modes for data plane access.
const (
	AuthModeKey   = "key"
	AuthModeLogin = "login"
)

// ProfileKVSet is the import/export profile that reads and writes raw key-value sets.
const ProfileKVSet = "appconfig/kvset"

// SupportedSeparators lists the separators accepted for hierarchical import and export.
var SupportedSeparators = []string{".", ",", ";", "-", "_", "__", "/", ":"}

// datetimeLayouts accept a bare time, "Z", ±hh:mm and ±hhmm suffixes.
var datetimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
}

// ValidateDatetime checks s against YYYY-MM-DDThh:mm:ss with an optional "Z" or
// ±hh[:]mm suffix. Dates that do not exist are rejected. An empty value is accepted.
func ValidateDatetime(s string) error {
	if s == "" {
		return nil
	}
	if !strings.Contains(s, ".") {
		value := s
		if strings.HasSuffix(value, "z") {
			value = strings.TrimSuffix(value, "z") + "Z"
		}
		for _, layout := range datetimeLayouts {
			if _, err := time.Parse(layout, value); err == nil {
				return nil
			}
		}
	}
	return errors.New(errors.ErrCodeInvalidArgumentValue,
		`The input datetime is invalid. Correct format should be YYYY-MM-DDThh:mm:ss["Z"/±hh:mm].`)
}

// StoreArgs identifies the store a data plane command talks to.
type StoreArgs struct {
	Name             string
	ConnectionString string
	Endpoint         string
	AuthMode         string
}

// ApplyStoreDefaults fills the connection string and store name from the configured
// defaults, only when neither was given.
func ApplyStoreDefaults(args StoreArgs, cfg *config.Config) StoreArgs {
	if args.ConnectionString != "" || args.Name != "" || cfg == nil {
		return args
	}
	args.ConnectionString = cfg.Get(config.SectionDefaults, config.KeyAppConfigConnString)
	args.Name = cfg.Get(config.SectionDefaults, config.KeyAppConfigStore)
	return args
}

// ValidateConnectionString rejects a non-empty connection string that does not carry
// exactly the Endpoint, Id and Secret segments.
func ValidateConnectionString(s string) error {
	if s == "" || IsValidConnectionString(s) {
		return nil
	}
	return errors.New(errors.ErrCodeCLI,
		"The connection string is invalid. Correct format should be Endpoint=https://example.azconfig.io;Id=xxxxx;Secret=xxxx ")
}

// ValidateAuthMode checks the store arguments against the auth mode.
func ValidateAuthMode(args StoreArgs) error {
	if args.AuthMode != AuthModeLogin {
		return nil
	}
	if args.Name == "" && args.Endpoint == "" {
		return errors.New(errors.ErrCodeCLI, "App Configuration name or endpoint should be provided if auth mode is 'login'.")
	}
	if args.ConnectionString != "" {
		return errors.New(errors.ErrCodeCLI, "Auth mode should be 'key' when connection string is provided.")
	}
	return nil
}

// ValidateImportDepth parses an optional --depth value. nil means unset.
func ValidateImportDepth(depth *string) (int, error) {
	if depth == nil {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*depth))
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidArgumentValue, "Depth is not a number.")
	}
	if n < 1 {
		return 0, errors.New(errors.ErrCodeInvalidArgumentValue, "Depth should be at least 1.")
	}
	return n, nil
}

// ValidateSeparator checks an optional separator against the file format.
func ValidateSeparator(separator *string, format string) error {
	if separator == nil {
		return nil
	}
	if format == FormatProperties {
		return errors.New(errors.ErrCodeArgumentUsage, "Separator is not needed for properties file.")
	}
	for _, s := range SupportedSeparators {
		if *separator == s {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidArgumentValue,
		"Unsupported separator, allowed values: '.', ',', ';', '-', '_', '__', '/', ':'.")
}

// ImportArgs holds the arguments of kv import. Pointer fields are nil when unset.
type ImportArgs struct {
	Source              string
	Path                string
	Format              string
	SrcName             string
	SrcConnectionString string
	SrcEndpoint         string
	AppServiceAccount   string
	Profile             string
	ContentType         *string
	Label               *string
	Separator           *string
	Depth               *string
	Prefix              string
	// Tags are applied to every imported key-value and feature flag.
	Tags                map[string]string
	SkipFeatures        bool
	Strict              bool
}

// ValidateImport checks that the arguments required by the import source are present.
func ValidateImport(args ImportArgs) error {
	switch args.Source {
	case SourceFile:
		if args.Path == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide the '--path' argument.")
		}
		if args.Format == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide the '--format' argument.")
		}
	case SourceAppConfig:
		if args.SrcName == "" && args.SrcConnectionString == "" && args.SrcEndpoint == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing,
				"Please provide '--src-name', '--src-connection-string' or '--src-endpoint' argument.")
		}
	case SourceAppService:
		if args.AppServiceAccount == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide '--appservice-account' argument")
		}
	}
	return nil
}

// ValidateImportProfile restricts the kvset profile to plain JSON file imports.
func ValidateImportProfile(args ImportArgs) error {
	if args.Profile != ProfileKVSet {
		return nil
	}
	if args.Source != SourceFile {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Import profile '%s' can only be used when importing from a JSON file.", ProfileKVSet)
	}
	if args.Format != FormatJSON {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Import profile '%s' can only be used when importing from a JSON format.", ProfileKVSet)
	}
	switch {
	case args.ContentType != nil:
		return kvsetArgumentError(false, "content-type")
	case args.Label != nil:
		return kvsetArgumentError(false, "label")
	case args.Separator != nil:
		return kvsetArgumentError(false, "separator")
	case args.Depth != nil:
		return kvsetArgumentError(false, "depth")
	case args.Prefix != "":
		return kvsetArgumentError(false, "prefix")
	case args.SkipFeatures:
		return kvsetArgumentError(false, "skip-features")
	case len(args.Tags) > 0:
		return kvsetArgumentError(false, "tags")
	}
	return nil
}

// ValidateStrictImport restricts --strict to file imports that keep feature flags.
func ValidateStrictImport(args ImportArgs) error {
	if !args.Strict {
		return nil
	}
	if args.SkipFeatures {
		return errors.New(errors.ErrCodeMutuallyExclusiveArgument,
			"The option '--skip-features' cannot be used with the '--strict' option.")
	}
	if args.Source != SourceFile {
		return errors.New(errors.ErrCodeInvalidArgumentValue,
			"The option '--strict' can only be used when importing from a file.")
	}
	return nil
}

// ExportArgs holds the arguments of kv export. Pointer fields are nil when unset.
type ExportArgs struct {
	Destination          string
	Path                 string
	Format               string
	DestName             string
	DestConnectionString string
	DestEndpoint         string
	AppServiceAccount    string
	Profile              string
	DestLabel            *string
	Separator            *string
	Prefix               string
	DestTags             []string
	ResolveKeyVault      bool
	SkipFeatures         bool
}

// ValidateExport checks that the arguments required by the export destination are present.
func ValidateExport(args ExportArgs) error {
	switch args.Destination {
	case SourceFile:
		if args.Path == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide the '--path' argument.")
		}
		if args.Format == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide the '--format' argument.")
		}
	case SourceAppConfig:
		if args.DestName == "" && args.DestConnectionString == "" && args.DestEndpoint == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing,
				"Please provide '--dest-name', '--dest-connection-string' or '--dest-endpoint' argument.")
		}
	case SourceAppService:
		if args.AppServiceAccount == "" {
			return errors.New(errors.ErrCodeRequiredArgumentMissing, "Please provide '--appservice-account' argument")
		}
	}
	return nil
}

// ValidateExportProfile restricts the kvset profile to plain JSON file exports.
func ValidateExportProfile(args ExportArgs) error {
	if args.Profile != ProfileKVSet {
		return nil
	}
	if args.Destination != SourceFile {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"The profile '%s' only supports exporting to a file.", ProfileKVSet)
	}
	if args.Format != FormatJSON {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"The profile '%s' only supports exporting in the JSON format", ProfileKVSet)
	}
	switch {
	case args.Prefix != "":
		return kvsetArgumentError(true, "prefix")
	case args.DestLabel != nil:
		return kvsetArgumentError(true, "dest-label")
	case args.ResolveKeyVault:
		return kvsetArgumentError(true, "resolve-keyvault")
	case args.Separator != nil:
		return kvsetArgumentError(true, "separator")
	case len(args.DestTags) > 0:
		return kvsetArgumentError(true, "dest-tags")
	}
	return nil
}

func kvsetArgumentError(exporting bool, argument string) error {
	action := "importing"
	if exporting {
		action = "exporting"
	}
	return errors.Newf(errors.ErrCodeInvalidArgumentValue,
		"The option '%s' is not supported when %s using '%s' profile", argument, action, ProfileKVSet)
}

// ValidateKey rejects empty or blank keys, "." and "..", and keys containing '%'.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New(errors.ErrCodeRequiredArgumentMissing, "Key cannot be empty.")
	}
	if key == "." || key == ".." || strings.Contains(key, "%") {
		return errors.New(errors.ErrCodeInvalidArgumentValue,
			"Key is invalid. Key cannot be a '.' or '..', or contain the '%' character.")
	}
	return nil
}

// ParseFilterParameters parses name[=value] pairs. Values must be JSON; a missing value
// is the empty string.
func ParseFilterParameters(params []string) (map[string]any, error) {
	result := make(map[string]any, len(params))
	for _, p := range params {
		name, value, err := parseFilterParameter(p)
		if err != nil {
			return nil, err
		}
		if _, ok := result[name]; ok {
			return nil, errors.Newf(errors.ErrCodeCLI, "Filter parameter name %q cannot be duplicated.", name)
		}
		result[name] = value
	}
	return result, nil
}

func parseFilterParameter(s string) (string, any, error) {
	name, raw, hasValue := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil, errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Invalid filter parameter %q. Parameter name cannot be empty.", s)
	}
	if !hasValue || strings.TrimSpace(raw) == "" {
		return name, "", nil
	}
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return "", nil, errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Filter parameter value must be a JSON escaped string. %q is not a valid JSON object.", raw)
	}
	return name, value, nil
}

// SnapshotFilter selects the key-values captured by a snapshot.
type SnapshotFilter struct {
	Key   string   `json:"key"`
	Label string   `json:"label,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

// ValidateSnapshotFilters parses between one and three JSON filter objects.
func ValidateSnapshotFilters(filters []string) ([]SnapshotFilter, error) {
	if filters == nil {
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing, "A list of at least one filter is required.")
	}
	if len(filters) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidArgumentValue, "At least one filter is required.")
	}
	if len(filters) > 3 {
		return nil, errors.New(errors.ErrCodeInvalidArgumentValue, "Too many filters supplied. A maximum of 3 filters allowed.")
	}

	result := make([]SnapshotFilter, 0, len(filters))
	for _, raw := range filters {
		f, err := parseSnapshotFilter(raw)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

func parseSnapshotFilter(raw string) (SnapshotFilter, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return SnapshotFilter{}, errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Parameter must be an escaped JSON object. %s is not a valid JSON object.", raw)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return SnapshotFilter{}, errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Parameter must be an escaped JSON object. Value of type %s was supplied.", jsonTypeName(parsed))
	}

	key := obj["key"]
	if !truthy(key) {
		return SnapshotFilter{}, errors.New(errors.ErrCodeInvalidArgumentValue, "Key filter value required.")
	}
	keyStr, ok := key.(string)
	if !ok {
		return SnapshotFilter{}, errors.New(errors.ErrCodeInvalidArgumentValue,
			"Invalid key filter value. Value must be a non-empty string.")
	}
	f := SnapshotFilter{Key: keyStr}

	if label := obj["label"]; truthy(label) {
		s, isStr := label.(string)
		if !isStr {
			return SnapshotFilter{}, errors.New(errors.ErrCodeInvalidArgumentValue, "Label filter must be a string if specified.")
		}
		f.Label = s
	}

	if tags := obj["tags"]; truthy(tags) {
		list, isList := tags.([]any)
		if !isList {
			return SnapshotFilter{}, errors.New(errors.ErrCodeInvalidArgumentValue, "Tags filter must be a list of strings if specified.")
		}
		for _, t := range list {
			s, isStr := t.(string)
			if !isStr {
				return SnapshotFilter{}, errors.New(errors.ErrCodeInvalidArgumentValue, "Tags filter must be a list of strings if specified.")
			}
			f.Tags = append(f.Tags, s)
		}
	}
	return f, nil
}

// truthy reports whether a decoded JSON value is set: not null, false, zero or empty.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case []any:
		return "list"
	case string:
		return "str"
	case float64:
		return "number"
	case bool:
		return "bool"
	case nil:
		return "NoneType"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// ValidateTagFilters allows at most five name[=value] tag filters with non-empty names.
func ValidateTagFilters(tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	if len(tags) > 5 {
		return errors.New(errors.ErrCodeInvalidArgumentValue, "Too many tag filters provided. Maximum allowed is 5.")
	}
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if name, _, _ := strings.Cut(tag, "="); name == "" {
			return errors.New(errors.ErrCodeInvalidArgumentValue, "Tag filter name cannot be empty.")
		}
	}
	return nil
}

// Store SKUs.
const (
	SKUFree      = "free"
	SKUDeveloper = "developer"
	SKUStandard  = "standard"
	SKUPremium   = "premium"
)

// SKUArgs holds the store creation options that depend on the SKU.
type SKUArgs struct {
	SKU                           string
	EnablePurgeProtection         bool
	RetentionDays                 int
	ReplicaName                   string
	ReplicaLocation               string
	NoReplica                     bool
	EnableARMPrivateNetworkAccess bool
}

// ValidateSKU checks replica options against the SKU. Options the free and developer
// tiers do not support are cleared with a warning.
func ValidateSKU(args SKUArgs) (SKUArgs, error) {
	switch strings.ToLower(args.SKU) {
	case SKUFree:
		if args.EnablePurgeProtection || args.RetentionDays != 0 || args.ReplicaName != "" ||
			args.ReplicaLocation != "" || args.NoReplica || args.EnableARMPrivateNetworkAccess {
			slog.Warn("Options '--enable-purge-protection', '--replica-name', '--replica-location' , '--no-replica' , 'enable-arm-private-network-access' and '--retention-days' will be ignored when creating a free store.")
		}
		return SKUArgs{SKU: args.SKU}, nil
	case SKUDeveloper:
		if args.EnablePurgeProtection || args.RetentionDays != 0 || args.ReplicaName != "" ||
			args.ReplicaLocation != "" || args.NoReplica {
			slog.Warn("Options '--enable-purge-protection', '--replica-name', '--replica-location' , '--no-replica' and '--retention-days' will be ignored when creating a developer store.")
		}
		return SKUArgs{SKU: args.SKU, EnableARMPrivateNetworkAccess: args.EnableARMPrivateNetworkAccess}, nil
	case SKUPremium:
		if !args.NoReplica && (args.ReplicaName == "" || args.ReplicaLocation == "") {
			return args, errors.New(errors.ErrCodeRequiredArgumentMissing,
				"Options '--replica-name' and '--replica-location' are required when creating a premium tier store. To avoid creating replica please provide explicit argument '--no-replica'.")
		}
	}

	if args.NoReplica && (args.ReplicaName != "" || args.ReplicaLocation != "") {
		return args, errors.New(errors.ErrCodeMutuallyExclusiveArgument,
			"Please provide either '--no-replica' or both '--replica-name' and '--replica-location'. See 'az appconfig create -h' for examples.")
	}
	if args.ReplicaName != "" && args.ReplicaLocation == "" {
		return args, errors.New(errors.ErrCodeRequiredArgumentMissing, "To create a replica, '--replica-location' is required.")
	}
	if args.ReplicaName == "" && args.ReplicaLocation != "" {
		return args, errors.New(errors.ErrCodeRequiredArgumentMissing, "To create a replica, '--replica-name' is required.")
	}
	return args, nil
}

// ValidateDryRun rejects --dry-run together with --yes.
func ValidateDryRun(dryRun, yes bool) error {
	if dryRun && yes {
		return errors.New(errors.ErrCodeMutuallyExclusiveArgument,
			"The '--dry-run' and '--yes' options cannot be specified together.")
	}
	return nil
}

// ValidateRetentionPeriod rejects a negative key-value revision retention period.
func ValidateRetentionPeriod(period *int) error {
	if period != nil && *period < 0 {
		return errors.New(errors.ErrCodeInvalidArgumentValue,
			"The key value revision retention period cannot be negative.")
	}
	return nil
}
