package appconfig

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/config"
	"github.com/azctl/azctl/pkg/errors"
)

func TestValidateDatetime(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"", false},
		{"2026-01-02T03:04:05", false},
		{"2026-01-02T03:04:05Z", false},
		{"2026-01-02T03:04:05+08:00", false},
		{"2026-01-02T03:04:05-05:30", false},
		{"2026-01-02 03:04:05", true},
		{"2026-13-02T03:04:05", true},
		{"2026-01-02T25:04:05", true},
		{"2026-01-02T03:04:05+0800", false},
		{"2026-01-02T03:04:05z", false},
		{"2024-02-29T00:00:00", false},
		{"2024-02-31T00:00:00", true},
		{"2026-01-02T03:04:05.123", true},
		{"yesterday", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			err := ValidateDatetime(tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgumentValue))
		})
	}
}

func TestConnectionString(t *testing.T) {
	valid := "Endpoint=https://mystore.azconfig.io;Id=abc;Secret=xyz"
	reordered := "Secret=xyz;Endpoint=https://mystore.azconfig.io;Id=abc"

	assert.True(t, IsValidConnectionString(valid))
	assert.True(t, IsValidConnectionString(reordered))
	assert.False(t, IsValidConnectionString("Endpoint=https://mystore.azconfig.io;Id=abc"))
	assert.False(t, IsValidConnectionString("Endpoint=x;Id=abc;Secret=xyz;Extra=1"))
	assert.False(t, IsValidConnectionString("Host=x;Id=abc;Secret=xyz"))

	cs, ok := ParseConnectionString(reordered)
	require.True(t, ok)
	assert.Equal(t, ConnectionString{Endpoint: "https://mystore.azconfig.io", ID: "abc", Secret: "xyz"}, cs)

	assert.Equal(t, "mystore", StoreNameFromConnectionString(valid))
	assert.Empty(t, StoreNameFromConnectionString("bogus"))

	assert.NoError(t, ValidateConnectionString(""))
	assert.NoError(t, ValidateConnectionString(valid))
	err := ValidateConnectionString("bogus")
	require.Error(t, err)
	assert.Contains(t, errors.Message(err), "Endpoint=https://example.azconfig.io;Id=xxxxx;Secret=xxxx")
}

func TestApplyStoreDefaults(t *testing.T) {
	for _, key := range []string{config.KeyAppConfigStore, config.KeyAppConfigConnString} {
		name := config.EnvName(config.SectionDefaults, key)
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}

	cfg, err := config.Load(t.TempDir() + "/config")
	require.NoError(t, err)
	cfg.Set(config.SectionDefaults, config.KeyAppConfigStore, "defaultstore")

	got := ApplyStoreDefaults(StoreArgs{}, cfg)
	assert.Equal(t, "defaultstore", got.Name)

	got = ApplyStoreDefaults(StoreArgs{Name: "explicit"}, cfg)
	assert.Equal(t, "explicit", got.Name)
}

func TestValidateAuthMode(t *testing.T) {
	tests := []struct {
		name    string
		args    StoreArgs
		wantErr string
	}{
		{"key mode", StoreArgs{AuthMode: AuthModeKey}, ""},
		{"login with name", StoreArgs{AuthMode: AuthModeLogin, Name: "s"}, ""},
		{"login with endpoint", StoreArgs{AuthMode: AuthModeLogin, Endpoint: "https://s.azconfig.io"}, ""},
		{"login without store", StoreArgs{AuthMode: AuthModeLogin}, "App Configuration name or endpoint should be provided if auth mode is 'login'."},
		{"login with connection string", StoreArgs{AuthMode: AuthModeLogin, Name: "s", ConnectionString: "x"}, "Auth mode should be 'key' when connection string is provided."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAuthMode(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, errors.Message(err))
		})
	}
}

func TestValidateImportDepth(t *testing.T) {
	depth, err := ValidateImportDepth(nil)
	require.NoError(t, err)
	assert.Zero(t, depth)

	depth, err = ValidateImportDepth(ptr.To("2"))
	require.NoError(t, err)
	assert.Equal(t, 2, depth)

	_, err = ValidateImportDepth(ptr.To("0"))
	assert.Equal(t, "Depth should be at least 1.", errors.Message(err))

	_, err = ValidateImportDepth(ptr.To("deep"))
	assert.Equal(t, "Depth is not a number.", errors.Message(err))
}

func TestValidateSeparator(t *testing.T) {
	for _, sep := range SupportedSeparators {
		assert.NoError(t, ValidateSeparator(ptr.To(sep), FormatJSON), sep)
	}
	assert.NoError(t, ValidateSeparator(nil, FormatProperties))

	err := ValidateSeparator(ptr.To("|"), FormatJSON)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgumentValue))

	err = ValidateSeparator(ptr.To(":"), FormatProperties)
	assert.True(t, errors.IsCode(err, errors.ErrCodeArgumentUsage))
}

func TestValidateImport(t *testing.T) {
	tests := []struct {
		name    string
		args    ImportArgs
		wantErr string
	}{
		{"file ok", ImportArgs{Source: SourceFile, Path: "a.json", Format: FormatJSON}, ""},
		{"file without path", ImportArgs{Source: SourceFile, Format: FormatJSON}, "Please provide the '--path' argument."},
		{"file without format", ImportArgs{Source: SourceFile, Path: "a.json"}, "Please provide the '--format' argument."},
		{"appconfig without source", ImportArgs{Source: SourceAppConfig}, "Please provide '--src-name', '--src-connection-string' or '--src-endpoint' argument."},
		{"appconfig with endpoint", ImportArgs{Source: SourceAppConfig, SrcEndpoint: "https://x"}, ""},
		{"appservice without account", ImportArgs{Source: SourceAppService}, "Please provide '--appservice-account' argument"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImport(tt.args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeRequiredArgumentMissing))
			assert.Equal(t, tt.wantErr, errors.Message(err))
		})
	}
}

func TestValidateExport(t *testing.T) {
	err := ValidateExport(ExportArgs{Destination: SourceAppConfig})
	require.Error(t, err)
	assert.Equal(t, "Please provide '--dest-name', '--dest-connection-string' or '--dest-endpoint' argument.", errors.Message(err))

	assert.NoError(t, ValidateExport(ExportArgs{Destination: SourceFile, Path: "out.json", Format: FormatJSON}))
}

func TestValidateImportProfile(t *testing.T) {
	base := ImportArgs{Source: SourceFile, Path: "a.json", Format: FormatJSON, Profile: ProfileKVSet}

	tests := []struct {
		name    string
		mutate  func(*ImportArgs)
		wantErr string
	}{
		{"plain kvset", func(*ImportArgs) {}, ""},
		{"not a file", func(a *ImportArgs) { a.Source = SourceAppConfig }, "Import profile 'appconfig/kvset' can only be used when importing from a JSON file."},
		{"yaml", func(a *ImportArgs) { a.Format = FormatYAML }, "Import profile 'appconfig/kvset' can only be used when importing from a JSON format."},
		{"label", func(a *ImportArgs) { a.Label = ptr.To("") }, "The option 'label' is not supported when importing using 'appconfig/kvset' profile"},
		{"depth", func(a *ImportArgs) { a.Depth = ptr.To("1") }, "The option 'depth' is not supported when importing using 'appconfig/kvset' profile"},
		{"skip features", func(a *ImportArgs) { a.SkipFeatures = true }, "The option 'skip-features' is not supported when importing using 'appconfig/kvset' profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := base
			tt.mutate(&args)
			err := ValidateImportProfile(args)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, errors.Message(err))
		})
	}
}

func TestValidateExportProfile(t *testing.T) {
	args := ExportArgs{Destination: SourceFile, Format: FormatJSON, Profile: ProfileKVSet, ResolveKeyVault: true}
	err := ValidateExportProfile(args)
	require.Error(t, err)
	assert.Equal(t, "The option 'resolve-keyvault' is not supported when exporting using 'appconfig/kvset' profile", errors.Message(err))

	args = ExportArgs{Destination: SourceAppService, Format: FormatJSON, Profile: ProfileKVSet}
	assert.Equal(t, "The profile 'appconfig/kvset' only supports exporting to a file.", errors.Message(ValidateExportProfile(args)))
}

func TestValidateStrictImport(t *testing.T) {
	err := ValidateStrictImport(ImportArgs{Strict: true, SkipFeatures: true, Source: SourceFile})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMutuallyExclusiveArgument))

	err = ValidateStrictImport(ImportArgs{Strict: true, Source: SourceAppConfig})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgumentValue))

	assert.NoError(t, ValidateStrictImport(ImportArgs{Strict: true, Source: SourceFile}))
}

func TestParseFilterParameters(t *testing.T) {
	params, err := ParseFilterParameters([]string{`Value=50`, `Audience={"Users":["a"]}`, `Empty`, `Str="x"`})
	require.NoError(t, err)
	assert.Equal(t, float64(50), params["Value"])
	assert.Equal(t, map[string]any{"Users": []any{"a"}}, params["Audience"])
	assert.Equal(t, "", params["Empty"])
	assert.Equal(t, "x", params["Str"])

	_, err = ParseFilterParameters([]string{"a=1", "a=2"})
	assert.Equal(t, `Filter parameter name "a" cannot be duplicated.`, errors.Message(err))

	_, err = ParseFilterParameters([]string{"=1"})
	assert.Equal(t, `Invalid filter parameter "=1". Parameter name cannot be empty.`, errors.Message(err))

	_, err = ParseFilterParameters([]string{"a=not json"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidArgumentValue))
}

func TestValidateSnapshotFilters(t *testing.T) {
	filters, err := ValidateSnapshotFilters([]string{`{"key":"app/*","label":"prod","tags":["a=b"]}`})
	require.NoError(t, err)
	assert.Equal(t, []SnapshotFilter{{Key: "app/*", Label: "prod", Tags: []string{"a=b"}}}, filters)

	filters, err = ValidateSnapshotFilters([]string{`{"key":"app/*","label":false,"tags":0}`})
	require.NoError(t, err, "unset label and tags values are ignored")
	assert.Equal(t, []SnapshotFilter{{Key: "app/*"}}, filters)

	tests := []struct {
		name    string
		filters []string
		wantErr string
	}{
		{"nil", nil, "A list of at least one filter is required."},
		{"too many", []string{`{"key":"a"}`, `{"key":"b"}`, `{"key":"c"}`, `{"key":"d"}`}, "Too many filters supplied. A maximum of 3 filters allowed."},
		{"not json", []string{`key=a`}, "Parameter must be an escaped JSON object. key=a is not a valid JSON object."},
		{"array", []string{`["a"]`}, "Parameter must be an escaped JSON object. Value of type list was supplied."},
		{"no key", []string{`{"label":"x"}`}, "Key filter value required."},
		{"empty key", []string{`{"key":""}`}, "Key filter value required."},
		{"null key", []string{`{"key":null}`}, "Key filter value required."},
		{"numeric key", []string{`{"key":5}`}, "Invalid key filter value. Value must be a non-empty string."},
		{"label not string", []string{`{"key":"a","label":1}`}, "Label filter must be a string if specified."},
		{"tags not list", []string{`{"key":"a","tags":"x"}`}, "Tags filter must be a list of strings if specified."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSnapshotFilters(tt.filters)
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, errors.Message(err))
		})
	}
}

func TestValidateTagFilters(t *testing.T) {
	assert.NoError(t, ValidateTagFilters(nil))
	assert.NoError(t, ValidateTagFilters([]string{"a=b", "c", "d="}))
	assert.Equal(t, "Tag filter name cannot be empty.", errors.Message(ValidateTagFilters([]string{"=b"})))
	assert.Equal(t, "Too many tag filters provided. Maximum allowed is 5.",
		errors.Message(ValidateTagFilters([]string{"a", "b", "c", "d", "e", "f"})))
}

func TestValidateSKU(t *testing.T) {
	got, err := ValidateSKU(SKUArgs{SKU: "Free", ReplicaName: "r", RetentionDays: 3})
	require.NoError(t, err)
	assert.Equal(t, SKUArgs{SKU: "Free"}, got)

	_, err = ValidateSKU(SKUArgs{SKU: SKUPremium})
	assert.True(t, errors.IsCode(err, errors.ErrCodeRequiredArgumentMissing))

	_, err = ValidateSKU(SKUArgs{SKU: SKUPremium, NoReplica: true})
	assert.NoError(t, err)

	_, err = ValidateSKU(SKUArgs{SKU: SKUStandard, NoReplica: true, ReplicaName: "r"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMutuallyExclusiveArgument))

	_, err = ValidateSKU(SKUArgs{SKU: SKUStandard, ReplicaName: "r"})
	assert.Equal(t, "To create a replica, '--replica-location' is required.", errors.Message(err))

	_, err = ValidateSKU(SKUArgs{SKU: SKUStandard, ReplicaLocation: "westus"})
	assert.Equal(t, "To create a replica, '--replica-name' is required.", errors.Message(err))
}

func TestValidateDryRunAndRetention(t *testing.T) {
	assert.NoError(t, ValidateDryRun(true, false))
	assert.True(t, errors.IsCode(ValidateDryRun(true, true), errors.ErrCodeMutuallyExclusiveArgument))

	assert.NoError(t, ValidateRetentionPeriod(nil))
	assert.NoError(t, ValidateRetentionPeriod(ptr.To(0)))
	assert.True(t, errors.IsCode(ValidateRetentionPeriod(ptr.To(-1)), errors.ErrCodeInvalidArgumentValue))
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		code errors.ErrorCode
	}{
		{key: "app:color"},
		{key: " padded "},
		{key: "", code: errors.ErrCodeRequiredArgumentMissing},
		{key: "   ", code: errors.ErrCodeRequiredArgumentMissing},
		{key: "\t", code: errors.ErrCodeRequiredArgumentMissing},
		{key: ".", code: errors.ErrCodeInvalidArgumentValue},
		{key: "..", code: errors.ErrCodeInvalidArgumentValue},
		{key: "50%off", code: errors.ErrCodeInvalidArgumentValue},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.CodeOf(err))
		})
	}
}
