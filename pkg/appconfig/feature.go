package appconfig

import (
	"encoding/json"
	"strings"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	// FeatureFlagPrefix is the reserved key prefix of feature flags.
	FeatureFlagPrefix = ".appconfig.featureflag/"

	// FeatureFlagContentType is the content type of feature flag key-values.
	FeatureFlagContentType = "application/vnd.microsoft.appconfig.ff+json;charset=utf-8"

	// KeyVaultRefContentType is the content type of Key Vault reference key-values.
	KeyVaultRefContentType = "application/vnd.microsoft.appconfig.keyvaultref+json;charset=utf-8"
)

// Feature flag states as shown to the user.
const (
	FeatureStateOn          = "on"
	FeatureStateOff         = "off"
	FeatureStateConditional = "conditional"
)

// FeatureFilter is a client filter that conditionally enables a feature.
type FeatureFilter struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// FeatureConditions holds the client filters of a feature flag.
type FeatureConditions struct {
	ClientFilters []FeatureFilter `json:"client_filters"`
}

// FeatureFlagValue is the JSON document stored as the value of a feature flag key.
type FeatureFlagValue struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Enabled     bool              `json:"enabled"`
	Conditions  FeatureConditions `json:"conditions"`
}

// FeatureFlag is a feature flag as returned by the feature commands.
type FeatureFlag struct {
	Feature      string            `json:"feature" yaml:"feature"`
	Name         string            `json:"name" yaml:"name"`
	Key          string            `json:"key" yaml:"key"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	State        string            `json:"state" yaml:"state"`
	Description  string            `json:"description" yaml:"description"`
	Conditions   FeatureConditions `json:"conditions" yaml:"conditions"`
	Locked       bool              `json:"locked" yaml:"locked"`
	LastModified string            `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
	ETag         string            `json:"etag,omitempty" yaml:"etag,omitempty"`
}

// ValidateFeatureName rejects empty names and names containing '%' or ':'.
func ValidateFeatureName(name string) error {
	if name == "" {
		return errors.New(errors.ErrCodeInvalidArgumentValue, "Feature name cannot be empty.")
	}
	if strings.ContainsAny(name, "%:") {
		return errors.New(errors.ErrCodeInvalidArgumentValue,
			"Feature name cannot contain the following characters: '%', ':'")
	}
	return nil
}

// ValidateFeatureKey checks that key carries the reserved prefix followed by a name.
func ValidateFeatureKey(key string) error {
	if key == "" {
		return errors.New(errors.ErrCodeInvalidArgumentValue, "Feature flag key cannot be empty.")
	}
	if strings.Contains(key, "%") {
		return errors.New(errors.ErrCodeInvalidArgumentValue, "Feature flag key cannot contain the '%' character.")
	}
	if !strings.HasPrefix(key, FeatureFlagPrefix) {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Feature flag key must start with the reserved prefix '%s'.", FeatureFlagPrefix)
	}
	if len(key) == len(FeatureFlagPrefix) {
		return errors.Newf(errors.ErrCodeInvalidArgumentValue,
			"Feature flag key must contain more characters after the reserved prefix '%s'.", FeatureFlagPrefix)
	}
	return nil
}

// FeatureKey returns the key of the named feature. An explicit key wins.
func FeatureKey(name, key string) string {
	if key != "" {
		return key
	}
	return FeatureFlagPrefix + name
}

// IsFeatureFlag reports whether kv holds a feature flag.
func IsFeatureFlag(kv KeyValue) bool {
	return strings.HasPrefix(kv.Key, FeatureFlagPrefix) && kv.ContentType == FeatureFlagContentType
}

// State returns on, off or conditional.
func (v FeatureFlagValue) State() string {
	switch {
	case !v.Enabled:
		return FeatureStateOff
	case len(v.Conditions.ClientFilters) > 0:
		return FeatureStateConditional
	default:
		return FeatureStateOn
	}
}

// ToKeyValue encodes the flag as a key-value with the feature flag content type.
func (v FeatureFlagValue) ToKeyValue(key, label string) (KeyValue, error) {
	if v.Conditions.ClientFilters == nil {
		v.Conditions.ClientFilters = []FeatureFilter{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return KeyValue{}, errors.Wrap(errors.ErrCodeInternal, "failed to encode feature flag", err)
	}
	return KeyValue{
		Key:         key,
		Label:       label,
		Value:       string(b),
		ContentType: FeatureFlagContentType,
	}, nil
}

// FeatureFlagFromKeyValue decodes a feature flag key-value.
func FeatureFlagFromKeyValue(kv KeyValue) (*FeatureFlag, error) {
	var v FeatureFlagValue
	if err := json.Unmarshal([]byte(kv.Value), &v); err != nil {
		return nil, errors.Wrap(errors.ErrCodeValidation,
			"Invalid value. Unable to decode feature flag object to JSON", err)
	}
	name := v.ID
	if name == "" {
		name = strings.TrimPrefix(kv.Key, FeatureFlagPrefix)
	}
	if v.Conditions.ClientFilters == nil {
		v.Conditions.ClientFilters = []FeatureFilter{}
	}
	return &FeatureFlag{
		Feature:      name,
		Name:         name,
		Key:          kv.Key,
		Label:        kv.Label,
		State:        v.State(),
		Description:  v.Description,
		Conditions:   v.Conditions,
		Locked:       kv.Locked,
		LastModified: kv.LastModified,
		ETag:         kv.ETag,
	}, nil
}

func (f *FeatureFlag) value() FeatureFlagValue {
	return FeatureFlagValue{
		ID:          f.Name,
		Description: f.Description,
		Enabled:     f.State != FeatureStateOff,
		Conditions:  f.Conditions,
	}
}

// featuresFromManagementSection converts the "FeatureManagement" section of a JSON file
// into feature flag key-values. A feature is either a boolean or an object with an
// EnabledFor list of filters; an AlwaysOn filter means enabled without conditions.
func featuresFromManagementSection(section map[string]any, label string) ([]KeyValue, error) {
	kvs := make([]KeyValue, 0, len(section))
	for _, name := range sortedKeys(section) {
		v := FeatureFlagValue{ID: name}
		switch raw := section[name].(type) {
		case bool:
			v.Enabled = raw
		case map[string]any:
			filters, ok := raw["EnabledFor"]
			if !ok {
				return nil, errors.Newf(errors.ErrCodeCLI,
					"File contains feature flags in invalid format. Feature '%s' must contain 'EnabledFor' definition or have a true/false value.", name)
			}
			list, _ := filters.([]any)
			v.Enabled = len(list) > 0
			v.Conditions.ClientFilters = parseEnabledFor(list)
		default:
			return nil, errors.Newf(errors.ErrCodeCLI,
				"File contains feature flags in invalid format. Feature '%s' must contain 'EnabledFor' definition or have a true/false value.", name)
		}
		kv, err := v.ToKeyValue(FeatureFlagPrefix+name, label)
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, kv)
	}
	return kvs, nil
}

func parseEnabledFor(list []any) []FeatureFilter {
	filters := make([]FeatureFilter, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var f FeatureFilter
		for k, val := range obj {
			switch strings.ToLower(k) {
			case "name":
				f.Name, _ = val.(string)
			case "parameters":
				f.Parameters, _ = val.(map[string]any)
			}
		}
		if f.Name == "" {
			continue
		}
		if strings.EqualFold(f.Name, "AlwaysOn") {
			return []FeatureFilter{}
		}
		filters = append(filters, f)
	}
	return filters
}

// featureManagementSection builds the "FeatureManagement" section written on export.
func featureManagementSection(flags []*FeatureFlag) map[string]any {
	section := make(map[string]any, len(flags))
	for _, f := range flags {
		switch f.State {
		case FeatureStateOn:
			section[f.Name] = true
		case FeatureStateOff:
			section[f.Name] = false
		default:
			enabledFor := make([]any, 0, len(f.Conditions.ClientFilters))
			for _, filter := range f.Conditions.ClientFilters {
				entry := map[string]any{"Name": filter.Name}
				if len(filter.Parameters) > 0 {
					entry["Parameters"] = filter.Parameters
				}
				enabledFor = append(enabledFor, entry)
			}
			section[f.Name] = map[string]any{"EnabledFor": enabledFor}
		}
	}
	return section
}
