package appconfig

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azappconfig"
	"k8s.io/utils/ptr"

	"github.com/azctl/azctl/pkg/errors"
)

// KeyValue is a configuration setting as shown to the user.
type KeyValue struct {
	Key          string            `json:"key" yaml:"key"`
	Value        string            `json:"value" yaml:"value"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	ContentType  string            `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	ETag         string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	LastModified string            `json:"lastModified,omitempty" yaml:"lastModified,omitempty"`
	Locked       bool              `json:"locked" yaml:"locked"`
	Tags         map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Store reads and writes key-values of one configuration store.
type Store interface {
	// Get returns the key-value with the given key and label. A missing key-value is a
	// RESOURCE_NOT_FOUND error.
	Get(ctx context.Context, key, label string) (*KeyValue, error)
	Set(ctx context.Context, kv KeyValue) (*KeyValue, error)
	Delete(ctx context.Context, key, label string) (*KeyValue, error)
	// List returns the key-values matching the key and label filters, sorted by key.
	List(ctx context.Context, keyFilter, labelFilter string) ([]KeyValue, error)
}

// SDKStore implements Store with the azappconfig data plane client.
type SDKStore struct {
	client *azappconfig.Client
}

// NewStore connects to a store with a connection string or, when it is empty, with the
// endpoint and an Entra ID credential.
func NewStore(connectionString, endpoint string, cred azcore.TokenCredential) (*SDKStore, error) {
	var (
		client *azappconfig.Client
		err    error
	)
	switch {
	case connectionString != "":
		client, err = azappconfig.NewClientFromConnectionString(connectionString, nil)
	case endpoint != "":
		client, err = azappconfig.NewClient(endpoint, cred, nil)
	default:
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing,
			"Please specify config store name or connection string(suggested).")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgumentValue, "failed to create App Configuration client", err)
	}
	return &SDKStore{client: client}, nil
}

// Get implements Store.
func (s *SDKStore) Get(ctx context.Context, key, label string) (*KeyValue, error) {
	resp, err := s.client.GetSetting(ctx, key, &azappconfig.GetSettingOptions{Label: labelPtr(label)})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Newf(errors.ErrCodeResourceNotFound,
				"Key '%s' with label '%s' does not exist.", key, labelOrNull(label))
		}
		return nil, errors.FromAzureError(err)
	}
	kv := fromSetting(resp.Setting)
	return &kv, nil
}

// Set implements Store.
func (s *SDKStore) Set(ctx context.Context, kv KeyValue) (*KeyValue, error) {
	opts := &azappconfig.SetSettingOptions{Label: labelPtr(kv.Label)}
	if kv.ContentType != "" {
		opts.ContentType = ptr.To(kv.ContentType)
	}
	if kv.ETag != "" {
		opts.OnlyIfUnchanged = ptr.To(azcore.ETag(kv.ETag))
	}
	resp, err := s.client.SetSetting(ctx, kv.Key, ptr.To(kv.Value), opts)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	out := fromSetting(resp.Setting)
	return &out, nil
}

// Delete implements Store.
func (s *SDKStore) Delete(ctx context.Context, key, label string) (*KeyValue, error) {
	resp, err := s.client.DeleteSetting(ctx, key, &azappconfig.DeleteSettingOptions{Label: labelPtr(label)})
	if err != nil {
		if isNotFound(err) {
			return nil, errors.Newf(errors.ErrCodeResourceNotFound,
				"Key '%s' with label '%s' does not exist.", key, labelOrNull(label))
		}
		return nil, errors.FromAzureError(err)
	}
	out := fromSetting(resp.Setting)
	return &out, nil
}

// List implements Store.
func (s *SDKStore) List(ctx context.Context, keyFilter, labelFilter string) ([]KeyValue, error) {
	selector := azappconfig.SettingSelector{}
	if keyFilter != "" {
		selector.KeyFilter = ptr.To(keyFilter)
	}
	if labelFilter != "" {
		selector.LabelFilter = ptr.To(labelFilter)
	}

	var kvs []KeyValue
	pager := s.client.NewListSettingsPager(selector, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.FromAzureError(err)
		}
		for _, setting := range page.Settings {
			kvs = append(kvs, fromSetting(setting))
		}
	}
	sortKeyValues(kvs)
	return kvs, nil
}

func fromSetting(s azappconfig.Setting) KeyValue {
	kv := KeyValue{
		Key:         ptr.Deref(s.Key, ""),
		Value:       ptr.Deref(s.Value, ""),
		Label:       ptr.Deref(s.Label, ""),
		ContentType: ptr.Deref(s.ContentType, ""),
		Locked:      ptr.Deref(s.IsReadOnly, false),
		Tags:        s.Tags,
	}
	if s.ETag != nil {
		kv.ETag = string(*s.ETag)
	}
	if s.LastModified != nil {
		kv.LastModified = s.LastModified.UTC().Format(time.RFC3339)
	}
	return kv
}

// labelPtr maps the empty label to the null label.
func labelPtr(label string) *string {
	if label == "" || label == NullLabel {
		return nil
	}
	return ptr.To(label)
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return stderrors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
