package appconfig

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/azctl/azctl/pkg/errors"
)

type kvID struct{ key, label string }

// memStore is an in-memory Store.
type memStore struct {
	mu       sync.Mutex
	kvs      map[kvID]KeyValue
	version  int
	conflict int // number of Set calls to fail with 412
	failKey  string
}

func newMemStore(kvs ...KeyValue) *memStore {
	s := &memStore{kvs: make(map[kvID]KeyValue)}
	for _, kv := range kvs {
		s.put(kv)
	}
	return s
}

func (s *memStore) put(kv KeyValue) KeyValue {
	s.version++
	kv.ETag = fmt.Sprintf("etag-%d", s.version)
	kv.LastModified = "2026-01-02T03:04:05Z"
	s.kvs[kvID{kv.Key, kv.Label}] = kv
	return kv
}

func (s *memStore) Get(_ context.Context, key, label string) (*KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if label == NullLabel {
		label = ""
	}
	kv, ok := s.kvs[kvID{key, label}]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeResourceNotFound, "Key '%s' with label '%s' does not exist.", key, labelOrNull(label))
	}
	return &kv, nil
}

func (s *memStore) Set(_ context.Context, kv KeyValue) (*KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kv.Key == s.failKey {
		return nil, errors.New(errors.ErrCodeAzureInternal, "boom")
	}
	if s.conflict > 0 {
		s.conflict--
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidArgumentValue, "precondition failed", nil,
			map[string]any{"status": http.StatusPreconditionFailed})
	}
	if existing, ok := s.kvs[kvID{kv.Key, kv.Label}]; ok && kv.ETag != "" && kv.ETag != existing.ETag {
		return nil, errors.WrapWithContext(errors.ErrCodeInvalidArgumentValue, "precondition failed", nil,
			map[string]any{"status": http.StatusPreconditionFailed})
	}
	out := s.put(kv)
	return &out, nil
}

func (s *memStore) Delete(_ context.Context, key, label string) (*KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := kvID{key, label}
	kv, ok := s.kvs[id]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeResourceNotFound, "Key '%s' with label '%s' does not exist.", key, labelOrNull(label))
	}
	delete(s.kvs, id)
	return &kv, nil
}

func (s *memStore) List(_ context.Context, keyFilter, labelFilter string) ([]KeyValue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]KeyValue, 0, len(s.kvs))
	for _, kv := range s.kvs {
		all = append(all, kv)
	}
	kvs := FilterKeyValues(all, keyFilter, labelFilter)
	sortKeyValues(kvs)
	return kvs, nil
}
