package acr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/errors"
)

func newRegistry(t *testing.T) (*Client, string) {
	t.Helper()

	manifest, err := json.Marshal(ocispec.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageManifest,
		Config: ocispec.Descriptor{
			MediaType: ocispec.MediaTypeImageConfig,
			Digest:    "sha256:44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a",
			Size:      2,
		},
		Layers: []ocispec.Descriptor{},
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/_catalog", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"repositories":["web","api"]}`))
	})
	mux.HandleFunc("/v2/api/tags/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"name":"api","tags":["v2","v1"]}`))
	})
	mux.HandleFunc("/v2/api/manifests/v1", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ocispec.MediaTypeImageManifest)
		_, _ = w.Write(manifest)
	})
	mux.HandleFunc("/v2/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errors":[{"code":"MANIFEST_UNKNOWN","message":"manifest unknown"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	host := strings.TrimPrefix(srv.URL, "http://")
	client, err := NewClient(host, ClientOptions{PlainHTTP: true, HTTPClient: srv.Client()})
	require.NoError(t, err)
	return client, host
}

func TestRepositories(t *testing.T) {
	client, _ := newRegistry(t)
	repos, err := client.Repositories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "web"}, repos)
}

func TestTags(t *testing.T) {
	client, _ := newRegistry(t)
	tags, err := client.Tags(context.Background(), "api")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "v2"}, tags)
}

func TestManifestShow(t *testing.T) {
	client, host := newRegistry(t)

	img, err := ParseImage(host, "api:v1")
	require.NoError(t, err)
	m, err := client.ManifestShow(context.Background(), img)
	require.NoError(t, err)
	require.NotNil(t, m.Image)
	assert.Nil(t, m.Index)
	assert.Equal(t, ocispec.MediaTypeImageManifest, m.Descriptor.MediaType)
	assert.Equal(t, 2, m.Image.SchemaVersion)

	img.Tag = "missing"
	_, err = client.ManifestShow(context.Background(), img)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeResourceNotFound))
}
