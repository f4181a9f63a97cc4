package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	s := &FileSink{Dir: dir}

	require.NoError(t, s.Write(context.Background(), "map.png", "image/png", []byte("png")))

	got, err := os.ReadFile(filepath.Join(dir, "map.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(got))
}

func TestStdoutSink_File(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()

	s := &StdoutSink{File: f}
	require.NoError(t, s.Write(context.Background(), "ignored", "image/png", []byte("data")))

	got, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestOpen_Local(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, name, err := Open(ctx, "", "Map.png")
	require.NoError(t, err)
	assert.IsType(t, &StdoutSink{}, s)
	assert.Equal(t, "Map.png", name)

	s, name, err = Open(ctx, dir, "Map.png")
	require.NoError(t, err)
	assert.Equal(t, &FileSink{Dir: dir}, s)
	assert.Equal(t, "Map.png", name)

	s, name, err = Open(ctx, filepath.Join(dir, "berlin.jpg"), "Map.png")
	require.NoError(t, err)
	assert.Equal(t, &FileSink{Dir: dir}, s)
	assert.Equal(t, "berlin.jpg", name)
}

func TestParseS3(t *testing.T) {
	cases := []struct {
		target     string
		bucket     string
		prefix     string
		name       string
		wantRegion string
	}{
		{"s3://maps", "maps", "", "Map.png", ""},
		{"s3://maps/exports/", "maps", "exports/", "Map.png", ""},
		{"s3://maps/exports/berlin.png", "maps", "exports/", "berlin.png", ""},
		{"s3://maps/berlin.png?region=eu-central-1", "maps", "", "berlin.png", "eu-central-1"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			cfg, name, err := parseS3(tc.target, "Map.png")
			require.NoError(t, err)
			assert.Equal(t, tc.bucket, cfg.Bucket)
			assert.Equal(t, tc.prefix, cfg.Prefix)
			assert.Equal(t, tc.name, name)
			assert.Equal(t, tc.wantRegion, cfg.Region)
		})
	}

	_, _, err := parseS3("s3:///key", "Map.png")
	assert.Error(t, err)
}

func TestS3Sink_PutObject(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_REGION", "us-east-1")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	var (
		mu          sync.Mutex
		method      string
		path        string
		contentType string
		body        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method = r.Method
		path = r.URL.Path
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s, err := NewS3Sink(context.Background(), S3Config{
		Bucket:   "maps",
		Prefix:   "exports/",
		Endpoint: srv.URL,
	})
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), "Map.png", "image/png", []byte("png-bytes")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/maps/exports/Map.png", path)
	assert.Equal(t, "image/png", contentType)
	assert.Contains(t, string(body), "png-bytes")
}
