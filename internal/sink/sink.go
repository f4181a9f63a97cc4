// Package sink writes finished exports to their destination: a local file,
// standard output or an S3 bucket.
package sink

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Sink stores an encoded export under name
type Sink interface {
	Write(ctx context.Context, name, mimeType string, data []byte) error
}

// FileSink writes exports into a directory
type FileSink struct {
	Dir string
}

func (s *FileSink) Write(_ context.Context, name, _ string, data []byte) error {
	path := filepath.Join(s.Dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// StdoutSink streams the export to a non-terminal output
type StdoutSink struct {
	File *os.File
}

// Check refuses to write binary data to a terminal
func (s *StdoutSink) Check() error {
	if stat, err := s.File.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		return fmt.Errorf("didn't specify output file and standard output is a terminal")
	}
	return nil
}

func (s *StdoutSink) Write(_ context.Context, _, _ string, data []byte) error {
	if err := s.Check(); err != nil {
		return err
	}
	if _, err := s.File.Write(data); err != nil {
		return fmt.Errorf("failed to write to standard output: %w", err)
	}
	return nil
}

// Open resolves target to a Sink and the object name to write. target is
// empty or "-" for standard output, "s3://bucket/prefix" for S3, an existing
// directory, or a file path. fallback names the object when target does not.
func Open(ctx context.Context, target, fallback string) (Sink, string, error) {
	switch {
	case target == "" || target == "-":
		return &StdoutSink{File: os.Stdout}, fallback, nil

	case strings.HasPrefix(target, "s3://"):
		cfg, name, err := parseS3(target, fallback)
		if err != nil {
			return nil, "", err
		}
		s, err := NewS3Sink(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return s, name, nil
	}

	if info, err := os.Stat(target); err == nil && info.IsDir() {
		return &FileSink{Dir: target}, fallback, nil
	}
	return &FileSink{Dir: filepath.Dir(target)}, filepath.Base(target), nil
}

// parseS3 splits s3://bucket/prefix[?region=..&endpoint=..]. A prefix that
// does not end in a slash is the object key itself.
func parseS3(target, fallback string) (S3Config, string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return S3Config{}, "", fmt.Errorf("invalid s3 target %q: %w", target, err)
	}
	if u.Host == "" {
		return S3Config{}, "", fmt.Errorf("s3 target %q has no bucket", target)
	}

	cfg := S3Config{
		Bucket:   u.Host,
		Region:   u.Query().Get("region"),
		Endpoint: u.Query().Get("endpoint"),
	}

	key := strings.TrimPrefix(u.Path, "/")
	name := fallback
	switch {
	case key == "":
	case strings.HasSuffix(key, "/"):
		cfg.Prefix = key
	default:
		if i := strings.LastIndex(key, "/"); i >= 0 {
			cfg.Prefix = key[:i+1]
		}
		name = key[strings.LastIndex(key, "/")+1:]
	}
	return cfg, name, nil
}
