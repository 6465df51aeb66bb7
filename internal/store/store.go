// Package store reads the generated site data: JSON files under config/ and
// markdown or HTML under content/.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/expvn/explog/internal/config"
)

// ErrNotFound reports that the named resource does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrTooLarge reports a body over maxBodyBytes. It arrives wrapped in a
// *FetchError.
var ErrTooLarge = errors.New("store: body too large")

const maxBodyBytes = 16 << 20

// Fetcher returns the raw bytes stored under name, a slash-separated path
// relative to the site root such as "config/posts/page-1.json".
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// FetchError is a transport or server failure other than a plain miss.
type FetchError struct {
	Name   string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("store: fetch %s: status %d", e.Name, e.Status)
	}
	return fmt.Sprintf("store: fetch %s: %v", e.Name, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// New builds the fetcher selected by cfg.Source. The default reads the build
// output directory.
func New(ctx context.Context, cfg config.Config) (Fetcher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source.Kind)) {
	case "", "dir":
		return NewDir(cfg.OutputDir), nil
	case "http":
		if strings.TrimSpace(cfg.Source.URL) == "" {
			return nil, errors.New("store: source.url is required for the http source")
		}
		return NewHTTP(cfg.Source.URL, nil), nil
	case "s3":
		return NewS3(ctx, cfg.Source.Bucket, cfg.Source.Prefix, cfg.Source.Region)
	default:
		return nil, fmt.Errorf("store: unknown source kind %q", cfg.Source.Kind)
	}
}

// readBody reads at most limit bytes of r. A longer body is an error rather
// than a silently truncated post.
func readBody(name string, r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, &FetchError{Name: name, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, &FetchError{Name: name, Err: fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)}
	}
	return data, nil
}

// cleanName normalises name and rejects anything that escapes the root.
func cleanName(name string) (string, bool) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == ".." {
			return "", false
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+name), "/")
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}
