// Package artifact fetches fitted model artifacts from storage and decodes
// them into evaluable models.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Artifact error sentinels.
var (
	ErrNotFound = errors.New("artifact not found")
	ErrCorrupt  = errors.New("artifact is corrupt")
	ErrFormat   = errors.New("unsupported artifact format")
	ErrScheme   = errors.New("unsupported artifact location")
)

// Store reads the raw bytes of an artifact identified by uri. Stat checks
// that the artifact exists and is readable without fetching its contents.
type Store interface {
	Open(ctx context.Context, uri string) ([]byte, error)
	Stat(ctx context.Context, uri string) error
}

// LocalStore reads artifacts from the local filesystem.
type LocalStore struct{}

// Open reads the file at path. A file:// prefix is accepted.
func (LocalStore) Open(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = strings.TrimPrefix(path, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", path, err)
	}
	return data, nil
}

// Stat checks that path names a readable regular file.
func (LocalStore) Stat(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path = strings.TrimPrefix(path, "file://")
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return fmt.Errorf("failed to stat artifact %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", path, err)
	}
	return f.Close()
}

// MultiStore routes a uri to the store registered for its scheme. Paths
// without a scheme go to the local store.
type MultiStore struct {
	Local Store
	S3    Store
}

// Open dispatches on the uri scheme.
func (m MultiStore) Open(ctx context.Context, uri string) ([]byte, error) {
	store, err := m.route(uri)
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, uri)
}

// Stat dispatches on the uri scheme.
func (m MultiStore) Stat(ctx context.Context, uri string) error {
	store, err := m.route(uri)
	if err != nil {
		return err
	}
	return store.Stat(ctx, uri)
}

func (m MultiStore) route(uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "s3://"):
		if m.S3 == nil {
			return nil, fmt.Errorf("%w: %s (S3 is not configured)", ErrScheme, uri)
		}
		return m.S3, nil
	case strings.Contains(uri, "://") && !strings.HasPrefix(uri, "file://"):
		return nil, fmt.Errorf("%w: %s", ErrScheme, uri)
	case m.Local == nil:
		return LocalStore{}, nil
	default:
		return m.Local, nil
	}
}
