// Package registry stores versioned model artifacts so trainers can
// publish a fitted model under a name and the scoring service can
// resolve that name to the latest artifact.
package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/your-org/diabetes-classifier/internal/config"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// Store is the blob backend under the registry: a flat key space of
// artifact files.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

// Registry is a versioned model store. Keys are laid out as
// "<name>/<version>.gob"; the largest version is the latest.
type Registry struct {
	store    Store
	cacheDir string
}

// New builds a Registry from configuration, choosing the backend.
func New(cfg config.RegistryConfig) (*Registry, error) {
	var store Store
	var err error
	switch cfg.Backend {
	case "local":
		store, err = NewLocalStore(cfg.Dir)
	case "s3":
		store, err = NewS3Store(cfg)
	default:
		err = fmt.Errorf("registry: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &Registry{store: store, cacheDir: cfg.CacheDir}, nil
}

// NewWithStore builds a Registry over an explicit store. Used by tests.
func NewWithStore(store Store, cacheDir string) *Registry {
	return &Registry{store: store, cacheDir: cacheDir}
}

// Register uploads the artifact at artifactPath under name and returns
// the new version number.
func (r *Registry) Register(ctx context.Context, name, artifactPath string) (int, error) {
	latest, err := r.LatestVersion(ctx, name)
	if err != nil {
		return 0, err
	}
	version := latest + 1

	f, err := os.Open(artifactPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open artifact %s: %w", artifactPath, err)
	}
	defer f.Close()

	key := versionKey(name, version)
	if err := r.store.Put(ctx, key, f); err != nil {
		return 0, fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	logger.Infof("Registered model %q version %d from %s", name, version, artifactPath)
	return version, nil
}

// LatestVersion returns the highest registered version of name, or 0
// when the model has never been registered.
func (r *Registry) LatestVersion(ctx context.Context, name string) (int, error) {
	keys, err := r.store.List(ctx, name+"/")
	if err != nil {
		return 0, fmt.Errorf("failed to list artifacts for %q: %w", name, err)
	}

	versions := make([]int, 0, len(keys))
	for _, k := range keys {
		base := strings.TrimSuffix(path.Base(k), ".gob")
		v, err := strconv.Atoi(base)
		if err != nil {
			logger.Warnf("Ignoring foreign key %q in model store", k)
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return 0, nil
	}
	sort.Ints(versions)
	return versions[len(versions)-1], nil
}

// ModelPath resolves name to a local file path holding the latest
// registered artifact, downloading it into the cache directory first.
func (r *Registry) ModelPath(ctx context.Context, name string) (string, error) {
	version, err := r.LatestVersion(ctx, name)
	if err != nil {
		return "", err
	}
	if version == 0 {
		return "", fmt.Errorf("registry: model %q has never been registered", name)
	}

	src, err := r.store.Get(ctx, versionKey(name, version))
	if err != nil {
		return "", fmt.Errorf("failed to fetch artifact for %q v%d: %w", name, version, err)
	}
	defer src.Close()

	dir := filepath.Join(r.cacheDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create model cache dir: %w", err)
	}
	dst := filepath.Join(dir, fmt.Sprintf("%d.gob", version))

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create cached artifact: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to copy artifact: %w", err)
	}

	logger.Infof("Resolved model %q to version %d (%s)", name, version, dst)
	return dst, nil
}

func versionKey(name string, version int) string {
	return fmt.Sprintf("%s/%d.gob", name, version)
}
