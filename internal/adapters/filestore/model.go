// Package filestore persists the cluster artifact as a JSON file on local disk.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"travel_recommender/internal/domain"
)

type ModelStore struct{ path string }

func NewModelStore(path string) *ModelStore { return &ModelStore{path: path} }

func (s *ModelStore) LoadModel(ctx context.Context) (domain.ClusterArtifact, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.ClusterArtifact{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ClusterArtifact{}, err
	}
	var a domain.ClusterArtifact
	if err := json.Unmarshal(b, &a); err != nil {
		return domain.ClusterArtifact{}, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return a, nil
}

// SaveModel writes to a temp file in the same directory and renames it over
// the target, so readers never observe a partial artifact.
func (s *ModelStore) SaveModel(ctx context.Context, a domain.ClusterArtifact) error {
	b, err := json.Marshal(a)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".model-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
