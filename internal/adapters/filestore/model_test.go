package filestore_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"travel_recommender/internal/adapters/filestore"
	"travel_recommender/internal/domain"
)

func TestModelStore_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "model.json")
	s := filestore.NewModelStore(path)
	ctx := context.Background()

	if _, err := s.LoadModel(ctx); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	a := domain.ClusterArtifact{
		Version:   "abc",
		Mean:      []float64{1, 1, 4},
		Scale:     []float64{1, 1, 1},
		Centroids: [][]float64{{0, 0, 0}},
		Labels:    map[int64]int{1: 0},
	}
	if err := s.SaveModel(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.LoadModel(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Version != "abc" || got.Labels[1] != 0 || len(got.Mean) != 3 {
		t.Fatalf("unexpected artifact: %+v", got)
	}

	ents, _ := os.ReadDir(filepath.Dir(path))
	if len(ents) != 1 {
		t.Fatalf("expected only the artifact file, found %d entries", len(ents))
	}
}

func TestModelStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := filestore.NewModelStore(path).LoadModel(context.Background())
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
