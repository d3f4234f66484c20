package index

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"policyrag/internal/domain"
	"policyrag/internal/port"
)

func openTestDB(t *testing.T, path string) *bbolt.DB {
	t.Helper()
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	return db
}

func TestQueryDistanceConvention(t *testing.T) {
	idx := NewMemoryIndex(2)

	err := idx.Upsert([]port.VectorItem{
		{ID: "same", Vector: []float32{1, 0}},
		{ID: "orthogonal", Vector: []float32{0, 1}},
		{ID: "opposite", Vector: []float32{-1, 0}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := idx.Query([]float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}

	// Identical vector: distance 0. Orthogonal: 1. Opposite: 2.
	want := []struct {
		id   string
		dist float64
	}{
		{"same", 0},
		{"orthogonal", 1},
		{"opposite", 2},
	}
	for i, w := range want {
		if hits[i].ChunkID != w.id {
			t.Errorf("position %d: expected %s, got %s", i, w.id, hits[i].ChunkID)
		}
		if math.Abs(hits[i].Distance-w.dist) > 1e-6 {
			t.Errorf("%s: distance %.4f, want %.4f", w.id, hits[i].Distance, w.dist)
		}
	}
}

func TestQueryTruncatesToK(t *testing.T) {
	idx := NewMemoryIndex(2)

	items := make([]port.VectorItem, 5)
	for i := range items {
		items[i] = port.VectorItem{ID: string(rune('a' + i)), Vector: []float32{1, float32(i)}}
	}
	if err := idx.Upsert(items); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	hits, err := idx.Query([]float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Distance > hits[1].Distance {
		t.Error("hits not in ascending distance order")
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex(3)

	_, err := idx.Query([]float32{1, 0}, 5)
	if err == nil {
		t.Fatal("expected an error for a dimension mismatch")
	}
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestUpsertRejectsWrongDimension(t *testing.T) {
	idx := NewMemoryIndex(3)

	err := idx.Upsert([]port.VectorItem{{ID: "bad", Vector: []float32{1, 2}}})
	if err == nil {
		t.Fatal("expected an error for a wrong-dimension vector")
	}
}

func TestBoltIndexPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	db := openTestDB(t, path)
	idx, err := NewBoltIndex(db, 2)
	if err != nil {
		t.Fatalf("NewBoltIndex: %v", err)
	}
	err = idx.Upsert([]port.VectorItem{
		{ID: "c1", Vector: []float32{1, 0}},
		{ID: "c2", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	db.Close()

	db = openTestDB(t, path)
	defer db.Close()
	idx, err = NewBoltIndex(db, 2)
	if err != nil {
		t.Fatalf("NewBoltIndex reopen: %v", err)
	}

	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 vectors after reopen, got %d", count)
	}

	hits, err := idx.Query([]float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(hits) != 1 || hits[0].ChunkID != "c1" {
		t.Errorf("expected c1 closest after reopen, got %v", hits)
	}
}

func TestBoltIndexDelete(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "index.db"))
	defer db.Close()

	idx, err := NewBoltIndex(db, 2)
	if err != nil {
		t.Fatalf("NewBoltIndex: %v", err)
	}
	err = idx.Upsert([]port.VectorItem{
		{ID: "c1", Vector: []float32{1, 0}},
		{ID: "c2", Vector: []float32{0, 1}},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := idx.Delete([]string{"c1"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	count, _ := idx.Count()
	if count != 1 {
		t.Errorf("expected 1 vector after delete, got %d", count)
	}
	hits, err := idx.Query([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, h := range hits {
		if h.ChunkID == "c1" {
			t.Error("deleted vector still returned")
		}
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	db := openTestDB(t, filepath.Join(t.TempDir(), "index.db"))
	defer db.Close()

	idx, err := NewBoltIndex(db, 2)
	if err != nil {
		t.Fatalf("NewBoltIndex: %v", err)
	}

	hits, err := idx.Query([]float32{1, 0}, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if hits != nil {
		t.Errorf("expected no hits from an empty index, got %v", hits)
	}
}
