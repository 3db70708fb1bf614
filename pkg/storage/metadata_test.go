package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestSaveAndGetFileName(t *testing.T) {
	m := NewMetadataIndex(t.TempDir())

	if err := m.SaveMetadata("H1", "f.txt"); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	name, err := m.GetFileName("H1")
	if err != nil {
		t.Fatalf("GetFileName: %v", err)
	}
	if name != "f.txt" {
		t.Errorf("GetFileName() = %q, want %q", name, "f.txt")
	}

	if _, err := m.GetFileName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetFileName(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSaveMetadataIsIdempotent(t *testing.T) {
	m := NewMetadataIndex(t.TempDir())

	ts := time.UnixMilli(1_000)
	m.now = func() time.Time { return ts }
	if err := m.SaveMetadata("abc", "example.txt"); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	ts = time.UnixMilli(2_000)
	if err := m.SaveMetadata("abc", "example.txt"); err != nil {
		t.Fatalf("SaveMetadata: %v", err)
	}

	all, err := m.ListAllFiles()
	if err != nil {
		t.Fatalf("ListAllFiles: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("len(ListAllFiles()) = %d, want 1", len(all))
	}
	if got := all["abc"]; got.FileName != "example.txt" || got.CreatedAt != 2_000 {
		t.Errorf("record = %+v, want {example.txt 2000}", got)
	}
}

func TestUnparsableIndexTreatedAsEmpty(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, MetadataFile), []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	m := NewMetadataIndex(root)
	all, err := m.ListAllFiles()
	if err != nil {
		t.Fatalf("ListAllFiles: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAllFiles() = %v, want empty", all)
	}

	if err := m.SaveMetadata("x", "x.bin"); err != nil {
		t.Fatalf("SaveMetadata over corrupt index: %v", err)
	}
	if name, err := m.GetFileName("x"); err != nil || name != "x.bin" {
		t.Errorf("GetFileName() = %q, %v, want x.bin, nil", name, err)
	}
}

func TestDeleteMetadata(t *testing.T) {
	m := NewMetadataIndex(t.TempDir())

	if ok, err := m.DeleteMetadata("nothing"); err != nil || ok {
		t.Fatalf("DeleteMetadata on empty index = %v, %v, want false, nil", ok, err)
	}

	for _, id := range []string{"a", "b"} {
		if err := m.SaveMetadata(id, id+".txt"); err != nil {
			t.Fatalf("SaveMetadata(%q): %v", id, err)
		}
	}

	if ok, err := m.DeleteMetadata("a"); err != nil || !ok {
		t.Fatalf("DeleteMetadata(a) = %v, %v, want true, nil", ok, err)
	}

	ids, err := m.IDs()
	if err != nil {
		t.Fatalf("IDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b" {
		t.Errorf("IDs() = %v, want [b]", ids)
	}
}

// Concurrent writers on the same root, through separate index values, must
// not lose updates.
func TestConcurrentSaveMetadata(t *testing.T) {
	root := t.TempDir()
	const writers = 40

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m := NewMetadataIndex(root)
			errs <- m.SaveMetadata(fmt.Sprintf("file-%02d", i), fmt.Sprintf("name-%02d", i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("SaveMetadata: %v", err)
		}
	}

	all, err := NewMetadataIndex(root).ListAllFiles()
	if err != nil {
		t.Fatalf("ListAllFiles: %v", err)
	}
	if len(all) != writers {
		t.Errorf("len(ListAllFiles()) = %d, want %d", len(all), writers)
	}

	leftovers, err := filepath.Glob(filepath.Join(root, ".*.tmp-*"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}
