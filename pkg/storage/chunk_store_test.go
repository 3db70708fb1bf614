package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSaveReadChunkRoundTrip(t *testing.T) {
	s := NewChunkStore(filepath.Join(t.TempDir(), "node"))

	random := make([]byte, 64*1024)
	if _, err := rand.Read(random); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}

	inputs := [][]byte{
		[]byte("hi"),
		{},
		{0x00, 0xff, 0x10, 0x80},
		random,
	}

	for i, want := range inputs {
		id := "chunk-" + string(rune('a'+i))
		n, err := s.SaveChunk(id, base64.StdEncoding.EncodeToString(want))
		if err != nil {
			t.Fatalf("SaveChunk(%q): %v", id, err)
		}
		if n != len(want) {
			t.Errorf("SaveChunk(%q) wrote %d bytes, want %d", id, n, len(want))
		}

		encoded, err := s.ReadChunk(id)
		if err != nil {
			t.Fatalf("ReadChunk(%q): %v", id, err)
		}
		got, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			t.Fatalf("ReadChunk(%q) returned invalid base64: %v", id, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadChunk(%q) = %d bytes, want the original %d bytes", id, len(got), len(want))
		}
	}
}

func TestChunkStoredRawOnDisk(t *testing.T) {
	root := t.TempDir()
	s := NewChunkStore(root)

	if _, err := s.SaveChunk("H1", base64.StdEncoding.EncodeToString([]byte("hi"))); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "H1"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("on-disk chunk = %q, want %q", data, "hi")
	}
}

func TestSaveChunkOverwrites(t *testing.T) {
	s := NewChunkStore(t.TempDir())

	for _, body := range []string{"first version", "v2"} {
		if _, err := s.SaveChunk("same", base64.StdEncoding.EncodeToString([]byte(body))); err != nil {
			t.Fatalf("SaveChunk: %v", err)
		}
	}

	got, err := s.ReadChunkBytes("same")
	if err != nil {
		t.Fatalf("ReadChunkBytes: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("ReadChunkBytes() = %q, want %q", got, "v2")
	}
}

func TestReadMissingChunk(t *testing.T) {
	s := NewChunkStore(t.TempDir())

	if _, err := s.ReadChunk("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadChunk(missing) error = %v, want ErrNotFound", err)
	}
	if s.Has("nope") {
		t.Errorf("Has(missing) = true, want false")
	}
}

func TestDeleteChunk(t *testing.T) {
	s := NewChunkStore(t.TempDir())

	if _, err := s.SaveChunk("gone", base64.StdEncoding.EncodeToString([]byte("x"))); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}

	removed, err := s.DeleteChunk("gone")
	if err != nil || !removed {
		t.Fatalf("DeleteChunk() = %v, %v, want true, nil", removed, err)
	}
	if s.Has("gone") {
		t.Errorf("chunk still present after delete")
	}

	removed, err = s.DeleteChunk("gone")
	if err != nil || removed {
		t.Errorf("second DeleteChunk() = %v, %v, want false, nil", removed, err)
	}
}

func TestInvalidIDs(t *testing.T) {
	s := NewChunkStore(t.TempDir())
	payload := base64.StdEncoding.EncodeToString([]byte("x"))

	for _, id := range []string{"", "../escape", "a/b", `a\b`, ".hidden", MetadataFile, "identity.json"} {
		if _, err := s.SaveChunk(id, payload); !errors.Is(err, ErrInvalidID) {
			t.Errorf("SaveChunk(%q) error = %v, want ErrInvalidID", id, err)
		}
	}
}

func TestSaveChunkRejectsBadBase64(t *testing.T) {
	s := NewChunkStore(t.TempDir())

	if _, err := s.SaveChunk("bad", "!!!not base64!!!"); err == nil {
		t.Fatalf("SaveChunk with invalid base64 returned no error")
	}
	if s.Has("bad") {
		t.Errorf("invalid payload left a chunk behind")
	}
}
