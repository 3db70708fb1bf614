package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHashKeyIsStable(t *testing.T) {
	h1 := HashKey("hello world")
	h2 := HashKey("hello world")

	if h1 != h2 {
		t.Fatalf("HashKey() not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("len(HashKey()) = %d, want 64", len(h1))
	}
	if _, err := hex.DecodeString(h1); err != nil {
		t.Errorf("HashKey() = %q is not hex: %v", h1, err)
	}
}

func TestHashReaderMatchesHashKey(t *testing.T) {
	got, err := HashReader(strings.NewReader("some file contents"))
	if err != nil {
		t.Fatalf("HashReader: %v", err)
	}
	if want := HashKey("some file contents"); got != want {
		t.Errorf("HashReader() = %q, want %q", got, want)
	}
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Fatalf("GenerateID() returned %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("GenerateID() = %q is not a uuid: %v", a, err)
	}
}

func TestNewEncryptionKey(t *testing.T) {
	key, err := NewEncryptionKey()
	if err != nil {
		t.Fatalf("NewEncryptionKey: %v", err)
	}
	raw, err := hex.DecodeString(key)
	if err != nil {
		t.Fatalf("NewEncryptionKey() = %q is not hex: %v", key, err)
	}
	if len(raw) != EncryptionKeySize {
		t.Errorf("key length = %d bytes, want %d", len(raw), EncryptionKeySize)
	}
}
