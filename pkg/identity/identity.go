package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tarun-kavipurapu/lan-dfs/pkg/crypto"
	"tarun-kavipurapu/lan-dfs/pkg/logger"
	"tarun-kavipurapu/lan-dfs/pkg/storage"
)

// FileName is the identity document inside a node's storage directory.
const FileName = "identity.json"

// Identity is fixed for the lifetime of a node. EncryptionKey is carried
// along but not used to secure the wire.
type Identity struct {
	NodeID        string `json:"nodeId"`
	EncryptionKey string `json:"encryptionKey"`
}

// New generates a fresh identity.
func New() (Identity, error) {
	key, err := crypto.NewEncryptionKey()
	if err != nil {
		return Identity{}, err
	}
	return Identity{NodeID: crypto.GenerateID(), EncryptionKey: key}, nil
}

// Load reads storagePath/identity.json, generating and persisting a new
// identity the first time.
func Load(storagePath string) (Identity, error) {
	path := filepath.Join(storagePath, FileName)

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var id Identity
		if err := json.Unmarshal(data, &id); err != nil {
			return Identity{}, fmt.Errorf("parse %s: %w", path, err)
		}
		if id.NodeID == "" {
			return Identity{}, fmt.Errorf("parse %s: empty nodeId", path)
		}
		logger.Sugar.Infof("[Identity] loaded existing identity: nodeId=%s", id.NodeID)
		return id, nil
	case !errors.Is(err, os.ErrNotExist):
		return Identity{}, fmt.Errorf("read %s: %w", path, err)
	}

	id, err := New()
	if err != nil {
		return Identity{}, err
	}

	out, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return Identity{}, err
	}
	if err := storage.WriteFileAtomic(path, out, 0600); err != nil {
		return Identity{}, fmt.Errorf("save identity: %w", err)
	}

	logger.Sugar.Infof("[Identity] generated new identity: nodeId=%s", id.NodeID)
	return id, nil
}
