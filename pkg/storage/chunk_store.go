package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
)

var (
	// ErrNotFound is returned when a chunk or metadata record is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidID is returned for file ids that can't be used as a flat file name.
	ErrInvalidID = errors.New("invalid file id")
)

// reserved names live next to chunks in the storage root.
var reserved = map[string]bool{
	MetadataFile:    true,
	"identity.json": true,
	"logs":          true,
}

// ChunkStore keeps whole-file chunks as flat files named by their file id
// directly under RootDir.
type ChunkStore struct {
	RootDir string
}

func NewChunkStore(rootDir string) *ChunkStore {
	return &ChunkStore{RootDir: rootDir}
}

func (s *ChunkStore) chunkPath(fileId string) (string, error) {
	if fileId == "" || strings.HasPrefix(fileId, ".") || strings.ContainsAny(fileId, `/\`) || reserved[fileId] {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, fileId)
	}
	return filepath.Join(s.RootDir, fileId), nil
}

// SaveChunk decodes the base64 payload and writes it to RootDir/fileId,
// replacing any previous chunk with the same id. It returns the number of
// bytes written.
func (s *ChunkStore) SaveChunk(fileId, base64Chunk string) (int, error) {
	path, err := s.chunkPath(fileId)
	if err != nil {
		return 0, err
	}

	data, err := base64.StdEncoding.DecodeString(base64Chunk)
	if err != nil {
		return 0, fmt.Errorf("decode chunk %s: %w", fileId, err)
	}

	if err := WriteFileAtomic(path, data, 0644); err != nil {
		return 0, fmt.Errorf("save chunk %s: %w", fileId, err)
	}

	logger.Sugar.Debugf("[ChunkStore] saved chunk: fileId=%s bytes=%d path=%s", fileId, len(data), path)
	return len(data), nil
}

// ReadChunkBytes returns the raw bytes of a stored chunk.
func (s *ChunkStore) ReadChunkBytes(fileId string) ([]byte, error) {
	path, err := s.chunkPath(fileId)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("chunk %s: %w", fileId, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read chunk %s: %w", fileId, err)
	}
	return data, nil
}

// ReadChunk returns the stored chunk base64 encoded, or ErrNotFound.
func (s *ChunkStore) ReadChunk(fileId string) (string, error) {
	data, err := s.ReadChunkBytes(fileId)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DeleteChunk removes the chunk and reports whether a file was removed.
func (s *ChunkStore) DeleteChunk(fileId string) (bool, error) {
	path, err := s.chunkPath(fileId)
	if err != nil {
		return false, err
	}

	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Sugar.Warnf("[ChunkStore] tried to delete missing chunk: fileId=%s", fileId)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete chunk %s: %w", fileId, err)
	}

	logger.Sugar.Infof("[ChunkStore] deleted chunk: fileId=%s", fileId)
	return true, nil
}

func (s *ChunkStore) Has(fileId string) bool {
	path, err := s.chunkPath(fileId)
	if err != nil {
		return false
	}
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

func (s *ChunkStore) Wipe() error {
	return os.RemoveAll(s.RootDir)
}
