package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"tarun-kavipurapu/lan-dfs/pkg/logger"
)

// MetadataFile is the name of the index document inside a storage root.
const MetadataFile = "metadata.json"

// FileRecord is one entry of the metadata index. CreatedAt is epoch millis.
type FileRecord struct {
	FileName  string `json:"fileName"`
	CreatedAt int64  `json:"createdAt"`
}

// rootLocks serializes read-modify-write cycles per storage root, shared by
// every MetadataIndex opened on the same directory.
var rootLocks sync.Map // cleaned absolute root -> *sync.Mutex

func lockForRoot(root string) *sync.Mutex {
	key := root
	if abs, err := filepath.Abs(root); err == nil {
		key = abs
	}
	mu, _ := rootLocks.LoadOrStore(filepath.Clean(key), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// MetadataIndex maps file ids to their original name and creation time. All
// records live in a single JSON document that is replaced atomically on
// every change.
type MetadataIndex struct {
	path string
	mu   *sync.Mutex
	now  func() time.Time
}

func NewMetadataIndex(rootDir string) *MetadataIndex {
	return &MetadataIndex{
		path: filepath.Join(rootDir, MetadataFile),
		mu:   lockForRoot(rootDir),
		now:  time.Now,
	}
}

// load reads the document. A missing or unparsable document is treated as empty.
func (m *MetadataIndex) load() (map[string]FileRecord, error) {
	records := make(map[string]FileRecord)

	data, err := os.ReadFile(m.path)
	if errors.Is(err, os.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", m.path, err)
	}

	if err := json.Unmarshal(data, &records); err != nil {
		logger.Sugar.Errorf("[Metadata] failed to parse index, starting empty: path=%s err=%v", m.path, err)
		return make(map[string]FileRecord), nil
	}
	return records, nil
}

func (m *MetadataIndex) save(records map[string]FileRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := WriteFileAtomic(m.path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", m.path, err)
	}
	return nil
}

// SaveMetadata upserts fileId -> {fileName, now}.
func (m *MetadataIndex) SaveMetadata(fileId, fileName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.load()
	if err != nil {
		return err
	}

	records[fileId] = FileRecord{FileName: fileName, CreatedAt: m.now().UnixMilli()}
	if err := m.save(records); err != nil {
		return err
	}

	logger.Sugar.Debugf("[Metadata] saved record: fileId=%s fileName=%s", fileId, fileName)
	return nil
}

// Get returns the record for fileId or ErrNotFound.
func (m *MetadataIndex) Get(fileId string) (FileRecord, error) {
	records, err := m.load()
	if err != nil {
		return FileRecord{}, err
	}
	rec, ok := records[fileId]
	if !ok {
		return FileRecord{}, fmt.Errorf("metadata %s: %w", fileId, ErrNotFound)
	}
	return rec, nil
}

// GetFileName returns the original file name recorded for fileId.
func (m *MetadataIndex) GetFileName(fileId string) (string, error) {
	rec, err := m.Get(fileId)
	if err != nil {
		return "", err
	}
	return rec.FileName, nil
}

func (m *MetadataIndex) ListAllFiles() (map[string]FileRecord, error) {
	return m.load()
}

// IDs returns the indexed file ids in lexical order.
func (m *MetadataIndex) IDs() ([]string, error) {
	records, err := m.load()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// DeleteMetadata removes the record for fileId and reports whether one existed.
func (m *MetadataIndex) DeleteMetadata(fileId string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.load()
	if err != nil {
		return false, err
	}
	if _, ok := records[fileId]; !ok {
		return false, nil
	}

	delete(records, fileId)
	if err := m.save(records); err != nil {
		return false, err
	}
	return true, nil
}
