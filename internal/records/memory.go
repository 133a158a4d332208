package records

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/wolfman30/campusride/pkg/logging"
)

// MemoryStore keeps lists in process memory. It stores the encoded bytes so
// it behaves like the persisted backends, including for corrupted data.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	logger *logging.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryStore{data: make(map[string][]byte), logger: logger}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, kind Kind, record any) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out, recovered, err := appendToList(s.data[key], record)
	if err != nil {
		return err
	}
	if recovered {
		s.logger.Warn("unparsable record list replaced", "key", key)
	}
	s.data[key] = out
	return nil
}

// EnsureInitialized implements Store.
func (s *MemoryStore) EnsureInitialized(ctx context.Context, kind Kind) error {
	key, err := Key(kind)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		s.data[key] = append([]byte(nil), emptyList...)
	}
	return nil
}

// List implements Store.
func (s *MemoryStore) List(ctx context.Context, kind Kind) ([]json.RawMessage, error) {
	key, err := Key(kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list, _ := decodeList(s.data[key])
	return list, nil
}

// Raw returns the stored bytes of a key.
func (s *MemoryStore) Raw(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	return append([]byte(nil), data...), ok
}

// SetRaw overwrites the stored bytes of a key.
func (s *MemoryStore) SetRaw(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), data...)
}
