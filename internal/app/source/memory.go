package source

import (
	"bytes"
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// MemoryScheme is the reference scheme of MemoryStore.
const MemoryScheme = "mem"

type blob struct {
	contentType string
	data        []byte
}

// MemoryStore keeps sources in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]blob
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string]blob)}
}

func (s *MemoryStore) Scheme() string {
	return MemoryScheme
}

func (s *MemoryStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, "put cancelled")
	}

	key := uuid.NewString()
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	s.blobs[key] = blob{contentType: contentType, data: copied}
	s.mu.Unlock()

	return Ref(MemoryScheme, key), nil
}

func (s *MemoryStore) Open(ctx context.Context, ref string) (*Object, error) {
	_, key := Split(ref)

	s.mu.RLock()
	b, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "ref=%s", ref)
	}

	return &Object{
		ReadSeekCloser: NopCloser(bytes.NewReader(b.data)),
		ContentType:    b.contentType,
		Size:           int64(len(b.data)),
	}, nil
}

func (s *MemoryStore) Release(ctx context.Context, ref string) error {
	_, key := Split(ref)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[key]; !ok {
		return errors.Wrapf(ErrNotFound, "ref=%s", ref)
	}
	delete(s.blobs, key)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
