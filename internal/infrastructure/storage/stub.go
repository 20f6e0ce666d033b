package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StubArchiveStorage is an in-memory ArchiveStorage used when object
// storage is disabled and in tests
type StubArchiveStorage struct {
	mu       sync.Mutex
	archives map[string][]byte
}

// NewStubArchiveStorage creates a new StubArchiveStorage
func NewStubArchiveStorage() *StubArchiveStorage {
	return &StubArchiveStorage{archives: make(map[string][]byte)}
}

var _ ArchiveStorage = (*StubArchiveStorage)(nil)

// UploadArchive stores the archive in memory
func (s *StubArchiveStorage) UploadArchive(ctx context.Context, archive []byte) (string, error) {
	if len(archive) == 0 {
		return "", errors.New("archive payload is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("stub/snapshot-%s-%d.json", time.Now().UTC().Format("20060102T150405Z"), len(s.archives))
	s.archives[key] = archive
	return key, nil
}

// Archive returns a stored archive by key
func (s *StubArchiveStorage) Archive(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	archive, ok := s.archives[key]
	return archive, ok
}
