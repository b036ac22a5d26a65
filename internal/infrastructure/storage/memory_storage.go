// Package storage provides object storage implementations for attachment handling.
package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	appbilling "github.com/paytrack/backend/internal/application/billing"
)

// InMemoryObjectStorage keeps uploaded objects in process memory.
// Use this for development and tests; production deployments must
// use S3ObjectStorage (the config layer enforces this).
type InMemoryObjectStorage struct {
	// BaseURL is the base URL for generated download URLs.
	// Defaults to "https://storage.example.com" if not set.
	BaseURL string

	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	content     []byte
	contentType string
}

// NewInMemoryObjectStorage creates a new InMemoryObjectStorage
func NewInMemoryObjectStorage() *InMemoryObjectStorage {
	return &InMemoryObjectStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string]storedObject),
	}
}

// Ensure InMemoryObjectStorage implements ObjectStorageService
var _ appbilling.ObjectStorageService = (*InMemoryObjectStorage)(nil)

// Upload reads the body into memory and stores it under storageKey.
func (s *InMemoryObjectStorage) Upload(ctx context.Context, storageKey, contentType string, body io.Reader) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[storageKey] = storedObject{content: content, contentType: contentType}
	return nil
}

// GenerateDownloadURL returns a deterministic URL for the stored object.
func (s *InMemoryObjectStorage) GenerateDownloadURL(
	ctx context.Context,
	storageKey string,
	expiresIn time.Duration,
) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	s.mu.RLock()
	_, ok := s.objects[storageKey]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("object not found: " + storageKey)
	}

	expiresAt := time.Now().Add(expiresIn)
	url := s.BaseURL + "/download/" + storageKey + "?expires=" + expiresAt.Format(time.RFC3339)

	return url, expiresAt, nil
}

// DeleteObject removes the stored object. Deleting a missing key succeeds.
func (s *InMemoryObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, storageKey)
	return nil
}

// ObjectExists reports whether an object is stored under storageKey.
func (s *InMemoryObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, errors.New("storage key is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[storageKey]
	return ok, nil
}

// GetObject returns a reader over the stored content along with its content type.
func (s *InMemoryObjectStorage) GetObject(storageKey string) (io.Reader, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	if !ok {
		return nil, "", errors.New("object not found: " + storageKey)
	}
	return bytes.NewReader(obj.content), obj.contentType, nil
}

// ObjectCount returns the number of stored objects.
func (s *InMemoryObjectStorage) ObjectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// KeysWithPrefix returns all stored keys that start with prefix.
func (s *InMemoryObjectStorage) KeysWithPrefix(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}
