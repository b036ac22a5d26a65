package storage

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemoryObjectStorage(t *testing.T) {
	s := NewInMemoryObjectStorage()
	require.NotNil(t, s)
	assert.Equal(t, "https://storage.example.com", s.BaseURL)
	assert.Equal(t, 0, s.ObjectCount())
}

func TestInMemoryObjectStorage_Upload(t *testing.T) {
	s := NewInMemoryObjectStorage()
	ctx := context.Background()

	t.Run("stores content and content type", func(t *testing.T) {
		err := s.Upload(ctx, "tenants/a/invoices/1/doc.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
		require.NoError(t, err)

		reader, contentType, err := s.GetObject("tenants/a/invoices/1/doc.pdf")
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", contentType)

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(content))
	})

	t.Run("overwrites existing object", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, "key", "image/png", strings.NewReader("first")))
		require.NoError(t, s.Upload(ctx, "key", "image/jpeg", strings.NewReader("second")))

		reader, contentType, err := s.GetObject("key")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", contentType)

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "second", string(content))
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.Upload(ctx, "", "application/pdf", strings.NewReader("x"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestInMemoryObjectStorage_GenerateDownloadURL(t *testing.T) {
	s := NewInMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "test/key/file.jpg", "image/jpeg", strings.NewReader("jpeg")))

	t.Run("success", func(t *testing.T) {
		url, expiresAt, err := s.GenerateDownloadURL(ctx, "test/key/file.jpg", 1*time.Hour)
		require.NoError(t, err)
		assert.Contains(t, url, "https://storage.example.com/download/test/key/file.jpg")
		assert.True(t, expiresAt.After(time.Now()))
	})

	t.Run("missing object", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "does/not/exist.pdf", 1*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "object not found")
	})

	t.Run("empty storage key", func(t *testing.T) {
		_, _, err := s.GenerateDownloadURL(ctx, "", 1*time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestInMemoryObjectStorage_DeleteObject(t *testing.T) {
	s := NewInMemoryObjectStorage()
	ctx := context.Background()

	t.Run("removes stored object", func(t *testing.T) {
		require.NoError(t, s.Upload(ctx, "test/key/file.jpg", "image/jpeg", strings.NewReader("jpeg")))

		err := s.DeleteObject(ctx, "test/key/file.jpg")
		require.NoError(t, err)

		exists, err := s.ObjectExists(ctx, "test/key/file.jpg")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing key succeeds", func(t *testing.T) {
		err := s.DeleteObject(ctx, "never/uploaded.pdf")
		require.NoError(t, err)
	})

	t.Run("empty storage key", func(t *testing.T) {
		err := s.DeleteObject(ctx, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestInMemoryObjectStorage_ObjectExists(t *testing.T) {
	s := NewInMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "test/key/file.jpg", "image/jpeg", strings.NewReader("jpeg")))

	t.Run("stored object", func(t *testing.T) {
		exists, err := s.ObjectExists(ctx, "test/key/file.jpg")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("missing object", func(t *testing.T) {
		exists, err := s.ObjectExists(ctx, "other/file.jpg")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty storage key", func(t *testing.T) {
		exists, err := s.ObjectExists(ctx, "")
		require.Error(t, err)
		assert.False(t, exists)
		assert.Contains(t, err.Error(), "storage key is required")
	})
}

func TestInMemoryObjectStorage_KeysWithPrefix(t *testing.T) {
	s := NewInMemoryObjectStorage()
	ctx := context.Background()

	require.NoError(t, s.Upload(ctx, "tenants/a/invoices/1/x.pdf", "application/pdf", strings.NewReader("a")))
	require.NoError(t, s.Upload(ctx, "tenants/a/receipts/9/y.png", "image/png", strings.NewReader("b")))
	require.NoError(t, s.Upload(ctx, "tenants/b/invoices/2/z.pdf", "application/pdf", strings.NewReader("c")))

	keys := s.KeysWithPrefix("tenants/a/")
	assert.Len(t, keys, 2)
	assert.Len(t, s.KeysWithPrefix("tenants/b/"), 1)
	assert.Empty(t, s.KeysWithPrefix("tenants/c/"))
}
