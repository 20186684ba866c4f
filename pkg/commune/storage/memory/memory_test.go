package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commune-dev/commune/pkg/commune"
	memorystorage "github.com/commune-dev/commune/pkg/commune/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "avatars/test.txt"
	testData := "Hello, World! This is test data."

	t.Run("Upload", func(t *testing.T) {
		err := backend.Upload(ctx, testKey, strings.NewReader(testData))
		assert.NoError(t, err)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		assert.NoError(t, err)
		assert.NotNil(t, meta)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.NotEmpty(t, meta.ContentType)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("Download", func(t *testing.T) {
		reader, err := backend.Download(ctx, testKey)
		assert.NoError(t, err)
		defer reader.Close()

		downloaded, err := io.ReadAll(reader)
		assert.NoError(t, err)
		assert.Equal(t, testData, string(downloaded))
	})

	t.Run("GetDownloadURL", func(t *testing.T) {
		// The memory backend never hands out URLs; bytes are served directly
		_, err := backend.GetDownloadURL(ctx, testKey)
		assert.Error(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.Download(ctx, testKey)
		assert.ErrorIs(t, err, commune.ErrObjectNotFound)
	})

	t.Run("MissingObject", func(t *testing.T) {
		_, err := backend.Download(ctx, "ghost")
		assert.ErrorIs(t, err, commune.ErrObjectNotFound)
		_, err = backend.GetObjectMeta(ctx, "ghost")
		assert.ErrorIs(t, err, commune.ErrObjectNotFound)
		assert.ErrorIs(t, backend.Delete(ctx, "ghost"), commune.ErrObjectNotFound)
	})
}
