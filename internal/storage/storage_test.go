package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveExistsDelete(t *testing.T) {
	// Arrange
	base := t.TempDir()
	store, err := NewLocalStorage(Config{BasePath: base, BaseURL: "/uploads/"})
	require.NoError(t, err)
	ctx := context.Background()

	// Act
	require.NoError(t, store.Save(ctx, "item-images/a.png", strings.NewReader("png"), "image/png"))

	// Assert
	data, err := os.ReadFile(filepath.Join(base, "item-images", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	exists, err := store.Exists(ctx, "item-images/a.png")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, "/uploads/item-images/a.png", store.URL("item-images/a.png"))

	require.NoError(t, store.Delete(ctx, "item-images/a.png"))
	require.NoError(t, store.Delete(ctx, "item-images/a.png"), "удаление отсутствующего файла не ошибка")
	exists, err = store.Exists(ctx, "item-images/a.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStorage_KeyStaysInsideBase(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(Config{BasePath: base})
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), "../../escape.png", strings.NewReader("x"), "image/png"))

	_, err = os.Stat(filepath.Join(base, "escape.png"))
	assert.NoError(t, err)
	assert.ErrorIs(t, store.Save(context.Background(), "  ", strings.NewReader("x"), ""), ErrInvalidKey)
}

func TestPublicBaseURL(t *testing.T) {
	assert.Equal(t, "https://cdn.cycup.fi", publicBaseURL(Config{BaseURL: "https://cdn.cycup.fi", Bucket: "b"}, "eu-north-1"))
	assert.Equal(t, "http://minio:9000/photos", publicBaseURL(Config{Endpoint: "http://minio:9000", Bucket: "photos"}, "us-east-1"))
	assert.Equal(t, "https://photos.s3.eu-north-1.amazonaws.com", publicBaseURL(Config{Bucket: "photos"}, "eu-north-1"))
}

func TestNewStorage_UnknownType(t *testing.T) {
	_, err := NewStorage(Config{Type: "ftp"})
	assert.Error(t, err)
}
