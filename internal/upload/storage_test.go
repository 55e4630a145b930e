package upload

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngHeader  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	pdfHeader  = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

func newStorage(t *testing.T, maxBytes int64) *Storage {
	t.Helper()

	cfg := config.Config{Upload: config.UploadConfig{
		Dir:        t.TempDir(),
		PublicBase: "/uploads/",
		MaxBytes:   maxBytes,
	}}
	storage, err := NewStorage(cfg, config.NewStaticStoreConfigHolder(config.DefaultStoreConfig()), zap.NewNop())
	require.NoError(t, err)
	return storage
}

func TestSaveProofDetectsContent(t *testing.T) {
	storage := newStorage(t, 1024)
	ctx := context.Background()

	cases := []struct {
		data []byte
		mime string
		ext  string
	}{
		{append(jpegHeader, bytes.Repeat([]byte{0}, 32)...), "image/jpeg", ".jpg"},
		{append(pngHeader, bytes.Repeat([]byte{0}, 32)...), "image/png", ".png"},
		{[]byte("GIF89a" + strings.Repeat("\x00", 16)), "image/gif", ".gif"},
		{pdfHeader, "application/pdf", ".pdf"},
	}
	for _, tc := range cases {
		stored, err := storage.SaveProof(ctx, bytes.NewReader(tc.data))
		require.NoError(t, err, tc.mime)
		assert.Equal(t, tc.mime, stored.MimeType)
		assert.True(t, strings.HasSuffix(stored.Name, tc.ext), stored.Name)
		assert.Equal(t, "/uploads/comprobantes/"+stored.Name, stored.URL)

		written, err := os.ReadFile(filepath.Join(storage.Root(), proofDir, stored.Name))
		require.NoError(t, err)
		assert.Equal(t, tc.data, written)
	}
}

func TestSaveProofRejectsBadInput(t *testing.T) {
	storage := newStorage(t, 64)
	ctx := context.Background()

	_, err := storage.SaveProof(ctx, bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = storage.SaveProof(ctx, strings.NewReader("just some text, not an image"))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	big := append(jpegHeader, bytes.Repeat([]byte{0}, 128)...)
	_, err = storage.SaveProof(ctx, bytes.NewReader(big))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(filepath.Join(storage.Root(), proofDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemove(t *testing.T) {
	storage := newStorage(t, 1024)

	stored, err := storage.SaveProof(context.Background(), bytes.NewReader(pdfHeader))
	require.NoError(t, err)

	require.NoError(t, storage.Remove(stored.Name))
	require.NoError(t, storage.Remove(stored.Name))
	_, err = os.Stat(filepath.Join(storage.Root(), proofDir, stored.Name))
	assert.True(t, os.IsNotExist(err))
}
