package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"abaya-store/internal/model"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for http.DetectContentType to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubStore struct {
	url      string
	err      error
	calls    int
	received []byte
}

func (s *stubStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	s.calls++
	s.received, _ = io.ReadAll(body)
	return s.url, s.err
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		upload     model.ImageUpload
		expectErr  error
		expectType string
	}{
		{
			name:       "Declared image type",
			upload:     model.ImageUpload{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")},
			expectType: "image/jpeg",
		},
		{
			name:       "Sniffed when missing",
			upload:     model.ImageUpload{Filename: "a", Data: pngHeader},
			expectType: "image/png",
		},
		{
			name:      "Rejects non-image",
			upload:    model.ImageUpload{Filename: "a.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
			expectErr: ErrNotImage,
		},
		{
			name:      "Rejects oversized",
			upload:    model.ImageUpload{Filename: "a.png", ContentType: "image/png", Data: make([]byte, MaxImageSize+1)},
			expectErr: ErrImageTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.upload)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectType, tt.upload.ContentType)
		})
	}
}

func TestLocalStore_Upload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "nested"), "/uploads/", zerolog.Nop())
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "Photo.JPG", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "/uploads/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	data, err := os.ReadFile(filepath.Join(dir, "nested", strings.TrimPrefix(url, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestLocalStore_ExtensionFromContentType(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads", zerolog.Nop())
	require.NoError(t, err)

	url, err := store.Upload(context.Background(), "blob", "image/png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"))
}

func TestS3Store_Upload(t *testing.T) {
	t.Run("Puts object under prefix", func(t *testing.T) {
		client := &fakeS3{}
		store := newS3Store(client, "abaya-images", "images/", "https://cdn.example.com", zerolog.Nop())

		url, err := store.Upload(context.Background(), "look.png", "image/png", bytes.NewReader(pngHeader))
		require.NoError(t, err)

		require.NotNil(t, client.input)
		assert.Equal(t, "abaya-images", *client.input.Bucket)
		assert.True(t, strings.HasPrefix(*client.input.Key, "images/"))
		assert.Equal(t, "image/png", *client.input.ContentType)
		assert.Equal(t, pngHeader, client.body)
		assert.Equal(t, "https://cdn.example.com/"+*client.input.Key, url)
	})

	t.Run("Propagates S3 errors", func(t *testing.T) {
		client := &fakeS3{err: errors.New("access denied")}
		store := newS3Store(client, "abaya-images", "images/", "https://cdn.example.com", zerolog.Nop())

		_, err := store.Upload(context.Background(), "look.png", "image/png", bytes.NewReader(pngHeader))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestFallbackStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Primary succeeds", func(t *testing.T) {
		primary := &stubStore{url: "https://cdn/x.png"}
		local := &stubStore{url: "/uploads/x.png"}

		url, err := NewFallbackStore(primary, local, zerolog.Nop()).Upload(ctx, "x.png", "image/png", bytes.NewReader(pngHeader))

		require.NoError(t, err)
		assert.Equal(t, "https://cdn/x.png", url)
		assert.Equal(t, 0, local.calls)
	})

	t.Run("Primary fails, local receives the full body", func(t *testing.T) {
		primary := &stubStore{err: errors.New("S3 unavailable")}
		local := &stubStore{url: "/uploads/x.png"}

		url, err := NewFallbackStore(primary, local, zerolog.Nop()).Upload(ctx, "x.png", "image/png", bytes.NewReader(pngHeader))

		require.NoError(t, err)
		assert.Equal(t, "/uploads/x.png", url)
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, pngHeader, local.received)
	})

	t.Run("No primary configured", func(t *testing.T) {
		local := &stubStore{url: "/uploads/x.png"}

		url, err := NewFallbackStore(nil, local, zerolog.Nop()).Upload(ctx, "x.png", "image/png", bytes.NewReader(pngHeader))

		require.NoError(t, err)
		assert.Equal(t, "/uploads/x.png", url)
	})

	t.Run("Both fail", func(t *testing.T) {
		primary := &stubStore{err: errors.New("S3 unavailable")}
		local := &stubStore{err: errors.New("disk full")}

		_, err := NewFallbackStore(primary, local, zerolog.Nop()).Upload(ctx, "x.png", "image/png", bytes.NewReader(pngHeader))
		assert.EqualError(t, err, "disk full")
	})
}
