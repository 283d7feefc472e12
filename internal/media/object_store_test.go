package media

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsClient "vidhub/internal/platform/nats"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "avatar.png", want: "avatar.png"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\Users\me\my photo.jpg`, want: "my_photo.jpg"},
		{in: "", want: "file"},
		{in: "  ", want: "file"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ObjectName(tt.in)
			prefix, base, ok := strings.Cut(got, "/")
			require.True(t, ok)
			assert.Len(t, prefix, 36)
			assert.Equal(t, tt.want, base)
		})
	}

	assert.NotEqual(t, ObjectName("a.png"), ObjectName("a.png"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/media/x/a.png", PublicURL("http://localhost:8000/media/", "x/a.png"))
	assert.Equal(t, "http://cdn/x/a.png", PublicURL("http://cdn", "x/a.png"))
}

func TestSafeContentType(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		inline bool
	}{
		{in: "image/png", want: "image/png", inline: true},
		{in: "IMAGE/JPEG; charset=binary", want: "image/jpeg", inline: true},
		{in: "video/mp4", want: "video/mp4", inline: true},
		{in: "image/svg+xml", want: "application/octet-stream"},
		{in: "text/html; charset=utf-8", want: "application/octet-stream"},
		{in: "application/javascript", want: "application/octet-stream"},
		{in: "", want: "application/octet-stream"},
		{in: "not a type", want: "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeContentType(tt.in))
			assert.Equal(t, tt.inline, Inline(tt.in))
		})
	}
}

func TestObjectStore_UploadAndOpen(t *testing.T) {
	url := os.Getenv("NATS_TEST_URL")
	if url == "" {
		t.Skip("NATS_TEST_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, js, err := natsClient.New(ctx, url, "vidhub-test")
	if err != nil {
		t.Skipf("nats unavailable: %v", err)
	}
	t.Cleanup(conn.Close)

	bucket := "vidhub-test-" + time.Now().Format("20060102150405")
	store, err := NewObjectStore(ctx, js, bucket, "http://media.test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = js.DeleteObjectStore(context.Background(), bucket) })

	link, err := store.Upload(ctx, "avatar.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "http://media.test/"))

	objectName := strings.TrimPrefix(link, "http://media.test/")
	data, contentType, err := store.Open(ctx, objectName)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, "image/png", contentType)

	_, _, err = store.Open(ctx, "missing/object")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	htmlLink, err := store.Upload(ctx, "page.html", "text/html", []byte("<script>alert(1)</script>"))
	require.NoError(t, err)
	_, contentType, err = store.Open(ctx, strings.TrimPrefix(htmlLink, "http://media.test/"))
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", contentType)

	_, err = store.Upload(ctx, "empty.png", "image/png", nil)
	assert.Error(t, err)
}
