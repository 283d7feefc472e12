package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var ErrObjectNotFound = errors.New("media object not found")

const defaultContentType = "application/octet-stream"

// ObjectStore hosts uploaded media in a JetStream object store bucket and
// hands out URLs under publicBaseURL.
type ObjectStore struct {
	store         jetstream.ObjectStore
	publicBaseURL string
}

// NewObjectStore opens bucket, creating it on first use.
func NewObjectStore(ctx context.Context, js jetstream.JetStream, bucket, publicBaseURL string) (*ObjectStore, error) {
	store, err := js.ObjectStore(ctx, bucket)
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketNotFound) {
			return nil, fmt.Errorf("open object store bucket failed: %w", err)
		}
		store, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "vidhub avatars, cover images, videos and thumbnails",
			Storage:     jetstream.FileStorage,
		})
		if err != nil {
			return nil, fmt.Errorf("create object store bucket failed: %w", err)
		}
	}
	return &ObjectStore{
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Upload stores data under a fresh "<uuid>/<name>" object and returns its URL.
func (s *ObjectStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("media upload is empty")
	}
	contentType = SafeContentType(contentType)

	objectName := ObjectName(name)
	meta := jetstream.ObjectMeta{
		Name:    objectName,
		Headers: nats.Header{"Content-Type": []string{contentType}},
	}
	if _, err := s.store.Put(ctx, meta, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("put media object failed: %w", err)
	}
	return PublicURL(s.publicBaseURL, objectName), nil
}

// Open returns the object's content and content type.
func (s *ObjectStore) Open(ctx context.Context, objectName string) ([]byte, string, error) {
	result, err := s.store.Get(ctx, objectName)
	if err != nil {
		if errors.Is(err, jetstream.ErrObjectNotFound) {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", fmt.Errorf("get media object failed: %w", err)
	}
	defer result.Close()

	data, err := io.ReadAll(result)
	if err != nil {
		return nil, "", fmt.Errorf("read media object failed: %w", err)
	}
	info, err := result.Info()
	if err != nil {
		return nil, "", fmt.Errorf("media object info failed: %w", err)
	}

	contentType := defaultContentType
	if info.Headers != nil {
		if ct := info.Headers.Get("Content-Type"); ct != "" {
			contentType = ct
		}
	}
	return data, contentType, nil
}

// ObjectName namespaces a client file name under a random prefix so uploads
// never overwrite each other.
func ObjectName(name string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	return uuid.NewString() + "/" + base
}

// SafeContentType keeps image and video media types and maps everything
// else, SVG included, to application/octet-stream. Media is served from the
// API origin, so markup must never be rendered by the browser.
func SafeContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "image/svg+xml" {
		return defaultContentType
	}
	if strings.HasPrefix(mediaType, "image/") || strings.HasPrefix(mediaType, "video/") {
		return mediaType
	}
	return defaultContentType
}

// Inline reports whether contentType may be rendered in the browser.
func Inline(contentType string) bool {
	return SafeContentType(contentType) != defaultContentType
}

func PublicURL(baseURL, objectName string) string {
	return strings.TrimRight(baseURL, "/") + "/" + objectName
}
