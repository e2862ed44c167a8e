package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/rs/zerolog"

	"launchpad/internal/apperr"
	"launchpad/internal/ids"
	"launchpad/internal/media/sniffer"
	"launchpad/internal/media/svg"
)

// ObjectStore is where uploaded images end up.
type ObjectStore interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectURL string) error
	AvatarBucket() string
	MediaBucket() string
}

// Upload is one file taken from a multipart form.
type Upload struct {
	Filename string
	Reader   io.Reader
}

type MediaService struct {
	store   ObjectStore
	maxSize int64
	log     zerolog.Logger
}

func NewMediaService(store ObjectStore, maxSize int64, log zerolog.Logger) *MediaService {
	return &MediaService{store: store, maxSize: maxSize, log: log}
}

func (s *MediaService) MaxSize() int64 { return s.maxSize }

// UploadAvatar stores a user avatar and returns its public URL.
func (s *MediaService) UploadAvatar(ctx context.Context, userID string, up Upload) (string, error) {
	return s.put(ctx, s.store.AvatarBucket(), path.Join("users", userID), up)
}

// UploadProductImage stores a product logo or gallery image.
func (s *MediaService) UploadProductImage(ctx context.Context, productID string, up Upload) (string, error) {
	return s.put(ctx, s.store.MediaBucket(), path.Join("products", productID), up)
}

// Remove deletes previously uploaded objects. Failures are only logged.
func (s *MediaService) Remove(ctx context.Context, urls ...string) {
	for _, u := range urls {
		if u == "" {
			continue
		}
		if err := s.store.Remove(ctx, u); err != nil {
			s.log.Warn().Err(err).Str("url", u).Msg("remove object failed")
		}
	}
}

func (s *MediaService) put(ctx context.Context, bucket, prefix string, up Upload) (string, error) {
	if up.Reader == nil {
		return "", apperr.BadRequest("File is required")
	}

	data, err := io.ReadAll(io.LimitReader(up.Reader, s.maxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", apperr.BadRequest("File is empty")
	}
	if int64(len(data)) > s.maxSize {
		return "", apperr.BadRequest(fmt.Sprintf("File too large, limit is %d MB", s.maxSize/(1024*1024)))
	}

	result, err := sniffer.DetectHead(data[:min(len(data), sniffer.HeadSize)])
	if err != nil {
		if errors.Is(err, sniffer.ErrUnknownType) {
			return "", apperr.BadRequest("Only image files are allowed")
		}
		return "", fmt.Errorf("detect type: %w", err)
	}

	if result.Type == sniffer.TypeSVG {
		clean, err := svg.Sanitize(data)
		if err != nil {
			return "", apperr.BadRequest("Invalid SVG image")
		}
		data = clean
	}

	key := s.buildObjectKey(prefix, result.Extension)
	url, err := s.store.Put(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), result.MIME)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", up.Filename, err)
	}
	return url, nil
}

func (s *MediaService) buildObjectKey(prefix, ext string) string {
	datePrefix := time.Now().UTC().Format("2006/01/02")
	return path.Join(prefix, datePrefix, ids.New()+ext)
}
