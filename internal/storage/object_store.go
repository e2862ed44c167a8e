package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"launchpad/internal/config"
)

// publicReadPolicy lets browsers fetch avatars and product images directly.
const publicReadPolicy = `{
	"Version": "2012-10-17",
	"Statement": [{
		"Effect": "Allow",
		"Principal": {"AWS": ["*"]},
		"Action": ["s3:GetObject"],
		"Resource": ["arn:aws:s3:::%s/*"]
	}]
}`

type ObjectStore struct {
	client  *minio.Client
	cfg     config.StorageConfig
	baseURL string
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	baseURL := strings.TrimRight(cfg.PublicURL, "/")
	if baseURL == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + endpoint
	}

	return &ObjectStore{
		client:  client,
		cfg:     cfg,
		baseURL: baseURL,
	}, nil
}

// EnsureBuckets creates the avatar and media buckets with anonymous read.
func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{s.cfg.BucketAvatars, s.cfg.BucketMedia} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("bucket exists %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		if err := s.client.SetBucketPolicy(ctx, bucket, fmt.Sprintf(publicReadPolicy, bucket)); err != nil {
			return fmt.Errorf("set bucket policy %s: %w", bucket, err)
		}
	}
	return nil
}

// Put uploads an object and returns its public URL.
func (s *ObjectStore) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}
	return s.PublicURL(bucket, key), nil
}

// Remove deletes the object behind a URL produced by Put. URLs that point
// elsewhere are ignored.
func (s *ObjectStore) Remove(ctx context.Context, objectURL string) error {
	bucket, key, ok := s.Locate(objectURL)
	if !ok {
		return nil
	}
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *ObjectStore) PublicURL(bucket, key string) string {
	return s.baseURL + "/" + bucket + "/" + key
}

// Locate splits a public URL back into bucket and key.
func (s *ObjectStore) Locate(objectURL string) (bucket, key string, ok bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(objectURL, prefix) {
		return "", "", false
	}
	bucket, key, ok = strings.Cut(strings.TrimPrefix(objectURL, prefix), "/")
	if !ok || key == "" {
		return "", "", false
	}
	if bucket != s.cfg.BucketAvatars && bucket != s.cfg.BucketMedia {
		return "", "", false
	}
	return bucket, key, true
}

func (s *ObjectStore) AvatarBucket() string { return s.cfg.BucketAvatars }
func (s *ObjectStore) MediaBucket() string  { return s.cfg.BucketMedia }

// Ping checks the object store is reachable.
func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.BucketMedia)
	return err
}
