package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/policy"
	"github.com/minio/minio-go/v7/pkg/set"

	"github.com/Zorochan404/inf-chat/internal/config"
)

// attachmentPrefix is the key prefix readable without credentials.
const attachmentPrefix = "attachments/"

// ObjectStore keeps chat attachments in a single S3-compatible bucket.
type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
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

	return &ObjectStore{
		client: client,
		cfg:    cfg,
	}, nil
}

func (s *ObjectStore) EnsureBucket(ctx context.Context) error {
	bucket := s.cfg.BucketAttachments
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}

	doc, err := attachmentReadPolicy(bucket)
	if err != nil {
		return err
	}
	if err := s.client.SetBucketPolicy(ctx, bucket, doc); err != nil {
		return fmt.Errorf("set bucket policy %s: %w", bucket, err)
	}
	return nil
}

// attachmentReadPolicy grants anonymous GetObject on the attachment prefix
// only. Listing the bucket stays private.
func attachmentReadPolicy(bucket string) (string, error) {
	doc := policy.BucketAccessPolicy{
		Version: "2012-10-17",
		Statements: []policy.Statement{{
			Sid:       "PublicReadAttachments",
			Effect:    "Allow",
			Principal: policy.User{AWS: set.CreateStringSet("*")},
			Actions:   set.CreateStringSet("s3:GetObject"),
			Resources: set.CreateStringSet("arn:aws:s3:::" + bucket + "/" + attachmentPrefix + "*"),
		}},
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode bucket policy: %w", err)
	}
	return string(b), nil
}

func (s *ObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (int64, error) {
	info, err := s.client.PutObject(ctx, s.cfg.BucketAttachments, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return 0, fmt.Errorf("put object: %w", err)
	}
	return info.Size, nil
}

// PublicURL prefers the configured public base and falls back to the
// endpoint with path-style addressing.
func (s *ObjectStore) PublicURL(key string) string {
	return PublicURL(s.cfg, key)
}

func PublicURL(cfg config.StorageConfig, key string) string {
	if cfg.PublicURL != "" {
		return strings.TrimSuffix(cfg.PublicURL, "/") + "/" + key
	}
	base := strings.TrimSuffix(cfg.Endpoint, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		base = scheme + base
	}
	return fmt.Sprintf("%s/%s/%s", base, cfg.BucketAttachments, key)
}

func (s *ObjectStore) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.cfg.BucketAttachments)
	return err
}
