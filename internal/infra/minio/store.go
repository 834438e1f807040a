// Package minio provides a MinIO-backed source store for uploaded audio.
package minio

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/19player/internal/app/source"
)

// Scheme is the reference scheme of Store.
const Scheme = "minio"

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string // Object key prefix, e.g. "uploads/"
}

// Store keeps one object per uploaded source.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ source.Store = (*Store)(nil)

// New connects to MinIO and creates the bucket if it does not exist.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to check bucket %s", cfg.Bucket)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, errors.Wrapf(err, "failed to create bucket %s", cfg.Bucket)
		}
		zlog.Info().Msgf("minio: created bucket: bucket=%s", cfg.Bucket)
	}

	zlog.Info().Msgf("minio: connected: endpoint=%s bucket=%s prefix=%s", cfg.Endpoint, cfg.Bucket, cfg.Prefix)
	return &Store{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *Store) Scheme() string {
	return Scheme
}

func (s *Store) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := objectKey(s.prefix, uuid.NewString(), name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to put object %s", key)
	}
	return source.Ref(Scheme, key), nil
}

func (s *Store) Open(ctx context.Context, ref string) (*source.Object, error) {
	key, err := keyOf(ref)
	if err != nil {
		return nil, err
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get object %s", key)
	}
	// GetObject is lazy; Stat surfaces a missing key
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		if isNoSuchKey(err) {
			return nil, errors.Wrapf(source.ErrNotFound, "ref=%s", ref)
		}
		return nil, errors.Wrapf(err, "failed to stat object %s", key)
	}

	return &source.Object{
		ReadSeekCloser: obj,
		ContentType:    info.ContentType,
		Size:           info.Size,
	}, nil
}

func (s *Store) Release(ctx context.Context, ref string) error {
	key, err := keyOf(ref)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "failed to remove object %s", key)
	}
	return nil
}

// objectKey builds "<prefix><id>/<base name>".
func objectKey(prefix, id, name string) string {
	base := path.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" {
		base = "upload"
	}
	return prefix + id + "/" + base
}

func keyOf(ref string) (string, error) {
	scheme, key := source.Split(ref)
	if scheme != Scheme || key == "" {
		return "", errors.Wrapf(source.ErrUnknownScheme, "ref=%s", ref)
	}
	return key, nil
}

func isNoSuchKey(err error) bool {
	code := minio.ToErrorResponse(err).Code
	return code == "NoSuchKey" || code == "NoSuchObject"
}
