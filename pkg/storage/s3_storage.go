package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config addresses a bucket on an S3-compatible server.
type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	// Timeout bounds each storage call. Zero means no limit.
	Timeout time.Duration
}

// S3Storage stores project files as <project>/<name> objects in one bucket.
type S3Storage struct {
	client  *minio.Client
	bucket  string
	timeout time.Duration
}

// NewS3Storage connects to the server and creates the bucket if needed.
func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &S3Storage{client: client, bucket: cfg.Bucket, timeout: cfg.Timeout}, nil
}

// ObjectKey returns the object key of <project>/<name>.
func ObjectKey(project string, name string) (string, error) {
	if !IsValidProject(project) || !isPlainSegment(name) {
		return "", fmt.Errorf("%w: %q/%q", ErrInvalidName, project, name)
	}
	return path.Join(project, name), nil
}

func (s *S3Storage) callContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

// translateError maps a missing object to fs.ErrNotExist.
func translateError(key string, err error) error {
	if err == nil {
		return nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return &fs.PathError{Op: "open", Path: key, Err: fs.ErrNotExist}
	}
	return err
}

func (s *S3Storage) Put(project string, name string, r io.Reader) (string, int64, error) {
	key, err := ObjectKey(project, name)
	if err != nil {
		return "", 0, err
	}

	ctx, cancel := s.callContext()
	defer cancel()

	info, err := s.client.PutObject(ctx, s.bucket, key, r, -1, minio.PutObjectOptions{})
	if err != nil {
		return "", 0, fmt.Errorf("put object %q: %w", key, err)
	}
	return "s3://" + s.bucket + "/" + key, info.Size, nil
}

// Open fetches the object's metadata eagerly so a missing object fails here
// rather than on first read.
func (s *S3Storage) Open(project string, name string) (File, error) {
	key, err := ObjectKey(project, name)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.callContext()

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		cancel()
		return nil, translateError(key, err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		cancel()
		return nil, translateError(key, err)
	}

	return &s3File{Object: obj, info: info, cancel: cancel}, nil
}

func (s *S3Storage) Exists(project string, name string) (bool, error) {
	key, err := ObjectKey(project, name)
	if err != nil {
		return false, err
	}

	ctx, cancel := s.callContext()
	defer cancel()

	_, err = s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotExist(translateError(key, err)) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove deletes an object. S3 deletes are idempotent, so the object is
// checked first to report a missing file as fs.ErrNotExist.
func (s *S3Storage) Remove(project string, name string) error {
	key, err := ObjectKey(project, name)
	if err != nil {
		return err
	}

	ctx, cancel := s.callContext()
	defer cancel()

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		return translateError(key, err)
	}
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

// s3File adapts a minio object to File.
type s3File struct {
	*minio.Object
	info   minio.ObjectInfo
	cancel context.CancelFunc
}

func (f *s3File) Close() error {
	defer f.cancel()
	return f.Object.Close()
}

func (f *s3File) Stat() (os.FileInfo, error) {
	return objectFileInfo{info: f.info}, nil
}

// objectFileInfo presents object metadata as a regular file.
type objectFileInfo struct {
	info minio.ObjectInfo
}

func (i objectFileInfo) Name() string       { return path.Base(i.info.Key) }
func (i objectFileInfo) Size() int64        { return i.info.Size }
func (i objectFileInfo) Mode() fs.FileMode  { return 0o444 }
func (i objectFileInfo) ModTime() time.Time { return i.info.LastModified }
func (i objectFileInfo) IsDir() bool        { return false }
func (i objectFileInfo) Sys() any           { return i.info }
