package artifact

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// S3Config configures an S3-compatible artifact bucket.
type S3Config struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	Region    string `yaml:"region" mapstructure:"region"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// objectAPI is the subset of MinIO operations used by S3Store.
type objectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ReadObject(ctx context.Context, bucketName, objectName string) ([]byte, error)
}

// minioAPI adapts *minio.Client to objectAPI.
type minioAPI struct {
	*minio.Client
}

// ReadObject downloads an object fully. A missing key maps to ErrNotFound.
func (m minioAPI) ReadObject(ctx context.Context, bucketName, objectName string) ([]byte, error) {
	obj, err := m.GetObject(ctx, bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close() //nolint:errcheck

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// S3Store keeps artifacts as objects in a MinIO / S3 bucket.
type S3Store struct {
	client      objectAPI
	cfg         S3Config
	bucketReady bool
}

var _ Store = (*S3Store)(nil)

// NewS3Store connects to the configured endpoint.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" {
		return nil, eris.New("artifact: s3 store requires endpoint, access_key, secret_key and bucket")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, eris.Wrap(err, "artifact: create minio client")
	}

	zap.L().Debug("artifact store connected",
		zap.String("component", "artifact.s3"),
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket),
	)
	return &S3Store{client: minioAPI{client}, cfg: cfg}, nil
}

func (s *S3Store) key(name string) string {
	if s.cfg.Prefix == "" {
		return name
	}
	return path.Join(s.cfg.Prefix, name)
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	if s.bucketReady {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return eris.Wrapf(err, "artifact: check bucket %s", s.cfg.Bucket)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return eris.Wrapf(err, "artifact: create bucket %s", s.cfg.Bucket)
		}
	}
	s.bucketReady = true
	return nil
}

// Put uploads data, creating the bucket on first use.
func (s *S3Store) Put(ctx context.Context, name string, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, s.key(name),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	return eris.Wrapf(err, "artifact: put %s", s.Location(name))
}

// Get downloads the named object.
func (s *S3Store) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.ReadObject(ctx, s.cfg.Bucket, s.key(name))
	if errors.Is(err, ErrNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "artifact: %s", s.Location(name))
	}
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: get %s", s.Location(name))
	}
	return data, nil
}

// Location returns the s3:// URL of name.
func (s *S3Store) Location(name string) string {
	return "s3://" + s.cfg.Bucket + "/" + s.key(name)
}
