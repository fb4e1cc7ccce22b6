package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"

	"github.com/and161185/chunkhub/internal/errs"
)

// S3API is the part of *s3.Client used by S3.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options configures the client for AWS or an S3-compatible server such as MinIO.
type S3Options struct {
	Region    string
	Endpoint  string // empty for AWS
	AccessKey string // empty to use the default credential chain
	SecretKey string
}

// NewS3Client builds an S3 client from opts.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	loaders := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3 stores objects in a bucket. Uploads are spooled locally first so the
// size ceiling and digest are settled before anything reaches the bucket.
type S3 struct {
	client S3API
	bucket string
	spool  afero.Fs
}

// NewS3 returns a bucket-backed store.
func NewS3(client S3API, bucket string) *S3 {
	return &S3{client: client, bucket: bucket, spool: afero.NewOsFs()}
}

// Put spools r, then uploads it under name.
func (s *S3) Put(ctx context.Context, name string, r io.Reader, maxSize int64) (Object, error) {
	if err := ValidName(name); err != nil {
		return Object{}, err
	}
	tmp, err := afero.TempFile(s.spool, "", "chunkhub-upload-*")
	if err != nil {
		return Object{}, err
	}
	defer func() {
		_ = tmp.Close()
		_ = s.spool.Remove(tmp.Name())
	}()

	size, sum, err := copyChunked(ctx, tmp, r, maxSize)
	if err != nil {
		return Object{}, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return Object{}, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          tmp,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return Object{}, err
	}
	return Object{Name: name, Size: size, SHA256: sum}, nil
}

// Open fetches the object body.
func (s *S3) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidName(name); err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// Delete removes the object; S3 treats a missing key as success.
func (s *S3) Delete(ctx context.Context, name string) error {
	if err := ValidName(name); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	return err
}
