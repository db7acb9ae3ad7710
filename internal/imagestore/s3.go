// Package imagestore 头像等图片的对象存储。S3 兼容接口（MinIO 亦可）。
package imagestore

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type ImageStore interface {
	Upload(ctx context.Context, r io.Reader, folder, filename, contentType string) (string, error)
}

type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

type S3Opts struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

func NewS3(ctx context.Context, o S3Opts) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(o.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey, o.SecretKey, "",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(opt *s3.Options) {
		if o.Endpoint != "" {
			opt.BaseEndpoint = aws.String(o.Endpoint)
			opt.UsePathStyle = true // MinIO 风格
		}
	})

	return &S3Store{
		client:        client,
		bucket:        o.Bucket,
		publicBaseURL: strings.TrimRight(o.PublicBaseURL, "/"),
	}, nil
}

func storageKey(folder, filename string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%v-%s", folder, d.Year(), int(d.Month()), uuid.New(), filename)
}

// Upload 成功返回可公网访问的 URL
func (s *S3Store) Upload(ctx context.Context, r io.Reader, folder, filename, contentType string) (string, error) {
	key := storageKey(folder, filename)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}
