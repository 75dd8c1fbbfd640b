// services/s3.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/utils"
)

// ImageStore persists an uploaded product image and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error)
}

// NewImageStore picks S3 when a bucket is configured and the local public
// folder otherwise.
func NewImageStore(cfg *config.Config) (ImageStore, error) {
	if cfg.S3BucketName != "" {
		return NewS3Service(cfg.S3Region, cfg.S3BucketName, cfg.S3AccessKey, cfg.S3SecretKey, cfg.MaxUploadBytes)
	}
	return NewLocalImageStore(cfg.PublicDir, cfg.PublicBaseURL, cfg.MaxUploadBytes)
}

type upload struct {
	key         string
	contentType string
	data        []byte
}

// readUpload validates type and size and reads the file into memory.
func readUpload(file multipart.File, header *multipart.FileHeader, maxSize int64) (*upload, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = utils.ContentTypeFromExtension(header.Filename)
	}
	if !utils.IsValidImageType(contentType) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidImage, contentType)
	}

	if header.Size > maxSize {
		return nil, fmt.Errorf("%w: file size too large: %d bytes (max: %d bytes)", ErrInvalidImage, header.Size, maxSize)
	}

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, io.LimitReader(file, maxSize+1)); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(buffer.Len()) > maxSize {
		return nil, fmt.Errorf("%w: file size exceeds %d bytes", ErrInvalidImage, maxSize)
	}

	// Keys are grouped by upload date
	timestamp := time.Now().UTC().Format("2006/01/02")
	key := fmt.Sprintf("products/%s/%s%s", timestamp, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))

	return &upload{key: key, contentType: contentType, data: buffer.Bytes()}, nil
}

type S3Service struct {
	client     *s3.S3
	bucketName string
	region     string
	maxSize    int64
}

func NewS3Service(region, bucketName, accessKey, secretKey string, maxSize int64) (*S3Service, error) {
	awsCfg := &aws.Config{Region: aws.String(region)}
	if accessKey != "" && secretKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return &S3Service{
		client:     s3.New(sess),
		bucketName: bucketName,
		region:     region,
		maxSize:    maxSize,
	}, nil
}

func (s *S3Service) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	up, err := readUpload(file, header, s.maxSize)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucketName),
		Key:          aws.String(up.key),
		Body:         bytes.NewReader(up.data),
		ContentType:  aws.String(up.contentType),
		CacheControl: aws.String("max-age=31536000"), // 1 year cache
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, up.key), nil
}

// LocalImageStore writes images below the folder served at /public.
type LocalImageStore struct {
	dir     string
	baseURL string
	maxSize int64
}

func NewLocalImageStore(dir, baseURL string, maxSize int64) (*LocalImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create public directory: %w", err)
	}
	return &LocalImageStore{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		maxSize: maxSize,
	}, nil
}

func (s *LocalImageStore) Save(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	up, err := readUpload(file, header, s.maxSize)
	if err != nil {
		return "", err
	}

	target := filepath.Join(s.dir, filepath.FromSlash(up.key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}
	if err := os.WriteFile(target, up.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}

	publicURL, err := url.JoinPath(s.baseURL, path.Join("public", up.key))
	if err != nil {
		return "", err
	}
	return publicURL, nil
}
