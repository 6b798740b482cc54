package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	sc "github.com/dpavlovs/artfeed/internal/server/config"
	"github.com/dpavlovs/artfeed/internal/server/models"
	"github.com/dpavlovs/artfeed/internal/server/repositories/repomanager"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// MediaService stores uploaded artwork in the object store and records the
// resulting post.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewMediaService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *MediaService {
	return &MediaService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// GetRandomStorageKey builds a date-partitioned object key, preserving the
// original file extension so the served content type stays correct.
func GetRandomStorageKey(filename string) string {
	d := time.Now()
	return fmt.Sprintf("users/%d/%d/%d/%v%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Ext(filename))
}

func (s *MediaService) getS3Client() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload stores the object and returns its public URL.
func (s *MediaService) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	client, err := s.getS3Client()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(filename)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("error uploading object: %v", err)
	}

	return s.publicURL(key), nil
}

func (s *MediaService) publicURL(key string) string {
	base := strings.TrimRight(s.config.S3PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, s.config.S3Bucket, key)
}

// CreatePost uploads the artwork and records a post row pointing at it.
func (s *MediaService) CreatePost(ctx context.Context, authorID int64, description, filename, contentType string, body io.Reader) (*models.Post, error) {
	url, err := s.Upload(ctx, filename, contentType, body)
	if err != nil {
		return nil, err
	}

	post, err := s.repomanager.Posts(s.db).Create(ctx, &models.Post{
		AuthorID:    authorID,
		ContentURL:  url,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating post: %v", err)
	}

	return post, nil
}
