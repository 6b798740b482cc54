package services

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dpavlovs/artfeed/internal/dbx"
	sc "github.com/dpavlovs/artfeed/internal/server/config"
	"github.com/dpavlovs/artfeed/internal/server/models"
	postsrepo "github.com/dpavlovs/artfeed/internal/server/repositories/posts"
	"github.com/dpavlovs/artfeed/internal/server/repositories/repomanager"
)

func newMediaService(t *testing.T, rm repomanager.RepositoryManager) (*MediaService, *sql.DB) {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New err: %v", err)
	}
	cfg := &sc.Config{
		S3Region:        "us-east-1",
		S3RootUser:      "minioadmin",
		S3RootPassword:  "minioadmin",
		S3BaseEndpoint:  "http://127.0.0.1:9000",
		S3Bucket:        "media",
		S3PublicBaseURL: "http://cdn.example/",
	}
	return NewMediaService(db, rm, cfg), db
}

func stubS3(t *testing.T) {
	t.Helper()
	origLoad := loadDefaultAWSConfig
	origNewS3 := newS3ClientFromConfig
	origPut := putObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		putObject = origPut
	})
}

func TestGetRandomStorageKey(t *testing.T) {
	k1 := GetRandomStorageKey("sunset.png")
	k2 := GetRandomStorageKey("sunset.png")

	if k1 == k2 {
		t.Fatalf("keys not unique: %q", k1)
	}
	if !strings.HasPrefix(k1, "users/") || !strings.HasSuffix(k1, ".png") {
		t.Fatalf("unexpected key shape: %q", k1)
	}
	if ext := GetRandomStorageKey("noext"); strings.Contains(ext, ".") {
		t.Fatalf("extension invented for %q", ext)
	}
}

func Test_getS3Client_SuccessAndError(t *testing.T) {
	svc, db := newMediaService(t, &fakeRepoManager{})
	defer db.Close()
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			if err := fn(&lo); err != nil {
				t.Fatalf("load options fn error: %v", err)
			}
		}
		if lo.Region != "us-east-1" {
			t.Fatalf("region not applied: %q", lo.Region)
		}
		return aws.Config{}, nil
	}

	var capturedBaseEndpoint string
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		var opts s3.Options
		for _, fn := range optFns {
			fn(&opts)
		}
		if opts.BaseEndpoint == nil {
			t.Fatalf("BaseEndpoint not set")
		}
		capturedBaseEndpoint = *opts.BaseEndpoint
		if !opts.UsePathStyle {
			t.Fatalf("path-style addressing not enabled")
		}
		return &s3.Client{}
	}

	client, err := svc.getS3Client()
	if err != nil || client == nil {
		t.Fatalf("getS3Client: client=%v err=%v", client, err)
	}
	if capturedBaseEndpoint != "http://127.0.0.1:9000" {
		t.Fatalf("BaseEndpoint mismatch: %q", capturedBaseEndpoint)
	}

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	if _, err := svc.getS3Client(); err == nil || err.Error() != "load-fail" {
		t.Fatalf("expected load-fail, got %v", err)
	}
}

func TestUpload_BuildsPublicURL(t *testing.T) {
	svc, db := newMediaService(t, &fakeRepoManager{})
	defer db.Close()
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}

	var uploadedKey, uploadedType string
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		uploadedKey = *in.Key
		uploadedType = *in.ContentType
		if _, err := io.ReadAll(in.Body); err != nil {
			t.Fatalf("reading body: %v", err)
		}
		return &s3.PutObjectOutput{}, nil
	}

	url, err := svc.Upload(context.Background(), "art.jpg", "image/jpeg", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if uploadedType != "image/jpeg" || !strings.HasSuffix(uploadedKey, ".jpg") {
		t.Fatalf("put input: key=%q type=%q", uploadedKey, uploadedType)
	}
	if url != "http://cdn.example/media/"+uploadedKey {
		t.Fatalf("public url: %q (key %q)", url, uploadedKey)
	}
}

func TestUpload_PutError(t *testing.T) {
	svc, db := newMediaService(t, &fakeRepoManager{})
	defer db.Close()
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return nil, errors.New("put-fail")
	}

	_, err := svc.Upload(context.Background(), "art.jpg", "image/jpeg", strings.NewReader("x"))
	if err == nil || !regexp.MustCompile(`error uploading object: .*put-fail`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped put error, got %v", err)
	}
}

type createOnlyPostsRepo struct {
	fakePostsRepo
	created *models.Post
	err     error
}

func (f *createOnlyPostsRepo) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = p
	out := *p
	out.ID = 11
	return &out, nil
}

type mediaRepoManager struct {
	repomanager.RepositoryManager
	p *createOnlyPostsRepo
}

func (m *mediaRepoManager) Posts(db dbx.DBTX) postsrepo.Repository { return m.p }

func TestCreatePost(t *testing.T) {
	posts := &createOnlyPostsRepo{}
	svc, db := newMediaService(t, &mediaRepoManager{p: posts})
	defer db.Close()
	stubS3(t)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return &s3.Client{}
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return &s3.PutObjectOutput{}, nil
	}

	post, err := svc.CreatePost(context.Background(), 4, "evening sketch", "art.jpg", "image/jpeg", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("CreatePost error: %v", err)
	}
	if post.ID != 11 || post.AuthorID != 4 || post.Description != "evening sketch" {
		t.Fatalf("post: %+v", post)
	}
	if !strings.HasPrefix(post.ContentURL, "http://cdn.example/media/users/") {
		t.Fatalf("content url: %q", post.ContentURL)
	}

	posts.err = errBoom{}
	_, err = svc.CreatePost(context.Background(), 4, "d", "a.jpg", "image/jpeg", strings.NewReader("x"))
	if err == nil || !regexp.MustCompile(`error creating post: .*boom`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped create error, got %v", err)
	}
}
