package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
)

var (
	s3Session     *session.Session
	s3Bucket      string
	cloudFrontURL string
)

// InitS3 switches uploads to S3. Local storage remains the fallback when the
// session cannot be created.
func InitS3(bucket, region, cdnURL string) error {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return err
	}

	s3Session = sess
	s3Bucket = bucket
	cloudFrontURL = cdnURL
	UseLocalStorage = false
	return nil
}

func saveToS3(fh *multipart.FileHeader) (*StoredFile, error) {
	if s3Session == nil {
		return nil, fmt.Errorf("S3 not initialized")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	key := fmt.Sprintf("%s/%s/%s_%s",
		uploadFolder,
		time.Now().Format("2006/01"),
		uuid.New().String(),
		filepath.Base(fh.Filename),
	)

	svc := s3.New(s3Session)
	_, err = svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(s3Bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(fh.Header.Get("Content-Type")),
		ACL:         aws.String("private"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %v", err)
	}

	return &StoredFile{Name: key}, nil
}

func s3Open(key string) (io.ReadCloser, error) {
	if s3Session == nil {
		return nil, fmt.Errorf("S3 not initialized")
	}

	svc := s3.New(s3Session)
	out, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q from S3: %v", key, err)
	}
	return out.Body, nil
}

// S3URL builds the public link for an S3-stored upload.
func S3URL(key string) string {
	if cloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", cloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s3Bucket, key)
}
