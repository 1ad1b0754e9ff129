// Package storage writes advertiser files into per-advertiser Cloud
// Storage buckets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
)

var whitespace = regexp.MustCompile(`\s+`)

// BucketName derives the bucket for an advertiser: lower-cased, with
// runs of whitespace collapsed to hyphens.
func BucketName(advertiserName string) string {
	return whitespace.ReplaceAllString(strings.ToLower(advertiserName), "-")
}

// ObjectURL is the public URL for an uploaded object.
func ObjectURL(bucket, object string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object)
}

// File is one inbound upload.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// UploadedFile reports where one file landed.
type UploadedFile struct {
	FileName string `json:"fileName"`
	URL      string `json:"url"`
}

// Uploader writes files into one bucket per advertiser, creating the
// bucket on first use.
type Uploader struct {
	client       *gcs.Client
	projectID    string
	location     string
	storageClass string
	log          *log.Logger
}

func NewUploader(ctx context.Context, projectID, location, storageClass string, credentialsJSON []byte, logger *log.Logger) (*Uploader, error) {
	client, err := gcs.NewClient(ctx, option.WithCredentialsJSON(credentialsJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &Uploader{
		client:       client,
		projectID:    projectID,
		location:     location,
		storageClass: storageClass,
		log:          logger,
	}, nil
}

// Upload ensures the advertiser's bucket exists and writes every file as
// an object named by its original filename. Two concurrent uploads of
// the same filename race; the last write wins.
func (u *Uploader) Upload(ctx context.Context, advertiserName string, files []File) (string, []UploadedFile, error) {
	bucketName := BucketName(advertiserName)
	bucket := u.client.Bucket(bucketName)

	if _, err := bucket.Attrs(ctx); err != nil {
		if !errors.Is(err, gcs.ErrBucketNotExist) {
			return "", nil, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
		}
		u.log.Info("creating bucket", "bucket", bucketName)
		attrs := &gcs.BucketAttrs{
			Location:     u.location,
			StorageClass: u.storageClass,
		}
		if err := bucket.Create(ctx, u.projectID, attrs); err != nil {
			return "", nil, fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
	}

	uploaded := make([]UploadedFile, 0, len(files))
	for _, file := range files {
		writer := bucket.Object(file.Name).NewWriter(ctx)
		writer.ContentType = file.ContentType

		if _, err := io.Copy(writer, file.Reader); err != nil {
			writer.Close()
			return "", nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}
		if err := writer.Close(); err != nil {
			return "", nil, fmt.Errorf("failed to write %s: %w", file.Name, err)
		}

		uploaded = append(uploaded, UploadedFile{
			FileName: file.Name,
			URL:      ObjectURL(bucketName, file.Name),
		})
	}

	return bucketName, uploaded, nil
}

// Close releases the underlying storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}
