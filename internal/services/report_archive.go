package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bizcore/internal/tenancy"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ReportArchive persists isolation audit reports to object storage so
// operators can inspect history after the cache entry expires.
type ReportArchive interface {
	Store(ctx context.Context, report *tenancy.Report) (string, error)
	PresignedURL(objectName string, expiry time.Duration) (string, error)
	EnsureBucketExists(ctx context.Context) error
}

type minioReportArchive struct {
	client *minio.Client
	bucket string
}

func NewMinioReportArchive(endpoint, accessKey, secretKey, bucket string, useSSL bool) (ReportArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioReportArchive{client: client, bucket: bucket}, nil
}

// Store uploads the report as a timestamped JSON object and returns the
// object name.
func (a *minioReportArchive) Store(ctx context.Context, report *tenancy.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("isolation/%s.json", report.RanAt.UTC().Format(time.RFC3339))
	_, err = a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return objectName, nil
}

func (a *minioReportArchive) PresignedURL(objectName string, expiry time.Duration) (string, error) {
	url, err := a.client.PresignedGetObject(context.Background(), a.bucket, objectName, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (a *minioReportArchive) EnsureBucketExists(ctx context.Context) error {
	found, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return err
	}
	if !found {
		return a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
