package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/locvowork/employee_management_sample/reportgateway/internal/logger"
)

// XLSXContentType is the media type of archived workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const defaultURLExpiry = time.Hour

// Object describes an archived export.
type Object struct {
	Bucket string    `json:"bucket"`
	Key    string    `json:"key"`
	Size   int64     `json:"size"`
	URL    string    `json:"url"`
	Expiry time.Time `json:"expiry"`
}

// Archiver stores export files under unique keys and hands out download links.
type Archiver struct {
	client Client
	bucket string
	expiry time.Duration
	now    func() time.Time
	newID  func() string
}

// NewArchiver creates an archiver writing to cfg.Bucket.
func NewArchiver(client Client, cfg Config) *Archiver {
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = defaultURLExpiry
	}
	return &Archiver{
		client: client,
		bucket: cfg.Bucket,
		expiry: expiry,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	ok, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if ok {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	logger.InfoLog(ctx, "Created bucket %s", a.bucket)
	return nil
}

// Key returns the object key of fileName: <prefix>/<yyyy/mm/dd>/<uuid>-<fileName>.
func (a *Archiver) Key(prefix, fileName string) string {
	return path.Join(prefix, a.now().UTC().Format("2006/01/02"), a.newID()+"-"+path.Base(fileName))
}

// Archive uploads data and returns the object with a presigned download URL.
func (a *Archiver) Archive(ctx context.Context, prefix, fileName string, data []byte) (*Object, error) {
	key := a.Key(prefix, fileName)
	info, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        XLSXContentType,
		ContentDisposition: "attachment; filename=" + url.QueryEscape(path.Base(fileName)),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	link, err := a.client.PresignedGetObject(ctx, a.bucket, key, a.expiry, nil)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &Object{
		Bucket: a.bucket,
		Key:    key,
		Size:   info.Size,
		URL:    link.String(),
		Expiry: a.now().Add(a.expiry),
	}, nil
}
