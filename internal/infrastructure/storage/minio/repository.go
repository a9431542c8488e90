package minio

import (
	"bytes"
	"context"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/MolSieve/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolSieve/pkg/errors"
)

var ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "object key and data are required")

// Put uploads data under key in the archive bucket.  An empty content type
// is sniffed from the payload.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if c.isClosed() {
		return ErrClientClosed
	}
	if key == "" || len(data) == 0 {
		return ErrInvalidRequest
	}
	if contentType == "" {
		contentType = http.DetectContentType(data[:min(512, len(data))])
	}

	info, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return errors.Wrapf(err, errors.ErrCodeStorage, "failed to upload %s", key)
	}
	c.logger.Debug("object uploaded",
		logging.String("key", key),
		logging.Int64("size", info.Size),
		logging.String("etag", info.ETag))
	return nil
}

// Exists reports whether key is present in the archive bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if c.isClosed() {
		return false, ErrClientClosed
	}
	_, err := c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, errors.Wrapf(err, errors.ErrCodeStorage, "failed to stat %s", key)
}

//Personal.AI order the ending
