// Package storage uploads data files to S3-compatible object storage.
package storage

//go:generate mockgen -source=storage.go -destination=mock_storage.go -package=storage

import (
	"context"
)

// ObjectStore is the put-object capability the output dispatcher needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error
}
