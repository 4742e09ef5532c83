// Package storage abstracts blob storage for uploaded and generated PDFs.
package storage

import (
	"context"
	"errors"
)

// ErrExists is returned by Put when the key is taken and overwrite is false
var ErrExists = errors.New("blob already exists")

// ErrNotFound is returned by Get and Delete for unknown keys
var ErrNotFound = errors.New("blob not found")

// BlobStore is a key→bytes store. Put returns a public reference to the
// stored blob; with overwrite set it has upsert semantics, which keeps a
// double-run of the completion pipeline idempotent at the storage layer.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, overwrite bool) (string, error)
	Delete(ctx context.Context, key string) error
}
