package s3client

import (
	"context"
	"io"
	"time"
)

// Object is one entry from a bucket listing.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectInfo is the metadata returned by a head request.
type ObjectInfo struct {
	Size int64
}

type ListObjectsRequest struct {
	Bucket string
	Prefix string
}

type HeadObjectRequest struct {
	Bucket string
	Key    string
}

type DownloadObjectRequest struct {
	Bucket string
	Key    string
	Writer io.WriterAt
}

// Client is the set of object-store operations the worker needs.
type Client interface {
	ListObjects(ctx context.Context, req *ListObjectsRequest) ([]Object, error)
	HeadObject(ctx context.Context, req *HeadObjectRequest) (*ObjectInfo, error)
	DownloadObject(ctx context.Context, req *DownloadObjectRequest) (int64, error)
}
