package syncer

import (
	"context"
	"fmt"

	"modelworker/internal/s3client"
)

// mockClient is a mock implementation of s3client.Client for testing
type mockClient struct {
	listObjectsFunc    func(ctx context.Context, req *s3client.ListObjectsRequest) ([]s3client.Object, error)
	headObjectFunc     func(ctx context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error)
	downloadObjectFunc func(ctx context.Context, req *s3client.DownloadObjectRequest) (int64, error)
}

func (m *mockClient) ListObjects(ctx context.Context, req *s3client.ListObjectsRequest) ([]s3client.Object, error) {
	if m.listObjectsFunc != nil {
		return m.listObjectsFunc(ctx, req)
	}
	return nil, fmt.Errorf("ListObjects not implemented")
}

func (m *mockClient) HeadObject(ctx context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error) {
	if m.headObjectFunc != nil {
		return m.headObjectFunc(ctx, req)
	}
	return nil, fmt.Errorf("HeadObject not implemented")
}

func (m *mockClient) DownloadObject(ctx context.Context, req *s3client.DownloadObjectRequest) (int64, error) {
	if m.downloadObjectFunc != nil {
		return m.downloadObjectFunc(ctx, req)
	}
	return 0, fmt.Errorf("DownloadObject not implemented")
}

// newBucketClient serves list, head and download from an in-memory bucket.
func newBucketClient(bucket map[string][]byte) *mockClient {
	return &mockClient{
		listObjectsFunc: func(ctx context.Context, req *s3client.ListObjectsRequest) ([]s3client.Object, error) {
			var objects []s3client.Object
			for key, data := range bucket {
				objects = append(objects, s3client.Object{Key: key, Size: int64(len(data))})
			}
			return objects, nil
		},
		headObjectFunc: func(ctx context.Context, req *s3client.HeadObjectRequest) (*s3client.ObjectInfo, error) {
			data, ok := bucket[req.Key]
			if !ok {
				return nil, fmt.Errorf("no such key: %s", req.Key)
			}
			return &s3client.ObjectInfo{Size: int64(len(data))}, nil
		},
		downloadObjectFunc: func(ctx context.Context, req *s3client.DownloadObjectRequest) (int64, error) {
			data, ok := bucket[req.Key]
			if !ok {
				return 0, fmt.Errorf("no such key: %s", req.Key)
			}
			n, err := req.Writer.WriteAt(data, 0)
			return int64(n), err
		},
	}
}
