package s3client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Fixed at client construction; there is no per-call tuning.
const (
	maxRetryAttempts    = 3
	maxIdleConnsPerHost = 50
	downloadPartSize    = 8 * 1024 * 1024 // 8MB
)

// ErrNoCredentials is returned by NewAWSClient when either credential
// value is empty. Callers treat it as a skip, not a failure.
var ErrNoCredentials = errors.New("AWS credentials not found in environment")

// Options configures the AWS client for an S3-compatible endpoint.
type Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

type AWSClient struct {
	client     *s3.Client
	downloader *manager.Downloader
}

// NewAWSClient builds a client with static credentials, SigV4 signing and
// path-style addressing against the configured endpoint.
func NewAWSClient(ctx context.Context, opts Options) (*AWSClient, error) {
	if opts.AccessKey == "" || opts.SecretKey == "" {
		return nil, ErrNoCredentials
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		),
		awsconfig.WithRetryMaxAttempts(maxRetryAttempts),
		awsconfig.WithHTTPClient(newPooledHTTPClient()),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = true
	})

	// Concurrency 1 keeps each object a single sequential stream.
	downloader := manager.NewDownloader(client, func(d *manager.Downloader) {
		d.Concurrency = 1
		d.PartSize = downloadPartSize
	})

	return &AWSClient{
		client:     client,
		downloader: downloader,
	}, nil
}

func newPooledHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        maxIdleConnsPerHost,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// ListObjects pages through the bucket listing and accumulates every
// object. The paginator follows continuation tokens until the provider
// signals the last page.
func (c *AWSClient) ListObjects(ctx context.Context, req *ListObjectsRequest) ([]Object, error) {
	var objects []Object

	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(req.Bucket),
		Prefix: aws.String(req.Prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil || obj.Size == nil {
				continue
			}
			objects = append(objects, Object{
				Key:          *obj.Key,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// HeadObject fetches object metadata.
func (c *AWSClient) HeadObject(ctx context.Context, req *HeadObjectRequest) (*ObjectInfo, error) {
	resp, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to head object: %w", err)
	}

	return &ObjectInfo{
		Size: aws.ToInt64(resp.ContentLength),
	}, nil
}

// DownloadObject streams the object into the writer and returns the byte
// count transferred.
func (c *AWSClient) DownloadObject(ctx context.Context, req *DownloadObjectRequest) (int64, error) {
	n, err := c.downloader.Download(ctx, req.Writer, &s3.GetObjectInput{
		Bucket: aws.String(req.Bucket),
		Key:    aws.String(req.Key),
	})
	if err != nil {
		return n, fmt.Errorf("failed to download object: %w", err)
	}

	return n, nil
}
