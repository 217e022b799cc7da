// Package syncer mirrors a remote bucket into a local directory tree.
package syncer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"modelworker/internal/s3client"
)

// Outcome tags what a sync run actually did, so callers can tell a skip
// from a success without parsing log text.
type Outcome string

const (
	OutcomeCompleted            Outcome = "completed"
	OutcomeEmptyBucket          Outcome = "empty_bucket"
	OutcomeSkippedNoCredentials Outcome = "skipped_no_credentials"
)

// Summary reports the result of one sync run.
type Summary struct {
	Outcome        Outcome
	TotalFiles     int
	Downloaded     int
	AlreadyPresent int
	Failed         int
}

// Successful counts files present locally after the run, downloaded or not.
func (s Summary) Successful() int {
	return s.Downloaded + s.AlreadyPresent
}

// OK reports overall success: the run completed and no file failed.
func (s Summary) OK() bool {
	return s.Outcome == OutcomeCompleted && s.Failed == 0
}

// SkippedNoCredentials is the summary for a run that never started because
// the client could not be constructed.
func SkippedNoCredentials() Summary {
	return Summary{Outcome: OutcomeSkippedNoCredentials}
}

// Syncer downloads bucket contents one file at a time.
type Syncer struct {
	client    s3client.Client
	bucket    string
	endpoint  string
	localRoot string
	excludes  []string
	progress  ProgressFunc
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Syncer)

// WithExcludes skips keys matching any of the glob patterns.
func WithExcludes(patterns []string) Option {
	return func(s *Syncer) { s.excludes = patterns }
}

// WithProgress installs a byte-level progress callback for transfers.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Syncer) { s.progress = fn }
}

// WithClock overrides the manifest timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

func New(client s3client.Client, bucket, endpoint, localRoot string, logger zerolog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		client:    client,
		bucket:    bucket,
		endpoint:  endpoint,
		localRoot: localRoot,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every object in the bucket. A listing error degrades to an
// empty result; it is logged, not returned.
func (s *Syncer) List(ctx context.Context) []s3client.Object {
	objects, err := s.client.ListObjects(ctx, &s3client.ListObjectsRequest{
		Bucket: s.bucket,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("bucket", s.bucket).Msg("error listing bucket contents")
		return nil
	}
	return objects
}

// DownloadOne transfers a single object to destPath, reporting progress.
// Any failure is logged and reported as false; it never aborts the run.
// A partially written file is left in place on failure.
func (s *Syncer) DownloadOne(ctx context.Context, obj s3client.Object, destPath string) bool {
	info, err := s.client.HeadObject(ctx, &s3client.HeadObjectRequest{
		Bucket: s.bucket,
		Key:    obj.Key,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", obj.Key).Msg("error downloading object")
		return false
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		s.logger.Error().Err(err).Str("key", obj.Key).Msg("error preparing destination directory")
		return false
	}

	file, err := os.Create(destPath)
	if err != nil {
		s.logger.Error().Err(err).Str("key", obj.Key).Msg("error creating destination file")
		return false
	}
	defer file.Close()

	writer := newCountingWriterAt(file, obj.Key, info.Size, s.progress)
	n, err := s.client.DownloadObject(ctx, &s3client.DownloadObjectRequest{
		Bucket: s.bucket,
		Key:    obj.Key,
		Writer: writer,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", obj.Key).Msg("error downloading object")
		return false
	}

	s.logger.Debug().Str("key", obj.Key).Int64("bytes", n).Msg("downloaded")
	return true
}

// Sync mirrors the bucket into the local root: lists everything, skips
// files already present with an identical size, downloads the rest one at
// a time, and writes the manifest. The manifest is written even when some
// files fail so callers can inspect partial completion.
func (s *Syncer) Sync(ctx context.Context) Summary {
	s.logger.Info().Str("bucket", s.bucket).Str("dest", s.localRoot).Msg("starting model download")

	// DownloadOne creates parent directories per file; a failure here
	// surfaces as per-file failures rather than aborting the run.
	if err := os.MkdirAll(s.localRoot, 0755); err != nil {
		s.logger.Error().Err(err).Str("dest", s.localRoot).Msg("error creating model directory")
	}

	objects := s.List(ctx)
	if len(objects) == 0 {
		s.logger.Error().Str("bucket", s.bucket).Msg("no files found in bucket")
		return Summary{Outcome: OutcomeEmptyBucket}
	}

	s.logger.Info().Int("count", len(objects)).Msg("found files to download")

	summary := Summary{
		Outcome: OutcomeCompleted,
	}

	for _, obj := range objects {
		if s.isExcluded(obj.Key) {
			continue
		}
		summary.TotalFiles++

		destPath := filepath.Join(s.localRoot, filepath.FromSlash(obj.Key))

		if alreadySynced(destPath, obj.Size) {
			s.logger.Info().Str("key", obj.Key).Msg("already exists")
			summary.AlreadyPresent++
			continue
		}

		s.logger.Info().Str("key", obj.Key).Msg("downloading")
		if s.DownloadOne(ctx, obj, destPath) {
			summary.Downloaded++
		} else {
			summary.Failed++
		}
	}

	manifest := Manifest{
		DownloadTime:        s.now().Unix(),
		BucketName:          s.bucket,
		EndpointURL:         s.endpoint,
		TotalFiles:          summary.TotalFiles,
		SuccessfulDownloads: summary.Successful(),
		FailedDownloads:     summary.Failed,
	}
	if err := WriteManifest(s.localRoot, manifest); err != nil {
		s.logger.Warn().Err(err).Msg("failed to write download manifest")
	}

	s.logger.Info().
		Int("successful", summary.Successful()).
		Int("failed", summary.Failed).
		Msg("download completed")

	return summary
}

// isExcluded matches a key against the exclude patterns. The manifest file
// itself is never mirrored.
func (s *Syncer) isExcluded(key string) bool {
	if key == ManifestFileName {
		return true
	}
	for _, pattern := range s.excludes {
		if matched, _ := doublestar.Match(pattern, key); matched {
			return true
		}
	}
	return false
}

// alreadySynced reports whether a local file exists with a byte-identical
// size. Content hashes are not compared.
func alreadySynced(path string, remoteSize int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Size() == remoteSize
}
