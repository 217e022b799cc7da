// Package worker prepares the process for serving and turns one job
// request into one job response.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"modelworker/internal/config"
	"modelworker/internal/s3client"
	"modelworker/internal/syncer"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Job is the raw request mapping delivered by the serving runtime. The
// only field this worker reads is "input".
type Job map[string]any

// Response is the per-job result. Status is always set; exactly one of
// the result pair or Message carries the payload.
type Response struct {
	Status    string `json:"status"`
	ModelUsed string `json:"model_used,omitempty"`
	Result    string `json:"result,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Readiness describes the worker after Initialize.
type Readiness struct {
	Status    string `json:"status"`
	ModelPath string `json:"model_path"`

	// Sync holds the startup sync summary when one ran; nil otherwise.
	Sync *syncer.Summary `json:"-"`
}

// Worker owns startup and per-job handling. It carries no cross-request
// state; each job is independent.
type Worker struct {
	cfg    config.Config
	logger zerolog.Logger

	// syncRunner is swapped out in tests.
	syncRunner func(context.Context) syncer.Summary
}

func New(cfg config.Config, logger zerolog.Logger) *Worker {
	w := &Worker{
		cfg:    cfg,
		logger: logger,
	}
	w.syncRunner = w.runSync
	return w
}

// Initialize prepares the worker. Missing credentials and skipped or
// failed syncs degrade to warnings; startup itself never fails.
func (w *Worker) Initialize(ctx context.Context) Readiness {
	w.logger.Info().Msg("initializing worker")

	if !w.cfg.HasCredentials() {
		w.logger.Warn().Msg("AWS credentials not found in environment variables")
		w.logger.Warn().Msgf("please set %s and %s", config.AccessKeyEnv, config.SecretKeyEnv)
	}

	readiness := Readiness{
		Status:    "ready",
		ModelPath: w.cfg.ModelPath,
	}

	if w.cfg.SyncOnStart {
		summary := w.syncRunner(ctx)
		readiness.Sync = &summary

		switch {
		case summary.Outcome == syncer.OutcomeSkippedNoCredentials:
			w.logger.Warn().Msg("model sync skipped: no credentials; serving without model")
		case !summary.OK():
			w.logger.Warn().
				Str("outcome", string(summary.Outcome)).
				Int("failed", summary.Failed).
				Msg("model sync incomplete; serving without full model")
		default:
			w.logger.Info().
				Int("files", summary.Successful()).
				Msg("model downloaded successfully")
		}
	}

	w.logger.Info().Str("model_path", w.cfg.ModelPath).Msg("model path configured")
	return readiness
}

// HandleJob transforms one job into one response. Every path returns a
// Response value; nothing propagates to the serving runtime.
func (w *Worker) HandleJob(job Job) Response {
	input, ok := job["input"]
	if !ok {
		return Response{
			Status:  StatusError,
			Message: `job has no "input" field`,
		}
	}

	return Response{
		Status:    StatusSuccess,
		ModelUsed: w.cfg.ModelPath,
		Result:    fmt.Sprintf("Processed input: %v", input),
	}
}

func (w *Worker) runSync(ctx context.Context) syncer.Summary {
	client, err := s3client.NewAWSClient(ctx, s3client.Options{
		Endpoint:  w.cfg.Endpoint,
		Region:    w.cfg.Region,
		AccessKey: w.cfg.AccessKey,
		SecretKey: w.cfg.SecretKey,
	})
	if err != nil {
		if errors.Is(err, s3client.ErrNoCredentials) {
			w.logger.Warn().Msg("AWS credentials not set; model sync skipped")
		} else {
			w.logger.Error().Err(err).Msg("cannot create object store client")
		}
		return syncer.SkippedNoCredentials()
	}

	s := syncer.New(client, w.cfg.Bucket, w.cfg.Endpoint, w.cfg.ModelPath, w.logger)
	return s.Sync(ctx)
}
