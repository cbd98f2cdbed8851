package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/rankmorph/internal/engine"
	"github.com/cwbudde/rankmorph/internal/kernel"
	"github.com/cwbudde/rankmorph/internal/matrix"
	"github.com/cwbudde/rankmorph/internal/pattern"
	"github.com/cwbudde/rankmorph/internal/quant"
	"github.com/cwbudde/rankmorph/internal/store"
)

// jobContext adapts a context.Context and a JobManager entry to
// driver.Context, the collaborator internal/driver polls for cancellation
// and progress. This is the same role context.Context plays in the
// teacher's runJob, just narrowed to the two methods the driver needs.
type jobContext struct {
	ctx         context.Context
	jm          *JobManager
	id          string
	recordStore store.Store
	start       time.Time
}

func (c *jobContext) CheckCancelled() error {
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return nil
	}
}

func (c *jobContext) ReportProgress(done, total int64) {
	c.jm.UpdateJob(c.id, func(j *Job) {
		j.Done = done
		j.Total = total
	})
	now := time.Now()
	c.jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     c.id,
		State:     StateRunning,
		Done:      done,
		Total:     total,
		Timestamp: now,
	})
	if c.recordStore != nil {
		entry := store.TraceEntry{Done: done, Total: total, Elapsed: now.Sub(c.start), Timestamp: now}
		if err := c.recordStore.AppendTraceEntry(c.id, entry); err != nil {
			slog.Warn("Failed to append trace entry", "job_id", c.id, "error", err)
		}
	}
}

// runJob executes one ranged-read kernel invocation in the background.
// If recordStore is not nil, a JobRecord summarizing the result is saved
// when the job completes.
func runJob(ctx context.Context, jm *JobManager, recordStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "matrix", job.Config.MatrixPath, "kernel", job.Config.Kernel)

	start := time.Now()
	output, err := runKernel(&jobContext{ctx: ctx, jm: jm, id: jobID, recordStore: recordStore, start: start}, job.Config)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}

	record := store.NewJobRecord(jobID, job.Config, output, elapsed)

	if recordStore != nil {
		if err := recordStore.SaveJobRecord(jobID, record); err != nil {
			slog.Warn("Failed to save job record", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Result = record
		j.Done = record.Count
		j.EndTime = &endTime
	}); err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"count", record.Count,
		"min", record.Min,
		"max", record.Max,
		"mean", record.Mean,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:     jobID,
		State:     StateCompleted,
		Done:      record.Count,
		Total:     record.Count,
		Timestamp: time.Now(),
	})

	return nil
}

// runKernel loads the matrix, builds the aperture pattern, and dispatches
// to the engine based on the job's configured kernel.
func runKernel(ctx *jobContext, cfg JobConfig) ([]float64, error) {
	storage, err := matrix.LoadFile(cfg.MatrixPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load matrix: %w", err)
	}

	elemType, err := quant.ParseElementType(cfg.ElementType)
	if err != nil {
		return nil, fmt.Errorf("invalid element type: %w", err)
	}

	radius := cfg.Radius
	if radius < 0 {
		radius = 0
	}
	pat, err := pattern.Window(radius)
	if err != nil {
		return nil, fmt.Errorf("failed to build aperture pattern: %w", err)
	}

	opts := engine.KernelOptions{
		ElementType:          elemType,
		NumberOfAnalysedBits: cfg.NumberOfAnalysedBits,
		Interpolated:         cfg.Interpolated,
		OptimiseGetRange:     true,
	}

	count := cfg.Count
	if count <= 0 {
		count = storage.Length() - cfg.ArrayPos
	}

	switch cfg.Kernel {
	case "averager":
		pct := engine.ConstPercentiles{P1: cfg.P1, P2: cfg.P2}
		return engine.RunAverager(ctx, storage, pat, opts, pct, cfg.ArrayPos, count)
	case "summator":
		post := postProcessFromConfig(cfg)
		return engine.RunSummator(ctx, storage, pat, opts, post, cfg.ArrayPos, count)
	default:
		return nil, fmt.Errorf("unknown kernel: %s", cfg.Kernel)
	}
}

// postProcessFromConfig builds the Summator post-processing function named
// in the job config, defaulting to the identity.
func postProcessFromConfig(cfg JobConfig) kernel.PostProcess {
	switch cfg.PostProcess {
	case "linear":
		return kernel.Linear(cfg.PostA, cfg.PostB)
	case "pow2":
		log := cfg.PostLog
		if log == 0 {
			log = 1
		}
		return kernel.PowerOfTwoMean(log)
	default:
		return kernel.Identity()
	}
}

// markJobFailed marks a job as failed with an error message.
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled.
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
