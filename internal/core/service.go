package core

// service.go coordinates managed conversion jobs: acquiring a concurrency
// slot, spooling the input, running the conversion in the background, and
// broadcasting progress to subscribers.
//
// The input is fully spooled to a service-owned temporary file before
// StartConversion returns. HTTP multipart readers in particular are only
// valid for the lifetime of the request, so the background goroutine must
// never touch the caller's reader.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/ContactPort/internal/config"
	"github.com/JonMunkholm/ContactPort/internal/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultConvertTimeout is the maximum duration for a conversion job when
// the configuration does not set one.
const DefaultConvertTimeout = 10 * time.Minute

// DefaultResultRetention is how long finished jobs and their output files
// stay available for download when the configuration does not set it.
const DefaultResultRetention = 15 * time.Minute

// Service provides the core business logic for contact CSV conversions.
// The pool may be nil, in which case conversion history is disabled.
type Service struct {
	pool    *pgxpool.Pool
	cfg     *config.Config
	metrics *metrics.Metrics
	limiter *ConvertLimiter

	outputDir string

	mu   sync.RWMutex
	jobs map[string]*activeJob
}

// activeJob tracks one in-flight or recently finished conversion.
type activeJob struct {
	ID        string
	FormatKey string
	FileName  string
	Cancel    context.CancelFunc
	Done      chan struct{}

	mu        sync.Mutex
	progress  ConvertProgress
	result    *Result
	err       error
	listeners []chan ConvertProgress
	finished  bool // set once listeners have been closed
}

// update applies fn to the job's progress and broadcasts the new snapshot
// to all listeners. Slow listeners miss updates rather than block the run.
func (job *activeJob) update(fn func(p *ConvertProgress)) {
	job.mu.Lock()
	defer job.mu.Unlock()

	fn(&job.progress)
	snapshot := job.progress
	for _, ch := range job.listeners {
		select {
		case ch <- snapshot:
		default:
			// Listener is slow, skip this update
		}
	}
}

// snapshot returns the current progress.
func (job *activeJob) snapshot() ConvertProgress {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.progress
}

// subscribe registers a new listener and immediately sends it the current
// progress. Subscribing to a finished job yields the final snapshot and a
// closed channel.
func (job *activeJob) subscribe() <-chan ConvertProgress {
	ch := make(chan ConvertProgress, 10)

	job.mu.Lock()
	if job.finished {
		ch <- job.progress
		job.mu.Unlock()
		close(ch)
		return ch
	}
	job.listeners = append(job.listeners, ch)
	select {
	case ch <- job.progress:
	default:
	}
	job.mu.Unlock()

	return ch
}

// closeListeners closes all listener channels and marks the job finished.
func (job *activeJob) closeListeners() {
	job.mu.Lock()
	defer job.mu.Unlock()

	job.finished = true
	for _, ch := range job.listeners {
		close(ch)
	}
	job.listeners = nil
}

// setOutcome records the final result or error of the job.
func (job *activeJob) setOutcome(result *Result, err error) {
	job.mu.Lock()
	job.result = result
	job.err = err
	job.mu.Unlock()
}

// outcome returns the final result or error of the job.
func (job *activeJob) outcome() (*Result, error) {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.result, job.err
}

// NewService creates a new Service instance and ensures the output
// directory exists. metrics may be nil to disable instrumentation.
func NewService(pool *pgxpool.Pool, cfg *config.Config, m *metrics.Metrics) (*Service, error) {
	outputDir := cfg.Convert.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), "contactport", "converted")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &Service{
		pool:      pool,
		cfg:       cfg,
		metrics:   m,
		limiter:   NewConvertLimiter(cfg.Convert.MaxConcurrent, cfg.Convert.MaxWaitTime),
		outputDir: outputDir,
		jobs:      make(map[string]*activeJob),
	}, nil
}

// ListFormats returns all registered source formats.
func (s *Service) ListFormats() []*SourceFormat {
	return All()
}

// ListFormatsByGroup returns source formats organized by group.
func (s *Service) ListFormatsByGroup() map[string][]*SourceFormat {
	result := make(map[string][]*SourceFormat)
	for _, group := range Groups() {
		result[group] = append(result[group], ByGroup(group)...)
	}
	return result
}

// StartConversion begins an asynchronous conversion job.
// Returns the job ID immediately. Use SubscribeProgress to get updates.
//
// The reader is fully spooled before this returns, so the caller may close
// it as soon as the call completes. fileSize is the declared size in bytes
// and may be 0 when unknown; the spooled size is authoritative.
//
// Returns ErrTooManyConversions if the concurrent conversion limit is
// reached and no slot becomes available within the timeout period.
func (s *Service) StartConversion(ctx context.Context, formatKey, fileName string, reader io.Reader, fileSize int64, topics []TopicPreference) (string, error) {
	format, err := ResolveFormat(formatKey)
	if err != nil {
		return "", err
	}
	schema, err := BuildSchema(topics)
	if err != nil {
		return "", err
	}

	maxSize := s.cfg.Convert.MaxFileSize
	if maxSize > 0 && fileSize > maxSize {
		return "", fmt.Errorf("file too large: %d bytes exceeds %d byte limit", fileSize, maxSize)
	}

	// Acquire conversion slot (blocks until available or timeout)
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	spool, size, err := s.spoolInput(reader, maxSize)
	if err != nil {
		s.limiter.Release()
		return "", err
	}

	jobID := uuid.New().String()

	convertCtx, cancel := context.WithTimeout(context.Background(), s.ConvertTimeout())

	job := &activeJob{
		ID:        jobID,
		FormatKey: format.Key,
		FileName:  fileName,
		Cancel:    cancel,
		Done:      make(chan struct{}),
		progress: ConvertProgress{
			JobID:      jobID,
			FormatKey:  format.Key,
			FileName:   fileName,
			Phase:      PhaseStarting,
			BytesTotal: size,
		},
	}

	s.mu.Lock()
	s.jobs[jobID] = job
	s.mu.Unlock()

	// Captured here: the request context is gone by the time history writes.
	ip := GetIPAddressFromContext(ctx)
	ua := GetUserAgentFromContext(ctx)

	// Convert in background with panic recovery to ensure limiter release
	go func() {
		defer s.limiter.Release()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic in conversion",
					"job_id", jobID,
					"format", format.Key,
					"panic", r,
				)
				job.setOutcome(nil, fmt.Errorf("internal error: %v", r))
				job.update(func(p *ConvertProgress) {
					p.Phase = PhaseFailed
					p.Error = fmt.Sprintf("internal error: %v", r)
				})
				job.closeListeners()
				close(job.Done)
				s.cleanup(jobID, s.resultRetention())
			}
		}()
		s.runConversion(convertCtx, job, format, schema, spool, size, ip, ua)
	}()

	return jobID, nil
}

// spoolInput copies the caller's reader to a service-owned temporary file
// and rewinds it. The size limit is enforced during the copy so oversized
// uploads stop early instead of filling the disk.
func (s *Service) spoolInput(reader io.Reader, maxSize int64) (*os.File, int64, error) {
	tmp, err := os.CreateTemp("", "contactport-input-*.csv")
	if err != nil {
		return nil, 0, fmt.Errorf("create spool file: %w", err)
	}

	src := reader
	if maxSize > 0 {
		src = io.LimitReader(reader, maxSize+1)
	}

	size, err := io.Copy(tmp, src)
	if err == nil && maxSize > 0 && size > maxSize {
		err = fmt.Errorf("file too large: exceeds %d byte limit", maxSize)
	}
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, 0, err
	}

	return tmp, size, nil
}

// runConversion executes a spooled conversion job. It owns the spool file
// and the output file for the duration of the run.
func (s *Service) runConversion(ctx context.Context, job *activeJob, format *SourceFormat, schema *OutputSchema, in *os.File, size int64, ip, ua string) {
	startTime := time.Now()

	defer func() {
		in.Close()
		os.Remove(in.Name())
		job.closeListeners()
		close(job.Done)
		s.cleanup(job.ID, s.resultRetention())
	}()

	s.metrics.ConversionStarted()
	s.recordStart(job, schema.TopicCount(), ip, ua)

	outputPath := filepath.Join(s.outputDir, job.ID+".csv")

	out, err := os.Create(outputPath)
	if err != nil {
		s.failJob(job, startTime, fmt.Errorf("%w: %w", ErrOutputWrite, err))
		return
	}

	job.update(func(p *ConvertProgress) { p.Phase = PhaseConverting })

	counting := NewCountingReader(in, size)
	rows, convErr := convertRows(ctx, counting, out, format, schema, func(rows int64) {
		job.update(func(p *ConvertProgress) {
			p.Rows = rows
			p.BytesRead = counting.BytesRead
		})
	})

	if cerr := out.Close(); cerr != nil && convErr == nil {
		convErr = fmt.Errorf("%w: %w", ErrOutputWrite, cerr)
	}

	if convErr != nil {
		os.Remove(outputPath)
		s.failJob(job, startTime, convErr)
		return
	}

	job.update(func(p *ConvertProgress) {
		p.Phase = PhaseFinalizing
		p.Rows = rows
		p.BytesRead = counting.BytesRead
	})

	result := &Result{
		OutputPath: outputPath,
		Rows:       rows,
		Bytes:      counting.BytesRead,
		Duration:   time.Since(startTime),
	}
	job.setOutcome(result, nil)
	job.update(func(p *ConvertProgress) { p.Phase = PhaseComplete })

	s.metrics.ConversionFinished(format.Key, HistoryStatusSucceeded, rows, counting.BytesRead, result.Duration)
	s.recordFinish(job, HistoryStatusSucceeded, result, "")

	slog.Info("conversion complete",
		"job_id", job.ID,
		"format", format.Key,
		"rows", rows,
		"duration_ms", result.Duration.Milliseconds(),
	)
}

// failJob marks the job failed (or cancelled, when the error is a context
// cancellation) and records the outcome.
func (s *Service) failJob(job *activeJob, startTime time.Time, err error) {
	status := HistoryStatusFailed
	phase := PhaseFailed
	if errors.Is(err, context.Canceled) {
		status = HistoryStatusCancelled
		phase = PhaseCancelled
	}

	job.setOutcome(nil, err)
	job.update(func(p *ConvertProgress) {
		p.Phase = phase
		p.Error = err.Error()
	})

	s.metrics.ConversionFinished(job.FormatKey, status, 0, 0, time.Since(startTime))
	s.recordFinish(job, status, nil, err.Error())

	slog.Warn("conversion failed",
		"job_id", job.ID,
		"format", job.FormatKey,
		"error", err,
	)
}

// getJob looks up an active job by ID.
func (s *Service) getJob(jobID string) (*activeJob, error) {
	s.mu.RLock()
	job, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}
	return job, nil
}

// SubscribeProgress returns a channel that receives progress updates.
// The channel is closed when the conversion completes.
func (s *Service) SubscribeProgress(jobID string) (<-chan ConvertProgress, error) {
	job, err := s.getJob(jobID)
	if err != nil {
		return nil, err
	}
	return job.subscribe(), nil
}

// CancelConversion cancels an in-progress conversion.
func (s *Service) CancelConversion(jobID string) error {
	job, err := s.getJob(jobID)
	if err != nil {
		return err
	}
	job.Cancel()
	return nil
}

// GetConversionResult returns the result of a completed conversion.
// Blocks until the conversion completes if still in progress.
func (s *Service) GetConversionResult(jobID string) (*Result, error) {
	job, err := s.getJob(jobID)
	if err != nil {
		return nil, err
	}

	<-job.Done

	return job.outcome()
}

// GetConversionProgress returns the current progress without blocking.
func (s *Service) GetConversionProgress(jobID string) (ConvertProgress, error) {
	job, err := s.getJob(jobID)
	if err != nil {
		return ConvertProgress{}, err
	}
	return job.snapshot(), nil
}

// GetJobStatus returns a non-blocking status snapshot for polling clients.
func (s *Service) GetJobStatus(jobID string) (JobStatus, error) {
	job, err := s.getJob(jobID)
	if err != nil {
		return JobStatus{}, err
	}

	progress := job.snapshot()
	result, jobErr := job.outcome()

	status := JobStatus{
		JobID:     job.ID,
		FormatKey: job.FormatKey,
		FileName:  job.FileName,
		Phase:     progress.Phase,
		Progress:  progress,
		Result:    result,
	}
	if jobErr != nil {
		status.Error = jobErr.Error()
	}
	return status, nil
}

// DownloadInfo returns the output path and a suggested download name for a
// completed job. Fails while the job is still running.
func (s *Service) DownloadInfo(jobID string) (string, string, error) {
	job, err := s.getJob(jobID)
	if err != nil {
		return "", "", err
	}

	select {
	case <-job.Done:
	default:
		return "", "", fmt.Errorf("conversion still running: %s", jobID)
	}

	result, jobErr := job.outcome()
	if jobErr != nil {
		return "", "", jobErr
	}
	if result == nil {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	return result.OutputPath, downloadName(job.FileName), nil
}

// downloadName derives the suggested output file name from the input name.
func downloadName(inputName string) string {
	base := filepath.Base(inputName)
	if base == "." || base == "/" || base == "" {
		return "contacts-converted.csv"
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-converted.csv"
}

// cleanup removes the job from tracking and deletes its output file after
// the retention delay.
func (s *Service) cleanup(jobID string, delay time.Duration) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		job, ok := s.jobs[jobID]
		delete(s.jobs, jobID)
		s.mu.Unlock()

		if !ok {
			return
		}
		if result, _ := job.outcome(); result != nil && result.OutputPath != "" {
			os.Remove(result.OutputPath)
		}
	})
}

// ConvertTimeout returns the maximum duration for one conversion job.
func (s *Service) ConvertTimeout() time.Duration {
	if s.cfg.Convert.Timeout > 0 {
		return s.cfg.Convert.Timeout
	}
	return DefaultConvertTimeout
}

// resultRetention returns how long finished jobs stay downloadable.
func (s *Service) resultRetention() time.Duration {
	if s.cfg.Convert.ResultRetention > 0 {
		return s.cfg.Convert.ResultRetention
	}
	return DefaultResultRetention
}

// LimiterStatus returns the current conversion limiter state.
func (s *Service) LimiterStatus() ConvertLimiterStatus {
	return s.limiter.Status()
}

// WaitForConversions blocks until all active conversions complete or the
// context is cancelled. Used for graceful shutdown.
func (s *Service) WaitForConversions(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
