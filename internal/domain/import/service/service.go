// Package service orchestrates the import pipeline: intake, parsing, row
// validation, duplicate detection, staging, and disposition.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/dupdetect"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/parser"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/repository"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/import/validator"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/intake"
	"github.com/nullroute-commits/financial-stronghold-sub002/internal/domain/ledger"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/config"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/metrics"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/money"
	"github.com/nullroute-commits/financial-stronghold-sub002/pkg/storage"
)

// ErrUploadRejected is returned by CreateJob when the file fails intake.
var ErrUploadRejected = errors.New("upload rejected by intake checks")

// ErrAccountRequired is returned by Approve when no target account is given.
var ErrAccountRequired = errors.New("approval requires a target account")

// EventSink receives pipeline audit events. Implementations must be safe for
// concurrent use; the slog-backed sink is the default.
type EventSink interface {
	Record(ctx context.Context, eventType string, payload map[string]any)
}

// SlogSink writes pipeline events to structured logs.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) Record(ctx context.Context, eventType string, payload map[string]any) {
	attrs := make([]any, 0, len(payload)*2)
	for k, v := range payload {
		attrs = append(attrs, slog.Any(k, v))
	}
	s.logger.InfoContext(ctx, eventType, attrs...)
}

// ImportService drives file-import jobs end to end.
type ImportService struct {
	repo      repository.ImportRepository
	ledger    ledger.Repository
	store     storage.Storage
	gate      *intake.Gate
	validator *validator.Validator
	detector  *dupdetect.Detector
	sink      EventSink
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	cfg       config.ImportConfig
}

func NewImportService(
	repo repository.ImportRepository,
	ledgerRepo ledger.Repository,
	store storage.Storage,
	gate *intake.Gate,
	rowValidator *validator.Validator,
	detector *dupdetect.Detector,
	sink EventSink,
	logger *slog.Logger,
	m *metrics.Metrics,
	tracer trace.Tracer,
	cfg config.ImportConfig,
) *ImportService {
	return &ImportService{
		repo:      repo,
		ledger:    ledgerRepo,
		store:     store,
		gate:      gate,
		validator: rowValidator,
		detector:  detector,
		sink:      sink,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		cfg:       cfg,
	}
}

// CreateJobInput is the caller-supplied description of an upload.
type CreateJobInput struct {
	UserID   uuid.UUID
	Filename string
	FileType string
	Data     []byte
	// Settings carries free-form import options; TemplateID and
	// ColumnMapping bypass automatic header inference.
	Settings      map[string]any
	ColumnMapping map[string]string
	TemplateID    *uuid.UUID
}

// CreateJob runs intake on the uploaded bytes and, when accepted, stores the
// file and enqueues a pending import job. The intake record (hash, detected
// MIME) is persisted even for rejected files.
func (s *ImportService) CreateJob(ctx context.Context, in CreateJobInput) (*repository.ImportJob, error) {
	ctx, span := s.tracer.Start(ctx, "import.create_job")
	defer span.End()

	accepted, check, err := s.gate.Validate(ctx, in.Data, int64(len(in.Data)))
	if err != nil {
		return nil, fmt.Errorf("intake validation: %w", err)
	}

	upload := &repository.FileUpload{
		UserID:       in.UserID,
		Filename:     in.Filename,
		FileType:     in.FileType,
		SizeBytes:    int64(len(in.Data)),
		ContentHash:  check.SHA256,
		DetectedMIME: check.DetectedMIME,
		Status:       repository.UploadStatusUploaded,
	}
	if err := s.repo.CreateFileUpload(ctx, upload); err != nil {
		return nil, err
	}

	result := checkResultMap(check)
	if !accepted {
		s.metrics.FilesRejected.WithLabelValues(check.Reason).Inc()
		s.sink.Record(ctx, "import.upload_rejected", map[string]any{
			"upload_id": upload.ID,
			"reason":    check.Reason,
			"mime":      check.DetectedMIME,
		})
		if err := s.repo.UpdateFileUploadStatus(ctx, upload.ID, repository.UploadStatusRejected, result); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrUploadRejected, check.Reason)
	}

	info, err := s.store.Upload(ctx, in.UserID, upload.ID, in.Filename, check.DetectedMIME, bytes.NewReader(in.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	upload.StorageKey = info.Path

	if err := s.repo.UpdateFileUploadStatus(ctx, upload.ID, repository.UploadStatusValidated, result); err != nil {
		return nil, err
	}

	mapping := in.ColumnMapping
	if in.TemplateID != nil {
		tplMapping, err := s.ApplyTemplate(ctx, *in.TemplateID)
		if err != nil {
			return nil, err
		}
		mapping = tplMapping
	}

	job := &repository.ImportJob{
		UserID:        in.UserID,
		FileUploadID:  upload.ID,
		Filename:      in.Filename,
		FileType:      in.FileType,
		Status:        repository.JobStatusPending,
		Settings:      in.Settings,
		ColumnMapping: mapping,
	}
	if err := s.repo.CreateImportJob(ctx, job); err != nil {
		return nil, err
	}

	s.sink.Record(ctx, "import.job_created", map[string]any{
		"job_id":    job.ID,
		"user_id":   in.UserID,
		"filename":  in.Filename,
		"file_type": in.FileType,
	})
	return job, nil
}

// Run processes one job to a terminal state. Row-level failures are recorded
// and never fail the job; only a pipeline fault does. The returned error is
// non-nil only for pipeline faults (the job is marked failed first).
func (s *ImportService) Run(ctx context.Context, jobID uuid.UUID) error {
	if err := s.repo.StartImportJob(ctx, jobID); err != nil {
		return err
	}
	return s.runClaimed(ctx, jobID)
}

// runClaimed processes a job already moved to processing by StartImportJob
// or ClaimPendingJob.
func (s *ImportService) runClaimed(ctx context.Context, jobID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "import.run", trace.WithAttributes(
		attribute.String("job_id", jobID.String()),
	))
	defer span.End()

	job, err := s.repo.GetImportJob(ctx, jobID)
	if err != nil {
		return s.failJob(ctx, jobID, time.Now(), "load_job", err)
	}

	s.metrics.JobsInFlight.Inc()
	defer s.metrics.JobsInFlight.Dec()
	started := time.Now()

	table, err := s.parseUpload(ctx, job)
	if err != nil {
		return s.failJob(ctx, jobID, started, "parse", err)
	}

	if err := s.repo.SetJobTotalRows(ctx, jobID, len(table.Rows)); err != nil {
		return s.failJob(ctx, jobID, started, "init", err)
	}

	counters := jobCounters{total: len(table.Rows)}
	batch := s.cfg.ProgressBatchRows
	if batch <= 0 {
		batch = 100
	}

	for _, row := range table.Rows {
		// Cooperative cancellation: checked between rows, never mid-row.
		if err := ctx.Err(); err != nil {
			return s.cancelJob(ctx, jobID, started, &counters)
		}
		if counters.processed%batch == 0 {
			cancelled, err := s.repo.IsCancelRequested(ctx, jobID)
			if err != nil {
				return s.failJob(ctx, jobID, started, "cancel_poll", err)
			}
			if cancelled {
				return s.cancelJob(ctx, jobID, started, &counters)
			}
		}

		if err := s.processRow(ctx, job, row, &counters); err != nil {
			return s.failJob(ctx, jobID, started, "row_processing", err)
		}
		counters.processed++

		if counters.processed%batch == 0 {
			if err := s.flushProgress(ctx, jobID, &counters); err != nil {
				return s.failJob(ctx, jobID, started, "progress", err)
			}
		}
	}

	// Final flush; a completed job always reports 100.
	counters.forceComplete = true
	if err := s.flushProgress(ctx, jobID, &counters); err != nil {
		return s.failJob(ctx, jobID, started, "progress", err)
	}
	if err := s.repo.FinishImportJob(ctx, jobID, repository.JobStatusCompleted, nil); err != nil {
		return err
	}

	s.metrics.JobsTotal.WithLabelValues(repository.JobStatusCompleted).Inc()
	s.metrics.JobDuration.Observe(time.Since(started).Seconds())
	s.sink.Record(ctx, "import.job_completed", map[string]any{
		"job_id":     jobID,
		"total":      counters.total,
		"successful": counters.successful,
		"failed":     counters.failed,
		"duplicates": counters.duplicates,
	})
	return nil
}

// RunWithRetry wraps Run with a bounded retry policy. Each retry resets the
// job and reprocesses every row; there is no per-row checkpointing.
func (s *ImportService) RunWithRetry(ctx context.Context, jobID uuid.UUID, maxAttempts int, backoff time.Duration) error {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err = s.Run(ctx, jobID)
		if err == nil || errors.Is(err, repository.ErrNoPendingJob) {
			return err
		}
		s.logger.Warn("import job attempt failed",
			slog.String("job_id", jobID.String()),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)
		if attempt == maxAttempts {
			break
		}
		if resetErr := s.repo.ResetJobForRetry(ctx, jobID); resetErr != nil {
			return fmt.Errorf("failed to reset job for retry: %w", resetErr)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}

// ProcessNext claims the oldest pending job and runs it under the retry
// policy. Returns ErrNoPendingJob when the queue is empty.
func (s *ImportService) ProcessNext(ctx context.Context, maxAttempts int, backoff time.Duration) (uuid.UUID, error) {
	job, err := s.repo.ClaimPendingJob(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	if err := s.runClaimed(ctx, job.ID); err == nil {
		return job.ID, nil
	} else if maxAttempts <= 1 {
		return job.ID, err
	}

	// Remaining attempts reset the job and re-claim it through Run.
	if resetErr := s.repo.ResetJobForRetry(ctx, job.ID); resetErr != nil {
		return job.ID, fmt.Errorf("failed to reset job for retry: %w", resetErr)
	}
	select {
	case <-ctx.Done():
		return job.ID, ctx.Err()
	case <-time.After(backoff):
	}
	return job.ID, s.RunWithRetry(ctx, job.ID, maxAttempts-1, backoff)
}

// Approve posts a staged row to the ledger. The status flip is the
// idempotence guard: a second approval fails with ErrRowNotPending and no
// second ledger transaction is created. The account is verified before the
// flip so a rejected posting can never strand an approved row.
func (s *ImportService) Approve(ctx context.Context, rowID, accountID uuid.UUID) (*ledger.Transaction, error) {
	if accountID == uuid.Nil {
		return nil, ErrAccountRequired
	}
	staged, err := s.repo.GetStagedTransaction(ctx, rowID)
	if err != nil {
		return nil, err
	}
	job, err := s.repo.GetImportJob(ctx, staged.ImportJobID)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.GetAccountCurrency(ctx, job.UserID, accountID); err != nil {
		return nil, fmt.Errorf("account check failed: %w", err)
	}

	tx := &ledger.Transaction{
		ID:           uuid.New(),
		UserID:       job.UserID,
		AccountID:    accountID,
		Amount:       staged.Amount,
		CurrencyCode: staged.CurrencyCode,
		Date:         staged.Date,
		Description:  staged.Description,
	}

	if err := s.repo.MarkApproved(ctx, rowID, tx.ID); err != nil {
		return nil, err
	}
	if err := s.ledger.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("approved row %s but ledger posting failed: %w", rowID, err)
	}

	s.metrics.ApprovalsTotal.WithLabelValues("approve").Inc()
	s.sink.Record(ctx, "import.row_approved", map[string]any{
		"row_id":         rowID,
		"transaction_id": tx.ID,
		"amount":         money.Display(tx.Amount, tx.CurrencyCode),
	})
	return tx, nil
}

// Reject discards a staged row without posting it.
func (s *ImportService) Reject(ctx context.Context, rowID uuid.UUID) error {
	if err := s.repo.MarkRejected(ctx, rowID); err != nil {
		return err
	}
	s.metrics.ApprovalsTotal.WithLabelValues("reject").Inc()
	s.sink.Record(ctx, "import.row_rejected", map[string]any{"row_id": rowID})
	return nil
}

// Cancel requests cooperative cancellation of a running or pending job.
func (s *ImportService) Cancel(ctx context.Context, jobID uuid.UUID) error {
	return s.repo.RequestCancel(ctx, jobID)
}

// ListValidationErrors returns a job's recorded validation errors.
func (s *ImportService) ListValidationErrors(ctx context.Context, jobID uuid.UUID, filter repository.ValidationErrorFilter) ([]repository.ImportValidationError, error) {
	return s.repo.ListValidationErrors(ctx, jobID, filter)
}

// ApplyTemplate resolves a template's column mapping and bumps its usage
// counter.
func (s *ImportService) ApplyTemplate(ctx context.Context, templateID uuid.UUID) (map[string]string, error) {
	tpl, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.IncrementTemplateUsage(ctx, templateID); err != nil {
		return nil, err
	}
	return tpl.ColumnMapping, nil
}

// --- internals ---

type jobCounters struct {
	total         int
	processed     int
	successful    int
	failed        int
	duplicates    int
	forceComplete bool
}

// progress computes min(100, floor(processed/total*100)).
func (c *jobCounters) progress() int {
	if c.forceComplete {
		return 100
	}
	if c.total == 0 {
		return 100
	}
	p := c.processed * 100 / c.total
	if p > 100 {
		p = 100
	}
	return p
}

func (s *ImportService) parseUpload(ctx context.Context, job *repository.ImportJob) (*parser.Table, error) {
	reader, err := s.store.GetReader(ctx, job.UserID, job.FileUploadID)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	switch job.FileType {
	case repository.FileTypeXLS, repository.FileTypeXLSX:
		return parser.ParseExcel(data)
	case repository.FileTypePDF:
		return parser.ParsePDF(data)
	}

	if len(job.ColumnMapping) == 0 {
		if table, ok := parser.ParseCanonical(data); ok {
			return table, nil
		}
	}
	return parser.New(parser.Options{ColumnMapping: job.ColumnMapping}).Parse(data)
}

func (s *ImportService) processRow(ctx context.Context, job *repository.ImportJob, row parser.Row, counters *jobCounters) error {
	result := s.validator.ValidateRow(row.Fields, row.Number)
	if !result.Valid {
		errs := make([]repository.ImportValidationError, 0, len(result.Errors))
		for _, fe := range result.Errors {
			errs = append(errs, repository.ImportValidationError{
				ImportJobID: job.ID,
				RowNumber:   row.Number,
				Field:       fe.Field,
				Code:        fe.Code,
				Message:     fe.Message,
				Suggestion:  fe.Suggestion,
				RawValue:    fe.RawValue,
				Severity:    repository.SeverityError,
			})
		}
		if err := s.repo.CreateValidationErrors(ctx, errs); err != nil {
			return err
		}
		counters.failed++
		s.metrics.RowsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return nil
	}

	staged := &repository.ImportedTransaction{
		ImportJobID:  job.ID,
		RowNumber:    row.Number,
		Date:         result.Date,
		Amount:       result.Amount,
		CurrencyCode: result.Currency,
		Description:  result.Description,
		Status:       repository.RowStatusPending,
		RawRow:       row.Fields,
	}
	for _, w := range result.Warnings {
		staged.Warnings = append(staged.Warnings, repository.RowWarning{
			Field: w.Field, Code: w.Code, Message: w.Message,
		})
	}

	window, err := s.ledger.FindInWindow(ctx, job.UserID, result.Date, s.windowDays())
	if err != nil {
		return fmt.Errorf("duplicate window query: %w", err)
	}
	dup := s.detector.Check(dupdetect.Candidate{
		Date:        result.Date,
		Amount:      result.Amount,
		Description: result.Description,
	}, window)

	if dup.IsDuplicate {
		staged.Status = repository.RowStatusDuplicate
		staged.DuplicateOf = &dup.Match.ID
		confidence := dup.Confidence
		staged.DuplicateConfidence = &confidence
		counters.duplicates++
		s.metrics.RowsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
	} else {
		counters.successful++
		s.metrics.RowsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	}

	if len(result.Warnings) > 0 {
		warnRecords := make([]repository.ImportValidationError, 0, len(result.Warnings))
		for _, w := range result.Warnings {
			warnRecords = append(warnRecords, repository.ImportValidationError{
				ImportJobID: job.ID,
				RowNumber:   row.Number,
				Field:       w.Field,
				Code:        w.Code,
				Message:     w.Message,
				Severity:    repository.SeverityWarning,
			})
		}
		if err := s.repo.CreateValidationErrors(ctx, warnRecords); err != nil {
			return err
		}
	}

	return s.repo.CreateStagedTransaction(ctx, staged)
}

func (s *ImportService) flushProgress(ctx context.Context, jobID uuid.UUID, c *jobCounters) error {
	return s.repo.UpdateImportJobProgress(ctx, jobID, c.progress(), c.processed, c.successful, c.failed, c.duplicates)
}

func (s *ImportService) failJob(ctx context.Context, jobID uuid.UUID, started time.Time, stage string, cause error) error {
	detail := map[string]any{
		"stage": stage,
		"error": cause.Error(),
	}
	if finishErr := s.repo.FinishImportJob(ctx, jobID, repository.JobStatusFailed, detail); finishErr != nil {
		s.logger.Error("failed to mark job failed",
			slog.String("job_id", jobID.String()),
			slog.Any("error", finishErr),
		)
	}
	s.metrics.JobsTotal.WithLabelValues(repository.JobStatusFailed).Inc()
	s.metrics.JobDuration.Observe(time.Since(started).Seconds())
	s.sink.Record(ctx, "import.job_failed", map[string]any{
		"job_id": jobID,
		"stage":  stage,
		"error":  cause.Error(),
	})
	return fmt.Errorf("import job %s failed at %s: %w", jobID, stage, cause)
}

func (s *ImportService) cancelJob(ctx context.Context, jobID uuid.UUID, started time.Time, c *jobCounters) error {
	if err := s.flushProgress(ctx, jobID, c); err != nil {
		return err
	}
	if err := s.repo.FinishImportJob(ctx, jobID, repository.JobStatusCancelled, nil); err != nil {
		return err
	}
	s.metrics.JobsTotal.WithLabelValues(repository.JobStatusCancelled).Inc()
	s.metrics.JobDuration.Observe(time.Since(started).Seconds())
	s.sink.Record(ctx, "import.job_cancelled", map[string]any{
		"job_id":    jobID,
		"processed": c.processed,
	})
	return nil
}

func (s *ImportService) windowDays() int {
	if s.cfg.DuplicateWindow > 0 {
		return s.cfg.DuplicateWindow
	}
	return dupdetect.WindowDays
}

func checkResultMap(check *intake.CheckResult) map[string]any {
	return map[string]any{
		"accepted":      check.Accepted,
		"size_ok":       check.SizeOK,
		"detected_mime": check.DetectedMIME,
		"mime_allowed":  check.MIMEAllowed,
		"sha256":        check.SHA256,
		"scan_clean":    check.ScanClean,
		"scan_findings": check.ScanFindings,
		"reason":        check.Reason,
	}
}
