package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrRowNotPending is returned when approving or rejecting a staged row that
// has already been dispositioned.
var ErrRowNotPending = errors.New("staged transaction is not pending disposition")

// ErrNoPendingJob is returned by ClaimPendingJob when the queue is empty.
var ErrNoPendingJob = errors.New("no pending import job")

// ImportRepository is the persistence boundary of the import pipeline.
type ImportRepository interface {
	// File uploads
	CreateFileUpload(ctx context.Context, upload *FileUpload) error
	GetFileUpload(ctx context.Context, id uuid.UUID) (*FileUpload, error)
	UpdateFileUploadStatus(ctx context.Context, id uuid.UUID, status string, validationResult map[string]any) error

	// Import jobs
	CreateImportJob(ctx context.Context, job *ImportJob) error
	GetImportJob(ctx context.Context, id uuid.UUID) (*ImportJob, error)
	ListImportJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ImportJob, error)
	// StartImportJob atomically claims a pending job for processing,
	// recording the start timestamp. Returns ErrNoPendingJob if the job is
	// no longer pending.
	StartImportJob(ctx context.Context, id uuid.UUID) error
	// ClaimPendingJob picks the oldest pending job and moves it to
	// processing in one statement so concurrent workers never claim twice.
	ClaimPendingJob(ctx context.Context) (*ImportJob, error)
	// SetJobTotalRows records the parsed row count once the table is known.
	SetJobTotalRows(ctx context.Context, id uuid.UUID, totalRows int) error
	UpdateImportJobProgress(ctx context.Context, id uuid.UUID, progress, processed, successful, failed, duplicates int) error
	FinishImportJob(ctx context.Context, id uuid.UUID, status string, errorDetail map[string]any) error
	RequestCancel(ctx context.Context, id uuid.UUID) error
	IsCancelRequested(ctx context.Context, id uuid.UUID) (bool, error)
	// ResetJobForRetry purges a failed job's staged rows and errors, zeroes
	// its counters, and returns it to pending for a full reprocess.
	ResetJobForRetry(ctx context.Context, id uuid.UUID) error
	// DeleteTerminalJobsBefore removes completed/failed/cancelled jobs older
	// than the cutoff; staged rows and errors cascade.
	DeleteTerminalJobsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Staged transactions
	CreateStagedTransaction(ctx context.Context, tx *ImportedTransaction) error
	GetStagedTransaction(ctx context.Context, id uuid.UUID) (*ImportedTransaction, error)
	ListStagedTransactions(ctx context.Context, jobID uuid.UUID) ([]ImportedTransaction, error)
	// MarkApproved flips a pending or duplicate row to approved and records
	// the posted ledger transaction. Returns ErrRowNotPending when the row
	// was already dispositioned.
	MarkApproved(ctx context.Context, id, ledgerTransactionID uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID) error

	// Validation errors
	CreateValidationErrors(ctx context.Context, errs []ImportValidationError) error
	ListValidationErrors(ctx context.Context, jobID uuid.UUID, filter ValidationErrorFilter) ([]ImportValidationError, error)

	// Templates
	CreateTemplate(ctx context.Context, tpl *ImportTemplate) error
	GetTemplate(ctx context.Context, id uuid.UUID) (*ImportTemplate, error)
	ListTemplates(ctx context.Context, userID uuid.UUID) ([]ImportTemplate, error)
	UpdateTemplate(ctx context.Context, tpl *ImportTemplate) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	IncrementTemplateUsage(ctx context.Context, id uuid.UUID) error
}
