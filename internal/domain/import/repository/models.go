// Package repository persists the import pipeline's state: uploads, jobs,
// staged transactions, validation errors, and mapping templates.
package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// File upload lifecycle statuses
const (
	UploadStatusUploaded  = "uploaded"
	UploadStatusValidated = "validated"
	UploadStatusRejected  = "rejected"
	UploadStatusProcessed = "processed"
)

// Import job states. Completed, failed, and cancelled are terminal.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// IsTerminalJobStatus reports whether no further transition is allowed.
func IsTerminalJobStatus(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Staged transaction statuses
const (
	RowStatusPending   = "pending"
	RowStatusApproved  = "approved"
	RowStatusRejected  = "rejected"
	RowStatusDuplicate = "duplicate"
)

// Validation error severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Declared upload file types
const (
	FileTypeCSV  = "csv"
	FileTypeXLS  = "xls"
	FileTypeXLSX = "xlsx"
	FileTypePDF  = "pdf"
)

// FileUpload is the intake record for one uploaded file. Hash and detected
// MIME type are persisted even when the file is rejected.
type FileUpload struct {
	ID               uuid.UUID      `json:"id"`
	UserID           uuid.UUID      `json:"user_id"`
	Filename         string         `json:"filename"`
	FileType         string         `json:"file_type"`
	SizeBytes        int64          `json:"size_bytes"`
	ContentHash      string         `json:"content_hash"`
	DetectedMIME     string         `json:"detected_mime"`
	StorageKey       string         `json:"storage_key"`
	Status           string         `json:"status"`
	ValidationResult map[string]any `json:"validation_result,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// ImportJob is one file-import run.
// Invariants: processed_rows <= total_rows and
// successful + failed + duplicates <= processed_rows.
type ImportJob struct {
	ID                    uuid.UUID         `json:"id"`
	UserID                uuid.UUID         `json:"user_id"`
	FileUploadID          uuid.UUID         `json:"file_upload_id"`
	Filename              string            `json:"filename"`
	FileType              string            `json:"file_type"`
	Status                string            `json:"status"`
	Progress              int               `json:"progress"`
	TotalRows             int               `json:"total_rows"`
	ProcessedRows         int               `json:"processed_rows"`
	SuccessfulImports     int               `json:"successful_imports"`
	FailedImports         int               `json:"failed_imports"`
	DuplicateCount        int               `json:"duplicate_count"`
	CancelRequested       bool              `json:"cancel_requested"`
	ErrorDetail           map[string]any    `json:"error_detail,omitempty"`
	Settings              map[string]any    `json:"settings,omitempty"`
	ColumnMapping         map[string]string `json:"column_mapping,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	ProcessingStartedAt   *time.Time        `json:"processing_started_at,omitempty"`
	ProcessingCompletedAt *time.Time        `json:"processing_completed_at,omitempty"`
}

// Duration reports processing time: completed jobs use the recorded end
// time, running jobs measure against now, jobs that never started report
// zero.
func (j *ImportJob) Duration(now time.Time) time.Duration {
	if j.ProcessingStartedAt == nil {
		return 0
	}
	end := now
	if j.ProcessingCompletedAt != nil {
		end = *j.ProcessingCompletedAt
	}
	if d := end.Sub(*j.ProcessingStartedAt); d > 0 {
		return d
	}
	return 0
}

// ImportedTransaction is a staged row awaiting disposition; approval posts
// it to the ledger, rejection discards it.
type ImportedTransaction struct {
	ID                  uuid.UUID         `json:"id"`
	ImportJobID         uuid.UUID         `json:"import_job_id"`
	RowNumber           int               `json:"row_number"`
	Date                time.Time         `json:"date"`
	Amount              decimal.Decimal   `json:"amount"`
	CurrencyCode        string            `json:"currency_code"`
	Description         string            `json:"description"`
	Status              string            `json:"status"`
	DuplicateOf         *uuid.UUID        `json:"duplicate_of,omitempty"`
	DuplicateConfidence *float64          `json:"duplicate_confidence,omitempty"`
	RawRow              map[string]string `json:"raw_row,omitempty"`
	Warnings            []RowWarning      `json:"warnings,omitempty"`
	LedgerTransactionID *uuid.UUID        `json:"ledger_transaction_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// RowWarning is a non-blocking issue recorded on a staged row.
type RowWarning struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ImportValidationError is one rejected field of one row.
type ImportValidationError struct {
	ID          uuid.UUID `json:"id"`
	ImportJobID uuid.UUID `json:"import_job_id"`
	RowNumber   int       `json:"row_number"`
	Field       string    `json:"field"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Suggestion  string    `json:"suggestion,omitempty"`
	RawValue    string    `json:"raw_value,omitempty"`
	Severity    string    `json:"severity"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

// ImportTemplate is a reusable column-mapping preset.
type ImportTemplate struct {
	ID            uuid.UUID         `json:"id"`
	UserID        uuid.UUID         `json:"user_id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	IsPublic      bool              `json:"is_public"`
	ColumnMapping map[string]string `json:"column_mapping"`
	UsageCount    int               `json:"usage_count"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ValidationErrorFilter narrows ListValidationErrors.
type ValidationErrorFilter struct {
	Severity string // empty means all severities
	Limit    int
	Offset   int
}
