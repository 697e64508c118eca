package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Querier is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it for tests.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresImportRepository implements ImportRepository using PostgreSQL.
type PostgresImportRepository struct {
	db Querier
}

func NewPostgresImportRepository(db Querier) *PostgresImportRepository {
	return &PostgresImportRepository{db: db}
}

// --- File uploads ---

func (r *PostgresImportRepository) CreateFileUpload(ctx context.Context, upload *FileUpload) error {
	query := `
		INSERT INTO file_uploads (id, user_id, filename, file_type, size_bytes, content_hash, detected_mime, storage_key, status, validation_result)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	result, err := marshalJSON(upload.ValidationResult)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query,
		upload.ID,
		upload.UserID,
		upload.Filename,
		upload.FileType,
		upload.SizeBytes,
		upload.ContentHash,
		upload.DetectedMIME,
		upload.StorageKey,
		upload.Status,
		result,
	).Scan(&upload.CreatedAt, &upload.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create file upload: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) GetFileUpload(ctx context.Context, id uuid.UUID) (*FileUpload, error) {
	query := `
		SELECT id, user_id, filename, file_type, size_bytes, content_hash, detected_mime, storage_key, status, validation_result, created_at, updated_at
		FROM file_uploads
		WHERE id = $1`

	upload := &FileUpload{}
	var result []byte
	err := r.db.QueryRow(ctx, query, id).Scan(
		&upload.ID,
		&upload.UserID,
		&upload.Filename,
		&upload.FileType,
		&upload.SizeBytes,
		&upload.ContentHash,
		&upload.DetectedMIME,
		&upload.StorageKey,
		&upload.Status,
		&result,
		&upload.CreatedAt,
		&upload.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get file upload: %w", err)
	}
	if err := unmarshalJSON(result, &upload.ValidationResult); err != nil {
		return nil, err
	}
	return upload, nil
}

func (r *PostgresImportRepository) UpdateFileUploadStatus(ctx context.Context, id uuid.UUID, status string, validationResult map[string]any) error {
	query := `
		UPDATE file_uploads
		SET status = $2, validation_result = $3, updated_at = now()
		WHERE id = $1`

	result, err := marshalJSON(validationResult)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, id, status, result)
	if err != nil {
		return fmt.Errorf("failed to update file upload status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- Import jobs ---

const importJobColumns = `id, user_id, file_upload_id, filename, file_type, status, progress,
		total_rows, processed_rows, successful_imports, failed_imports, duplicate_count,
		cancel_requested, error_detail, settings, column_mapping,
		created_at, processing_started_at, processing_completed_at`

func (r *PostgresImportRepository) CreateImportJob(ctx context.Context, job *ImportJob) error {
	query := `
		INSERT INTO import_jobs (id, user_id, file_upload_id, filename, file_type, status, settings, column_mapping)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	settings, err := marshalJSON(job.Settings)
	if err != nil {
		return err
	}
	mapping, err := marshalJSON(job.ColumnMapping)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query,
		job.ID,
		job.UserID,
		job.FileUploadID,
		job.Filename,
		job.FileType,
		job.Status,
		settings,
		mapping,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create import job: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) GetImportJob(ctx context.Context, id uuid.UUID) (*ImportJob, error) {
	query := `SELECT ` + importJobColumns + ` FROM import_jobs WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	job, err := scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}
	return job, nil
}

func (r *PostgresImportRepository) ListImportJobs(ctx context.Context, userID uuid.UUID, limit, offset int) ([]ImportJob, error) {
	query := `SELECT ` + importJobColumns + `
		FROM import_jobs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list import jobs: %w", err)
	}
	defer rows.Close()

	var jobs []ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

func (r *PostgresImportRepository) StartImportJob(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE import_jobs
		SET status = $2, processing_started_at = now()
		WHERE id = $1 AND status = $3`

	tag, err := r.db.Exec(ctx, query, id, JobStatusProcessing, JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to start import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoPendingJob
	}
	return nil
}

func (r *PostgresImportRepository) ClaimPendingJob(ctx context.Context) (*ImportJob, error) {
	// Single-statement claim so concurrent workers never process the same
	// job; SKIP LOCKED keeps waiting workers off each other's rows.
	query := `
		UPDATE import_jobs
		SET status = $1, processing_started_at = now()
		WHERE id = (
			SELECT id FROM import_jobs
			WHERE status = $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + importJobColumns

	row := r.db.QueryRow(ctx, query, JobStatusProcessing, JobStatusPending)
	job, err := scanImportJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPendingJob
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending job: %w", err)
	}
	return job, nil
}

func (r *PostgresImportRepository) SetJobTotalRows(ctx context.Context, id uuid.UUID, totalRows int) error {
	query := `UPDATE import_jobs SET total_rows = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, totalRows)
	if err != nil {
		return fmt.Errorf("failed to set total rows: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) UpdateImportJobProgress(ctx context.Context, id uuid.UUID, progress, processed, successful, failed, duplicates int) error {
	query := `
		UPDATE import_jobs
		SET progress = $2, processed_rows = $3, successful_imports = $4, failed_imports = $5, duplicate_count = $6
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, progress, processed, successful, failed, duplicates)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) FinishImportJob(ctx context.Context, id uuid.UUID, status string, errorDetail map[string]any) error {
	query := `
		UPDATE import_jobs
		SET status = $2, error_detail = $3, processing_completed_at = now()
		WHERE id = $1 AND status = $4`

	detail, err := marshalJSON(errorDetail)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, id, status, detail, JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to finish import job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) RequestCancel(ctx context.Context, id uuid.UUID) error {
	// Only non-terminal jobs can be cancelled; terminal states are final.
	query := `
		UPDATE import_jobs
		SET cancel_requested = TRUE
		WHERE id = $1 AND status IN ($2, $3)`

	tag, err := r.db.Exec(ctx, query, id, JobStatusPending, JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to request cancel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) IsCancelRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT cancel_requested FROM import_jobs WHERE id = $1`

	var requested bool
	err := r.db.QueryRow(ctx, query, id).Scan(&requested)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, sql.ErrNoRows
	}
	if err != nil {
		return false, fmt.Errorf("failed to check cancel flag: %w", err)
	}
	return requested, nil
}

func (r *PostgresImportRepository) ResetJobForRetry(ctx context.Context, id uuid.UUID) error {
	// There is no per-row checkpointing: a retried job reprocesses all
	// rows, so prior staged rows and errors are purged first.
	if _, err := r.db.Exec(ctx, `DELETE FROM imported_transactions WHERE import_job_id = $1`, id); err != nil {
		return fmt.Errorf("failed to purge staged transactions: %w", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM import_validation_errors WHERE import_job_id = $1`, id); err != nil {
		return fmt.Errorf("failed to purge validation errors: %w", err)
	}

	query := `
		UPDATE import_jobs
		SET status = $2, progress = 0, total_rows = 0, processed_rows = 0,
			successful_imports = 0, failed_imports = 0, duplicate_count = 0,
			error_detail = NULL, processing_started_at = NULL, processing_completed_at = NULL
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, JobStatusPending)
	if err != nil {
		return fmt.Errorf("failed to reset job for retry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) DeleteTerminalJobsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM import_jobs
		WHERE status IN ($1, $2, $3) AND created_at < $4`

	tag, err := r.db.Exec(ctx, query, JobStatusCompleted, JobStatusFailed, JobStatusCancelled, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal jobs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --- Staged transactions ---

const stagedColumns = `id, import_job_id, row_number, date, amount, currency_code, description,
		status, duplicate_of, duplicate_confidence, raw_row, warnings, ledger_transaction_id,
		created_at, updated_at`

func (r *PostgresImportRepository) CreateStagedTransaction(ctx context.Context, tx *ImportedTransaction) error {
	query := `
		INSERT INTO imported_transactions (id, import_job_id, row_number, date, amount, currency_code, description, status, duplicate_of, duplicate_confidence, raw_row, warnings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if tx.Status == "" {
		tx.Status = RowStatusPending
	}
	rawRow, err := marshalJSON(tx.RawRow)
	if err != nil {
		return err
	}
	warnings, err := marshalJSON(tx.Warnings)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query,
		tx.ID,
		tx.ImportJobID,
		tx.RowNumber,
		tx.Date,
		tx.Amount.String(),
		tx.CurrencyCode,
		tx.Description,
		tx.Status,
		tx.DuplicateOf,
		tx.DuplicateConfidence,
		rawRow,
		warnings,
	).Scan(&tx.CreatedAt, &tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create staged transaction: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) GetStagedTransaction(ctx context.Context, id uuid.UUID) (*ImportedTransaction, error) {
	query := `SELECT ` + stagedColumns + ` FROM imported_transactions WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	tx, err := scanStagedTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staged transaction: %w", err)
	}
	return tx, nil
}

func (r *PostgresImportRepository) ListStagedTransactions(ctx context.Context, jobID uuid.UUID) ([]ImportedTransaction, error) {
	query := `SELECT ` + stagedColumns + `
		FROM imported_transactions
		WHERE import_job_id = $1
		ORDER BY row_number`

	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged transactions: %w", err)
	}
	defer rows.Close()

	var txs []ImportedTransaction
	for rows.Next() {
		tx, err := scanStagedTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staged transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (r *PostgresImportRepository) MarkApproved(ctx context.Context, id, ledgerTransactionID uuid.UUID) error {
	// Pending and duplicate rows both await human disposition; anything
	// else has already been decided.
	query := `
		UPDATE imported_transactions
		SET status = $2, ledger_transaction_id = $3, updated_at = now()
		WHERE id = $1 AND status IN ($4, $5)`

	tag, err := r.db.Exec(ctx, query, id, RowStatusApproved, ledgerTransactionID, RowStatusPending, RowStatusDuplicate)
	if err != nil {
		return fmt.Errorf("failed to approve staged transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotPending
	}
	return nil
}

func (r *PostgresImportRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE imported_transactions
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status IN ($3, $4)`

	tag, err := r.db.Exec(ctx, query, id, RowStatusRejected, RowStatusPending, RowStatusDuplicate)
	if err != nil {
		return fmt.Errorf("failed to reject staged transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRowNotPending
	}
	return nil
}

// --- Validation errors ---

func (r *PostgresImportRepository) CreateValidationErrors(ctx context.Context, errs []ImportValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	query := `
		INSERT INTO import_validation_errors (id, import_job_id, row_number, field, code, message, suggestion, raw_value, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i := range errs {
		e := &errs[i]
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
		if e.Severity == "" {
			e.Severity = SeverityError
		}
		if _, err := r.db.Exec(ctx, query,
			e.ID, e.ImportJobID, e.RowNumber, e.Field, e.Code, e.Message, e.Suggestion, e.RawValue, e.Severity,
		); err != nil {
			return fmt.Errorf("failed to create validation error: %w", err)
		}
	}
	return nil
}

func (r *PostgresImportRepository) ListValidationErrors(ctx context.Context, jobID uuid.UUID, filter ValidationErrorFilter) ([]ImportValidationError, error) {
	query := `
		SELECT id, import_job_id, row_number, field, code, message, suggestion, raw_value, severity, resolved, created_at
		FROM import_validation_errors
		WHERE import_job_id = $1 AND ($2 = '' OR severity = $2)
		ORDER BY row_number, severity
		LIMIT $3 OFFSET $4`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, query, jobID, filter.Severity, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation errors: %w", err)
	}
	defer rows.Close()

	var out []ImportValidationError
	for rows.Next() {
		var e ImportValidationError
		if err := rows.Scan(
			&e.ID, &e.ImportJobID, &e.RowNumber, &e.Field, &e.Code, &e.Message,
			&e.Suggestion, &e.RawValue, &e.Severity, &e.Resolved, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan validation error: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Templates ---

func (r *PostgresImportRepository) CreateTemplate(ctx context.Context, tpl *ImportTemplate) error {
	query := `
		INSERT INTO import_templates (id, user_id, name, description, is_public, column_mapping)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	if tpl.ID == uuid.Nil {
		tpl.ID = uuid.New()
	}
	mapping, err := marshalJSON(tpl.ColumnMapping)
	if err != nil {
		return err
	}

	err = r.db.QueryRow(ctx, query,
		tpl.ID, tpl.UserID, tpl.Name, tpl.Description, tpl.IsPublic, mapping,
	).Scan(&tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*ImportTemplate, error) {
	query := `
		SELECT id, user_id, name, description, is_public, column_mapping, usage_count, created_at, updated_at
		FROM import_templates
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, id)
	tpl, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tpl, nil
}

func (r *PostgresImportRepository) ListTemplates(ctx context.Context, userID uuid.UUID) ([]ImportTemplate, error) {
	query := `
		SELECT id, user_id, name, description, is_public, column_mapping, usage_count, created_at, updated_at
		FROM import_templates
		WHERE user_id = $1 OR is_public
		ORDER BY usage_count DESC, name`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var out []ImportTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}

func (r *PostgresImportRepository) UpdateTemplate(ctx context.Context, tpl *ImportTemplate) error {
	query := `
		UPDATE import_templates
		SET name = $2, description = $3, is_public = $4, column_mapping = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	mapping, err := marshalJSON(tpl.ColumnMapping)
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query, tpl.ID, tpl.Name, tpl.Description, tpl.IsPublic, mapping).Scan(&tpl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return nil
}

func (r *PostgresImportRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM import_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresImportRepository) IncrementTemplateUsage(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE import_templates SET usage_count = usage_count + 1, updated_at = now() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment template usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- scan helpers ---

func scanImportJob(row pgx.Row) (*ImportJob, error) {
	job := &ImportJob{}
	var errorDetail, settings, mapping []byte
	err := row.Scan(
		&job.ID, &job.UserID, &job.FileUploadID, &job.Filename, &job.FileType, &job.Status, &job.Progress,
		&job.TotalRows, &job.ProcessedRows, &job.SuccessfulImports, &job.FailedImports, &job.DuplicateCount,
		&job.CancelRequested, &errorDetail, &settings, &mapping,
		&job.CreatedAt, &job.ProcessingStartedAt, &job.ProcessingCompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(errorDetail, &job.ErrorDetail); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(settings, &job.Settings); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(mapping, &job.ColumnMapping); err != nil {
		return nil, err
	}
	return job, nil
}

func scanStagedTransaction(row pgx.Row) (*ImportedTransaction, error) {
	tx := &ImportedTransaction{}
	var amount string
	var rawRow, warnings []byte
	err := row.Scan(
		&tx.ID, &tx.ImportJobID, &tx.RowNumber, &tx.Date, &amount, &tx.CurrencyCode, &tx.Description,
		&tx.Status, &tx.DuplicateOf, &tx.DuplicateConfidence, &rawRow, &warnings, &tx.LedgerTransactionID,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if err := unmarshalJSON(rawRow, &tx.RawRow); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(warnings, &tx.Warnings); err != nil {
		return nil, err
	}
	return tx, nil
}

func scanTemplate(row pgx.Row) (*ImportTemplate, error) {
	tpl := &ImportTemplate{}
	var mapping []byte
	err := row.Scan(
		&tpl.ID, &tpl.UserID, &tpl.Name, &tpl.Description, &tpl.IsPublic,
		&mapping, &tpl.UsageCount, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(mapping, &tpl.ColumnMapping); err != nil {
		return nil, err
	}
	return tpl, nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json column: %w", err)
	}
	return data, nil
}

func unmarshalJSON(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal json column: %w", err)
	}
	return nil
}
