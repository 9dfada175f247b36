package core

// history.go records conversion runs in Postgres. History is strictly
// best-effort: a nil pool or a failed write never affects the conversion
// itself, it only loses the audit trail.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Conversion history status values.
const (
	HistoryStatusRunning   = "running"
	HistoryStatusSucceeded = "succeeded"
	HistoryStatusFailed    = "failed"
	HistoryStatusCancelled = "cancelled"
)

// historyWriteTimeout bounds each best-effort history write. Writes use
// their own context because the job context is often already cancelled or
// expired by the time the outcome is recorded.
const historyWriteTimeout = 5 * time.Second

// conversionsSchema creates the history table. Statements run one at a
// time; pgx's default protocol rejects multi-statement strings.
var conversionsSchema = []string{
	`CREATE TABLE IF NOT EXISTS conversions (
		id UUID PRIMARY KEY,
		format_key TEXT NOT NULL,
		file_name TEXT,
		status TEXT NOT NULL,
		topic_count INT NOT NULL DEFAULT 0,
		rows_converted BIGINT NOT NULL DEFAULT 0,
		bytes_read BIGINT NOT NULL DEFAULT 0,
		duration_ms BIGINT NOT NULL DEFAULT 0,
		error_text TEXT,
		output_path TEXT,
		ip_address TEXT,
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS conversions_created_at_idx
		ON conversions (created_at DESC)`,
}

// EnsureSchema creates the conversion history table if it does not exist.
// No-op without a database pool.
func (s *Service) EnsureSchema(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}

	for _, stmt := range conversionsSchema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// HistoryEnabled reports whether conversion runs are being recorded.
func (s *Service) HistoryEnabled() bool {
	return s.pool != nil
}

// recordStart inserts the initial history row for a job.
func (s *Service) recordStart(job *activeJob, topicCount int, ip, ua string) {
	if s.pool == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversions (id, format_key, file_name, status, topic_count, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		toPgUUID(job.ID), job.FormatKey, toPgText(job.FileName),
		HistoryStatusRunning, int32(topicCount), toPgText(ip), toPgText(ua),
	)
	if err != nil {
		slog.Warn("record conversion start failed", "job_id", job.ID, "error", err)
	}
}

// recordFinish updates the history row with the job outcome.
func (s *Service) recordFinish(job *activeJob, status string, result *Result, errText string) {
	if s.pool == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), historyWriteTimeout)
	defer cancel()

	var rowsConverted, bytesRead, durationMs int64
	var outputPath string
	if result != nil {
		rowsConverted = result.Rows
		bytesRead = result.Bytes
		durationMs = result.Duration.Milliseconds()
		outputPath = result.OutputPath
	}

	_, err := s.pool.Exec(ctx,
		`UPDATE conversions
		 SET status = $2, rows_converted = $3, bytes_read = $4, duration_ms = $5,
		     error_text = $6, output_path = $7, finished_at = now()
		 WHERE id = $1`,
		toPgUUID(job.ID), status, rowsConverted, bytesRead, durationMs,
		toPgText(errText), toPgText(outputPath),
	)
	if err != nil {
		slog.Warn("record conversion finish failed", "job_id", job.ID, "error", err)
	}
}

// ConversionRecord is one row of conversion history.
type ConversionRecord struct {
	ID            string     `json:"id"`
	FormatKey     string     `json:"format"`
	FileName      string     `json:"file_name,omitempty"`
	Status        string     `json:"status"`
	TopicCount    int        `json:"topic_count"`
	RowsConverted int64      `json:"rows_converted"`
	BytesRead     int64      `json:"bytes_read"`
	DurationMs    int64      `json:"duration_ms"`
	Error         string     `json:"error,omitempty"`
	OutputPath    string     `json:"output_path,omitempty"`
	IPAddress     string     `json:"ip_address,omitempty"`
	UserAgent     string     `json:"user_agent,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

const conversionColumns = `id, format_key, file_name, status, topic_count,
	rows_converted, bytes_read, duration_ms, error_text, output_path,
	ip_address, user_agent, created_at, finished_at`

// ListConversions returns the most recent conversion runs, newest first.
// Returns an empty slice when history is disabled.
func (s *Service) ListConversions(ctx context.Context, limit int) ([]ConversionRecord, error) {
	if s.pool == nil {
		return []ConversionRecord{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+conversionColumns+`
		 FROM conversions
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	records := make([]ConversionRecord, 0, limit)
	for rows.Next() {
		rec, err := scanConversionRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// GetConversion returns a single conversion run by ID.
func (s *Service) GetConversion(ctx context.Context, id string) (*ConversionRecord, error) {
	if s.pool == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	pgID := toPgUUID(id)
	if !pgID.Valid {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+conversionColumns+`
		 FROM conversions
		 WHERE id = $1`, pgID)

	rec, err := scanConversionRecord(row.Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
		}
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &rec, nil
}

// scanConversionRecord reads one conversionColumns row.
func scanConversionRecord(scan func(dest ...any) error) (ConversionRecord, error) {
	var (
		rec        ConversionRecord
		id         pgtype.UUID
		fileName   pgtype.Text
		topicCount int32
		errorText  pgtype.Text
		outputPath pgtype.Text
		ipAddress  pgtype.Text
		userAgent  pgtype.Text
		createdAt  pgtype.Timestamptz
		finishedAt pgtype.Timestamptz
	)

	err := scan(&id, &rec.FormatKey, &fileName, &rec.Status, &topicCount,
		&rec.RowsConverted, &rec.BytesRead, &rec.DurationMs, &errorText,
		&outputPath, &ipAddress, &userAgent, &createdAt, &finishedAt)
	if err != nil {
		return ConversionRecord{}, err
	}

	rec.ID = pgUUIDToString(id)
	rec.FileName = fileName.String
	rec.TopicCount = int(topicCount)
	rec.Error = errorText.String
	rec.OutputPath = outputPath.String
	rec.IPAddress = ipAddress.String
	rec.UserAgent = userAgent.String
	if createdAt.Valid {
		rec.CreatedAt = createdAt.Time
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		rec.FinishedAt = &t
	}
	return rec, nil
}

// toPgText converts a string to pgtype.Text, NULL when empty.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// toPgUUID converts a UUID string to pgtype.UUID, NULL when invalid.
func toPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// pgUUIDToString converts a pgtype.UUID to its string representation.
func pgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
