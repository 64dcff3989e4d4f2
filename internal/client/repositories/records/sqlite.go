// Package records provides the client-side persistence layer for the file
// exchange history: everything the user shared or received, including
// encryption metadata and computation commitments.
package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/interestIngc/cyphershare/internal/client/models"
	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/dbx"
)

// Bootstrap creates the schema if it does not exist yet.
func Bootstrap(ctx context.Context, db dbx.DBTX) error {
	query := `
CREATE TABLE IF NOT EXISTS file_records (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  size INTEGER NOT NULL,
  mime_type TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  direction TEXT NOT NULL,
  content_id TEXT NOT NULL DEFAULT '',
  encrypted INTEGER NOT NULL DEFAULT 0,
  access_condition TEXT NOT NULL DEFAULT '',
  commitment TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_file_records_content_id ON file_records(content_id);
`
	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *models.FileRecord) error {

	query := `INSERT INTO file_records (id, name, size, mime_type, created_at, direction, content_id, encrypted, access_condition, commitment)
			values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				size = excluded.size,
				mime_type = excluded.mime_type,
				created_at = excluded.created_at,
				direction = excluded.direction,
				content_id = excluded.content_id,
				encrypted = excluded.encrypted,
				access_condition = excluded.access_condition,
				commitment = excluded.commitment
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Size, rec.MimeType, rec.CreatedAt.UnixMilli(), string(rec.Direction),
		rec.ContentID, rec.Encrypted, rec.AccessConditionDescription, rec.ComputationCommitment)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

const selectColumns = `id, name, size, mime_type, created_at, direction, content_id, encrypted, access_condition, commitment`

func scanRecord(row interface{ Scan(...any) error }) (*models.FileRecord, error) {
	rec := &models.FileRecord{}
	var createdAt int64
	var direction string
	err := row.Scan(&rec.ID, &rec.Name, &rec.Size, &rec.MimeType, &createdAt, &direction,
		&rec.ContentID, &rec.Encrypted, &rec.AccessConditionDescription, &rec.ComputationCommitment)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.Direction = models.Direction(direction)
	return rec, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.FileRecord, error) {

	query := `select ` + selectColumns + ` from file_records where id=?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}

	return rec, nil
}

func (r *SQLiteRepository) GetByContentID(ctx context.Context, cid string) (*models.FileRecord, error) {

	query := `select ` + selectColumns + ` from file_records where content_id=?`
	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, cid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: content %s", common.ErrNotFound, cid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select record: %w", err)
	}

	return rec, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.FileRecord, error) {

	query := `select ` + selectColumns + ` from file_records order by created_at desc, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting records: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) ListContentIDs(ctx context.Context, direction models.Direction) ([]string, error) {

	query := `select content_id from file_records where direction=? and content_id != ''`
	rows, err := r.db.QueryContext(ctx, query, string(direction))
	if err != nil {
		return nil, fmt.Errorf("error selecting content ids: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		result = append(result, cid)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *SQLiteRepository) SetCommitment(ctx context.Context, id, commitment string) error {

	query := `update file_records set commitment=? where id=?`
	result, err := r.db.ExecContext(ctx, query, commitment, id)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}

	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {

	query := `delete from file_records where id=?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%w: record %s", common.ErrNotFound, id)
	}

	return nil
}
