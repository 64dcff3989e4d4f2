package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/interestIngc/cyphershare/internal/common"
	"github.com/interestIngc/cyphershare/internal/dbx"
)

// PostgresRepository persists the manifest through database/sql. The SQL
// sticks to numbered placeholders and portable types, so the same code runs
// against the in-memory sqlite used in tests.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, e *Entry) error {

	query := `INSERT INTO manifest (cid, name, mime_type, size, created_at)
			values ($1, $2, $3, $4, $5)
			ON CONFLICT (cid) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, e.CID, e.Name, e.MimeType, e.Size, e.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert manifest entry: %w", err)
	}

	return nil
}

func scanEntry(row interface{ Scan(...any) error }) (*Entry, error) {
	e := &Entry{}
	var createdAt int64
	if err := row.Scan(&e.CID, &e.Name, &e.MimeType, &e.Size, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = time.UnixMilli(createdAt)
	return e, nil
}

func (r *PostgresRepository) GetByCID(ctx context.Context, cid string) (*Entry, error) {

	query := `select cid, name, mime_type, size, created_at from manifest where cid=$1`
	e, err := scanEntry(r.db.QueryRowContext(ctx, query, cid))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: content %s", common.ErrNotFound, cid)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select manifest entry: %w", err)
	}

	return e, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*Entry, error) {

	query := `select cid, name, mime_type, size, created_at from manifest order by created_at desc, cid`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error selecting manifest: %w", err)
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {

	var count int64
	if err := r.db.QueryRowContext(ctx, `select count(*) from manifest`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count manifest: %w", err)
	}
	return count, nil
}
