package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

// Schema lives in db/schema.sql; apply it with psql before first run.

type postgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *postgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresRepository{pool: pool, logger: logger}
}

var (
	_ TableRepository = (*postgresRepository)(nil)
	_ ShareRepository = (*postgresRepository)(nil)
)

func (r *postgresRepository) Create(ctx context.Context, ownerID, name string) (*entity.ListingTable, error) {
	id := uuid.New().String()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO listing_tables (id, owner_id, name, records)
		 VALUES ($1, $2, $3, '[]'::jsonb)
		 RETURNING id, owner_id, name, records, created_at, updated_at`,
		id, ownerID, name)
	t, err := scanTable(row)
	if err != nil {
		r.logger.Error("create table failed", "owner_id", ownerID, "error", err)
		return nil, common.NewError(common.KindPersistence, "create table", err)
	}
	return t, nil
}

func (r *postgresRepository) Get(ctx context.Context, id string) (*entity.ListingTable, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, records, created_at, updated_at
		 FROM listing_tables WHERE id = $1`, id)
	t, err := scanTable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.Errorf(common.KindNotFound, "table %s not found", id)
		}
		r.logger.Error("get table failed", "table_id", id, "error", err)
		return nil, common.NewError(common.KindPersistence, "get table", err)
	}
	return t, nil
}

func (r *postgresRepository) List(ctx context.Context, ownerID string) ([]*entity.ListingTable, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, records, created_at, updated_at
		 FROM listing_tables WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		r.logger.Error("list tables failed", "owner_id", ownerID, "error", err)
		return nil, common.NewError(common.KindPersistence, "list tables", err)
	}
	defer rows.Close()

	var out []*entity.ListingTable
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, common.NewError(common.KindPersistence, "scan table", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *postgresRepository) Rename(ctx context.Context, id, name string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE listing_tables SET name = $2, updated_at = now() WHERE id = $1`, id, name)
	if err != nil {
		r.logger.Error("rename table failed", "table_id", id, "error", err)
		return common.NewError(common.KindPersistence, "rename table", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.NewError(common.KindPersistence, "begin delete", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var ownerID string
	if err := tx.QueryRow(ctx,
		`SELECT owner_id FROM listing_tables WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.Errorf(common.KindNotFound, "table %s not found", id)
		}
		return common.NewError(common.KindPersistence, "load table for delete", err)
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM listing_tables WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return common.NewError(common.KindPersistence, "count tables", err)
	}
	if count <= 1 {
		return common.Errorf(common.KindConflict, "cannot delete the only table of owner %s", ownerID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM listing_tables WHERE id = $1`, id); err != nil {
		return common.NewError(common.KindPersistence, "delete table", err)
	}
	return tx.Commit(ctx)
}

// Append prepends records in a single UPDATE. jsonb || jsonb is evaluated
// under the row lock, so two concurrent commits both land and neither
// overwrites the other.
func (r *postgresRepository) Append(ctx context.Context, id string, records []entity.PropertyRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return common.NewError(common.KindPersistence, "encode records", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE listing_tables
		 SET records = $2::jsonb || records, updated_at = now()
		 WHERE id = $1`, id, payload)
	if err != nil {
		r.logger.Error("append records failed", "table_id", id, "count", len(records), "error", err)
		return common.NewError(common.KindPersistence, "append records", err)
	}
	if tag.RowsAffected() == 0 {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	return nil
}

func (r *postgresRepository) UpdateRecord(ctx context.Context, tableID string, record entity.PropertyRecord) error {
	return r.mutateRecords(ctx, tableID, func(records []entity.PropertyRecord) ([]entity.PropertyRecord, error) {
		for i := range records {
			if records[i].ID == record.ID {
				records[i] = record
				return records, nil
			}
		}
		return nil, common.Errorf(common.KindNotFound, "record %s not found", record.ID)
	})
}

func (r *postgresRepository) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	return r.mutateRecords(ctx, tableID, func(records []entity.PropertyRecord) ([]entity.PropertyRecord, error) {
		for i := range records {
			if records[i].ID == recordID {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, common.Errorf(common.KindNotFound, "record %s not found", recordID)
	})
}

// mutateRecords runs a read-modify-write under FOR UPDATE so record edits
// do not race concurrent appends.
func (r *postgresRepository) mutateRecords(ctx context.Context, tableID string, fn func([]entity.PropertyRecord) ([]entity.PropertyRecord, error)) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.NewError(common.KindPersistence, "begin mutate", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	if err := tx.QueryRow(ctx,
		`SELECT records FROM listing_tables WHERE id = $1 FOR UPDATE`, tableID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.Errorf(common.KindNotFound, "table %s not found", tableID)
		}
		return common.NewError(common.KindPersistence, "load records", err)
	}

	var records []entity.PropertyRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return common.NewError(common.KindPersistence, "decode records", err)
	}
	records, err = fn(records)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return common.NewError(common.KindPersistence, "encode records", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE listing_tables SET records = $2::jsonb, updated_at = now() WHERE id = $1`,
		tableID, payload); err != nil {
		return common.NewError(common.KindPersistence, "store records", err)
	}
	return tx.Commit(ctx)
}

func (r *postgresRepository) CreateShare(ctx context.Context, records []entity.PropertyRecord) (string, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return "", common.NewError(common.KindPersistence, "encode share", err)
	}
	id := uuid.New().String()
	if _, err := r.pool.Exec(ctx,
		`INSERT INTO shared_lists (id, records) VALUES ($1, $2::jsonb)`, id, payload); err != nil {
		r.logger.Error("create share failed", "error", err)
		return "", common.NewError(common.KindPersistence, "create share", err)
	}
	return id, nil
}

func (r *postgresRepository) GetShare(ctx context.Context, id string) (*entity.SharedList, error) {
	var share entity.SharedList
	var raw []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, records, created_at FROM shared_lists WHERE id = $1`, id).
		Scan(&share.ID, &raw, &share.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.Errorf(common.KindNotFound, "share %s not found", id)
		}
		return nil, common.NewError(common.KindPersistence, "get share", err)
	}
	if err := json.Unmarshal(raw, &share.Records); err != nil {
		return nil, common.NewError(common.KindPersistence, "decode share", err)
	}
	return &share, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (*entity.ListingTable, error) {
	var t entity.ListingTable
	var raw []byte
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &raw, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &t.Records); err != nil {
		return nil, err
	}
	if t.Records == nil {
		t.Records = []entity.PropertyRecord{}
	}
	return &t, nil
}
