package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

// sqliteRepository is the device-local variant of the table store: one
// file, no server. SQLite serializes writers, which is all Append needs.
type sqliteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var (
	_ TableRepository = (*sqliteRepository)(nil)
	_ ShareRepository = (*sqliteRepository)(nil)
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listing_tables (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    name       TEXT NOT NULL,
    records    TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS shared_lists (
    id         TEXT PRIMARY KEY,
    records    TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenSQLite opens (and if needed initializes) the local database file.
func OpenSQLite(path string, logger *slog.Logger) (*sqliteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.NewError(common.KindPersistence, "open sqlite", err)
	}
	// a single writer avoids SQLITE_BUSY on concurrent commits
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, common.NewError(common.KindPersistence, "init sqlite schema", err)
	}
	logger.Info("sqlite store ready", "path", path)
	return &sqliteRepository{db: db, logger: logger}, nil
}

func (r *sqliteRepository) Close() error {
	return r.db.Close()
}

func (r *sqliteRepository) Create(ctx context.Context, ownerID, name string) (*entity.ListingTable, error) {
	id := uuid.New().String()
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO listing_tables (id, owner_id, name, records, created_at, updated_at)
		 VALUES (?, ?, ?, '[]', ?, ?)`, id, ownerID, name, now, now); err != nil {
		return nil, common.NewError(common.KindPersistence, "create table", err)
	}
	return &entity.ListingTable{
		ID: id, OwnerID: ownerID, Name: name,
		Records: []entity.PropertyRecord{}, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (r *sqliteRepository) Get(ctx context.Context, id string) (*entity.ListingTable, error) {
	return r.get(ctx, r.db.QueryRowContext(ctx,
		`SELECT id, owner_id, name, records, created_at, updated_at
		 FROM listing_tables WHERE id = ?`, id), id)
}

func (r *sqliteRepository) get(_ context.Context, row *sql.Row, id string) (*entity.ListingTable, error) {
	var t entity.ListingTable
	var raw string
	err := row.Scan(&t.ID, &t.OwnerID, &t.Name, &raw, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.Errorf(common.KindNotFound, "table %s not found", id)
		}
		return nil, common.NewError(common.KindPersistence, "get table", err)
	}
	if err := json.Unmarshal([]byte(raw), &t.Records); err != nil {
		return nil, common.NewError(common.KindPersistence, "decode records", err)
	}
	if t.Records == nil {
		t.Records = []entity.PropertyRecord{}
	}
	return &t, nil
}

func (r *sqliteRepository) List(ctx context.Context, ownerID string) ([]*entity.ListingTable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, name, records, created_at, updated_at
		 FROM listing_tables WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, common.NewError(common.KindPersistence, "list tables", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.ListingTable
	for rows.Next() {
		var t entity.ListingTable
		var raw string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &raw, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, common.NewError(common.KindPersistence, "scan table", err)
		}
		if err := json.Unmarshal([]byte(raw), &t.Records); err != nil {
			return nil, common.NewError(common.KindPersistence, "decode records", err)
		}
		if t.Records == nil {
			t.Records = []entity.PropertyRecord{}
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (r *sqliteRepository) Rename(ctx context.Context, id, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE listing_tables SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id)
	if err != nil {
		return common.NewError(common.KindPersistence, "rename table", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	return nil
}

func (r *sqliteRepository) Delete(ctx context.Context, id string) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var ownerID string
		if err := tx.QueryRowContext(ctx,
			`SELECT owner_id FROM listing_tables WHERE id = ?`, id).Scan(&ownerID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.Errorf(common.KindNotFound, "table %s not found", id)
			}
			return common.NewError(common.KindPersistence, "load table for delete", err)
		}
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM listing_tables WHERE owner_id = ?`, ownerID).Scan(&count); err != nil {
			return common.NewError(common.KindPersistence, "count tables", err)
		}
		if count <= 1 {
			return common.Errorf(common.KindConflict, "cannot delete the only table of owner %s", ownerID)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM listing_tables WHERE id = ?`, id); err != nil {
			return common.NewError(common.KindPersistence, "delete table", err)
		}
		return nil
	})
}

func (r *sqliteRepository) Append(ctx context.Context, id string, records []entity.PropertyRecord) error {
	return r.mutateRecords(ctx, id, func(existing []entity.PropertyRecord) ([]entity.PropertyRecord, error) {
		return append(append([]entity.PropertyRecord(nil), records...), existing...), nil
	})
}

func (r *sqliteRepository) UpdateRecord(ctx context.Context, tableID string, record entity.PropertyRecord) error {
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

func (r *sqliteRepository) DeleteRecord(ctx context.Context, tableID, recordID string) error {
	return r.mutateRecords(ctx, tableID, func(records []entity.PropertyRecord) ([]entity.PropertyRecord, error) {
		for i := range records {
			if records[i].ID == recordID {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, common.Errorf(common.KindNotFound, "record %s not found", recordID)
	})
}

func (r *sqliteRepository) mutateRecords(ctx context.Context, tableID string, fn func([]entity.PropertyRecord) ([]entity.PropertyRecord, error)) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		if err := tx.QueryRowContext(ctx,
			`SELECT records FROM listing_tables WHERE id = ?`, tableID).Scan(&raw); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.Errorf(common.KindNotFound, "table %s not found", tableID)
			}
			return common.NewError(common.KindPersistence, "load records", err)
		}
		var records []entity.PropertyRecord
		if err := json.Unmarshal([]byte(raw), &records); err != nil {
			return common.NewError(common.KindPersistence, "decode records", err)
		}
		records, err := fn(records)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(records)
		if err != nil {
			return common.NewError(common.KindPersistence, "encode records", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE listing_tables SET records = ?, updated_at = ? WHERE id = ?`,
			string(payload), time.Now().UTC(), tableID); err != nil {
			return common.NewError(common.KindPersistence, "store records", err)
		}
		return nil
	})
}

func (r *sqliteRepository) CreateShare(ctx context.Context, records []entity.PropertyRecord) (string, error) {
	payload, err := json.Marshal(records)
	if err != nil {
		return "", common.NewError(common.KindPersistence, "encode share", err)
	}
	id := uuid.New().String()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO shared_lists (id, records, created_at) VALUES (?, ?, ?)`,
		id, string(payload), time.Now().UTC()); err != nil {
		return "", common.NewError(common.KindPersistence, "create share", err)
	}
	return id, nil
}

func (r *sqliteRepository) GetShare(ctx context.Context, id string) (*entity.SharedList, error) {
	var share entity.SharedList
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, records, created_at FROM shared_lists WHERE id = ?`, id).
		Scan(&share.ID, &raw, &share.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.Errorf(common.KindNotFound, "share %s not found", id)
		}
		return nil, common.NewError(common.KindPersistence, "get share", err)
	}
	if err := json.Unmarshal([]byte(raw), &share.Records); err != nil {
		return nil, common.NewError(common.KindPersistence, "decode share", err)
	}
	return &share, nil
}

func (r *sqliteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewError(common.KindPersistence, "begin tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
