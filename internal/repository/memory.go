package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

// memoryRepository keeps everything in process memory. It backs tests and
// the no-database demo mode; the mutex gives Append the same atomicity
// guarantee the SQL stores provide.
type memoryRepository struct {
	mu     sync.Mutex
	tables map[string]*entity.ListingTable
	shares map[string]*entity.SharedList
}

var (
	_ TableRepository = (*memoryRepository)(nil)
	_ ShareRepository = (*memoryRepository)(nil)
)

func NewMemoryRepository() *memoryRepository {
	return &memoryRepository{
		tables: make(map[string]*entity.ListingTable),
		shares: make(map[string]*entity.SharedList),
	}
}

func (r *memoryRepository) Create(_ context.Context, ownerID, name string) (*entity.ListingTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	t := &entity.ListingTable{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      name,
		Records:   []entity.PropertyRecord{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.tables[t.ID] = t
	return copyTable(t), nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (*entity.ListingTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[id]
	if !ok {
		return nil, common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	return copyTable(t), nil
}

func (r *memoryRepository) List(_ context.Context, ownerID string) ([]*entity.ListingTable, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.ListingTable
	for _, t := range r.tables {
		if t.OwnerID == ownerID {
			out = append(out, copyTable(t))
		}
	}
	return out, nil
}

func (r *memoryRepository) Rename(_ context.Context, id, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[id]
	if !ok {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	t.Name = name
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[id]
	if !ok {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	count := 0
	for _, other := range r.tables {
		if other.OwnerID == t.OwnerID {
			count++
		}
	}
	if count <= 1 {
		return common.Errorf(common.KindConflict, "cannot delete the only table of owner %s", t.OwnerID)
	}
	delete(r.tables, id)
	return nil
}

func (r *memoryRepository) Append(_ context.Context, id string, records []entity.PropertyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[id]
	if !ok {
		return common.Errorf(common.KindNotFound, "table %s not found", id)
	}
	t.Records = append(append([]entity.PropertyRecord(nil), records...), t.Records...)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memoryRepository) UpdateRecord(_ context.Context, tableID string, record entity.PropertyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[tableID]
	if !ok {
		return common.Errorf(common.KindNotFound, "table %s not found", tableID)
	}
	for i := range t.Records {
		if t.Records[i].ID == record.ID {
			t.Records[i] = record
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return common.Errorf(common.KindNotFound, "record %s not found", record.ID)
}

func (r *memoryRepository) DeleteRecord(_ context.Context, tableID, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tables[tableID]
	if !ok {
		return common.Errorf(common.KindNotFound, "table %s not found", tableID)
	}
	for i := range t.Records {
		if t.Records[i].ID == recordID {
			t.Records = append(t.Records[:i], t.Records[i+1:]...)
			t.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return common.Errorf(common.KindNotFound, "record %s not found", recordID)
}

func (r *memoryRepository) CreateShare(_ context.Context, records []entity.PropertyRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &entity.SharedList{
		ID:        uuid.New().String(),
		Records:   append([]entity.PropertyRecord(nil), records...),
		CreatedAt: time.Now().UTC(),
	}
	r.shares[s.ID] = s
	return s.ID, nil
}

func (r *memoryRepository) GetShare(_ context.Context, id string) (*entity.SharedList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.shares[id]
	if !ok {
		return nil, common.Errorf(common.KindNotFound, "share %s not found", id)
	}
	return &entity.SharedList{
		ID:        s.ID,
		Records:   append([]entity.PropertyRecord(nil), s.Records...),
		CreatedAt: s.CreatedAt,
	}, nil
}

func copyTable(t *entity.ListingTable) *entity.ListingTable {
	return &entity.ListingTable{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		Records:   append([]entity.PropertyRecord(nil), t.Records...),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
