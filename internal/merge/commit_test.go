package merge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
	"github.com/mfcosta/listings-tracker/internal/repository"
	"github.com/mfcosta/listings-tracker/internal/staging"
)

func candidate(name string) entity.CandidateRecord {
	return entity.CandidateRecord{
		BrokerName:   "João Pereira",
		AgencyName:   "Imobiliária Mar Azul",
		PropertyName: name,
		PaymentTerms: "entrada + 36x",
		Price:        520000,
		AreaSqm:      88,
		Bedrooms:     3,
		Bathrooms:    2,
		Neighborhood: "Centro",
		PropertyType: constants.Apartment,
		Status:       constants.StatusAvailable,
		Categories:   []constants.PropertyCategory{constants.SeaView},
		UserTags:     []string{"lançamento"},
	}
}

func stagedSession(t *testing.T, candidates ...entity.CandidateRecord) *staging.Session {
	t.Helper()
	s := staging.NewSession(nil)
	require.NoError(t, s.Open())
	require.NoError(t, s.BeginExtraction())
	require.NoError(t, s.CompleteExtraction(&entity.ImportBatch{Candidates: candidates}))
	return s
}

func TestDeriveTags(t *testing.T) {
	c := candidate("Ed. Farol")
	tags := DeriveTags(c)

	// user tags first, then the derived ones, insertion order
	assert.Equal(t, []string{
		"lançamento", "Centro", "Imobiliária Mar Azul",
		"APARTMENT", "AVAILABLE", "SEA_VIEW",
	}, tags)
}

func TestRetagRecord(t *testing.T) {
	r := entity.PropertyRecord{
		ID:           "r1",
		Neighborhood: "Praia Brava",
		AgencyName:   "Mar Azul",
		PropertyType: constants.Apartment,
		Status:       constants.StatusAvailable,
		Categories:   []constants.PropertyCategory{constants.SeaView},
		// stale index from before the neighborhood edit
		Tags: []string{"Centro", "APARTMENT", "AVAILABLE"},
	}

	tags := RetagRecord(r)
	assert.Contains(t, tags, "Praia Brava")
	assert.Contains(t, tags, "Mar Azul")
	assert.Contains(t, tags, "SEA_VIEW")
	// existing labels survive; derived values are not doubled
	assert.Contains(t, tags, "Centro")
	assert.Equal(t, []string{"Centro", "APARTMENT", "AVAILABLE", "Praia Brava", "Mar Azul", "SEA_VIEW"}, tags)
}

func TestDeriveTagsSkipsEmptyAndDuplicates(t *testing.T) {
	c := candidate("Ed. Farol")
	c.Neighborhood = ""
	c.UserTags = []string{"Centro", "Centro", "  "}
	c.AgencyName = "Centro" // collides with the user tag

	tags := DeriveTags(c)
	assert.Equal(t, []string{"Centro", "APARTMENT", "AVAILABLE", "SEA_VIEW"}, tags)
}

func TestBuildRecords(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	records := BuildRecords([]entity.CandidateRecord{candidate("A"), candidate("B")}, now)

	require.Len(t, records, 2)
	assert.NotEmpty(t, records[0].ID)
	assert.NotEqual(t, records[0].ID, records[1].ID)
	assert.Equal(t, now, records[0].CreatedAt)
	assert.Equal(t, "A", records[0].PropertyName)
	assert.Contains(t, records[0].Tags, "Centro")
	assert.Contains(t, records[0].Tags, "SEA_VIEW")
}

func TestCommit(t *testing.T) {
	ctx := context.Background()

	t.Run("appends on top of existing records", func(t *testing.T) {
		repo := repository.NewMemoryRepository()
		table, err := repo.Create(ctx, "owner-1", "Minha Tabela")
		require.NoError(t, err)

		first := stagedSession(t, candidate("Antigo"))
		c := NewCommitter(repo, nil)
		_, err = c.Commit(ctx, table.ID, first)
		require.NoError(t, err)

		second := stagedSession(t, candidate("Novo 1"), candidate("Novo 2"))
		records, err := c.Commit(ctx, table.ID, second)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, constants.SessionCommitted, second.State())

		got, err := repo.Get(ctx, table.ID)
		require.NoError(t, err)
		require.Len(t, got.Records, 3)
		// newest batch first, batch-internal order preserved
		assert.Equal(t, "Novo 1", got.Records[0].PropertyName)
		assert.Equal(t, "Novo 2", got.Records[1].PropertyName)
		assert.Equal(t, "Antigo", got.Records[2].PropertyName)
	})

	t.Run("validation failure leaves everything staged", func(t *testing.T) {
		repo := repository.NewMemoryRepository()
		table, err := repo.Create(ctx, "owner-1", "Minha Tabela")
		require.NoError(t, err)

		bad := candidate("Sem Preço")
		bad.Price = 0
		sess := stagedSession(t, candidate("Bom"), bad)

		_, err = NewCommitter(repo, nil).Commit(ctx, table.ID, sess)
		require.Error(t, err)
		assert.True(t, common.IsKind(err, common.KindValidation))

		// nothing written, batch still editable
		got, _ := repo.Get(ctx, table.ID)
		assert.Empty(t, got.Records)
		assert.Equal(t, constants.SessionStaged, sess.State())
		assert.Len(t, sess.Store().Candidates(), 2)
	})

	t.Run("append failure keeps the batch for retry", func(t *testing.T) {
		repo := repository.NewMemoryRepository()
		sess := stagedSession(t, candidate("A"))

		_, err := NewCommitter(repo, nil).Commit(ctx, "no-such-table", sess)
		require.Error(t, err)
		assert.Equal(t, constants.SessionStaged, sess.State())
		assert.Len(t, sess.Store().Candidates(), 1)
	})

	t.Run("concurrent commits both land", func(t *testing.T) {
		repo := repository.NewMemoryRepository()
		table, err := repo.Create(ctx, "owner-1", "Minha Tabela")
		require.NoError(t, err)

		c := NewCommitter(repo, nil)
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sess := stagedSession(t, candidate("1"), candidate("2"), candidate("3"))
				_, err := c.Commit(ctx, table.ID, sess)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := repo.Get(ctx, table.ID)
		require.NoError(t, err)
		assert.Len(t, got.Records, 6)

		seen := map[string]bool{}
		for _, r := range got.Records {
			assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
			seen[r.ID] = true
		}
	})
}
