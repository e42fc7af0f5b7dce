package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/entity"
	"github.com/mfcosta/listings-tracker/internal/repository"
	"github.com/mfcosta/listings-tracker/internal/staging"
)

// Committer merges a reviewed batch into a listing table. The whole batch
// goes through one repository Append, so from the caller's point of view
// the commit is all-or-nothing: a failed append leaves the table untouched
// and the staged batch in place for a retry.
type Committer struct {
	repo   repository.TableRepository
	logger *slog.Logger
}

func NewCommitter(repo repository.TableRepository, logger *slog.Logger) *Committer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Committer{repo: repo, logger: logger}
}

// Commit validates the staged batch, assigns identities and derived tags,
// and prepends the records to the table. The staging store is cleared only
// after the append succeeds.
func (c *Committer) Commit(ctx context.Context, tableID string, session *staging.Session) ([]entity.PropertyRecord, error) {
	candidates, err := session.Store().CommittableAll()
	if err != nil {
		// leaves the session STAGED; the UI highlights the fields
		return nil, err
	}

	records := BuildRecords(candidates, time.Now().UTC())
	if err := c.repo.Append(ctx, tableID, records); err != nil {
		c.logger.Error("merge.commit.append_failed", "table_id", tableID, "count", len(records), "error", err)
		return nil, err
	}

	session.Store().Clear()
	if err := session.MarkCommitted(); err != nil {
		// the data is safe; only the dialog state is off
		c.logger.Warn("merge.commit.session_state", "error", err)
	}

	c.logger.Info("merge.commit.ok", "table_id", tableID, "count", len(records))
	return records, nil
}

// lastBatchStamp forces the batch identity forward even when two commits
// land in the same clock tick.
var lastBatchStamp atomic.Int64

func batchBase(now time.Time) string {
	n := now.UnixNano()
	for {
		prev := lastBatchStamp.Load()
		if n <= prev {
			n = prev + 1
		}
		if lastBatchStamp.CompareAndSwap(prev, n) {
			return strconv.FormatInt(n, 36)
		}
	}
}

// BuildRecords turns committable candidates into property records with
// fresh identities and derived tags. Identifiers are the commit timestamp
// plus a per-batch sequence, so collisions within one batch are
// impossible by construction.
func BuildRecords(candidates []entity.CandidateRecord, now time.Time) []entity.PropertyRecord {
	base := batchBase(now)
	records := make([]entity.PropertyRecord, 0, len(candidates))
	for i, cand := range candidates {
		records = append(records, entity.PropertyRecord{
			ID:                fmt.Sprintf("%s-%d", base, i),
			BrokerName:        cand.BrokerName,
			AgencyName:        cand.AgencyName,
			PropertyName:      cand.PropertyName,
			UnitNumber:        cand.UnitNumber,
			Bedrooms:          cand.Bedrooms,
			Bathrooms:         cand.Bathrooms,
			Suites:            cand.Suites,
			Lavabos:           cand.Lavabos,
			AreaSqm:           cand.AreaSqm,
			TotalAreaSqm:      cand.TotalAreaSqm,
			Price:             cand.Price,
			PaymentTerms:      cand.PaymentTerms,
			AdditionalInfo:    cand.AdditionalInfo,
			PropertyType:      cand.PropertyType,
			Status:            cand.Status,
			Categories:        append([]constants.PropertyCategory(nil), cand.Categories...),
			Address:           cand.Address,
			Neighborhood:      cand.Neighborhood,
			BrokerContact:     cand.BrokerContact,
			PhotoLink:         cand.PhotoLink,
			ExtraMaterialLink: cand.ExtraMaterialLink,
			Tags:              DeriveTags(cand),
			CreatedAt:         now,
		})
	}
	return records
}
