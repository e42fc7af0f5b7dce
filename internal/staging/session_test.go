package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfcosta/listings-tracker/constants"
	"github.com/mfcosta/listings-tracker/internal/common"
	"github.com/mfcosta/listings-tracker/internal/entity"
)

func TestSessionHappyPath(t *testing.T) {
	s := NewSession(nil)
	assert.Equal(t, constants.SessionIdle, s.State())

	require.NoError(t, s.Open())
	assert.Equal(t, constants.SessionAwaitingDocument, s.State())

	require.NoError(t, s.BeginExtraction())
	assert.Equal(t, constants.SessionExtracting, s.State())

	batch := &entity.ImportBatch{Candidates: []entity.CandidateRecord{committableCandidate("A")}}
	require.NoError(t, s.CompleteExtraction(batch))
	assert.Equal(t, constants.SessionStaged, s.State())
	assert.Len(t, s.Store().Candidates(), 1)

	require.NoError(t, s.MarkCommitted())
	assert.Equal(t, constants.SessionCommitted, s.State())

	// a committed session cannot stage or commit again
	assert.Error(t, s.BeginExtraction())
	assert.Error(t, s.MarkCommitted())

	// cancel resets it for the next import
	s.Cancel()
	assert.Equal(t, constants.SessionIdle, s.State())
}

func TestSessionFailedExtraction(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Open())
	require.NoError(t, s.BeginExtraction())

	require.NoError(t, s.FailExtraction())
	assert.Equal(t, constants.SessionIdle, s.State())

	// no retry-in-place: the dialog reopens from the start
	err := s.BeginExtraction()
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindConflict))
}

func TestSessionIllegalTransitions(t *testing.T) {
	s := NewSession(nil)

	assert.Error(t, s.BeginExtraction())
	assert.Error(t, s.MarkCommitted())
	assert.Error(t, s.CompleteExtraction(&entity.ImportBatch{}))

	require.NoError(t, s.Open())
	assert.Error(t, s.Open())
	assert.Error(t, s.MarkCommitted())
}

func TestSessionCancel(t *testing.T) {
	s := NewSession(nil)
	require.NoError(t, s.Open())
	require.NoError(t, s.BeginExtraction())
	require.NoError(t, s.CompleteExtraction(&entity.ImportBatch{
		Candidates: []entity.CandidateRecord{committableCandidate("A")},
	}))

	s.Cancel()
	assert.Equal(t, constants.SessionIdle, s.State())
	assert.False(t, s.Store().Staged())
	assert.Empty(t, s.Store().Candidates())
}
