package seed

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository/memory"
)

func TestRunSeedsOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	logger := zerolog.Nop()

	res, err := Run(ctx, store, &logger)
	require.NoError(t, err)
	assert.Equal(t, Result{Patients: 3, Notes: 7}, res)

	p, err := store.Patients().GetByMRN(ctx, "MRN001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", p.Name)

	notes, total, err := store.Notes().ListByPatient(ctx, query.NoteQuery{
		PatientID: p.ID,
		Sort:      query.NoteSortTimestamp,
		Direction: query.Ascending,
		Window:    query.All(),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, "admission", notes[0].NoteType)
	assert.Equal(t, "discharge", notes[2].NoteType)

	again, err := Run(ctx, store, &logger)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	count, err := store.Patients().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
