package note

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository/memory"
	"github.com/jwalitptl/records-api/internal/service/event"
	"github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/messaging"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, eventType string, payload interface{}) error {
	return m.Called(ctx, eventType, payload).Error(0)
}

type fixture struct {
	svc   *Service
	store *memory.Store
	pub   *mockPublisher
	p1    *model.Patient
	p2    *model.Patient
}

func setup(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return now }
	store := memory.NewStore(memory.WithClock(clock))
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	logger := zerolog.Nop()

	f := &fixture{
		svc:   NewService(store, event.NewEventService(pub, &logger), &logger, WithClock(clock)),
		store: store,
		pub:   pub,
		p1:    &model.Patient{Name: "John Doe", DateOfBirth: model.NewDate(1985, time.June, 15), MedicalRecordNumber: "MRN001"},
		p2:    &model.Patient{Name: "Jane Smith", DateOfBirth: model.NewDate(1990, time.November, 3), MedicalRecordNumber: "MRN002"},
	}
	require.NoError(t, store.Patients().Create(context.Background(), f.p1))
	require.NoError(t, store.Patients().Create(context.Background(), f.p2))
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) addNote(t *testing.T, patientID int64, ts time.Time, typ, content string) *model.Note {
	t.Helper()
	n, err := f.svc.CreateNote(context.Background(), patientID, &model.NoteCreate{
		PatientID: patientID,
		Content:   content,
		Timestamp: &model.Timestamp{Time: ts},
		NoteType:  &typ,
	})
	require.NoError(t, err)
	return n
}

func TestCreateNoteDefaults(t *testing.T) {
	f := setup(t)

	n, err := f.svc.CreateNote(context.Background(), f.p1.ID, &model.NoteCreate{PatientID: f.p1.ID, Content: "Vitals stable"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultNoteType, n.NoteType)
	assert.Equal(t, now, n.Timestamp)
	assert.Nil(t, n.UpdatedAt)
	f.pub.AssertCalled(t, "Publish", mock.Anything, messaging.NoteCreated, n)
}

func TestCreateNoteErrors(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateNote(ctx, 999, &model.NoteCreate{PatientID: 999, Content: "x"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.svc.CreateNote(ctx, f.p1.ID, &model.NoteCreate{PatientID: f.p2.ID, Content: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
	assert.Equal(t, "Patient ID in path does not match request body", err.Error())

	// Patient existence is checked before the id match.
	_, err = f.svc.CreateNote(ctx, 999, &model.NoteCreate{PatientID: f.p1.ID, Content: "x"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestUploadNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n, err := f.svc.UploadNote(ctx, f.p1.ID, []byte("Discharge summary\nFollow up in 2 weeks"), "")
	require.NoError(t, err)
	assert.Equal(t, "general", n.NoteType)
	assert.Equal(t, "Discharge summary\nFollow up in 2 weeks", n.Content)

	n, err = f.svc.UploadNote(ctx, f.p1.ID, []byte("Lab results"), "lab")
	require.NoError(t, err)
	assert.Equal(t, "lab", n.NoteType)

	_, err = f.svc.UploadNote(ctx, 999, []byte("x"), "lab")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = f.svc.UploadNote(ctx, f.p1.ID, []byte{0xff, 0xfe, 0x00}, "lab")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(err))

	_, err = f.svc.UploadNote(ctx, f.p1.ID, []byte("  \n"), "lab")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestNoteOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	theirs := f.addNote(t, f.p2.ID, now, "checkup", "Annual physical")

	_, err := f.svc.GetNote(ctx, f.p1.ID, theirs.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, "Note not found for this patient", err.Error())

	_, err = f.svc.UpdateNote(ctx, f.p1.ID, theirs.ID, &model.NoteUpdate{Content: ptr("hijack")})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	assert.True(t, errors.Is(f.svc.DeleteNote(ctx, f.p1.ID, theirs.ID), errors.ErrNotFound))

	got, err := f.svc.GetNote(ctx, f.p2.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Annual physical", got.Content)

	_, err = f.svc.GetNote(ctx, 999, theirs.ID)
	require.Error(t, err)
	assert.Equal(t, "Patient not found", err.Error())
}

func TestUpdateAndDeleteNote(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	n := f.addNote(t, f.p1.ID, now, "progress", "Improving")

	updated, err := f.svc.UpdateNote(ctx, f.p1.ID, n.ID, &model.NoteUpdate{NoteType: ptr("discharge")})
	require.NoError(t, err)
	assert.Equal(t, "discharge", updated.NoteType)
	assert.Equal(t, "Improving", updated.Content)
	require.NotNil(t, updated.UpdatedAt)

	require.NoError(t, f.svc.DeleteNote(ctx, f.p1.ID, n.ID))
	_, err = f.svc.GetNote(ctx, f.p1.ID, n.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	f.pub.AssertCalled(t, "Publish", mock.Anything, messaging.NoteDeleted, mock.Anything)
}

func TestListNotes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.addNote(t, f.p1.ID, time.Date(2024, 1, 16, 14, 20, 0, 0, time.UTC), "progress", "b")
	f.addNote(t, f.p1.ID, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), "admission", "a")
	f.addNote(t, f.p1.ID, time.Date(2024, 1, 17, 9, 15, 0, 0, time.UTC), "discharge", "c")
	f.addNote(t, f.p2.ID, now, "checkup", "other")

	w, err := query.NewWindow(0, 2)
	require.NoError(t, err)

	page, err := f.svc.ListNotes(ctx, query.NoteQuery{PatientID: f.p1.ID, Sort: query.NoteSortTimestamp, Direction: query.Descending, Window: w})
	require.NoError(t, err)
	assert.Equal(t, model.PageMeta{Total: 3, Page: 1, Size: 2, Pages: 2}, page.PageMeta)
	require.Len(t, page.Notes, 2)
	assert.Equal(t, "c", page.Notes[0].Content)
	assert.Equal(t, "b", page.Notes[1].Content)

	_, err = f.svc.ListNotes(ctx, query.NoteQuery{PatientID: 999, Window: w})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSummarize(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Summarize(ctx, f.p2.ID)
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Smith, Age: 33, MRN: MRN002", s.PatientInfo)
	assert.Equal(t, "No clinical notes available for this patient.", s.Summary)

	f.addNote(t, f.p1.ID, time.Date(2024, 1, 16, 14, 20, 0, 0, time.UTC), "progress", "B")
	f.addNote(t, f.p1.ID, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), "admission", "A")

	s, err = f.svc.Summarize(ctx, f.p1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Name: John Doe, Age: 39, MRN: MRN001", s.PatientInfo)
	assert.Equal(t, "Patient has 2 clinical notes.\n\nClinical Timeline:\n"+
		"  2024-01-15 10:30 (admission): A\n"+
		"  2024-01-16 14:20 (progress): B", s.Summary)

	_, err = f.svc.Summarize(ctx, 999)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
