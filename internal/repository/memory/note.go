package memory

import (
	"context"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
)

type NoteRepository struct {
	s *Store
}

// Create fails with ErrNotFound when the owning patient does not exist.
func (r *NoteRepository) Create(ctx context.Context, note *model.Note) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := r.s.state.patients[note.PatientID]; !ok {
		return notFound("patient", note.PatientID)
	}

	r.s.beforeWrite(ctx)
	r.s.state.nextNoteID++
	note.ID = r.s.state.nextNoteID
	note.CreatedAt = r.s.timestamp()
	note.UpdatedAt = nil
	if note.Timestamp.IsZero() {
		note.Timestamp = note.CreatedAt
	}

	r.s.state.notes[note.ID] = cloneNote(note)
	return nil
}

func (r *NoteRepository) Get(ctx context.Context, id int64) (*model.Note, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	n, ok := r.s.state.notes[id]
	if !ok {
		return nil, notFound("note", id)
	}
	return cloneNote(n), nil
}

func (r *NoteRepository) Update(ctx context.Context, note *model.Note) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	stored, ok := r.s.state.notes[note.ID]
	if !ok {
		return notFound("note", note.ID)
	}

	r.s.beforeWrite(ctx)
	now := r.s.timestamp()
	stored.Content = note.Content
	stored.NoteType = note.NoteType
	stored.UpdatedAt = &now

	*note = *cloneNote(stored)
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id int64) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := r.s.state.notes[id]; !ok {
		return notFound("note", id)
	}
	r.s.beforeWrite(ctx)
	delete(r.s.state.notes, id)
	return nil
}

func (r *NoteRepository) DeleteByPatient(ctx context.Context, patientID int64) (int64, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	r.s.beforeWrite(ctx)
	var n int64
	for id, note := range r.s.state.notes {
		if note.PatientID == patientID {
			delete(r.s.state.notes, id)
			n++
		}
	}
	return n, nil
}

func (r *NoteRepository) ListByPatient(ctx context.Context, q query.NoteQuery) ([]*model.Note, int, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	matched := make([]*model.Note, 0)
	for _, n := range r.s.state.notes {
		if n.PatientID == q.PatientID {
			matched = append(matched, cloneNote(n))
		}
	}

	query.SortNotes(matched, q.Sort, q.Direction)
	start, end := q.Window.Bounds(len(matched))
	return matched[start:end], len(matched), nil
}
