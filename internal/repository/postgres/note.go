package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
)

const noteColumns = `id, patient_id, "timestamp", content, note_type, created_at, updated_at`

type noteRepository struct {
	BaseRepository
}

// Create inserts note; a zero Timestamp defaults to the insert time. A
// missing patient surfaces as ErrNotFound through the foreign key.
func (r *noteRepository) Create(ctx context.Context, note *model.Note) (err error) {
	defer r.observe("note_create", time.Now(), &err)

	var ts *time.Time
	if !note.Timestamp.IsZero() {
		ts = &note.Timestamp
	}

	stmt := `
		INSERT INTO patient_notes (patient_id, "timestamp", content, note_type)
		VALUES ($1, COALESCE($2, NOW()), $3, $4)
		RETURNING id, "timestamp", created_at, updated_at
	`
	err = r.conn(ctx).QueryRowxContext(ctx, stmt,
		note.PatientID,
		ts,
		note.Content,
		note.NoteType,
	).Scan(&note.ID, &note.Timestamp, &note.CreatedAt, &note.UpdatedAt)
	return translate("create note", err)
}

func (r *noteRepository) Get(ctx context.Context, id int64) (_ *model.Note, err error) {
	defer r.observe("note_get", time.Now(), &err)

	var note model.Note
	stmt := `SELECT ` + noteColumns + ` FROM patient_notes WHERE id = $1`
	if err = sqlx.GetContext(ctx, r.conn(ctx), &note, stmt, id); err != nil {
		return nil, translate("get note", err)
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, note *model.Note) (err error) {
	defer r.observe("note_update", time.Now(), &err)

	stmt := `
		UPDATE patient_notes SET content = $1, note_type = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + noteColumns
	err = sqlx.GetContext(ctx, r.conn(ctx), note, stmt, note.Content, note.NoteType, note.ID)
	return translate("update note", err)
}

func (r *noteRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.observe("note_delete", time.Now(), &err)

	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM patient_notes WHERE id = $1`, id)
	if err != nil {
		return translate("delete note", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate("delete note", err)
	}
	if n == 0 {
		return translate("delete note", repository.ErrNotFound)
	}
	return nil
}

func (r *noteRepository) DeleteByPatient(ctx context.Context, patientID int64) (_ int64, err error) {
	defer r.observe("note_delete_by_patient", time.Now(), &err)

	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM patient_notes WHERE patient_id = $1`, patientID)
	if err != nil {
		return 0, translate("delete patient notes", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, translate("delete patient notes", err)
	}
	return n, nil
}

func noteListSQL(q query.NoteQuery) (string, string, []interface{}, []interface{}) {
	where := ` WHERE patient_id = $1`
	args := []interface{}{q.PatientID}

	countSQL := `SELECT COUNT(*) FROM patient_notes` + where
	limit, pageArgs := q.Window.LimitOffset(append([]interface{}(nil), args...))
	pageSQL := `SELECT ` + noteColumns + ` FROM patient_notes` + where +
		` ORDER BY ` + query.OrderBy(q.Sort.Column(), q.Direction) + limit

	return countSQL, pageSQL, args, pageArgs
}

func (r *noteRepository) ListByPatient(ctx context.Context, q query.NoteQuery) (_ []*model.Note, _ int, err error) {
	defer r.observe("note_list", time.Now(), &err)

	countSQL, pageSQL, countArgs, pageArgs := noteListSQL(q)
	conn := r.conn(ctx)

	var total int
	if err = sqlx.GetContext(ctx, conn, &total, countSQL, countArgs...); err != nil {
		return nil, 0, translate("count notes", err)
	}

	notes := []*model.Note{}
	if err = sqlx.SelectContext(ctx, conn, &notes, pageSQL, pageArgs...); err != nil {
		return nil, 0, translate("list notes", err)
	}
	return notes, total, nil
}
