package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
)

const patientColumns = `id, name, date_of_birth, medical_record_number, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) (err error) {
	defer r.observe("patient_create", time.Now(), &err)

	stmt := `
		INSERT INTO patients (name, date_of_birth, medical_record_number)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err = r.conn(ctx).QueryRowxContext(ctx, stmt,
		patient.Name,
		patient.DateOfBirth,
		patient.MedicalRecordNumber,
	).Scan(&patient.ID, &patient.CreatedAt, &patient.UpdatedAt)
	return translate("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id int64) (_ *model.Patient, err error) {
	defer r.observe("patient_get", time.Now(), &err)

	var patient model.Patient
	stmt := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	if err = sqlx.GetContext(ctx, r.conn(ctx), &patient, stmt, id); err != nil {
		return nil, translate("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) GetByMRN(ctx context.Context, mrn string) (_ *model.Patient, err error) {
	defer r.observe("patient_get_by_mrn", time.Now(), &err)

	var patient model.Patient
	stmt := `SELECT ` + patientColumns + ` FROM patients WHERE medical_record_number = $1`
	if err = sqlx.GetContext(ctx, r.conn(ctx), &patient, stmt, mrn); err != nil {
		return nil, translate("get patient by medical record number", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) (err error) {
	defer r.observe("patient_update", time.Now(), &err)

	stmt := `
		UPDATE patients SET name = $1, date_of_birth = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING medical_record_number, created_at, updated_at
	`
	err = r.conn(ctx).QueryRowxContext(ctx, stmt,
		patient.Name,
		patient.DateOfBirth,
		patient.ID,
	).Scan(&patient.MedicalRecordNumber, &patient.CreatedAt, &patient.UpdatedAt)
	return translate("update patient", err)
}

func (r *patientRepository) Delete(ctx context.Context, id int64) (err error) {
	defer r.observe("patient_delete", time.Now(), &err)

	res, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return translate("delete patient", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate("delete patient", err)
	}
	if n == 0 {
		return translate("delete patient", repository.ErrNotFound)
	}
	return nil
}

// patientListSQL builds the count and page statements for q. Both share
// the filter and its leading arguments.
func patientListSQL(q query.PatientQuery) (string, string, []interface{}, []interface{}) {
	where := ""
	var args []interface{}
	if q.Search != "" {
		args = append(args, query.LikePattern(q.Search))
		where = ` WHERE name ILIKE $1 ESCAPE '\'`
	}

	countSQL := `SELECT COUNT(*) FROM patients` + where
	limit, pageArgs := q.Window.LimitOffset(append([]interface{}(nil), args...))
	pageSQL := `SELECT ` + patientColumns + ` FROM patients` + where +
		` ORDER BY ` + query.OrderBy(q.Sort.Column(), q.Direction) + limit

	return countSQL, pageSQL, args, pageArgs
}

func (r *patientRepository) List(ctx context.Context, q query.PatientQuery) (_ []*model.Patient, _ int, err error) {
	defer r.observe("patient_list", time.Now(), &err)

	countSQL, pageSQL, countArgs, pageArgs := patientListSQL(q)
	conn := r.conn(ctx)

	var total int
	if err = sqlx.GetContext(ctx, conn, &total, countSQL, countArgs...); err != nil {
		return nil, 0, translate("count patients", err)
	}

	patients := []*model.Patient{}
	if err = sqlx.SelectContext(ctx, conn, &patients, pageSQL, pageArgs...); err != nil {
		return nil, 0, translate("list patients", err)
	}
	return patients, total, nil
}

func (r *patientRepository) Count(ctx context.Context) (_ int, err error) {
	defer r.observe("patient_count", time.Now(), &err)

	var total int
	if err = sqlx.GetContext(ctx, r.conn(ctx), &total, `SELECT COUNT(*) FROM patients`); err != nil {
		return 0, translate("count patients", err)
	}
	return total, nil
}
