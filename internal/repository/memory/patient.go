package memory

import (
	"context"
	"fmt"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
)

type PatientRepository struct {
	s *Store
}

func (r *PatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	for _, p := range r.s.state.patients {
		if p.MedicalRecordNumber == patient.MedicalRecordNumber {
			return fmt.Errorf("medical record number %q: %w", patient.MedicalRecordNumber, repository.ErrDuplicate)
		}
	}

	r.s.beforeWrite(ctx)
	r.s.state.nextPatientID++
	patient.ID = r.s.state.nextPatientID
	patient.CreatedAt = r.s.timestamp()
	patient.UpdatedAt = nil

	r.s.state.patients[patient.ID] = clonePatient(patient)
	return nil
}

func (r *PatientRepository) Get(ctx context.Context, id int64) (*model.Patient, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, ok := r.s.state.patients[id]
	if !ok {
		return nil, notFound("patient", id)
	}
	return clonePatient(p), nil
}

func (r *PatientRepository) GetByMRN(ctx context.Context, mrn string) (*model.Patient, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	for _, p := range r.s.state.patients {
		if p.MedicalRecordNumber == mrn {
			return clonePatient(p), nil
		}
	}
	return nil, fmt.Errorf("patient with medical record number %q: %w", mrn, repository.ErrNotFound)
}

func (r *PatientRepository) Update(ctx context.Context, patient *model.Patient) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	stored, ok := r.s.state.patients[patient.ID]
	if !ok {
		return notFound("patient", patient.ID)
	}

	r.s.beforeWrite(ctx)
	now := r.s.timestamp()
	stored.Name = patient.Name
	stored.DateOfBirth = patient.DateOfBirth
	stored.UpdatedAt = &now

	patient.MedicalRecordNumber = stored.MedicalRecordNumber
	patient.CreatedAt = stored.CreatedAt
	patient.UpdatedAt = &now
	return nil
}

// Delete removes the patient and, like the postgres cascade, its notes.
func (r *PatientRepository) Delete(ctx context.Context, id int64) error {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, ok := r.s.state.patients[id]; !ok {
		return notFound("patient", id)
	}
	r.s.beforeWrite(ctx)
	delete(r.s.state.patients, id)
	for nid, n := range r.s.state.notes {
		if n.PatientID == id {
			delete(r.s.state.notes, nid)
		}
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q query.PatientQuery) ([]*model.Patient, int, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer unlock()

	matched := make([]*model.Patient, 0, len(r.s.state.patients))
	for _, p := range r.s.state.patients {
		if query.MatchesName(p.Name, q.Search) {
			matched = append(matched, clonePatient(p))
		}
	}

	query.SortPatients(matched, q.Sort, q.Direction)
	start, end := q.Window.Bounds(len(matched))
	return matched[start:end], len(matched), nil
}

func (r *PatientRepository) Count(ctx context.Context) (int, error) {
	unlock, err := r.s.lock(ctx)
	if err != nil {
		return 0, err
	}
	defer unlock()

	return len(r.s.state.patients), nil
}
