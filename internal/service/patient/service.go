package patient

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/service/event"
	"github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/messaging"
)

const duplicateMRN = "Patient with this medical record number already exists"

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.PatientCreate) (*model.Patient, error)
	GetPatient(ctx context.Context, id int64) (*model.Patient, error)
	UpdatePatient(ctx context.Context, id int64, req *model.PatientUpdate) (*model.Patient, error)
	DeletePatient(ctx context.Context, id int64) error
	ListPatients(ctx context.Context, q query.PatientQuery) (*model.PatientPage, error)
}

type Service struct {
	store  repository.Store
	events *event.EventService
	logger *zerolog.Logger
}

func NewService(store repository.Store, events *event.EventService, logger *zerolog.Logger) *Service {
	return &Service{
		store:  store,
		events: events,
		logger: logger,
	}
}

// DeletedEvent is the payload of patient.deleted.
type DeletedEvent struct {
	ID           int64 `json:"id"`
	NotesDeleted int64 `json:"notes_deleted"`
}

func lookupError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("Patient", err)
	}
	return fmt.Errorf("failed to get patient: %w", err)
}

func (s *Service) CreatePatient(ctx context.Context, req *model.PatientCreate) (*model.Patient, error) {
	if req.DateOfBirth == nil {
		return nil, errors.BadRequest("date_of_birth: field required", nil)
	}

	patient := &model.Patient{
		Name:                req.Name,
		DateOfBirth:         *req.DateOfBirth,
		MedicalRecordNumber: req.MedicalRecordNumber,
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		_, err := s.store.Patients().GetByMRN(ctx, patient.MedicalRecordNumber)
		switch {
		case err == nil:
			return errors.Conflict(duplicateMRN, nil)
		case !stderrors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("failed to check medical record number: %w", err)
		}

		if err := s.store.Patients().Create(ctx, patient); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return errors.Conflict(duplicateMRN, err)
			}
			return fmt.Errorf("failed to create patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("patient_id", patient.ID).Msg("Patient created")
	s.events.Emit(ctx, messaging.PatientCreated, patient)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*model.Patient, error) {
	var patient *model.Patient
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		patient, err = s.store.Patients().Get(ctx, id)
		if err != nil {
			return lookupError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return patient, nil
}

// UpdatePatient applies the non-nil fields of req. A request without fields
// returns the patient unchanged.
func (s *Service) UpdatePatient(ctx context.Context, id int64, req *model.PatientUpdate) (*model.Patient, error) {
	var patient *model.Patient
	changed := false

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		patient, err = s.store.Patients().Get(ctx, id)
		if err != nil {
			return lookupError(err)
		}

		if req.Name != nil {
			patient.Name = *req.Name
			changed = true
		}
		if req.DateOfBirth != nil {
			patient.DateOfBirth = *req.DateOfBirth
			changed = true
		}
		if !changed {
			return nil
		}

		if err := s.store.Patients().Update(ctx, patient); err != nil {
			return fmt.Errorf("failed to update patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.Emit(ctx, messaging.PatientUpdated, patient)
	}
	return patient, nil
}

// DeletePatient removes the patient's notes and then the patient in one
// transaction.
func (s *Service) DeletePatient(ctx context.Context, id int64) error {
	deleted := DeletedEvent{ID: id}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.Patients().Get(ctx, id); err != nil {
			return lookupError(err)
		}

		n, err := s.store.Notes().DeleteByPatient(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete patient notes: %w", err)
		}
		deleted.NotesDeleted = n

		if err := s.store.Patients().Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().
		Int64("patient_id", id).
		Int64("notes_deleted", deleted.NotesDeleted).
		Msg("Patient deleted")
	s.events.Emit(ctx, messaging.PatientDeleted, deleted)
	return nil
}

func (s *Service) ListPatients(ctx context.Context, q query.PatientQuery) (*model.PatientPage, error) {
	var (
		patients []*model.Patient
		total    int
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		patients, total, err = s.store.Patients().List(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	meta := q.Window.Meta(total)
	return &model.PatientPage{
		Patients: patients,
		PageMeta: model.PageMeta{
			Total: total,
			Page:  meta.Page,
			Size:  meta.Size,
			Pages: meta.Pages,
		},
	}, nil
}
