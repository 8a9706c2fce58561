package repository

import (
	"context"
	"errors"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// All repository interfaces in one file
type (
	// Transactor runs fn as one atomic unit. Repository calls made with the
	// ctx passed to fn join the unit; nested WithTx calls join the outer one.
	Transactor interface {
		WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id int64) (*model.Patient, error)
		GetByMRN(ctx context.Context, mrn string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id int64) error
		// List returns one page and the pre-pagination total.
		List(ctx context.Context, q query.PatientQuery) ([]*model.Patient, int, error)
		Count(ctx context.Context) (int, error)
	}

	NoteRepository interface {
		Create(ctx context.Context, note *model.Note) error
		Get(ctx context.Context, id int64) (*model.Note, error)
		Update(ctx context.Context, note *model.Note) error
		Delete(ctx context.Context, id int64) error
		DeleteByPatient(ctx context.Context, patientID int64) (int64, error)
		// ListByPatient returns one page and the pre-pagination total.
		ListByPatient(ctx context.Context, q query.NoteQuery) ([]*model.Note, int, error)
	}

	// Store is a complete entity store backend.
	Store interface {
		Transactor
		Patients() PatientRepository
		Notes() NoteRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
