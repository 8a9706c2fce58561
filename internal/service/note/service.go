package note

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/internal/service/event"
	"github.com/jwalitptl/records-api/internal/summary"
	"github.com/jwalitptl/records-api/pkg/errors"
	"github.com/jwalitptl/records-api/pkg/messaging"
)

var errNotUTF8 = stderrors.New("uploaded file is not valid UTF-8 text")

type NoteService interface {
	CreateNote(ctx context.Context, patientID int64, req *model.NoteCreate) (*model.Note, error)
	UploadNote(ctx context.Context, patientID int64, content []byte, noteType string) (*model.Note, error)
	GetNote(ctx context.Context, patientID, noteID int64) (*model.Note, error)
	UpdateNote(ctx context.Context, patientID, noteID int64, req *model.NoteUpdate) (*model.Note, error)
	DeleteNote(ctx context.Context, patientID, noteID int64) error
	ListNotes(ctx context.Context, q query.NoteQuery) (*model.NotePage, error)
	Summarize(ctx context.Context, patientID int64) (*model.Summary, error)
}

type Service struct {
	store  repository.Store
	events *event.EventService
	logger *zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithClock sets the clock used for default note timestamps and for the
// summary's notion of today.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store repository.Store, events *event.EventService, logger *zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		events: events,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func noteNotFound(err error) error {
	return &errors.AppError{
		Code:    errors.ErrNotFound,
		Message: "Note not found for this patient",
		Err:     err,
	}
}

func noteType(t *string) string {
	if t == nil || strings.TrimSpace(*t) == "" {
		return model.DefaultNoteType
	}
	return *t
}

func (s *Service) requirePatient(ctx context.Context, patientID int64) (*model.Patient, error) {
	p, err := s.store.Patients().Get(ctx, patientID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Patient", err)
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return p, nil
}

// ownedNote loads noteID and checks it belongs to patientID. A note owned
// by another patient is reported exactly like a missing one.
func (s *Service) ownedNote(ctx context.Context, patientID, noteID int64) (*model.Note, error) {
	if _, err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}

	n, err := s.store.Notes().Get(ctx, noteID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, noteNotFound(err)
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if n.PatientID != patientID {
		return nil, noteNotFound(nil)
	}
	return n, nil
}

func (s *Service) create(ctx context.Context, n *model.Note) error {
	if err := s.store.Notes().Create(ctx, n); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("Patient", err)
		}
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (s *Service) CreateNote(ctx context.Context, patientID int64, req *model.NoteCreate) (*model.Note, error) {
	n := &model.Note{
		PatientID: req.PatientID,
		Content:   req.Content,
		NoteType:  noteType(req.NoteType),
	}
	if req.Timestamp != nil {
		n.Timestamp = req.Timestamp.Time
	} else {
		n.Timestamp = s.now()
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.requirePatient(ctx, patientID); err != nil {
			return err
		}
		if req.PatientID != patientID {
			return errors.BadRequest("Patient ID in path does not match request body", nil)
		}
		return s.create(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("patient_id", patientID).Int64("note_id", n.ID).Msg("Note created")
	s.events.Emit(ctx, messaging.NoteCreated, n)
	return n, nil
}

// UploadNote stores the raw bytes of an uploaded text file as a note.
// Content that is not UTF-8 fails as an unclassified error.
func (s *Service) UploadNote(ctx context.Context, patientID int64, content []byte, typ string) (*model.Note, error) {
	n := &model.Note{
		PatientID: patientID,
		NoteType:  noteType(&typ),
		Timestamp: s.now(),
	}

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.requirePatient(ctx, patientID); err != nil {
			return err
		}
		if !utf8.Valid(content) {
			return errNotUTF8
		}
		if strings.TrimSpace(string(content)) == "" {
			return errors.BadRequest("Uploaded file is empty", nil)
		}
		n.Content = string(content)
		return s.create(ctx, n)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("patient_id", patientID).
		Int64("note_id", n.ID).
		Int("bytes", len(content)).
		Msg("Note uploaded")
	s.events.Emit(ctx, messaging.NoteCreated, n)
	return n, nil
}

func (s *Service) GetNote(ctx context.Context, patientID, noteID int64) (*model.Note, error) {
	var n *model.Note
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.ownedNote(ctx, patientID, noteID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// UpdateNote applies the non-nil fields of req. A request without fields
// returns the note unchanged.
func (s *Service) UpdateNote(ctx context.Context, patientID, noteID int64, req *model.NoteUpdate) (*model.Note, error) {
	var n *model.Note
	changed := false

	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.ownedNote(ctx, patientID, noteID)
		if err != nil {
			return err
		}

		if req.Content != nil {
			n.Content = *req.Content
			changed = true
		}
		if req.NoteType != nil {
			n.NoteType = noteType(req.NoteType)
			changed = true
		}
		if !changed {
			return nil
		}

		if err := s.store.Notes().Update(ctx, n); err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.events.Emit(ctx, messaging.NoteUpdated, n)
	}
	return n, nil
}

func (s *Service) DeleteNote(ctx context.Context, patientID, noteID int64) error {
	var n *model.Note
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.ownedNote(ctx, patientID, noteID)
		if err != nil {
			return err
		}
		if err := s.store.Notes().Delete(ctx, noteID); err != nil {
			return fmt.Errorf("failed to delete note: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.events.Emit(ctx, messaging.NoteDeleted, n)
	return nil
}

func (s *Service) ListNotes(ctx context.Context, q query.NoteQuery) (*model.NotePage, error) {
	var (
		notes []*model.Note
		total int
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.requirePatient(ctx, q.PatientID); err != nil {
			return err
		}

		var err error
		notes, total, err = s.store.Notes().ListByPatient(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to list notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	meta := q.Window.Meta(total)
	return &model.NotePage{
		Notes: notes,
		PageMeta: model.PageMeta{
			Total: total,
			Page:  meta.Page,
			Size:  meta.Size,
			Pages: meta.Pages,
		},
	}, nil
}

// Summarize renders the summary over all of the patient's notes.
func (s *Service) Summarize(ctx context.Context, patientID int64) (*model.Summary, error) {
	var (
		patient *model.Patient
		notes   []*model.Note
	)
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		var err error
		patient, err = s.requirePatient(ctx, patientID)
		if err != nil {
			return err
		}

		notes, _, err = s.store.Notes().ListByPatient(ctx, query.NoteQuery{
			PatientID: patientID,
			Sort:      query.NoteSortTimestamp,
			Direction: query.Ascending,
			Window:    query.All(),
		})
		if err != nil {
			return fmt.Errorf("failed to load notes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := summary.Synthesize(patient, notes, s.now())
	return &out, nil
}
