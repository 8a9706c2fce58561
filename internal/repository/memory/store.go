// Package memory is an in-process entity store. It backs the memory
// database driver and serves as the store double in tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/records-api/internal/model"
	"github.com/jwalitptl/records-api/internal/repository"
)

type txKey struct{}

type state struct {
	patients      map[int64]*model.Patient
	notes         map[int64]*model.Note
	nextPatientID int64
	nextNoteID    int64
}

func (s state) clone() state {
	out := state{
		patients:      make(map[int64]*model.Patient, len(s.patients)),
		notes:         make(map[int64]*model.Note, len(s.notes)),
		nextPatientID: s.nextPatientID,
		nextNoteID:    s.nextNoteID,
	}
	for id, p := range s.patients {
		out.patients[id] = clonePatient(p)
	}
	for id, n := range s.notes {
		out.notes[id] = cloneNote(n)
	}
	return out
}

// Store keeps everything behind one mutex. A transaction holds the mutex
// for its whole duration; its first write takes a snapshot that is
// restored on failure.
type Store struct {
	mu    sync.Mutex
	state state
	now   func() time.Time

	patients *PatientRepository
	notes    *NoteRepository
}

type Option func(*Store)

// WithClock overrides the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		state: state{
			patients: make(map[int64]*model.Patient),
			notes:    make(map[int64]*model.Note),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.patients = &PatientRepository{s: s}
	s.notes = &NoteRepository{s: s}
	return s
}

func (s *Store) Patients() repository.PatientRepository { return s.patients }

func (s *Store) Notes() repository.NoteRepository { return s.notes }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

// tx is the per-transaction state carried in the context.
type tx struct {
	snapshot *state
}

func txFrom(ctx context.Context) *tx {
	t, _ := ctx.Value(txKey{}).(*tx)
	return t
}

func inTx(ctx context.Context) bool {
	return txFrom(ctx) != nil
}

// WithTx runs fn under the store lock, rolling back every change made
// through the passed context when fn fails or panics.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if inTx(ctx) {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{}
	defer func() {
		if p := recover(); p != nil {
			s.rollback(t)
			panic(p)
		}
		if err != nil {
			s.rollback(t)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, t))
}

func (s *Store) rollback(t *tx) {
	if t.snapshot != nil {
		s.state = *t.snapshot
	}
}

// beforeWrite snapshots the state on the first write of the transaction
// bound to ctx. Reads never pay for the copy. Callers hold the mutex.
func (s *Store) beforeWrite(ctx context.Context) {
	t := txFrom(ctx)
	if t == nil || t.snapshot != nil {
		return
	}
	snapshot := s.state.clone()
	t.snapshot = &snapshot
}

// lock takes the store mutex unless ctx already runs inside WithTx.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if inTx(ctx) {
		return func() {}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	return s.mu.Unlock, nil
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func clonePatient(p *model.Patient) *model.Patient {
	c := *p
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func cloneNote(n *model.Note) *model.Note {
	c := *n
	if n.UpdatedAt != nil {
		t := *n.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, repository.ErrNotFound)
}
