package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/records-api/internal/repository"
	"github.com/jwalitptl/records-api/pkg/metrics"
)

// Store is the postgres entity store. Its repositories share one pool and
// the transaction carried by WithTx.
type Store struct {
	BaseRepository
	patients *patientRepository
	notes    *noteRepository
}

func NewStore(db *sqlx.DB, m *metrics.Metrics) *Store {
	base := NewBaseRepository(db, m)
	return &Store{
		BaseRepository: base,
		patients:       &patientRepository{BaseRepository: base},
		notes:          &noteRepository{BaseRepository: base},
	}
}

func (s *Store) Patients() repository.PatientRepository { return s.patients }

func (s *Store) Notes() repository.NoteRepository { return s.notes }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }
