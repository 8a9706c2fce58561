package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/records-api/internal/query"
	"github.com/jwalitptl/records-api/internal/repository"
)

func TestPatientListSQL(t *testing.T) {
	w, err := query.NewWindow(10, 5)
	require.NoError(t, err)

	countSQL, pageSQL, countArgs, pageArgs := patientListSQL(query.PatientQuery{
		Search:    "o'_",
		Sort:      query.PatientSortName,
		Direction: query.Descending,
		Window:    w,
	})

	assert.Equal(t, `SELECT COUNT(*) FROM patients WHERE name ILIKE $1 ESCAPE '\'`, countSQL)
	assert.Equal(t,
		`SELECT `+patientColumns+` FROM patients WHERE name ILIKE $1 ESCAPE '\' ORDER BY name DESC NULLS LAST, id ASC LIMIT $2 OFFSET $3`,
		pageSQL)
	assert.Equal(t, []interface{}{`%o'\_%`}, countArgs)
	assert.Equal(t, []interface{}{`%o'\_%`, 5, 10}, pageArgs)
}

func TestPatientListSQLWithoutSearch(t *testing.T) {
	w, err := query.NewWindow(0, 50)
	require.NoError(t, err)

	countSQL, pageSQL, countArgs, pageArgs := patientListSQL(query.PatientQuery{
		Sort:      query.PatientSortID,
		Direction: query.Ascending,
		Window:    w,
	})

	assert.Equal(t, `SELECT COUNT(*) FROM patients`, countSQL)
	assert.Equal(t, `SELECT `+patientColumns+` FROM patients ORDER BY id ASC NULLS FIRST, id ASC LIMIT $1 OFFSET $2`, pageSQL)
	assert.Empty(t, countArgs)
	assert.Equal(t, []interface{}{50, 0}, pageArgs)
}

func TestNoteListSQLUnbounded(t *testing.T) {
	countSQL, pageSQL, countArgs, pageArgs := noteListSQL(query.NoteQuery{
		PatientID: 7,
		Sort:      query.NoteSortTimestamp,
		Direction: query.Ascending,
		Window:    query.All(),
	})

	assert.Equal(t, `SELECT COUNT(*) FROM patient_notes WHERE patient_id = $1`, countSQL)
	assert.Equal(t, `SELECT `+noteColumns+` FROM patient_notes WHERE patient_id = $1 ORDER BY "timestamp" ASC NULLS FIRST, id ASC OFFSET $2`, pageSQL)
	assert.Equal(t, []interface{}{int64(7)}, countArgs)
	assert.Equal(t, []interface{}{int64(7), 0}, pageArgs)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate("get patient", nil))
	assert.ErrorIs(t, translate("get patient", sql.ErrNoRows), repository.ErrNotFound)

	pqDup := &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	err := translate("create patient", pqDup)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.ErrorIs(t, err, pqDup)

	pgxDup := &pgconn.PgError{Code: "23505"}
	assert.ErrorIs(t, translate("create patient", pgxDup), repository.ErrDuplicate)

	fk := &pgconn.PgError{Code: "23503"}
	assert.ErrorIs(t, translate("create note", fk), repository.ErrNotFound)

	other := errors.New("connection reset")
	err = translate("list patients", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, repository.ErrNotFound)
}

func TestLoadMigrations(t *testing.T) {
	files := fstest.MapFS{
		"002_notes.sql": {Data: []byte("CREATE TABLE b ();")},
		"001_init.sql":  {Data: []byte("CREATE TABLE a ();")},
		"README.md":     {Data: []byte("ignored")},
		"draft.sql":     {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(files)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "002_notes.sql", migrations[1].Name)
}

func TestEmbeddedMigrations(t *testing.T) {
	m := NewMigrator(nil)

	migrations, err := LoadMigrations(m.files)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Contains(t, migrations[0].SQL, "ON DELETE CASCADE")
	assert.Contains(t, migrations[0].SQL, "idx_patients_medical_record_number")
}

func TestEmbeddedMigrationsLeaveTextColumnsUnbounded(t *testing.T) {
	migrations, err := LoadMigrations(NewMigrator(nil).files)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(migrations), 2)

	var schema strings.Builder
	for _, m := range migrations {
		schema.WriteString(m.SQL)
	}
	all := schema.String()

	for _, col := range []string{
		"patients ALTER COLUMN name TYPE TEXT",
		"patients ALTER COLUMN medical_record_number TYPE TEXT",
		"patient_notes ALTER COLUMN note_type TYPE TEXT",
	} {
		assert.Contains(t, all, col)
	}
	assert.Equal(t, 2, migrations[1].Version)
}
