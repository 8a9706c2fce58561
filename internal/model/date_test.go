package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var p PatientCreate
	err := json.Unmarshal([]byte(`{"name":"John Doe","date_of_birth":"1985-06-15","medical_record_number":"MRN001"}`), &p)
	require.NoError(t, err)
	require.NotNil(t, p.DateOfBirth)
	assert.Equal(t, NewDate(1985, time.June, 15), *p.DateOfBirth)

	out, err := json.Marshal(Patient{DateOfBirth: NewDate(1990, time.November, 3)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"date_of_birth":"1990-11-03"`)
	assert.Contains(t, string(out), `"updated_at":null`)
}

func TestDateRejectsDateTime(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"1985-06-15T10:00:00Z"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`19850615`), &d))
}

func TestDateScan(t *testing.T) {
	var d Date

	require.NoError(t, d.Scan(time.Date(1978, time.March, 22, 0, 0, 0, 0, time.Local)))
	assert.Equal(t, "1978-03-22", d.String())

	require.NoError(t, d.Scan([]byte("1990-11-03")))
	assert.Equal(t, "1990-11-03", d.String())

	require.NoError(t, d.Scan("1985-06-15T00:00:00Z"))
	assert.Equal(t, "1985-06-15", d.String())

	assert.Error(t, d.Scan(42))
}
