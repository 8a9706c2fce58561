package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want int
	}{
		{"not found", NotFound("Patient", nil), http.StatusNotFound},
		{"bad request", BadRequest("Invalid sort order", nil), http.StatusBadRequest},
		{"conflict keeps 400", Conflict("duplicate", nil), http.StatusBadRequest},
		{"internal", Internal(stderrors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "Patient not found", NotFound("Patient", nil).Error())
}

func TestCodeOfWrapped(t *testing.T) {
	cause := stderrors.New("sql: no rows in result set")
	err := fmt.Errorf("get patient: %w", NotFound("Patient", cause))

	assert.Equal(t, ErrNotFound, CodeOf(err))
	assert.True(t, Is(err, ErrNotFound))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrInternal, CodeOf(stderrors.New("plain")))
	assert.False(t, Is(nil, ErrInternal))
}
