package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("Title and artist are required"), KindValidation},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("Song not found")), KindNotFound},
		{"plain error", errors.New("boom"), KindInternal},
		{"internal", Internal("Error deleting song", errors.New("disk full")), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMessagesAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("Error uploading song", cause)

	assert.Equal(t, "Error uploading song: connection refused", err.Error())
	assert.Equal(t, "Error uploading song", MessageOf(err))
	assert.Equal(t, "connection refused", Cause(err))
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "Internal server error", MessageOf(errors.New("raw")))
	assert.Equal(t, "raw", Cause(errors.New("raw")))
}

func TestSentinelComparison(t *testing.T) {
	sentinel := Conflict("Song already in favorites")
	err := fmt.Errorf("add: %w", Conflict("Song already in favorites"))

	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, Conflict("Song not in favorites"))
	assert.Equal(t, "conflict", KindConflict.String())
}
