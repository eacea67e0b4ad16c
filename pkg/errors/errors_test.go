package pkgerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("insert marker: %w", NewDuplicateKeyError(errors.New("pq: 23505")))

	assert.True(t, errors.Is(err, ErrDuplicateKey))
	assert.False(t, errors.Is(err, ErrNonExistingKey))
	assert.True(t, IsDuplicateKeyError(err))
	assert.Equal(t, CodeDuplicateKey, GetErrorCode(err))
}

func TestAppErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("broker down")
	err := NewTransportError(cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsTransportError(err))
	assert.Equal(t, "[-1006] unable to publish event: broker down", err.Error())
}

func TestGetErrorCode_Unknown(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
	assert.False(t, IsValidationError(nil))
	assert.Equal(t, "[-1004] quantity must be positive", NewValidationError("quantity must be positive").Error())
}
