package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorValidation(t *testing.T) {
	httpErr := mapError(&ValidationError{Field: "personA", Reason: "required"})
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	body, ok := httpErr.Message.(errorResponse)
	if assert.True(t, ok) {
		assert.Equal(t, CategoryValidation, body.Category)
	}
}

func TestMapErrorTimeout(t *testing.T) {
	httpErr := mapError(context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, httpErr.Code)
	body, ok := httpErr.Message.(errorResponse)
	if assert.True(t, ok) {
		assert.Equal(t, CategoryTimeout, body.Category)
	}
}

func TestMapErrorUnknown(t *testing.T) {
	httpErr := mapError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
	body, ok := httpErr.Message.(errorResponse)
	if assert.True(t, ok) {
		assert.Equal(t, CategoryUnknown, body.Category)
	}
}
