package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	err := NewValidationError("bad input", map[string]any{"field": "title"})
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))

	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, "title", domainErr.Details["field"])

	err = NewNotFound("ticket", nil)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "ticket not found", err.Error())

	err = NewForbidden("nope")
	assert.True(t, IsForbidden(err))

	err = NewUnauthorized("who are you")
	assert.True(t, HasCode(err, CodeUnauthorized))
}

func TestHasCodeTraversesWrapping(t *testing.T) {
	inner := NewForbidden("scope violation")
	wrapped := fmt.Errorf("handling request: %w", inner)
	assert.True(t, IsForbidden(wrapped))
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	de := ToDomainError(NewNotFound("ticket", nil))
	require.NotNil(t, de)
	assert.Equal(t, CodeNotFound, de.Code)

	de = ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, de)
	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)

	de = ToDomainError(errors.New("boom"))
	require.NotNil(t, de)
	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, "internal server error", de.Message)
	assert.ErrorContains(t, de, "boom")
}
