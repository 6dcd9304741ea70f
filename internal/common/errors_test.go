package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInputError("bad platform")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(NewAppError("VALIDATION_ERROR", "x", ErrValidation)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("get job: %w", NotFoundError("job"))))
	assert.Equal(t, http.StatusConflict, HTTPStatus(fmt.Errorf("update: %w", ErrConflict)))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "bad platform", PublicMessage(fmt.Errorf("create: %w", InvalidInputError("bad platform"))))
	assert.Equal(t, "boom", PublicMessage(errors.New("boom")))
}
