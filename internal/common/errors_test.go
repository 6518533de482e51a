package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NotFoundErrorf("batch x"), http.StatusNotFound},
		{InvalidInputErrorf("bad"), http.StatusBadRequest},
		{InvalidStateErrorf("wrong status"), http.StatusConflict},
		{NewAppError("AUTH_ERROR", "nope", ErrUnauthorized), http.StatusUnauthorized},
		{NewAppError("EXTRACTION_ERROR", "ocr died", ErrExtraction), http.StatusBadGateway},
		{StorageErrorf("disk gone"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, HTTPStatus(tc.err))
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	err := InvalidStateErrorf("document %s is %s", "id", "completed")
	require.ErrorIs(t, err, ErrInvalidState)

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_STATE", appErr.Code)
}

func TestValidatorCollectsErrors(t *testing.T) {
	v := NewValidator().
		Field("username", "", Required).
		Field("name", "this name is rather too long", MaxLength(5)).
		Field("id", "not-a-uuid", UUID)
	require.True(t, v.HasErrors())
	require.Len(t, v.Errors(), 3)
	require.ErrorIs(t, v.Error(), ErrInvalidInput)

	ok := NewValidator().
		Field("username", "alice", Required, MaxLength(10))
	require.False(t, ok.HasErrors())
	require.NoError(t, ok.Error())
}
