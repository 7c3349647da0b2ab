package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteMessage(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "invalid parameters"},
		{http.StatusUnauthorized, "authentication required"},
		{http.StatusNotFound, "not found"},
		{http.StatusUnprocessableEntity, "validation failed"},
		{http.StatusInternalServerError, "internal server error"},
		{http.StatusBadGateway, "request failed"},
		{0, "request failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RemoteMessage(tt.status), "status %d", tt.status)
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("hold: %w", Validation("cart is empty"))
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("x")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(State("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(Remote(http.StatusNotFound, nil)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(Remote(http.StatusInternalServerError, nil)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(Transport(errors.New("dial tcp"))))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Transport(errors.New("connection refused"))
	assert.Equal(t, "request failed: connection refused", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
