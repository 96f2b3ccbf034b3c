package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/praxislegal/praxis/internal/domain"
	"github.com/praxislegal/praxis/internal/handler"
)

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.ENOTIMPL, http.StatusNotImplemented},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.ETRANSPORT, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.status, handler.ErrorCodeToHTTPStatus(tt.code))
		})
	}
}
