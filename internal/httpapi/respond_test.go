package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/localmart/internal/apperr"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "not found",
			err:      apperr.New(apperr.KindNotFound, "order not found"),
			wantCode: http.StatusNotFound,
			wantBody: "order not found",
		},
		{
			name:     "availability conflict",
			err:      apperr.New(apperr.KindNotAvailable, "listing is not available for purchase"),
			wantCode: http.StatusConflict,
			wantBody: "listing is not available for purchase",
		},
		{
			name:     "invalid transition",
			err:      apperr.New(apperr.KindInvalidTransition, "order must be shipped before completion"),
			wantCode: http.StatusConflict,
			wantBody: "order must be shipped before completion",
		},
		{
			name:     "untyped errors do not leak",
			err:      errors.New("pq: connection refused"),
			wantCode: http.StatusInternalServerError,
			wantBody: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/orders/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, respondError(c, tt.err))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["error"])
		})
	}
}

func TestUserID(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := userID(c)
	assert.False(t, ok)

	c.Set("user_id", "")
	_, ok = userID(c)
	assert.False(t, ok)

	c.Set("user_id", "user-1")
	id, ok := userID(c)
	assert.True(t, ok)
	assert.Equal(t, "user-1", id)
}
