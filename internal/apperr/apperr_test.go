package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeDuplicateIdentifier, http.StatusConflict},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeUpstreamFailure, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{Code("Unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.code))
		})
	}
}

func TestError_UnwrapAndCode(t *testing.T) {
	sentinel := errors.New("boom")
	err := fmt.Errorf("outer: %w", DuplicateIdentifier("taken", sentinel))

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, CodeDuplicateIdentifier, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   Code
		wantMsg    string
	}{
		{"classified", InvalidInput("identifier is required", nil), http.StatusBadRequest, CodeInvalidInput, "identifier is required"},
		{"upstream", UpstreamFailure("payment processor unavailable", errors.New("timeout")), http.StatusBadGateway, CodeUpstreamFailure, "payment processor unavailable"},
		{"unclassified", errors.New("db exploded"), http.StatusInternalServerError, CodeInternal, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", func(c *gin.Context) { Respond(c, tt.err) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.NotContains(t, w.Body.String(), "db exploded")
		})
	}
}
