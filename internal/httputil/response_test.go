package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/playbook/internal/errors"
)

func performWithError(t *testing.T, handle func(c *gin.Context)) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handle(c)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found maps to 404",
			err:        apperrors.Wrap(apperrors.ErrNotFound, "session not found"),
			wantStatus: http.StatusNotFound,
			wantCode:   "not_found",
		},
		{
			name:       "business rejection maps to 400 with detail",
			err:        apperrors.Wrap(apperrors.ErrRejected, "this session is full"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "rejected",
		},
		{
			name:       "conflict maps to 409",
			err:        apperrors.ErrConflict,
			wantStatus: http.StatusConflict,
			wantCode:   "conflict",
		},
		{
			name:       "invalid input maps to 422",
			err:        apperrors.Wrap(apperrors.ErrInvalidInput, "email: must be a valid email address"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "invalid_input",
		},
		{
			name:       "unknown error maps to 500 without details",
			err:        assert.AnError,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performWithError(t, func(c *gin.Context) {
				HandleErrorGin(c, tt.err, nil)
			})

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Error)
		})
	}
}

func TestHandleErrorGin_RejectionDetailIsHumanReadable(t *testing.T) {
	err := apperrors.Wrap(apperrors.ErrRejected, "this session is already in the past")
	w := performWithError(t, func(c *gin.Context) {
		HandleErrorGin(c, err, nil)
	})

	resp := decodeError(t, w)
	assert.Contains(t, resp.Message, "this session is already in the past")
}

func TestHandleBadRequestGin(t *testing.T) {
	w := performWithError(t, func(c *gin.Context) {
		HandleBadRequestGin(c, assert.AnError, nil)
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", decodeError(t, w).Error)
}

func TestHandleValidationErrorGin(t *testing.T) {
	w := performWithError(t, func(c *gin.Context) {
		HandleValidationErrorGin(c, assert.AnError, nil)
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error)
}
