package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/storemirror/backend/internal/domain/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeJobRunning, http.StatusConflict},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_STATE", ErrCodeInvalidState},
		{ErrCodeJobRunning, ErrCodeJobRunning},
		{"SOMETHING_ELSE", ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNewPagedResponse(t *testing.T) {
	t.Run("renders pagination under meta", func(t *testing.T) {
		resp := NewPagedResponse([]string{"a"}, mirror.NewPagination(21, 10, 10))

		raw, err := json.Marshal(resp)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, true, decoded["success"])
		assert.NotContains(t, decoded, "error")

		meta := decoded["meta"].(map[string]any)
		pagination := meta["pagination"].(map[string]any)
		assert.Equal(t, float64(21), pagination["totalRecords"])
		assert.Equal(t, float64(3), pagination["totalPages"])
		assert.Equal(t, float64(2), pagination["currentPage"])
		assert.Equal(t, true, pagination["hasNext"])
	})

	t.Run("nil data becomes an empty array", func(t *testing.T) {
		var data []int
		raw, err := json.Marshal(NewPagedResponse(data, mirror.NewPagination(0, 10, 0)))
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"data":[]`)
	})
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeNotFound, "order not found", "req-1")

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "order not found", resp.Error.Message)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Nil(t, resp.Meta)
}
