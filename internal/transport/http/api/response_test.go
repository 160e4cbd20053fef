package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailWithDetailsEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "payload validation failed", map[string]any{"fields": []string{"date"}}, "req-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string              `json:"code"`
			Details map[string][]string `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "validation_error", body.Error.Code)
	assert.Equal(t, []string{"date"}, body.Error.Details["fields"])
	assert.Equal(t, "req-1", body.RequestID)
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, map[string]string{"id": "x"}, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"x"}}`, rec.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		limit  int64
		ok     bool
		status int
		code   string
	}{
		{name: "valid", body: `{"date":"2025-03-12"}`, limit: 1024, ok: true},
		{name: "malformed", body: `{"date":`, limit: 1024, status: http.StatusBadRequest, code: CodeInvalidPayload},
		{name: "over limit", body: `{"date":"` + strings.Repeat("x", 256) + `"}`, limit: 64, status: http.StatusRequestEntityTooLarge, code: CodePayloadTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			req.Body = http.MaxBytesReader(rec, req.Body, tc.limit)

			var dst struct {
				Date string `json:"date"`
			}
			ok := DecodeJSON(rec, req, &dst, "req-2")
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, "2025-03-12", dst.Date)
				return
			}
			assert.Equal(t, tc.status, rec.Code)
			var env Envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
			require.NotNil(t, env.Error)
			assert.Equal(t, tc.code, env.Error.Code)
			assert.Equal(t, "req-2", env.RequestID)
		})
	}
}
