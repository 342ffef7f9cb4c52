package rpc

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name            string
		status          int
		header          http.Header
		body            string
		expectedType    string
		expectedHeaders map[string]string
	}{
		{
			name:   "strips content type and length",
			status: 200,
			header: http.Header{
				"Content-Type":   []string{"application/json"},
				"Content-Length": []string{"13"},
				"X-Request-Id":   []string{"abc123"},
			},
			body:         `{"msg":"abc"}`,
			expectedType: "application/json",
			expectedHeaders: map[string]string{
				"X-Request-Id": "abc123",
			},
		},
		{
			name:   "collapses multi valued headers",
			status: 502,
			header: http.Header{
				"X-Trace": []string{"a", "b", "c"},
			},
			body:         "bad gateway",
			expectedType: "",
			expectedHeaders: map[string]string{
				"X-Trace": "a b c",
			},
		},
		{
			name:            "empty response",
			status:          204,
			header:          http.Header{},
			body:            "",
			expectedType:    "",
			expectedHeaders: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{
				StatusCode: tt.status,
				Header:     tt.header,
				Body:       io.NopCloser(bytes.NewReader([]byte(tt.body))),
			}

			proxyResp, err := Translate(resp)
			require.NoError(t, err)

			assert.Equal(t, tt.status, proxyResp.StatusCode)
			assert.Equal(t, tt.body, string(proxyResp.Body))
			assert.Equal(t, tt.expectedType, proxyResp.ContentType)

			// Content-Type/Content-Length must never survive translation
			assert.Empty(t, proxyResp.Headers.Get("Content-Type"))
			assert.Empty(t, proxyResp.Headers.Get("Content-Length"))

			for name, val := range tt.expectedHeaders {
				assert.Equal(t, val, proxyResp.Headers.Get(name))
			}
		})
	}
}
