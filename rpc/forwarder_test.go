package rpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwarderPreservesHeadersAndBody(t *testing.T) {
	var gotMethod, gotPath, gotHeader, gotBody string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("X-Miner-Id")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	fw := NewForwarder(time.Second)

	header := http.Header{}
	header.Set("X-Miner-Id", "miner-1")

	resp, err := fw.Forward(context.Background(), upstream.URL, "/mining/solution", http.MethodPost, header, []byte(`{"n":"1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/mining/solution", gotPath)
	assert.Equal(t, "miner-1", gotHeader)
	assert.Equal(t, `{"n":"1"}`, gotBody)
}

func TestForwarderGetSendsNoBody(t *testing.T) {
	var gotBody string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	fw := NewForwarder(time.Second)

	resp, err := fw.Forward(context.Background(), upstream.URL, "/info", http.MethodGet, nil, []byte("ignored"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, gotBody)
}

func TestForwarderPropagatesTransportErrors(t *testing.T) {
	fw := NewForwarder(time.Second)

	_, err := fw.Forward(context.Background(), "http://127.0.0.1:1", "/", http.MethodGet, nil, nil)
	assert.Error(t, err)
}

func TestForwardJSONSerializesPayload(t *testing.T) {
	var gotType, gotBody string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	fw := NewForwarder(time.Second)

	resp, err := fw.ForwardJSON(context.Background(), upstream.URL, "/api/share", map[string]string{"pk": "abc"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"pk":"abc"}`, gotBody)
}
