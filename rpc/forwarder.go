package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger = logrus.StandardLogger().WithField("module", "rpc")

// Forwarder sends inbound requests to an upstream base URL. It does not
// retry; retry policy belongs to the caller.
type Forwarder struct {
	client *http.Client
}

// NewForwarder creates a forwarder with a pooled transport and a per-call timeout.
func NewForwarder(timeout time.Duration) *Forwarder {
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Forwarder{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Forward sends method/header/body to baseURL+path and returns the raw
// upstream response. GET requests are sent without a body; all inbound
// headers are preserved on the outbound call.
func (fw *Forwarder) Forward(ctx context.Context, baseURL, path, method string, header http.Header, body []byte) (*http.Response, error) {
	requrl := strings.TrimSuffix(baseURL, "/") + path

	var reqBody io.Reader
	if method != http.MethodGet && len(body) > 0 {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, requrl, reqBody)
	if err != nil {
		return nil, errors.Wrapf(err, "could not build upstream request for %v", requrl)
	}
	for key, vals := range header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	t0 := time.Now()
	resp, err := fw.client.Do(req)
	if err != nil {
		return nil, err
	}
	logger.Debugf("upstream %v call: %v [%v ms]", method, requrl, time.Since(t0).Milliseconds())

	return resp, nil
}

// ForwardJSON serializes a structured payload and POSTs it to baseURL+path.
func (fw *Forwarder) ForwardJSON(ctx context.Context, baseURL, path string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize request payload")
	}

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return fw.Forward(ctx, baseURL, path, http.MethodPost, header, body)
}
