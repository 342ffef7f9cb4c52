package rpc

import (
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/sigmapool/mining-proxy/types"
)

// Translate normalizes a raw upstream response. Multi-valued headers are
// collapsed into single space-joined strings, Content-Type is extracted
// into its own field and removed together with Content-Length (the length
// is recomputed by the transport for the re-emitted body).
func Translate(resp *http.Response) (*types.ProxyResponse, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "could not read upstream response body")
	}

	headers := make(http.Header, len(resp.Header))
	for name, vals := range resp.Header {
		headers.Set(name, strings.Join(vals, " "))
	}

	contentType := headers.Get("Content-Type")
	headers.Del("Content-Type")
	headers.Del("Content-Length")

	return &types.ProxyResponse{
		StatusCode:  resp.StatusCode,
		Headers:     headers,
		Body:        body,
		ContentType: contentType,
	}, nil
}
