package engine

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// maxBody caps how much of a page is read into memory.
const maxBody = 10 << 20

// readBody decompresses resp according to Content-Encoding and converts it
// to UTF-8 according to the declared or sniffed charset. Since requests set
// Accept-Encoding themselves, net/http leaves decompression to us.
func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("engine: gzip body: %w", err)
		}
		defer gz.Close()
		r = gz
	case "deflate":
		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, fmt.Errorf("engine: read body: %w", err)
		}
		r = inflate(raw)
	case "br":
		r = brotli.NewReader(resp.Body)
	default:
		return nil, fmt.Errorf("engine: unsupported content-encoding %q", resp.Header.Get("Content-Encoding"))
	}

	body, err := io.ReadAll(io.LimitReader(r, maxBody))
	if err != nil {
		return nil, fmt.Errorf("engine: read body: %w", err)
	}
	return toUTF8(body, resp.Header.Get("Content-Type")), nil
}

// inflate handles both zlib-wrapped and raw deflate streams; servers send
// either under "deflate".
func inflate(raw []byte) io.Reader {
	if zr, err := zlib.NewReader(bytes.NewReader(raw)); err == nil {
		return zr
	}
	return flate.NewReader(bytes.NewReader(raw))
}

func toUTF8(body []byte, contentType string) []byte {
	cr, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return body
	}
	out, err := io.ReadAll(cr)
	if err != nil {
		return body
	}
	return out
}
