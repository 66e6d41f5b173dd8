package openapi

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// encodedDocument is one serialized form of the document, kept together
// with its gzip body and entity tags.
type encodedDocument struct {
	contentType string
	body        []byte
	gzipped     []byte
	etag        string
	gzipETag    string
}

func newEncodedDocument(contentType string, body []byte) (*encodedDocument, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, errors.Wrap(err, "gzip document")
	}
	if _, err := zw.Write(body); err != nil {
		return nil, errors.Wrap(err, "gzip document")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "gzip document")
	}

	sum := sha256.Sum256(body)
	tag := hex.EncodeToString(sum[:16])

	return &encodedDocument{
		contentType: contentType,
		body:        body,
		gzipped:     buf.Bytes(),
		etag:        `"` + tag + `"`,
		gzipETag:    `"` + tag + `-gzip"`,
	}, nil
}

// serve writes the document, gzipped when the client accepts it. A
// matching If-None-Match yields 304 without a body.
func (d *encodedDocument) serve(w http.ResponseWriter, r *http.Request, cacheControl string) {
	body, etag := d.body, d.etag
	gz := acceptsGzip(r)
	if gz {
		body, etag = d.gzipped, d.gzipETag
	}

	h := w.Header()
	h.Set("Content-Type", d.contentType)
	h.Set("ETag", etag)
	h.Add("Vary", "Accept-Encoding")
	if cacheControl != "" {
		h.Set("Cache-Control", cacheControl)
	}

	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if gz {
		h.Set("Content-Encoding", "gzip")
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// etagMatch reports whether an If-None-Match header matches etag using weak
// comparison.
func etagMatch(header, etag string) bool {
	if header == "" {
		return false
	}
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.TrimPrefix(part, "W/") == etag {
			return true
		}
	}
	return false
}

// acceptsGzip reports whether Accept-Encoding admits gzip with a non-zero
// quality, directly or through the * wildcard.
func acceptsGzip(r *http.Request) bool {
	gzipQ, wildQ := -1.0, -1.0

	for part := range strings.SplitSeq(r.Header.Get("Accept-Encoding"), ",") {
		name, q := parseEncoding(strings.TrimSpace(part))
		switch strings.ToLower(name) {
		case "gzip", "x-gzip":
			gzipQ = q
		case "*":
			wildQ = q
		}
	}

	if gzipQ < 0 {
		gzipQ = wildQ
	}
	return gzipQ > 0
}

// parseEncoding splits "gzip;q=0.8" into the coding and its quality. A
// missing quality is 1, an unparsable one 0.
func parseEncoding(s string) (string, float64) {
	name, params, ok := strings.Cut(s, ";")
	name = strings.TrimSpace(name)
	if !ok {
		return name, 1
	}

	key, val, found := strings.Cut(strings.TrimSpace(params), "=")
	if !found || strings.TrimSpace(key) != "q" {
		return name, 1
	}

	q, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return name, 0
	}
	return name, q
}
