package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"
)

// maxBodyBytes bounds request bodies; every accepted payload is a handful of
// short fields.
const maxBodyBytes = 64 << 10

var errInvalidMonth = errors.New("month must use the YYYY-MM format")

// requestBody is a flat view of a JSON object or a form-encoded body. Values
// are sanitized on the way in; absent keys read as "".
type requestBody struct {
	isJSON bool
	fields map[string]string
}

// readBody decodes r's body as JSON when it looks like an object or is
// declared as JSON, and as a url-encoded form otherwise.
func readBody(r *http.Request) (*requestBody, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	b := &requestBody{fields: map[string]string{}}
	if len(raw) == 0 {
		return b, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if raw[0] != '{' && mediaType != "application/json" {
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("decode form: %w", err)
		}
		for k := range form {
			b.fields[k] = sanitizeInput(form.Get(k))
		}
		return b, nil
	}

	var obj map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	b.isJSON = true
	for k, v := range obj {
		b.fields[k] = sanitizeInput(scalarString(v))
	}
	return b, nil
}

func (b *requestBody) value(key string) string {
	return b.fields[key]
}

// decodeBody caps and reads the request body. On failure it has already
// answered with 413 or 400.
func decodeBody(w http.ResponseWriter, r *http.Request) (*requestBody, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	b, err := readBody(r)
	if err == nil {
		return b, true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	} else {
		writeError(w, http.StatusBadRequest, "malformed request body")
	}
	return nil, false
}

// scalarString renders JSON scalars as their literal text. Objects, arrays
// and null read as "".
func scalarString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// sanitizeInput trims surrounding space and drops control characters other
// than tab and line breaks.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
