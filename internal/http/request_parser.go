// Package http provides the JSON API of betledger.
//
// This file holds the request parsing helpers shared by the handlers:
// month query parameters, JSON bodies and CSV uploads.
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
	"time"

	"betledger/internal/core"
	"betledger/internal/services"
)

const (
	maxJSONBody       = 1 << 20  // 1 MiB
	maxCSVBody        = 10 << 20 // 10 MiB
	multipartOverhead = 1 << 20  // form parts and boundaries around the file
)

// errMalformedBody marks a request body that could not be decoded at all.
var errMalformedBody = errors.New("malformed request body")

// errBodyTooLarge marks an upload over its size limit.
var errBodyTooLarge = errors.New("request body too large")

// MonthParams holds a year and a zero-based month.
type MonthParams struct {
	Year   int
	Month0 int
}

// ParseMonthParams reads year and month (1-12) from the query, defaulting
// each to the current one. An unparseable or out of range value is an error.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{Year: now.Year(), Month0: int(now.Month()) - 1}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("%w: year %q", core.ErrInvalidMonth, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("%w: month %q", core.ErrInvalidMonth, v)
		}
		params.Month0 = m - 1
	}
	return params, nil
}

// decodeJSON reads a single JSON object into dst. Values rejected by a
// domain type's decoder keep their validation error; anything else is
// reported as errMalformedBody.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if services.IsValidation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errMalformedBody)
	}
	return nil
}

// csvBody returns the uploaded CSV: the multipart field "file" when the
// request is multipart, the raw body otherwise. A file larger than
// maxCSVBody is rejected whole, never cut short.
func csvBody(w http.ResponseWriter, r *http.Request) (io.Reader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxCSVBody+multipartOverhead)
		if err := r.ParseMultipartForm(maxCSVBody); err != nil {
			if tooLarge(err) {
				return nil, fmt.Errorf("%w: upload exceeds %d bytes", errBodyTooLarge, maxCSVBody)
			}
			return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("%w: missing file field", errMalformedBody)
		}
		defer f.Close()
		return readCSV(f)
	}
	return readCSV(http.MaxBytesReader(w, r.Body, maxCSVBody))
}

// readCSV reads at most maxCSVBody bytes and fails if more remain.
func readCSV(src io.Reader) (io.Reader, error) {
	b, err := io.ReadAll(io.LimitReader(src, maxCSVBody+1))
	if err != nil {
		if tooLarge(err) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", errBodyTooLarge, maxCSVBody)
		}
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if len(b) > maxCSVBody {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", errBodyTooLarge, maxCSVBody)
	}
	return bytes.NewReader(b), nil
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
