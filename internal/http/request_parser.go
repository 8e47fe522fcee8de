package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gagyebu/internal/core"
)

// maxBodyBytes bounds JSON request bodies. Receipt uploads have their own
// multipart limit.
const maxBodyBytes = 1 << 20

// maxReceiptBytes bounds a single uploaded receipt image.
const maxReceiptBytes = 10 << 20

// userID returns the opaque identity the fronting auth layer minted.
func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}

// decodeJSON reads the request body into dst, rejecting unknown fields and
// trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid request body: trailing data")
	}
	return nil
}

// parseDateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func parseDateParam(r *http.Request, name string) (core.Date, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return core.Today(), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid %s: expected YYYY-MM-DD", name)
	}
	return d, nil
}

// parseModeParam reads the analytics view mode, defaulting to monthly.
func parseModeParam(r *http.Request) (core.PeriodType, error) {
	v := strings.TrimSpace(r.URL.Query().Get("mode"))
	if v == "" {
		return core.Monthly, nil
	}
	mode := core.PeriodType(v)
	if err := mode.Validate(); err != nil {
		return "", errors.New("invalid mode: expected weekly or monthly")
	}
	return mode, nil
}

// parseMonthsParam reads the trend span, one of 3, 6, or 12 months.
func parseMonthsParam(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("months"))
	if v == "" {
		return 6, nil
	}
	months, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid months: expected 3, 6 or 12")
	}
	switch months {
	case 3, 6, 12:
		return months, nil
	}
	return 0, errors.New("invalid months: expected 3, 6 or 12")
}

// parseRangeParams reads from/to query parameters, defaulting to the
// calendar month containing today.
func parseRangeParams(r *http.Request) (from, to core.Date, err error) {
	q := r.URL.Query()
	fromStr := strings.TrimSpace(q.Get("from"))
	toStr := strings.TrimSpace(q.Get("to"))

	if fromStr == "" && toStr == "" {
		today := core.Today()
		from = core.NewDate(today.Year(), int(today.Month()), 1)
		return from, from.AddMonths(1).AddDays(-1), nil
	}
	if fromStr == "" || toStr == "" {
		return from, to, errors.New("from and to must be given together")
	}
	if from, err = core.ParseDate(fromStr); err != nil {
		return from, to, errors.New("invalid from: expected YYYY-MM-DD")
	}
	if to, err = core.ParseDate(toStr); err != nil {
		return from, to, errors.New("invalid to: expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return from, to, errors.New("to precedes from")
	}
	return from, to, nil
}

// parseYearMonthParams reads year/month for the calendar view, defaulting
// to the current month.
func parseYearMonthParams(r *http.Request) (core.Date, error) {
	q := r.URL.Query()
	today := core.Today()
	year, month := today.Year(), int(today.Month())

	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1970 || y > 9999 {
			return core.Date{}, errors.New("invalid year")
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return core.Date{}, errors.New("invalid month")
		}
		month = m
	}
	return core.NewDate(year, month, 1), nil
}

// sanitizeInput trims whitespace and strips control characters.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
