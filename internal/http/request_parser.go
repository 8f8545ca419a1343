package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// monthParams holds a parsed (year, month) period selector.
type monthParams struct {
	Year  int
	Month int
}

// parseMonthParams extracts year and month from query parameters,
// defaulting to the current calendar month. Non-numeric values are an
// error; range checking happens in the service layer.
func parseMonthParams(query url.Values) (monthParams, error) {
	now := time.Now()
	params := monthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return monthParams{}, fmt.Errorf("invalid year %q", v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return monthParams{}, fmt.Errorf("invalid month %q", v)
		}
		params.Month = m
	}

	return params, nil
}

// bodyParser reads a request body once and exposes string lookups over
// either a JSON object or form-encoded data. JSON numbers come back as
// their literal text so the caller's own parsing decides what is valid.
type bodyParser struct {
	jsonData map[string]json.RawMessage
	formData url.Values
}

func parseBody(r *http.Request) (*bodyParser, error) {
	p := &bodyParser{}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("parse form: %w", err)
		}
		p.formData = r.PostForm
		return p, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		p.formData = url.Values{}
		return p, nil
	}

	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()
	if err := decoder.Decode(&p.jsonData); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return p, nil
}

// getString returns the value for key as a string. JSON strings are
// unquoted, JSON numbers keep their literal text, and absent or null
// keys come back empty.
func (p *bodyParser) getString(key string) string {
	if p.formData != nil {
		return p.formData.Get(key)
	}
	raw, ok := p.jsonData[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
