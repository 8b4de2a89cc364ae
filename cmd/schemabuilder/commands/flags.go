package commands

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// headerFlag collects repeated -H "Name: value" flags.
type headerFlag struct {
	header http.Header
}

func (h *headerFlag) String() string {
	if h == nil || len(h.header) == 0 {
		return ""
	}
	parts := make([]string, 0, len(h.header))
	for name, values := range h.header {
		parts = append(parts, name+": "+strings.Join(values, ","))
	}
	return strings.Join(parts, "; ")
}

func (h *headerFlag) Set(value string) error {
	name, v, ok := strings.Cut(value, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("invalid header %q: expected \"Name: value\"", value)
	}
	if h.header == nil {
		h.header = http.Header{}
	}
	h.header.Add(name, strings.TrimSpace(v))
	return nil
}

// queryFlag collects repeated --query name=value flags.
type queryFlag struct {
	values url.Values
}

func (q *queryFlag) String() string {
	if q == nil {
		return ""
	}
	return q.values.Encode()
}

func (q *queryFlag) Set(value string) error {
	name, v, ok := strings.Cut(value, "=")
	if !ok || name == "" {
		return fmt.Errorf("invalid query parameter %q: expected name=value", value)
	}
	if q.values == nil {
		q.values = url.Values{}
	}
	q.values.Add(name, v)
	return nil
}
