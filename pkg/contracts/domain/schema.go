package domain

import "strings"

// Schema maps each column to the header name used in flat files.
type Schema struct {
	headers map[Column]string
}

// DefaultSchema uses the canonical column names as headers.
func DefaultSchema() Schema {
	headers := make(map[Column]string, len(AllColumns))
	for _, c := range AllColumns {
		headers[c] = string(c)
	}
	return Schema{headers: headers}
}

// WithHeader returns a copy of the schema with c renamed to header.
// Blank headers keep the current name.
func (s Schema) WithHeader(c Column, header string) Schema {
	out := s.copy()
	if h := strings.TrimSpace(header); h != "" {
		out.headers[c] = h
	}
	return out
}

// Header returns the file header for c.
func (s Schema) Header(c Column) string {
	if h, ok := s.headers[c]; ok && h != "" {
		return h
	}
	return string(c)
}

// Lookup resolves a file header to a column. Matching ignores surrounding
// whitespace and a UTF-8 byte order mark.
func (s Schema) Lookup(header string) (Column, bool) {
	h := strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	for _, c := range AllColumns {
		if s.Header(c) == h {
			return c, true
		}
	}
	return "", false
}

func (s Schema) copy() Schema {
	headers := make(map[Column]string, len(AllColumns))
	for _, c := range AllColumns {
		headers[c] = s.Header(c)
	}
	return Schema{headers: headers}
}
