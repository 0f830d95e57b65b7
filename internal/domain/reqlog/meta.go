package reqlog

import (
	"fmt"
	"maps"
	"strings"
)

// Default section keys.
const (
	DefaultRequestKey  = "req"
	DefaultResponseKey = "res"
	ResponseTimeKey    = "responseTime"
)

// Parts are the inputs merged into an entry's metadata. An empty key omits
// its section; a nil projection is absent and never written.
type Parts struct {
	Exception    map[string]any
	RequestKey   string
	Request      map[string]any
	ResponseKey  string
	Response     map[string]any
	ResponseTime *int64
	Dynamic      map[string]any
	Base         map[string]any
}

// Assemble merges parts in order (exception detail, request, response,
// response time, dynamic fields, base fields) and wraps the result under
// nesting, outermost segment first. Later parts win on key collision. When
// the request and response keys match, the response fields are merged into
// the request section.
func Assemble(p Parts, nesting []string) map[string]any {
	meta := make(map[string]any, len(p.Exception)+len(p.Dynamic)+len(p.Base)+3)
	maps.Copy(meta, p.Exception)

	if p.RequestKey != "" && p.Request != nil {
		meta[p.RequestKey] = p.Request
	}
	if p.ResponseKey != "" && p.Response != nil {
		if p.ResponseKey == p.RequestKey {
			merged := make(map[string]any, len(p.Request)+len(p.Response))
			maps.Copy(merged, p.Request)
			maps.Copy(merged, p.Response)
			meta[p.ResponseKey] = merged
		} else {
			meta[p.ResponseKey] = p.Response
		}
	}
	if p.ResponseTime != nil {
		meta[ResponseTimeKey] = *p.ResponseTime
	}

	maps.Copy(meta, p.Dynamic)
	maps.Copy(meta, p.Base)

	return Nest(meta, nesting)
}

// Nest wraps meta under path, outermost segment first. An empty path returns
// meta unchanged.
func Nest(meta map[string]any, path []string) map[string]any {
	for i := len(path) - 1; i >= 0; i-- {
		meta = map[string]any{path[i]: meta}
	}
	return meta
}

// ParseNestingPath splits a dotted meta field path into segments. An empty
// string means top level.
func ParseNestingPath(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	segs := strings.Split(s, ".")
	if err := ValidateNestingPath(segs); err != nil {
		return nil, fmt.Errorf("%q: %w", s, err)
	}
	return segs, nil
}

// ValidateNestingPath rejects empty segments.
func ValidateNestingPath(segs []string) error {
	for _, seg := range segs {
		if strings.TrimSpace(seg) == "" {
			return ErrInvalidMetaField
		}
	}
	return nil
}
