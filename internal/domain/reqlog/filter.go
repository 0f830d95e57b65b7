package reqlog

import (
	"maps"
	"net/http"
	"slices"
	"strings"
)

// FilterSpec describes a projection. Allow is applied in order and may
// contain duplicates; Deny is treated as a set.
type FilterSpec struct {
	Allow []string
	Deny  []string
}

// Accessor reads one field path from a source view. Returning false omits
// the field from the projection.
type Accessor func(src map[string]any, path string) (any, bool)

// DefaultAccessor reads a dotted path with Get.
func DefaultAccessor(src map[string]any, path string) (any, bool) {
	return Get(src, path)
}

// HeaderDenylist is a case-folded set of header names removed from a
// projected "headers" field.
type HeaderDenylist map[string]struct{}

// NewHeaderDenylist builds a denylist from header names in any case.
func NewHeaderDenylist(names ...string) HeaderDenylist {
	d := make(HeaderDenylist, len(names))
	for _, n := range names {
		d[strings.ToLower(n)] = struct{}{}
	}
	return d
}

// Contains reports whether name is denylisted, ignoring case.
func (d HeaderDenylist) Contains(name string) bool {
	_, ok := d[strings.ToLower(name)]
	return ok
}

// Project copies the allow-listed paths of src into a new map. It returns nil
// when nothing was written, so callers can omit the whole section instead of
// logging an empty object.
//
// Deny entries nested below a written allow path are trimmed from the
// output. A deny entry equal to an allow entry is ignored. The header
// denylist only applies to the "headers" path and only when acc is nil.
func Project(src map[string]any, spec FilterSpec, acc Accessor, headerDeny HeaderDenylist) map[string]any {
	if src == nil || len(spec.Allow) == 0 {
		return nil
	}

	defaultAcc := acc == nil
	if defaultAcc {
		acc = DefaultAccessor
	}

	out := make(map[string]any, len(spec.Allow))
	written := make([]string, 0, len(spec.Allow))
	for _, path := range spec.Allow {
		v, ok := acc(src, path)
		if !ok || v == nil {
			continue
		}
		v = cloneValue(v)
		if path == "headers" && defaultAcc && len(headerDeny) > 0 {
			v = redactHeaders(v, headerDeny)
		}
		Set(out, path, v)
		written = append(written, path)
	}
	if len(written) == 0 {
		return nil
	}

	for _, deny := range spec.Deny {
		for _, w := range written {
			if strings.HasPrefix(deny, w+".") {
				Delete(out, deny)
				break
			}
		}
	}
	return out
}

// ProjectBody filters a request body. The effective allow-list is chosen as:
//
//  1. bodyDeny set and bodyAllow empty: every top-level key minus bodyDeny.
//  2. requestAllow contains "body" and both body lists are empty: every key.
//  3. otherwise: bodyAllow.
//
// An explicit bodyAllow entry wins over a bodyDeny entry for the same field.
// Non-object bodies are only passed through whole in case 2.
func ProjectBody(body any, requestAllow, bodyAllow, bodyDeny []string, acc Accessor) (any, bool) {
	if body == nil {
		return nil, false
	}
	if s, ok := body.(string); ok && s == "" {
		return nil, false
	}

	m, isMap := body.(map[string]any)
	var allow []string
	switch {
	case len(bodyDeny) > 0 && len(bodyAllow) == 0:
		if !isMap {
			return nil, false
		}
		for _, k := range sortedKeys(m) {
			if !slices.Contains(bodyDeny, k) {
				allow = append(allow, k)
			}
		}
	case len(bodyAllow) == 0 && slices.Contains(requestAllow, "body"):
		if !isMap {
			return body, true
		}
		allow = sortedKeys(m)
	default:
		if !isMap {
			return nil, false
		}
		allow = bodyAllow
	}

	out := Project(m, FilterSpec{Allow: allow, Deny: bodyDeny}, acc, nil)
	if out == nil {
		return nil, false
	}
	return out, true
}

func redactHeaders(v any, deny HeaderDenylist) any {
	switch h := v.(type) {
	case map[string]any:
		for name := range h {
			if deny.Contains(name) {
				delete(h, name)
			}
		}
		return h
	case http.Header:
		for name := range h {
			if deny.Contains(name) {
				delete(h, name)
			}
		}
		return h
	default:
		return v
	}
}

// cloneValue deep-copies the container types a view may hold so projections
// never alias the source.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case http.Header:
		return t.Clone()
	case map[string]string:
		return maps.Clone(t)
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
