package reqlog

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// Get resolves a dot-separated path against v and reports whether a value
// was found. Maps with string keys, structs (by exported field name or json
// tag), slices (by numeric index), http.Header (case-insensitive), and
// pointers to any of these are traversed. A missing segment or a nil value
// at the end of the path yields (nil, false); Get never panics.
func Get(v any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := v
	for seg := range strings.SplitSeq(path, ".") {
		next, ok := lookup(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set writes v at path inside m, creating intermediate maps as needed.
// A non-map value found at an intermediate segment is replaced.
func Set(m map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// Delete removes the value at path inside m. Missing segments are a no-op.
func Delete(m map[string]any, path string) {
	segs := strings.Split(path, ".")
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

func lookup(v any, key string) (any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		val, ok := m[key]
		if !ok || val == nil {
			return nil, false
		}
		return val, true
	case http.Header:
		return headerValue(m, key)
	}
	return lookupReflect(reflect.ValueOf(v), key)
}

func headerValue(h http.Header, key string) (any, bool) {
	vals := h.Values(key)
	if len(vals) == 0 {
		for name, vv := range h {
			if strings.EqualFold(name, key) {
				vals = vv
				break
			}
		}
	}
	if len(vals) == 0 {
		return nil, false
	}
	return strings.Join(vals, ", "), true
}

func lookupReflect(rv reflect.Value, key string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		val := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !val.IsValid() {
			return nil, false
		}
		return present(val)
	case reflect.Struct:
		t := rv.Type()
		for i := range t.NumField() {
			sf := t.Field(i)
			if !sf.IsExported() {
				continue
			}
			if sf.Name == key || jsonName(sf) == key {
				return present(rv.Field(i))
			}
		}
	case reflect.Slice, reflect.Array:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= rv.Len() {
			return nil, false
		}
		return present(rv.Index(idx))
	default:
	}
	return nil, false
}

func present(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil, false
		}
	default:
	}
	if !v.CanInterface() {
		return nil, false
	}
	return v.Interface(), true
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	return name
}
