package reqlog

import (
	"encoding/json"
	"net/url"
	"strings"
)

const formContentType = "application/x-www-form-urlencoded"

// DecodeBody turns captured body bytes into a loggable value. JSON content
// types are parsed, falling back to the raw string on failure; form bodies
// become a field map; everything else is returned as a string. An empty body
// is absent.
func DecodeBody(raw []byte, contentType string) any {
	if len(raw) == 0 {
		return nil
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json"):
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
	case strings.HasPrefix(ct, formContentType):
		if vals, err := url.ParseQuery(string(raw)); err == nil {
			return ValuesMap(vals)
		}
	default:
	}
	return string(raw)
}

// ValuesMap flattens url.Values: single values become strings, repeated
// keys keep every value.
func ValuesMap(vals url.Values) map[string]any {
	out := make(map[string]any, len(vals))
	for k, vv := range vals {
		switch len(vv) {
		case 0:
		case 1:
			out[k] = vv[0]
		default:
			all := make([]any, len(vv))
			for i, v := range vv {
				all[i] = v
			}
			out[k] = all
		}
	}
	return out
}
