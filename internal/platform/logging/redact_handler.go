package logging

import (
	"log/slog"
	"regexp"
	"slices"

	"github.com/m-mizutani/masq"
)

// SensitiveHeaders holds the lowercase names of headers that carry
// credentials. The request logger's default header denylist is built from
// this set, and masq redacts attributes with these names.
var SensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"x-api-key":           true,
	"cookie":              true,
	"set-cookie":          true,
}

// sensitiveFields are attribute names redacted wherever they appear in a
// record, including inside logged request and response bodies.
var sensitiveFields = []string{"password", "secret", "token"}

var sensitivePrefixes = []string{"secret_", "api_key"}

// Value patterns for secrets that slip past field-name redaction.
var (
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`)
	// At least 10 characters per segment so version strings do not match.
	jwtPattern          = regexp.MustCompile(`[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}\.[a-zA-Z0-9\-_]{10,}`)
	apiKeyInlinePattern = regexp.MustCompile(`(?i)(api[_\-]?key|apikey)\s*[:=]\s*\S+`)
)

// newRedactAttr returns a masq ReplaceAttr for slog.HandlerOptions. extra
// adds field names on top of the built-in set; duplicates are ignored.
func newRedactAttr(extra ...string) func([]string, slog.Attr) slog.Attr {
	fields := make([]string, 0, len(SensitiveHeaders)+len(sensitiveFields)+len(extra))
	for name := range SensitiveHeaders {
		fields = append(fields, name)
	}
	fields = append(fields, sensitiveFields...)
	fields = append(fields, extra...)
	slices.Sort(fields)
	fields = slices.Compact(fields)

	opts := make([]masq.Option, 0, len(fields)+len(sensitivePrefixes)+3)
	for _, name := range fields {
		if name != "" {
			opts = append(opts, masq.WithFieldName(name))
		}
	}
	for _, prefix := range sensitivePrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}
	opts = append(opts,
		masq.WithRegex(bearerPattern),
		masq.WithRegex(jwtPattern),
		masq.WithRegex(apiKeyInlinePattern),
	)
	return masq.New(opts...)
}
