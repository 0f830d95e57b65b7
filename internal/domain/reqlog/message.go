package reqlog

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/valyala/fasttemplate"
)

// Built-in message templates.
const (
	DefaultMessage = "HTTP {{req.method}} {{req.url}}"
	ExpressMessage = "{{req.method}} {{req.url}} {{res.statusCode}} {{res.responseTime}}ms"
	ErrorMessage   = "middlewareError"
)

const (
	tagStart = "{{"
	tagEnd   = "}}"

	statusPath = "res.statusCode"
)

// MessageFunc builds a message from the exchange. A result containing
// placeholders is rendered once more against the exchange.
type MessageFunc func(x *Exchange) string

// FormatterConfig selects the message source. Func takes precedence over
// Express, which takes precedence over Template.
type FormatterConfig struct {
	Template string
	Func     MessageFunc
	Express  bool
	Colorize bool
}

// Formatter renders log messages. It is safe for concurrent use.
type Formatter struct {
	tmpl     *fasttemplate.Template
	fn       MessageFunc
	colorize bool
}

var (
	grey   = newColor(color.FgHiBlack)
	green  = newColor(color.FgGreen)
	cyan   = newColor(color.FgCyan)
	yellow = newColor(color.FgYellow)
	red    = newColor(color.FgRed)
)

func newColor(attr color.Attribute) *color.Color {
	c := color.New(attr)
	c.EnableColor()
	return c
}

// NewFormatter compiles the configured template once.
func NewFormatter(cfg FormatterConfig) (*Formatter, error) {
	f := &Formatter{fn: cfg.Func, colorize: cfg.Colorize}
	if f.fn != nil {
		return f, nil
	}

	src := cfg.Template
	switch {
	case cfg.Express && cfg.Colorize:
		src = grey.Sprint("{{req.method}} {{req.url}}") + " {{res.statusCode}} " + grey.Sprint("{{res.responseTime}}ms")
	case cfg.Express:
		src = ExpressMessage
	case src == "":
		src = DefaultMessage
	}

	t, err := fasttemplate.NewTemplate(src, tagStart, tagEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	f.tmpl = t
	return f, nil
}

// Format renders the message for x. Unresolvable placeholders render empty.
func (f *Formatter) Format(x *Exchange) string {
	data := x.TemplateData()

	if f.fn != nil {
		msg := f.fn(x)
		if !strings.Contains(msg, tagStart) {
			return msg
		}
		t, err := fasttemplate.NewTemplate(msg, tagStart, tagEnd)
		if err != nil {
			return msg
		}
		return f.render(t, data, x.Status)
	}
	return f.render(f.tmpl, data, x.Status)
}

func (f *Formatter) render(t *fasttemplate.Template, data map[string]any, status int) string {
	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		path := strings.TrimSpace(tag)
		v, ok := Get(data, path)
		if !ok {
			return 0, nil
		}
		s := stringify(v)
		if f.colorize && path == statusPath {
			s = statusColor(status).Sprint(s)
		}
		return io.WriteString(w, s)
	})
}

// statusColor picks the color tier for a status code.
func statusColor(status int) *color.Color {
	switch {
	case status >= http.StatusInternalServerError:
		return red
	case status >= http.StatusBadRequest:
		return yellow
	case status >= http.StatusMultipleChoices:
		return cyan
	default:
		return green
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
