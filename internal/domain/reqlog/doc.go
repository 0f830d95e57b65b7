// Package reqlog contains the transport-neutral core of request logging:
// dotted-path access over nested values, allow/deny projection, level
// resolution, message templating, and metadata assembly.
//
// Projection of a request view down to an allow-list:
//
//	meta := reqlog.Project(src, reqlog.FilterSpec{Allow: []string{"method", "url", "headers"}}, nil, deny)
//
// Level resolution with status tiers:
//
//	levels := reqlog.DefaultStatusLevels()
//	r := reqlog.LevelResolver{Static: "info", Tiers: &levels}
//	r.Resolve(x) // "warn" for a 403
//
// Message formatting:
//
//	f, err := reqlog.NewFormatter(reqlog.FormatterConfig{Template: reqlog.DefaultMessage})
//	f.Format(x) // "HTTP GET /hello"
//
// Nothing in this package performs I/O. The HTTP middleware builds the
// request/response views and hands the assembled Entry to a dispatcher.
package reqlog
