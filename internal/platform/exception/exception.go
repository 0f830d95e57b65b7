// Package exception gathers diagnostic detail about an error for the error
// logger: the error itself, a stack trace, process state, and host load.
//
//	meta := exception.Collect(err)
//	// meta["error"], meta["stack"], meta["trace"], meta["process"], meta["os"], meta["date"]
package exception

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
)

// maxFrames bounds the captured stack depth.
const maxFrames = 64

// Stacker is implemented by errors that carry the program counters of the
// place they were created, such as recovered panics.
type Stacker interface {
	Callers() []uintptr
}

// Collect describes err as a metadata map with the keys error, type, date,
// process, os, trace, and stack. The stack is taken from the first error in
// the chain implementing Stacker, or from the caller of Collect otherwise.
// Host probes that fail are omitted.
func Collect(err error) map[string]any {
	pcs := callers(err)
	frames := framesOf(pcs)

	meta := map[string]any{
		"date":    time.Now().UTC().Format(time.RFC3339Nano),
		"process": processInfo(),
		"os":      osInfo(),
		"trace":   traceOf(frames),
		"stack":   stackOf(err, frames),
	}
	if err != nil {
		meta["error"] = err.Error()
		meta["type"] = fmt.Sprintf("%T", err)
	}
	return meta
}

// Capture returns the program counters of its caller's stack, skipping skip
// additional frames. Error types use it to implement Stacker.
func Capture(skip int) []uintptr {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

func callers(err error) []uintptr {
	var s Stacker
	if errors.As(err, &s) {
		if pcs := s.Callers(); len(pcs) > 0 {
			return pcs
		}
	}
	// Skip callers and Collect.
	return Capture(2)
}

func framesOf(pcs []uintptr) []runtime.Frame {
	out := make([]runtime.Frame, 0, len(pcs))
	frames := runtime.CallersFrames(pcs)
	for {
		f, more := frames.Next()
		if f.Function != "" {
			out = append(out, f)
		}
		if !more {
			break
		}
	}
	return out
}

func traceOf(frames []runtime.Frame) []map[string]any {
	trace := make([]map[string]any, 0, len(frames))
	for _, f := range frames {
		pkg, fn := splitFunction(f.Function)
		trace = append(trace, map[string]any{
			"file":     f.File,
			"line":     f.Line,
			"function": fn,
			"package":  pkg,
		})
	}
	return trace
}

func stackOf(err error, frames []runtime.Frame) []string {
	stack := make([]string, 0, len(frames)+1)
	if err != nil {
		stack = append(stack, err.Error())
	}
	for _, f := range frames {
		stack = append(stack, fmt.Sprintf("    at %s (%s:%d)", f.Function, f.File, f.Line))
	}
	return stack
}

// splitFunction splits "github.com/x/y/pkg.(*T).Method" into the import path
// and the qualified function name.
func splitFunction(full string) (string, string) {
	slash := strings.LastIndex(full, "/")
	dot := strings.Index(full[slash+1:], ".")
	if dot < 0 {
		return "", full
	}
	cut := slash + 1 + dot
	return full[:cut], full[cut+1:]
}

func processInfo() map[string]any {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	info := map[string]any{
		"pid":        os.Getpid(),
		"uid":        os.Getuid(),
		"gid":        os.Getgid(),
		"goVersion":  runtime.Version(),
		"argv":       os.Args,
		"goroutines": runtime.NumGoroutine(),
		"memoryUsage": map[string]any{
			"heapAlloc": ms.HeapAlloc,
			"heapSys":   ms.HeapSys,
			"sys":       ms.Sys,
			"numGC":     ms.NumGC,
		},
	}
	if cwd, err := os.Getwd(); err == nil {
		info["cwd"] = cwd
	}
	if exe, err := os.Executable(); err == nil {
		info["execPath"] = exe
	}
	return info
}

func osInfo() map[string]any {
	info := map[string]any{}
	if avg, err := load.Avg(); err == nil {
		info["loadavg"] = []float64{avg.Load1, avg.Load5, avg.Load15}
	}
	if up, err := host.Uptime(); err == nil {
		info["uptime"] = up
	}
	return info
}
