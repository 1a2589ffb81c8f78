package notification

import (
	"fmt"
	"runtime"
)

// Caller formats the call site skip frames above the function calling Caller
// as "file:line:in `function`". Caller(0) is the caller's own position.
// It returns "" when the stack is not that deep.
func Caller(skip int) string {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return ""
	}
	return formatFrame(file, line, runtime.FuncForPC(pc))
}

func formatFrame(file string, line int, fn *runtime.Func) string {
	if fn == nil {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return fmt.Sprintf("%s:%d:in `%s'", file, line, fn.Name())
}

// callers captures the stack skip frames above the function calling callers.
func callers(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		frame, more := frames.Next()
		if frame.Function != "" {
			out = append(out, fmt.Sprintf("%s:%d:in `%s'", frame.File, frame.Line, frame.Function))
		} else {
			out = append(out, fmt.Sprintf("%s:%d", frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return out
}
