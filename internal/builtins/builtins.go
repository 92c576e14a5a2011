package builtins

import (
	"maps"
	"slices"
	"strconv"
	"time"
)

// Context is what built-in variables are computed from
type Context struct {
	Iterations int
	Now        time.Time
}

// BuiltinFunction computes one read-only variable
type BuiltinFunction func(ctx Context) string

// Registry holds all built-in variables
var Registry = map[string]BuiltinFunction{
	"iterations": iterationCount,
	"now":        formatCurrentTime,
	"date":       currentDate,
	"time":       currentTime,
	"weekday":    currentWeekday,
	"timestamp":  unixTimestamp,
}

// iterationCount returns the number of commands dispatched so far
func iterationCount(ctx Context) string {
	return strconv.Itoa(ctx.Iterations)
}

// formatCurrentTime formats the current time
func formatCurrentTime(ctx Context) string {
	return ctx.Now.Format("2006-01-02 15:04:05")
}

func currentDate(ctx Context) string {
	return ctx.Now.Format("2006-01-02")
}

func currentTime(ctx Context) string {
	return ctx.Now.Format("15:04")
}

func currentWeekday(ctx Context) string {
	return ctx.Now.Weekday().String()
}

func unixTimestamp(ctx Context) string {
	return strconv.FormatInt(ctx.Now.Unix(), 10)
}

// Names returns the sorted built-in variable names
func Names() []string {
	return slices.Sorted(maps.Keys(Registry))
}

// IsBuiltin checks if a name is a built-in variable
func IsBuiltin(name string) bool {
	_, exists := Registry[name]
	return exists
}

// Resolve computes every built-in variable into dst, creating it when nil
func Resolve(ctx Context, dst map[string]string) map[string]string {
	if dst == nil {
		dst = make(map[string]string, len(Registry))
	}
	for name, fn := range Registry {
		dst[name] = fn(ctx)
	}
	return dst
}
