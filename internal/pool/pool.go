package pool

import (
	"strings"
	"sync"
)

// StringBuilderPool provides a pool of strings.Builder objects used while tokenizing and rendering
var StringBuilderPool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// GetStringBuilder gets a strings.Builder from the pool
func GetStringBuilder() *strings.Builder {
	sb := StringBuilderPool.Get().(*strings.Builder)
	sb.Reset()
	return sb
}

// PutStringBuilder returns a strings.Builder to the pool
func PutStringBuilder(sb *strings.Builder) {
	// 64KB limit
	if sb.Cap() < 64*1024 {
		StringBuilderPool.Put(sb)
	}
}

// FieldsPool provides reusable token slices for option parsing
var FieldsPool = sync.Pool{
	New: func() any {
		f := make([]string, 0, 16)
		return &f
	},
}

// GetFields gets an empty token slice from the pool
func GetFields() *[]string {
	f := FieldsPool.Get().(*[]string)
	*f = (*f)[:0]
	return f
}

// PutFields returns a token slice to the pool
func PutFields(f *[]string) {
	if cap(*f) < 1024 {
		clear((*f)[:cap(*f)])
		*f = (*f)[:0]
		FieldsPool.Put(f)
	}
}
