package lexer

import (
	"strings"
	"unicode"

	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/pool"
)

// DefaultCommentMarker starts a comment line or a trailing comment
const DefaultCommentMarker = "#"

// Tokenizer splits script lines into a command name and its raw options
type Tokenizer struct {
	commentMarker string
}

// NewTokenizer creates a tokenizer using the given comment marker.
// An empty marker falls back to DefaultCommentMarker.
func NewTokenizer(commentMarker string) *Tokenizer {
	if commentMarker == "" {
		commentMarker = DefaultCommentMarker
	}
	return &Tokenizer{commentMarker: commentMarker}
}

// CommentMarker returns the marker this tokenizer treats as a comment start
func (t *Tokenizer) CommentMarker() string {
	return t.commentMarker
}

// Skippable reports whether a line is blank or a whole-line comment
func (t *Tokenizer) Skippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, t.commentMarker)
}

// Split returns the first whitespace-delimited token of line as the command
// name and the remainder, without any trailing comment, as the raw options.
// The name is returned even when the options are malformed so callers can
// still recognize block keywords.
func (t *Tokenizer) Split(line string) (name, options string, err error) {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	end := strings.IndexFunc(trimmed, unicode.IsSpace)
	if end < 0 {
		return trimmed, "", nil
	}

	name = trimmed[:end]
	rest := strings.TrimLeftFunc(trimmed[end:], unicode.IsSpace)

	cut, reason := t.scan(rest)
	if reason != "" {
		return name, "", &perrors.MalformedLineError{Text: line, Reason: reason}
	}
	return name, strings.TrimRightFunc(rest[:cut], unicode.IsSpace), nil
}

// scan walks s honoring quotes and escapes. It returns the offset of an
// unquoted trailing comment (or len(s)) and a reason when quoting is broken.
func (t *Tokenizer) scan(s string) (int, string) {
	var quote rune
	escaped := false
	tokenStart := true

	for i, r := range s {
		switch {
		case escaped:
			escaped = false
			tokenStart = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			}
		case quote == '"':
			if r == '\\' {
				escaped = true
			} else if r == '"' {
				quote = 0
			}
		case r == '\\':
			escaped = true
			tokenStart = false
		case r == '\'' || r == '"':
			quote = r
			tokenStart = false
		case unicode.IsSpace(r):
			tokenStart = true
		default:
			if tokenStart && strings.HasPrefix(s[i:], t.commentMarker) {
				return i, ""
			}
			tokenStart = false
		}
	}

	if quote != 0 {
		return len(s), "unterminated " + quoteName(quote) + " quote"
	}
	if escaped {
		return len(s), "dangling escape at end of line"
	}
	return len(s), ""
}

// Fields splits raw options into arguments. Single quotes are literal,
// double quotes allow \" and \\ escapes, and a backslash outside quotes
// escapes the next character. Adjacent quoted parts join into one argument.
func Fields(options string) ([]string, error) {
	buf := pool.GetStringBuilder()
	defer pool.PutStringBuilder(buf)

	scratch := pool.GetFields()
	defer pool.PutFields(scratch)

	var quote rune
	escaped := false
	inToken := false

	flush := func() {
		if inToken {
			*scratch = append(*scratch, buf.String())
			buf.Reset()
			inToken = false
		}
	}

	for _, r := range options {
		switch {
		case escaped:
			if quote == '"' && r != '"' && r != '\\' {
				buf.WriteRune('\\')
			}
			buf.WriteRune(r)
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			} else {
				buf.WriteRune(r)
			}
		case quote == '"':
			switch r {
			case '\\':
				escaped = true
			case '"':
				quote = 0
			default:
				buf.WriteRune(r)
			}
		case r == '\\':
			escaped = true
			inToken = true
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			buf.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, &perrors.MalformedLineError{Text: options, Reason: "unterminated " + quoteName(quote) + " quote"}
	}
	if escaped {
		return nil, &perrors.MalformedLineError{Text: options, Reason: "dangling escape at end of line"}
	}
	flush()

	fields := make([]string, len(*scratch))
	copy(fields, *scratch)
	return fields, nil
}

// Quote renders value as a single argument that Fields reads back unchanged
func Quote(value string) string {
	if value == "" {
		return `""`
	}
	if !strings.ContainsAny(value, " \t\n\r\"'\\#") {
		return value
	}

	sb := pool.GetStringBuilder()
	defer pool.PutStringBuilder(sb)

	sb.WriteByte('"')
	for _, r := range value {
		if r == '"' || r == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte('"')
	return sb.String()
}

func quoteName(q rune) string {
	if q == '\'' {
		return "single"
	}
	return "double"
}
