package patterns

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
)

// PatternMacro is a named format that `if --format` can check values against
type PatternMacro struct {
	Name        string
	Pattern     string
	Description string

	re *regexp.Regexp
}

func macro(name, pattern, description string) PatternMacro {
	return PatternMacro{Name: name, Pattern: pattern, Description: description, re: regexp.MustCompile(pattern)}
}

// Built-in pattern macros
var builtinMacros = map[string]PatternMacro{
	"integer":         macro("integer", `^[+-]?\d+$`, "Whole number (e.g., 42, -7)"),
	"number":          macro("number", `^[+-]?(\d+(\.\d*)?|\.\d+)$`, "Decimal number (e.g., 3.14)"),
	"snowflake":       macro("snowflake", `^\d{15,20}$`, "Platform object id (e.g., 80351110224678912)"),
	"mention":         macro("mention", `^<(@!?|@&|#)\d+>$`, "Any user, role or channel mention"),
	"user_mention":    macro("user_mention", `^<@!?\d+>$`, "User mention (e.g., <@80351110224678912>)"),
	"role_mention":    macro("role_mention", `^<@&\d+>$`, "Role mention (e.g., <@&165511591545143296>)"),
	"channel_mention": macro("channel_mention", `^<#\d+>$`, "Channel mention (e.g., <#222197033908436994>)"),
	"emoji":           macro("emoji", `^<a?:\w{2,32}:\d+>$`, "Custom emoji (e.g., <:praxis:123456789012345678>)"),
	"url":             macro("url", `^https?://[^\s/$.?#].[^\s]*$`, "HTTP/HTTPS URL format"),
	"hex_color":       macro("hex_color", `^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`, "Hex color (e.g., #ff8800)"),
	"date":            macro("date", `^\d{4}-\d{2}-\d{2}$`, "Calendar date (e.g., 2024-01-31)"),
	"time":            macro("time", `^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`, "24h clock time (e.g., 18:30)"),
	"slug":            macro("slug", `^[a-z0-9]+(?:-[a-z0-9]+)*$`, "Lowercase words joined by hyphens (e.g., weekly-event)"),
}

// GetMacro returns a pattern macro by name
func GetMacro(name string) (PatternMacro, bool) {
	m, exists := builtinMacros[name]
	return m, exists
}

// Names returns the sorted macro names
func Names() []string {
	return slices.Sorted(maps.Keys(builtinMacros))
}

// Match reports whether value matches the named macro
func Match(value, macroName string) (bool, error) {
	m, exists := GetMacro(macroName)
	if !exists {
		return false, fmt.Errorf("unknown pattern macro: %s", macroName)
	}
	return m.re.MatchString(value), nil
}

// ValidatePattern validates a string against a pattern macro
func ValidatePattern(value, macroName string) error {
	matched, err := Match(value, macroName)
	if err != nil {
		return err
	}
	if !matched {
		m := builtinMacros[macroName]
		return fmt.Errorf("value '%s' does not match %s pattern (%s)", value, m.Name, m.Description)
	}
	return nil
}
