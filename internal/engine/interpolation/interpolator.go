package interpolation

import (
	"regexp"
	"strings"
)

var identifierRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether name is a valid variable name
func IsIdentifier(name string) bool {
	return identifierRegex.MatchString(name)
}

// Lookup resolves variable names to values
type Lookup interface {
	Get(name string) (string, bool)
}

// MapLookup adapts a plain map to Lookup
type MapLookup map[string]string

// Get implements Lookup
func (m MapLookup) Get(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// Interpolator replaces {{name}} and {{@name}} placeholders
type Interpolator struct {
	placeholderRegex *regexp.Regexp
}

// NewInterpolator creates a new interpolator
func NewInterpolator() *Interpolator {
	return &Interpolator{
		placeholderRegex: regexp.MustCompile(`\{\{([^{}]*)\}\}`),
	}
}

// Interpolate substitutes every placeholder in template in a single pass.
// Pseudo variables take precedence over vars; anything unresolved, including
// malformed names, becomes the empty string. Substituted values are never
// scanned again.
func (i *Interpolator) Interpolate(template string, vars Lookup, pseudo map[string]string) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	return i.placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		value, _ := i.resolve(strings.TrimSpace(match[2:len(match)-2]), vars, pseudo)
		return value
	})
}

// InterpolateAll interpolates each template
func (i *Interpolator) InterpolateAll(templates []string, vars Lookup, pseudo map[string]string) []string {
	out := make([]string, len(templates))
	for idx, t := range templates {
		out[idx] = i.Interpolate(t, vars, pseudo)
	}
	return out
}

// References lists the names referenced by placeholders in template, in order of appearance
func (i *Interpolator) References(template string) []string {
	var refs []string
	for _, m := range i.placeholderRegex.FindAllStringSubmatch(template, -1) {
		refs = append(refs, strings.TrimSpace(m[1]))
	}
	return refs
}

func (i *Interpolator) resolve(name string, vars Lookup, pseudo map[string]string) (string, bool) {
	if v, ok := pseudo[name]; ok {
		return v, true
	}

	// {{@name}} is only ever a pseudo variable
	if strings.HasPrefix(name, "@") || !IsIdentifier(name) {
		return "", false
	}

	if vars == nil {
		return "", false
	}
	return vars.Get(name)
}
