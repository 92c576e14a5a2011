package interpolation

import (
	"reflect"
	"testing"
)

func TestInterpolate(t *testing.T) {
	interp := NewInterpolator()
	vars := MapLookup{"name": "Ada", "count": "3", "nested": "{{name}}"}
	pseudo := map[string]string{"user": "ada#0001", "@user": "<@42>", "n": "7"}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"no placeholders", "plain text", "plain text"},
		{"variable", "hello {{name}}", "hello Ada"},
		{"spaces inside braces", "{{ count }} items", "3 items"},
		{"missing variable", "{{missing}}", ""},
		{"pseudo variable", "from {{user}}", "from ada#0001"},
		{"mention pseudo", "hi {{@user}}", "hi <@42>"},
		{"unknown mention", "hi {{@nobody}}", "hi "},
		{"invalid identifier", "{{1abc}}|{{a-b}}", "|"},
		{"single pass", "{{nested}}", "{{name}}"},
		{"multiple", "{{name}}:{{count}}:{{n}}", "Ada:3:7"},
		{"unbalanced braces untouched", "{{name}", "{{name}"},
		{"empty placeholder", "a{{}}b", "ab"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := interp.Interpolate(tt.template, vars, pseudo); got != tt.want {
				t.Errorf("Interpolate(%q) = %q, want %q", tt.template, got, tt.want)
			}
		})
	}
}

func TestInterpolatePseudoShadowsVars(t *testing.T) {
	interp := NewInterpolator()
	got := interp.Interpolate("{{user}}", MapLookup{"user": "shadowed"}, map[string]string{"user": "real"})
	if got != "real" {
		t.Errorf("expected pseudo variable to win, got %q", got)
	}
}

func TestInterpolateNilLookup(t *testing.T) {
	interp := NewInterpolator()
	if got := interp.Interpolate("[{{missing}}]", nil, nil); got != "[]" {
		t.Errorf("expected empty substitution, got %q", got)
	}
}

func TestReferences(t *testing.T) {
	interp := NewInterpolator()
	got := interp.References("{{a}} and {{ @b }} and {{a}}")
	want := []string{"a", "@b", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("References = %v, want %v", got, want)
	}
}

func TestIsIdentifier(t *testing.T) {
	for name, want := range map[string]bool{
		"x":         true,
		"_private":  true,
		"var_2":     true,
		"2var":      false,
		"":          false,
		"with-dash": false,
		"@user":     false,
	} {
		if got := IsIdentifier(name); got != want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", name, got, want)
		}
	}
}
