package command

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a named option
type Kind int

const (
	// String takes exactly one value
	String Kind = iota
	// Flag takes no value and defaults to false
	Flag
	// Repeated collects zero or more values up to the next option
	Repeated
)

// Positional is a positional argument
type Positional struct {
	Name     string
	Metavar  string
	Help     string
	Optional bool
}

// Option is a named --option
type Option struct {
	Name    string
	Short   string
	Metavar string
	Help    string
	Kind    Kind
}

// Grammar declares the arguments a command accepts
type Grammar struct {
	Positionals []Positional
	Options     []Option
}

// Args are parsed command arguments, still uninterpolated
type Args struct {
	positionals map[string]string
	strings     map[string]string
	flags       map[string]bool
	lists       map[string][]string
}

func newArgs() *Args {
	return &Args{
		positionals: make(map[string]string),
		strings:     make(map[string]string),
		flags:       make(map[string]bool),
		lists:       make(map[string][]string),
	}
}

// String returns a positional or string option value
func (a *Args) String(name string) string {
	if v, ok := a.positionals[name]; ok {
		return v
	}
	return a.strings[name]
}

// Has reports whether a positional, string option or repeated option was given
func (a *Args) Has(name string) bool {
	if _, ok := a.positionals[name]; ok {
		return true
	}
	if _, ok := a.strings[name]; ok {
		return true
	}
	_, ok := a.lists[name]
	return ok
}

// Flag reports whether a flag was given
func (a *Args) Flag(name string) bool {
	return a.flags[name]
}

// List returns the values of a repeated option
func (a *Args) List(name string) []string {
	return a.lists[name]
}

func (g *Grammar) lookup(token string) (*Option, string, bool) {
	var name, value string
	hasValue := false

	switch {
	case strings.HasPrefix(token, "--"):
		name = token[2:]
		if i := strings.IndexByte(name, '='); i >= 0 {
			name, value, hasValue = name[:i], name[i+1:], true
		}
		for i := range g.Options {
			if g.Options[i].Name == name {
				if hasValue {
					return &g.Options[i], value, true
				}
				return &g.Options[i], "", false
			}
		}
	case strings.HasPrefix(token, "-"):
		name = token[1:]
		for i := range g.Options {
			if g.Options[i].Short != "" && g.Options[i].Short == name {
				return &g.Options[i], "", false
			}
		}
	}
	return nil, "", false
}

// looksLikeOption reports whether token should be read as an option name
// rather than a value. Negative numbers are values.
func looksLikeOption(token string) bool {
	if len(token) < 2 || token[0] != '-' {
		return false
	}
	if _, err := strconv.ParseFloat(token, 64); err == nil {
		return false
	}
	return true
}

// Parse matches tokens against the grammar. Error messages are meant for
// the script author and are wrapped into a UsageError by the dispatcher.
func (g *Grammar) Parse(tokens []string) (*Args, error) {
	args := newArgs()
	var positionals []string
	optionsDone := false

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]

		if optionsDone || !looksLikeOption(tok) {
			positionals = append(positionals, tok)
			continue
		}
		if tok == "--" {
			optionsDone = true
			continue
		}

		opt, inline, hasInline := g.lookup(tok)
		if opt == nil {
			return nil, fmt.Errorf("unrecognized option '%s'", tok)
		}

		switch opt.Kind {
		case Flag:
			if hasInline {
				return nil, fmt.Errorf("option --%s takes no value", opt.Name)
			}
			args.flags[opt.Name] = true

		case String:
			if hasInline {
				args.strings[opt.Name] = inline
				continue
			}
			if i+1 >= len(tokens) || looksLikeOption(tokens[i+1]) {
				return nil, fmt.Errorf("option --%s expects a value", opt.Name)
			}
			i++
			args.strings[opt.Name] = tokens[i]

		case Repeated:
			values := args.lists[opt.Name]
			if values == nil {
				values = []string{}
			}
			if hasInline {
				values = append(values, inline)
			}
			for i+1 < len(tokens) && !looksLikeOption(tokens[i+1]) {
				i++
				values = append(values, tokens[i])
			}
			args.lists[opt.Name] = values
		}
	}

	idx := 0
	for _, p := range g.Positionals {
		if idx >= len(positionals) {
			if !p.Optional {
				return nil, fmt.Errorf("missing required argument %s", p.metavar())
			}
			continue
		}
		args.positionals[p.Name] = positionals[idx]
		idx++
	}
	if idx < len(positionals) {
		return nil, fmt.Errorf("unexpected argument '%s'", positionals[idx])
	}

	return args, nil
}

// Usage renders a one-line usage string for the command
func (g *Grammar) Usage(name string) string {
	var sb strings.Builder
	sb.WriteString(name)

	for _, p := range g.Positionals {
		sb.WriteByte(' ')
		if p.Optional {
			sb.WriteString("[" + p.metavar() + "]")
		} else {
			sb.WriteString(p.metavar())
		}
	}

	for _, o := range g.Options {
		sb.WriteString(" [--" + o.Name)
		switch o.Kind {
		case String:
			sb.WriteString(" " + o.metavar())
		case Repeated:
			sb.WriteString(" " + o.metavar() + " ...")
		}
		sb.WriteByte(']')
	}
	return sb.String()
}

// Help renders one line per argument with its description
func (g *Grammar) Help() []string {
	var lines []string
	for _, p := range g.Positionals {
		lines = append(lines, fmt.Sprintf("%-20s %s", p.metavar(), p.Help))
	}
	for _, o := range g.Options {
		label := "--" + o.Name
		if o.Short != "" {
			label = "-" + o.Short + ", " + label
		}
		lines = append(lines, fmt.Sprintf("%-20s %s", label, o.Help))
	}
	return lines
}

func (p Positional) metavar() string {
	if p.Metavar != "" {
		return p.Metavar
	}
	return strings.ToUpper(p.Name)
}

func (o Option) metavar() string {
	if o.Metavar != "" {
		return o.Metavar
	}
	return strings.ToUpper(o.Name)
}
