// Package backup dumps a server's global variables as a praxis script and
// packs it into a tar.gz archive
package backup

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/lexer"
	"github.com/phillarmonic/praxis/internal/store"
)

var log = commonlog.GetLogger("praxis.backup")

// dumpGrammar is the subset of set_variable that Dump emits
var dumpGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "name"},
		{Name: "value", Optional: true},
	},
	Options: []command.Option{
		{Name: "global", Kind: command.Flag},
		{Name: "setadd", Kind: command.Repeated},
	},
}

// Dump renders every global variable of serverID as set_variable lines,
// sorted by name. Multi-line values are written as a reset followed by one
// --setadd line per element.
func Dump(ctx context.Context, st store.Store, serverID string) ([]string, error) {
	vars, err := st.List(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list global variables: %w", err)
	}

	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	slices.Sort(names)

	var lines []string
	for _, name := range names {
		value := vars[name]
		if !strings.Contains(value, "\n") {
			lines = append(lines, fmt.Sprintf("set_variable %s %s --global", name, lexer.Quote(value)))
			continue
		}
		lines = append(lines, fmt.Sprintf("set_variable %s \"\" --global", name))
		for _, elem := range strings.Split(value, "\n") {
			if elem == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("set_variable %s --setadd %s --global", name, lexer.Quote(elem)))
		}
	}
	return lines, nil
}

// Apply writes the variables of a dump into the store for serverID. Values
// are taken literally; placeholders in them are not expanded. It returns the
// number of variables written.
func Apply(ctx context.Context, st store.Store, serverID, text string) (int, error) {
	tok := lexer.NewTokenizer(lexer.DefaultCommentMarker)
	written := make(map[string]bool)

	for i, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if tok.Skippable(raw) {
			continue
		}
		lineNo := i + 1

		name, options, err := tok.Split(raw)
		if err != nil {
			return len(written), fmt.Errorf("line %d: %w", lineNo, err)
		}
		if name != "set_variable" {
			return len(written), fmt.Errorf("line %d: unexpected command '%s' in dump", lineNo, name)
		}

		tokens, err := lexer.Fields(options)
		if err != nil {
			return len(written), fmt.Errorf("line %d: %w", lineNo, err)
		}
		args, err := dumpGrammar.Parse(tokens)
		if err != nil {
			return len(written), fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !args.Flag("global") {
			log.Warningf("line %d: restoring %s as a global although --global is missing", lineNo, args.String("name"))
		}

		varName := args.String("name")
		_, err = st.Update(ctx, serverID, varName, func(old string, _ bool) (string, error) {
			value := old
			if args.Has("value") {
				value = args.String("value")
			}
			for _, elem := range args.List("setadd") {
				if value == "" {
					value = elem
				} else if !slices.Contains(strings.Split(value, "\n"), elem) {
					value += "\n" + elem
				}
			}
			return value, nil
		})
		if err != nil {
			return len(written), fmt.Errorf("line %d: failed to restore %s: %w", lineNo, varName, err)
		}
		written[varName] = true
	}

	return len(written), nil
}
