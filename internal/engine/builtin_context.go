package engine

import (
	"slices"
	"strings"

	"github.com/phillarmonic/praxis/internal/builtins"
	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/host"
)

// reservedNames can never be assigned by scripts. "n" stays assignable;
// the dispatch count is exposed as "iterations".
var reservedNames = []string{"user", "channel", "server", "user_avatar", "user_time", "params", "now"}

// isReserved reports whether name is a built-in or host pseudo variable
func isReserved(inv *command.Invocation, name string) bool {
	if slices.Contains(reservedNames, name) || builtins.IsBuiltin(name) {
		return true
	}
	for _, p := range host.PseudoNames {
		if strings.TrimPrefix(p, "@") == name {
			return true
		}
	}
	_, ok := inv.Env.Host().PseudoVariables(inv.Origin())[name]
	return ok
}

// ReservedNames lists every name scripts cannot assign, sorted
func ReservedNames() []string {
	names := slices.Clone(reservedNames)
	names = append(names, builtins.Names()...)
	for _, p := range host.PseudoNames {
		names = append(names, strings.TrimPrefix(p, "@"))
	}
	slices.Sort(names)
	return slices.Compact(names)
}
