package engine

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/patterns"
)

// predicateNames are the mutually exclusive tests of an if line
var predicateNames = []string{
	"equal", "find", "inset", "regex", "lt", "gt", "le", "ge",
	"hasroles", "ismember", "isrole", "ischannel", "isdate", "format",
}

// dateLayouts are tried in order by --isdate
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04",
	"January 2, 2006",
	"2 January 2006",
}

// selectedPredicate returns the one predicate given on inv, or "" for a truthiness test
func selectedPredicate(inv *command.Invocation) (string, error) {
	var chosen []string
	for _, p := range predicateNames {
		if inv.Args.Has(p) || inv.Args.Flag(p) {
			chosen = append(chosen, p)
		}
	}
	switch len(chosen) {
	case 0:
		return "", nil
	case 1:
		return chosen[0], nil
	default:
		return "", usageError(inv, "only one test may be given, got --%s", strings.Join(chosen, ", --"))
	}
}

// evaluateCondition runs predicate against value. An error means the
// predicate could not be evaluated; the result is then false.
func evaluateCondition(ctx context.Context, inv *command.Invocation, predicate, value string) (bool, error) {
	origin := inv.Origin()
	h := inv.Env.Host()

	switch predicate {
	case "":
		return truthy(value), nil

	case "equal":
		return value == inv.Text("equal"), nil

	case "find":
		return strings.Contains(strings.ToLower(value), strings.ToLower(inv.Text("find"))), nil

	case "inset":
		set, _ := inv.Scope.Get(inv.Text("inset"))
		return slices.Contains(splitSet(set), value), nil

	case "regex":
		re, err := regexp.Compile(inv.Text("regex"))
		if err != nil {
			return false, fmt.Errorf("invalid regular expression: %w", err)
		}
		return re.MatchString(value), nil

	case "lt":
		return compareValues(value, inv.Text("lt")) < 0, nil
	case "gt":
		return compareValues(value, inv.Text("gt")) > 0, nil
	case "le":
		return compareValues(value, inv.Text("le")) <= 0, nil
	case "ge":
		return compareValues(value, inv.Text("ge")) >= 0, nil

	case "hasroles":
		member, err := h.FindMember(ctx, origin, value)
		if err != nil {
			return false, err
		}
		if member == nil {
			return false, nil
		}
		for _, query := range inv.Texts("hasroles") {
			role, err := h.FindRole(ctx, origin, query)
			if err != nil {
				return false, err
			}
			if role != nil && member.HasRole(role.ID) {
				return true, nil
			}
		}
		return false, nil

	case "ismember":
		member, err := h.FindMember(ctx, origin, value)
		return member != nil, err

	case "isrole":
		role, err := h.FindRole(ctx, origin, value)
		return role != nil, err

	case "ischannel":
		channel, err := h.FindChannel(ctx, origin, value)
		return channel != nil, err

	case "isdate":
		return isDate(value), nil

	case "format":
		return patterns.Match(value, inv.Text("format"))
	}

	return false, fmt.Errorf("unknown test --%s", predicate)
}

// compareValues orders a and b numerically when both are numbers, lexicographically otherwise
func compareValues(a, b string) int {
	x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func isDate(value string) bool {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// findMember resolves a member argument, failing when nothing matches
func findMember(ctx context.Context, inv *command.Invocation, query string) (*host.Member, error) {
	member, err := inv.Env.Host().FindMember(ctx, inv.Origin(), query)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("member '%s' not found", query)
	}
	return member, nil
}
