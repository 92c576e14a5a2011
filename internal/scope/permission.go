package scope

import (
	"fmt"
	"strings"
)

// Permission is an ordered access level; a higher value grants more
type Permission int

const (
	Guest Permission = iota
	Script
	Admin
	Owner
)

var permissionNames = []string{"guest", "script", "admin", "owner"}

func (p Permission) String() string {
	if p < Guest || p > Owner {
		return fmt.Sprintf("permission(%d)", int(p))
	}
	return permissionNames[p]
}

// AtLeast reports whether p satisfies min
func (p Permission) AtLeast(min Permission) bool {
	return p >= min
}

// ParsePermission reads a permission level by name (case-insensitive)
func ParsePermission(s string) (Permission, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range permissionNames {
		if n == name {
			return Permission(i), nil
		}
	}
	return Guest, fmt.Errorf("unknown permission level '%s' (expected one of %s)", s, strings.Join(permissionNames, ", "))
}

// Verbosity controls how much feedback the host emits for a script
type Verbosity int

const (
	Normal Verbosity = iota
	Silent
	Verbose
)

func (v Verbosity) String() string {
	switch v {
	case Silent:
		return "silent"
	case Verbose:
		return "verbose"
	default:
		return "normal"
	}
}

// ParseVerbosity reads a verbosity by name; the empty string is Normal
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return Normal, nil
	case "silent", "quiet":
		return Silent, nil
	case "verbose":
		return Verbose, nil
	}
	return Normal, fmt.Errorf("unknown verbosity '%s'", s)
}
