// Package host defines what the script engine needs from a chat platform
package host

import (
	"context"
	"fmt"
	"strings"

	"github.com/phillarmonic/praxis/internal/scope"
)

// Member is a user of a server
type Member struct {
	ID            string   `yaml:"id" toml:"id" json:"id"`
	Name          string   `yaml:"name" toml:"name" json:"name"`
	Discriminator string   `yaml:"discriminator" toml:"discriminator" json:"discriminator,omitempty"`
	Avatar        string   `yaml:"avatar" toml:"avatar" json:"avatar,omitempty"`
	Bot           bool     `yaml:"bot" toml:"bot" json:"bot,omitempty"`
	Roles         []string `yaml:"roles" toml:"roles" json:"roles,omitempty"`
}

// Mention returns the member's mention markup
func (m *Member) Mention() string {
	return "<@" + m.ID + ">"
}

// Tag returns name#discriminator, or the name alone
func (m *Member) Tag() string {
	if m.Discriminator == "" {
		return m.Name
	}
	return m.Name + "#" + m.Discriminator
}

// HasRole reports whether the member holds the role with the given id
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// Role is a server role
type Role struct {
	ID   string `yaml:"id" toml:"id" json:"id"`
	Name string `yaml:"name" toml:"name" json:"name"`
}

func (r *Role) Mention() string {
	return "<@&" + r.ID + ">"
}

// Channel is a server text channel
type Channel struct {
	ID   string `yaml:"id" toml:"id" json:"id"`
	Name string `yaml:"name" toml:"name" json:"name"`
}

func (c *Channel) Mention() string {
	return "<#" + c.ID + ">"
}

// Embed is a rich message body
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Footer      string `json:"footer,omitempty"`
	Image       string `json:"image,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Message is what a script sends to a channel
type Message struct {
	Text  string `json:"text,omitempty"`
	Embed *Embed `json:"embed,omitempty"`
}

// RoleChange lists the role names actually added and removed
type RoleChange struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Host is implemented by chat platform adapters. Lookups return nil and no
// error when nothing matches. No method may panic into the engine.
type Host interface {
	// PseudoVariables returns the read-only variables for an invocation
	PseudoVariables(origin scope.Origin) map[string]string

	Send(ctx context.Context, origin scope.Origin, channel *Channel, msg Message) error
	FindMember(ctx context.Context, origin scope.Origin, query string) (*Member, error)
	FindRole(ctx context.Context, origin scope.Origin, query string) (*Role, error)
	FindChannel(ctx context.Context, origin scope.Origin, query string) (*Channel, error)
	Members(ctx context.Context, origin scope.Origin) ([]Member, error)
	ChangeRoles(ctx context.Context, origin scope.Origin, member *Member, add, remove []Role) (RoleChange, error)
	SetCommandPrefix(ctx context.Context, origin scope.Origin, prefix string) error

	// Report surfaces an error from a script line, filtered by the scope's verbosity
	Report(ctx context.Context, sc *scope.Scope, err error)
}

// Pseudo variable names every host is expected to provide
var PseudoNames = []string{"user", "@user", "user_avatar", "user_time", "channel", "@channel", "server"}

// ParseMention extracts the id from <@id>, <@!id>, <@&id> or <#id>.
// kind is "user", "role" or "channel".
func ParseMention(s string) (id, kind string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") || !strings.HasSuffix(s, ">") {
		return "", "", false
	}
	body := s[1 : len(s)-1]

	switch {
	case strings.HasPrefix(body, "@&"):
		id, kind = body[2:], "role"
	case strings.HasPrefix(body, "@!"):
		id, kind = body[2:], "user"
	case strings.HasPrefix(body, "@"):
		id, kind = body[1:], "user"
	case strings.HasPrefix(body, "#"):
		id, kind = body[1:], "channel"
	default:
		return "", "", false
	}
	if id == "" || strings.ContainsAny(id, " <>") {
		return "", "", false
	}
	return id, kind, true
}

// Nop is a host with no members, roles or channels that discards output
type Nop struct{}

func (Nop) PseudoVariables(origin scope.Origin) map[string]string {
	return map[string]string{
		"user":    stringOf(origin.User),
		"channel": stringOf(origin.Channel),
		"server":  stringOf(origin.Server),
	}
}

func (Nop) Send(context.Context, scope.Origin, *Channel, Message) error { return nil }

func (Nop) FindMember(context.Context, scope.Origin, string) (*Member, error) { return nil, nil }

func (Nop) FindRole(context.Context, scope.Origin, string) (*Role, error) { return nil, nil }

func (Nop) FindChannel(context.Context, scope.Origin, string) (*Channel, error) { return nil, nil }

func (Nop) Members(context.Context, scope.Origin) ([]Member, error) { return nil, nil }

func (Nop) ChangeRoles(context.Context, scope.Origin, *Member, []Role, []Role) (RoleChange, error) {
	return RoleChange{}, nil
}

func (Nop) SetCommandPrefix(context.Context, scope.Origin, string) error { return nil }

func (Nop) Report(context.Context, *scope.Scope, error) {}

func stringOf(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
