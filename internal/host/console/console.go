// Package console is a host that simulates one server on a terminal
package console

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"

	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/scope"
)

var (
	channelColor = color.New(color.FgCyan, color.Bold)
	titleColor   = color.New(color.FgMagenta, color.Bold)
	footerColor  = color.New(color.FgHiBlack)
)

// Console prints messages to a writer and keeps role changes in memory
type Console struct {
	mu       sync.Mutex
	guild    *Guild
	out      io.Writer
	filename string
	source   string
	now      func() time.Time
}

// New creates a console host for guild writing to out
func New(guild *Guild, out io.Writer) *Console {
	if guild == nil {
		guild = DefaultGuild()
	}
	return &Console{guild: guild, out: out, now: time.Now}
}

// Guild returns the simulated server
func (c *Console) Guild() *Guild {
	return c.guild
}

// SetSource records the script being run so reports can point at lines
func (c *Console) SetSource(filename, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filename = filename
	c.source = source
}

// Origin builds the invocation origin for a member speaking in a channel.
// Empty queries pick the guild owner and the first channel.
func (c *Console) Origin(userQuery, channelQuery string) (scope.Origin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if userQuery == "" {
		userQuery = c.guild.Owner
	}
	member := c.guild.member(userQuery)
	if member == nil {
		return scope.Origin{}, fmt.Errorf("member '%s' not found in %s", userQuery, c.guild.Name)
	}

	var channel *host.Channel
	if channelQuery == "" {
		if len(c.guild.Channels) > 0 {
			channel = &c.guild.Channels[0]
		}
	} else if channel = c.guild.channel(channelQuery); channel == nil {
		return scope.Origin{}, fmt.Errorf("channel '%s' not found in %s", channelQuery, c.guild.Name)
	}

	return scope.Origin{ServerID: c.guild.ID, User: member, Channel: channel, Server: c.guild}, nil
}

func (c *Console) PseudoVariables(origin scope.Origin) map[string]string {
	vars := map[string]string{
		"server":    c.guild.Name,
		"user_time": c.now().Format("2006-01-02 15:04:05"),
	}
	if m, ok := origin.User.(*host.Member); ok && m != nil {
		vars["user"] = m.Tag()
		vars["@user"] = m.Mention()
		vars["user_avatar"] = m.Avatar
	}
	if ch, ok := origin.Channel.(*host.Channel); ok && ch != nil {
		vars["channel"] = ch.Name
		vars["@channel"] = ch.Mention()
	}
	return vars
}

func (c *Console) Send(_ context.Context, origin scope.Origin, channel *host.Channel, msg host.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if channel == nil {
		channel, _ = origin.Channel.(*host.Channel)
	}
	name := "?"
	if channel != nil {
		name = channel.Name
	}

	channelColor.Fprintf(c.out, "#%s ", name)
	if msg.Text != "" {
		fmt.Fprintln(c.out, msg.Text)
	} else {
		fmt.Fprintln(c.out)
	}

	if e := msg.Embed; e != nil {
		if e.Title != "" {
			titleColor.Fprintf(c.out, "  ┃ %s\n", e.Title)
		}
		if e.Description != "" {
			fmt.Fprintf(c.out, "  ┃ %s\n", e.Description)
		}
		if e.Image != "" {
			fmt.Fprintf(c.out, "  ┃ [image] %s\n", e.Image)
		}
		if e.Thumbnail != "" {
			fmt.Fprintf(c.out, "  ┃ [thumbnail] %s\n", e.Thumbnail)
		}
		if e.Footer != "" {
			footerColor.Fprintf(c.out, "  ┃ %s\n", e.Footer)
		}
	}
	return nil
}

func (c *Console) FindMember(_ context.Context, _ scope.Origin, query string) (*host.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guild.member(query), nil
}

func (c *Console) FindRole(_ context.Context, _ scope.Origin, query string) (*host.Role, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guild.role(query), nil
}

func (c *Console) FindChannel(_ context.Context, _ scope.Origin, query string) (*host.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.guild.channel(query), nil
}

func (c *Console) Members(_ context.Context, _ scope.Origin) ([]host.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.guild.Members), nil
}

func (c *Console) ChangeRoles(_ context.Context, _ scope.Origin, member *host.Member, add, remove []host.Role) (host.RoleChange, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target := c.guild.member(member.ID)
	if target == nil {
		return host.RoleChange{}, fmt.Errorf("member '%s' not found", member.Name)
	}

	var change host.RoleChange
	for _, r := range add {
		if !target.HasRole(r.ID) {
			target.Roles = append(target.Roles, r.ID)
			change.Added = append(change.Added, r.Name)
		}
	}
	for _, r := range remove {
		if i := slices.Index(target.Roles, r.ID); i >= 0 {
			target.Roles = slices.Delete(target.Roles, i, i+1)
			change.Removed = append(change.Removed, r.Name)
		}
	}
	member.Roles = slices.Clone(target.Roles)
	return change, nil
}

func (c *Console) SetCommandPrefix(_ context.Context, _ scope.Origin, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guild.Prefix = prefix
	return nil
}

// Report prints errors unless the scope is silent
func (c *Console) Report(_ context.Context, sc *scope.Scope, err error) {
	if err == nil || (sc != nil && sc.Verbosity() == scope.Silent) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprint(c.out, perrors.FormatError(err, c.filename, c.source))
}
