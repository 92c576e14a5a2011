package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/phillarmonic/praxis/internal/domain/command"
	"github.com/phillarmonic/praxis/internal/host"
)

// Domain: Host Commands
// These commands only talk to the host; the engine never sends anything on its own.

var sayGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "message", Metavar: "MESSAGE", Help: "Text to send"},
	},
	Options: []command.Option{
		{Name: "channel", Short: "c", Metavar: "CHANNEL", Kind: command.String, Help: "Channel where to send the message"},
		{Name: "title", Short: "t", Metavar: "TEXT", Kind: command.String, Help: "Embed title"},
		{Name: "description", Short: "d", Metavar: "TEXT", Kind: command.String, Help: "Embed description"},
		{Name: "footer", Short: "f", Metavar: "TEXT", Kind: command.String, Help: "Embed footer"},
		{Name: "image", Short: "i", Metavar: "URL", Kind: command.String, Help: "Embed image"},
		{Name: "thumbnail", Short: "m", Metavar: "URL", Kind: command.String, Help: "Embed thumbnail"},
	},
}

// executeSay sends a message, as an embed when any embed option is given
func executeSay(ctx context.Context, inv *command.Invocation) error {
	h := inv.Env.Host()
	origin := inv.Origin()

	var channel *host.Channel
	if inv.Args.Has("channel") {
		query := inv.Text("channel")
		found, err := h.FindChannel(ctx, origin, query)
		if err != nil {
			return err
		}
		if found == nil {
			return fmt.Errorf("channel '%s' not found", query)
		}
		channel = found
	}

	msg := host.Message{Text: inv.Text("message")}
	for _, opt := range []string{"title", "description", "footer", "image", "thumbnail"} {
		if inv.Args.Has(opt) {
			msg.Embed = &host.Embed{
				Title:       inv.Text("title"),
				Description: inv.Text("description"),
				Footer:      inv.Text("footer"),
				Image:       inv.Text("image"),
				Thumbnail:   inv.Text("thumbnail"),
			}
			break
		}
	}

	return h.Send(ctx, origin, channel, msg)
}

var changeRolesGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "member", Metavar: "MEMBER", Help: "Member whose roles change"},
	},
	Options: []command.Option{
		{Name: "add", Metavar: "ROLE", Kind: command.Repeated, Help: "Roles to add"},
		{Name: "remove", Metavar: "ROLE", Kind: command.Repeated, Help: "Roles to remove"},
		{Name: "silent", Short: "s", Kind: command.Flag, Help: "Do not print the changes"},
	},
}

// executeChangeRoles adds and removes roles. Unknown roles are ignored.
func executeChangeRoles(ctx context.Context, inv *command.Invocation) error {
	h := inv.Env.Host()
	origin := inv.Origin()

	member, err := findMember(ctx, inv, inv.Text("member"))
	if err != nil {
		return err
	}

	add, err := resolveRoles(ctx, inv, inv.Texts("add"))
	if err != nil {
		return err
	}
	remove, err := resolveRoles(ctx, inv, inv.Texts("remove"))
	if err != nil {
		return err
	}

	change, err := h.ChangeRoles(ctx, origin, member, add, remove)
	if err != nil {
		return fmt.Errorf("roles of %s can't be changed: %w", member.Name, err)
	}
	if inv.Args.Flag("silent") {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The following roles have been changed for %s:", member.Name)
	for _, name := range change.Added {
		b.WriteString("\n + " + name)
	}
	for _, name := range change.Removed {
		b.WriteString("\n - " + name)
	}
	return h.Send(ctx, origin, nil, host.Message{Text: b.String()})
}

func resolveRoles(ctx context.Context, inv *command.Invocation, queries []string) ([]host.Role, error) {
	var roles []host.Role
	for _, query := range queries {
		role, err := inv.Env.Host().FindRole(ctx, inv.Origin(), query)
		if err != nil {
			return nil, err
		}
		if role == nil {
			log.Debugf("ignoring unknown role '%s'", query)
			continue
		}
		roles = append(roles, *role)
	}
	return roles, nil
}

var setCommandPrefixGrammar = &command.Grammar{
	Positionals: []command.Positional{
		{Name: "prefix", Metavar: "PREFIX", Help: "Prefix used to write commands"},
	},
}

// executeSetCommandPrefix changes the server's command prefix
func executeSetCommandPrefix(ctx context.Context, inv *command.Invocation) error {
	h := inv.Env.Host()
	prefix := inv.Text("prefix")
	if strings.TrimSpace(prefix) == "" {
		return usageError(inv, "prefix cannot be empty")
	}
	if err := h.SetCommandPrefix(ctx, inv.Origin(), prefix); err != nil {
		return fmt.Errorf("can't change the command prefix: %w", err)
	}
	return h.Send(ctx, inv.Origin(), nil, host.Message{Text: "Command prefix changed to ``" + prefix + "``."})
}

// executeForMembers runs the rest of the line once per member that is not a
// bot, with iter bound to the member mention and iter_name to its tag
func executeForMembers(ctx context.Context, inv *command.Invocation) error {
	line := strings.TrimSpace(inv.Raw)
	if line == "" {
		return usageError(inv, "missing command to run for each member")
	}

	members, err := inv.Env.Host().Members(ctx, inv.Origin())
	if err != nil {
		return err
	}

	parent := inv.Scope
	child := parent.Derive()
	for _, m := range members {
		if m.Bot {
			continue
		}
		if child.Aborted() {
			break
		}
		child.Set("iter", m.Mention())
		child.Set("iter_name", m.Tag())
		inv.Env.Execute(ctx, []string{line}, inv.Line, child)
	}
	parent.Merge(child)
	return nil
}
