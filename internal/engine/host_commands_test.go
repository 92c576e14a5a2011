package engine

import (
	"errors"
	"strings"
	"testing"

	perrors "github.com/phillarmonic/praxis/internal/errors"
	"github.com/phillarmonic/praxis/internal/scope"
)

func TestSay(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `say "hello {{user}}"
say "to logs" --channel logs
say "" --title Title -d Body --footer Foot`, scope.Guest)

	sent := env.recorder.Sent()
	if len(sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(sent))
	}
	if sent[0].Message.Text != "hello owner#0001" || sent[0].Message.Embed != nil {
		t.Errorf("message 0 = %+v", sent[0])
	}
	if sent[1].Channel != "logs" {
		t.Errorf("message 1 went to %q, want logs", sent[1].Channel)
	}
	embed := sent[2].Message.Embed
	if embed == nil || embed.Title != "Title" || embed.Description != "Body" || embed.Footer != "Foot" {
		t.Errorf("message 2 embed = %+v", embed)
	}

	output := env.output.String()
	if !strings.Contains(output, "#logs to logs") || !strings.Contains(output, "┃ Title") {
		t.Errorf("unexpected console output:\n%s", output)
	}
}

func TestSayUnknownChannel(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "say hi --channel nowhere\nsay after", scope.Guest)

	assertTexts(t, env.recorder.Texts(), "after")
	var handler *perrors.HandlerError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &handler) || !strings.Contains(handler.Error(), "nowhere") {
		t.Errorf("reports = %v, want a HandlerError naming the channel", reports)
	}
}

func TestChangeRoles(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, `change_roles ada --add Member Moderator Ghost
change_roles ada --remove Moderator -s
if ada --hasroles Moderator
say still-moderator
endif`, scope.Script)

	assertTexts(t, env.recorder.Texts(), "The following roles have been changed for ada:\n + Member\n + Moderator")

	ada := env.console.Guild().Members[1]
	if len(ada.Roles) != 1 || ada.Roles[0] != "11" {
		t.Errorf("ada roles = %v, want [11]", ada.Roles)
	}
}

func TestChangeRolesUnknownMember(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "change_roles ghost --add Member", scope.Script)

	reports := env.recorder.Reports()
	if len(reports) != 1 || !strings.Contains(reports[0].Error(), "member 'ghost' not found") {
		t.Errorf("reports = %v", reports)
	}
}

func TestSetCommandPrefix(t *testing.T) {
	tests := []struct {
		name   string
		perm   scope.Permission
		prefix string
		sent   []string
	}{
		{"admin", scope.Admin, "?", []string{"Command prefix changed to ``?``."}},
		{"owner", scope.Owner, "$$", []string{"Command prefix changed to ``$$``."}},
		{"script is not enough", scope.Script, "!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.run(t, "set_command_prefix "+tt.prefix, tt.perm)

			assertTexts(t, env.recorder.Texts(), tt.sent...)
			if tt.sent != nil && env.recorder.Prefix() != tt.prefix {
				t.Errorf("prefix = %q, want %q", env.recorder.Prefix(), tt.prefix)
			}
			if tt.sent == nil {
				var perm *perrors.PermissionError
				reports := env.recorder.Reports()
				if len(reports) != 1 || !errors.As(reports[0], &perm) {
					t.Errorf("reports = %v, want one PermissionError", reports)
				}
				if env.console.Guild().Prefix != "!" {
					t.Error("prefix must not change without permission")
				}
			}
		})
	}
}

func TestForMembers(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, `for_members set_variable seen --setadd {{iter}}
for_members say "hi {{iter_name}}"`, scope.Owner)

	assertTexts(t, env.recorder.Texts(), "hi owner#0001", "hi ada#0002")

	seen, _ := sc.Get("seen")
	if got := splitSet(seen); len(got) != 2 || got[0] != "<@100>" || got[1] != "<@101>" {
		t.Errorf("seen = %q, want both human members", got)
	}
}

func TestForMembersNeedsOwner(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, "for_members say hi", scope.Admin)

	assertTexts(t, env.recorder.Texts())
	var perm *perrors.PermissionError
	reports := env.recorder.Reports()
	if len(reports) != 1 || !errors.As(reports[0], &perm) || perm.Required != "owner" {
		t.Errorf("reports = %v, want PermissionError requiring owner", reports)
	}
}

func TestForMembersStopsOnExit(t *testing.T) {
	env := newTestEnv(t)
	sc := env.run(t, "for_members exit\nsay after", scope.Owner)
	if !sc.Aborted() {
		t.Error("exit inside for_members must abort the caller")
	}
	assertTexts(t, env.recorder.Texts())
}
