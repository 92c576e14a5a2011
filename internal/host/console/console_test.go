package console

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/phillarmonic/praxis/internal/host"
	"github.com/phillarmonic/praxis/internal/scope"
)

func init() {
	color.NoColor = true
}

func TestLoadGuildYAMLAndTOML(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "guild.yml")
	yamlFixture := `id: "7"
name: Test Guild
prefix: "?"
owner: "1"
members:
  - id: "1"
    name: alice
    roles: ["50"]
roles:
  - id: "50"
    name: Staff
channels:
  - id: "60"
    name: lobby
`
	if err := os.WriteFile(yamlPath, []byte(yamlFixture), 0644); err != nil {
		t.Fatal(err)
	}

	tomlPath := filepath.Join(dir, "guild.toml")
	tomlFixture := `id = "8"
name = "Toml Guild"

[[members]]
id = "2"
name = "bob"

[[channels]]
id = "61"
name = "general"
`
	if err := os.WriteFile(tomlPath, []byte(tomlFixture), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := LoadGuild(yamlPath)
	if err != nil {
		t.Fatalf("LoadGuild(yaml): %v", err)
	}
	if g.Name != "Test Guild" || g.Prefix != "?" || len(g.Members) != 1 || g.Members[0].Roles[0] != "50" {
		t.Errorf("unexpected yaml guild: %+v", g)
	}

	g, err = LoadGuild(tomlPath)
	if err != nil {
		t.Fatalf("LoadGuild(toml): %v", err)
	}
	if g.ID != "8" || g.Members[0].Name != "bob" || g.Channels[0].Name != "general" {
		t.Errorf("unexpected toml guild: %+v", g)
	}
}

func TestLoadGuildRequiresID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guild.yml")
	_ = os.WriteFile(path, []byte("name: nameless\n"), 0644)
	if _, err := LoadGuild(path); err == nil {
		t.Error("expected error for fixture without id")
	}
}

func TestOriginAndPseudoVariables(t *testing.T) {
	c := New(DefaultGuild(), &bytes.Buffer{})

	origin, err := c.Origin("ada", "logs")
	if err != nil {
		t.Fatal(err)
	}
	vars := c.PseudoVariables(origin)
	if vars["user"] != "ada#0002" || vars["@user"] != "<@101>" {
		t.Errorf("unexpected user pseudo variables: %v", vars)
	}
	if vars["channel"] != "logs" || vars["@channel"] != "<#21>" || vars["server"] != "Praxis Lab" {
		t.Errorf("unexpected channel/server pseudo variables: %v", vars)
	}

	if _, err := c.Origin("nobody", ""); err == nil {
		t.Error("expected error for unknown member")
	}

	origin, err = c.Origin("", "")
	if err != nil {
		t.Fatal(err)
	}
	if origin.User.(*host.Member).ID != "100" || origin.Channel.(*host.Channel).Name != "general" {
		t.Errorf("expected owner in first channel, got %+v", origin)
	}
}

func TestFindByMentionNameAndID(t *testing.T) {
	ctx := context.Background()
	c := New(DefaultGuild(), &bytes.Buffer{})
	origin, _ := c.Origin("", "")

	for _, q := range []string{"<@101>", "<@!101>", "ADA", "101", "ada#0002"} {
		m, err := c.FindMember(ctx, origin, q)
		if err != nil || m == nil || m.ID != "101" {
			t.Errorf("FindMember(%q) = %v, %v", q, m, err)
		}
	}
	if m, _ := c.FindMember(ctx, origin, "<@&10>"); m != nil {
		t.Error("role mention must not resolve to a member")
	}

	if r, _ := c.FindRole(ctx, origin, "<@&10>"); r == nil || r.Name != "Moderator" {
		t.Errorf("FindRole by mention = %v", r)
	}
	if ch, _ := c.FindChannel(ctx, origin, "#logs"); ch == nil || ch.ID != "21" {
		t.Errorf("FindChannel(#logs) = %v", ch)
	}
}

func TestChangeRoles(t *testing.T) {
	ctx := context.Background()
	c := New(DefaultGuild(), &bytes.Buffer{})
	origin, _ := c.Origin("", "")

	member, _ := c.FindMember(ctx, origin, "ada")
	mod, _ := c.FindRole(ctx, origin, "Moderator")
	memberRole, _ := c.FindRole(ctx, origin, "Member")

	change, err := c.ChangeRoles(ctx, origin, member, []host.Role{*mod, *memberRole}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(change.Added) != 2 {
		t.Errorf("expected 2 roles added, got %v", change.Added)
	}

	change, _ = c.ChangeRoles(ctx, origin, member, []host.Role{*mod}, []host.Role{*memberRole})
	if len(change.Added) != 0 || len(change.Removed) != 1 || change.Removed[0] != "Member" {
		t.Errorf("unexpected change: %+v", change)
	}

	again, _ := c.FindMember(ctx, origin, "ada")
	if !again.HasRole("10") || again.HasRole("11") {
		t.Errorf("role changes were not kept: %v", again.Roles)
	}
}

func TestSendAndReport(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	c := New(DefaultGuild(), &out)
	origin, _ := c.Origin("", "")

	_ = c.Send(ctx, origin, nil, host.Message{Text: "hello"})
	_ = c.Send(ctx, origin, &host.Channel{Name: "logs"}, host.Message{Embed: &host.Embed{Title: "Title", Footer: "foot"}})

	got := out.String()
	for _, want := range []string{"#general hello", "#logs", "Title", "foot"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, got)
		}
	}

	out.Reset()
	sc := scope.New(origin, scope.Guest)
	c.Report(ctx, sc, errors.New("visible"))
	if !strings.Contains(out.String(), "visible") {
		t.Errorf("expected report in output, got %q", out.String())
	}

	out.Reset()
	sc.SetVerbosity(scope.Silent)
	c.Report(ctx, sc, errors.New("hidden"))
	if out.Len() != 0 {
		t.Errorf("expected silent scope to suppress reports, got %q", out.String())
	}
}
