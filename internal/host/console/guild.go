package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/phillarmonic/praxis/internal/host"
)

// Guild describes the server simulated by the console host
type Guild struct {
	ID       string         `yaml:"id" toml:"id"`
	Name     string         `yaml:"name" toml:"name"`
	Prefix   string         `yaml:"prefix" toml:"prefix"`
	Owner    string         `yaml:"owner" toml:"owner"`
	Members  []host.Member  `yaml:"members" toml:"members"`
	Roles    []host.Role    `yaml:"roles" toml:"roles"`
	Channels []host.Channel `yaml:"channels" toml:"channels"`
}

func (g *Guild) String() string {
	return g.Name
}

// DefaultGuild is used when no fixture is configured
func DefaultGuild() *Guild {
	return &Guild{
		ID:     "1",
		Name:   "Praxis Lab",
		Prefix: "!",
		Owner:  "100",
		Members: []host.Member{
			{ID: "100", Name: "owner", Discriminator: "0001", Roles: []string{"10"}},
			{ID: "101", Name: "ada", Discriminator: "0002"},
			{ID: "900", Name: "praxis", Discriminator: "0000", Bot: true},
		},
		Roles: []host.Role{
			{ID: "10", Name: "Moderator"},
			{ID: "11", Name: "Member"},
		},
		Channels: []host.Channel{
			{ID: "20", Name: "general"},
			{ID: "21", Name: "logs"},
		},
	}
}

// LoadGuild reads a guild fixture from YAML or TOML, chosen by extension
func LoadGuild(path string) (*Guild, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guild fixture: %w", err)
	}

	var g Guild
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("failed to parse guild fixture: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &g); err != nil {
			return nil, fmt.Errorf("failed to parse guild fixture: %w", err)
		}
	}

	if g.ID == "" {
		return nil, fmt.Errorf("guild fixture %s has no id", path)
	}
	if g.Name == "" {
		g.Name = g.ID
	}
	return &g, nil
}

func (g *Guild) member(query string) *host.Member {
	if id, kind, ok := host.ParseMention(query); ok {
		if kind != "user" {
			return nil
		}
		query = id
	}
	for i := range g.Members {
		m := &g.Members[i]
		if m.ID == query || strings.EqualFold(m.Name, query) || strings.EqualFold(m.Tag(), query) {
			return m
		}
	}
	return nil
}

func (g *Guild) role(query string) *host.Role {
	if id, kind, ok := host.ParseMention(query); ok {
		if kind != "role" {
			return nil
		}
		query = id
	}
	for i := range g.Roles {
		r := &g.Roles[i]
		if r.ID == query || strings.EqualFold(r.Name, query) {
			return r
		}
	}
	return nil
}

func (g *Guild) channel(query string) *host.Channel {
	if id, kind, ok := host.ParseMention(query); ok {
		if kind != "channel" {
			return nil
		}
		query = id
	}
	query = strings.TrimPrefix(query, "#")
	for i := range g.Channels {
		c := &g.Channels[i]
		if c.ID == query || strings.EqualFold(c.Name, query) {
			return c
		}
	}
	return nil
}
