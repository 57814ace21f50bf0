package command

import (
	"context"
	"time"
)

type Handler func(ctx context.Context, inv *Invocation) error

// Descriptor is the static definition of a slash command. Instances are
// registered once at startup and never mutated afterwards.
type Descriptor struct {
	Name            string
	Description     string
	Cooldown        time.Duration
	UserPermissions int64
	BotPermissions  int64
	NSFW            bool
	AllowDM         bool
	Enabled         bool
	DevOnly         bool
	GuildOnly       []string
	UserOnly        []string
	CooldownExempt  []string
	Run             Handler
	Autocomplete    Handler
}

// SubDescriptor is keyed by a dotted path: command[.group].sub.
type SubDescriptor struct {
	Path    string
	Enabled bool
	Run     Handler
}

type User struct {
	ID       string
	Username string
}

type Choice struct {
	Name  string
	Value any
}

// Responder is the reply surface of one interaction.
type Responder interface {
	Reply(content string, ephemeral bool) error
	Defer(ephemeral bool) error
	Edit(content string) error
	Suggest(choices []Choice) error
}

// Invocation carries everything a handler needs about one inbound interaction.
type Invocation struct {
	Command     string
	Group       string
	Sub         string
	GuildID     string
	ChannelID   string
	ChannelNSFW bool
	User        User
	Options     map[string]any
	Focused     string
	Responder   Responder
}

func (inv *Invocation) InGuild() bool {
	return inv.GuildID != ""
}

// Path returns the dotted subcommand path, or "" when the invocation has no
// subcommand.
func (inv *Invocation) Path() string {
	if inv.Sub == "" {
		return ""
	}
	path := inv.Command
	if inv.Group != "" {
		path += "." + inv.Group
	}
	return path + "." + inv.Sub
}

func (inv *Invocation) StringOption(name string) (string, bool) {
	value, ok := inv.Options[name].(string)
	return value, ok
}

func (inv *Invocation) IntOption(name string) (int64, bool) {
	value, ok := inv.Options[name].(int64)
	return value, ok
}

func (inv *Invocation) BoolOption(name string) (bool, bool) {
	value, ok := inv.Options[name].(bool)
	return value, ok
}
